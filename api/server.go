// Package api exposes the credit scoring engine, the SAP mirror and the
// sync worker controls over HTTP.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"revvo-sap-connector/auth"
	"revvo-sap-connector/cache"
	"revvo-sap-connector/credit"
	"revvo-sap-connector/database"
	"revvo-sap-connector/metrics"
	"revvo-sap-connector/realtime"
)

// SyncTrigger starts a one-off sync run outside the schedule.
type SyncTrigger interface {
	TriggerNow(ctx context.Context) (*database.SyncLog, error)
}

// Server handles HTTP API requests
type Server struct {
	scorer   *credit.Scorer
	repo     *database.Repository
	redis    *cache.RedisClient
	broker   *realtime.Broker
	authSvc  *auth.Service
	triggers map[string]SyncTrigger

	httpServer *http.Server
}

// NewServer creates a new API server instance. redis may be nil
// (caching disabled).
func NewServer(scorer *credit.Scorer, repo *database.Repository, redis *cache.RedisClient, broker *realtime.Broker, authSvc *auth.Service) *Server {
	return &Server{
		scorer:   scorer,
		repo:     repo,
		redis:    redis,
		broker:   broker,
		authSvc:  authSvc,
		triggers: make(map[string]SyncTrigger),
	}
}

// RegisterTrigger makes a sync task manually triggerable over the API.
func (s *Server) RegisterTrigger(syncType string, trigger SyncTrigger) {
	s.triggers[syncType] = trigger
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()

	// Credit scoring
	protected.HandleFunc("POST /api/credit/calculate", s.handleCalculateScore)
	protected.HandleFunc("POST /api/credit/batch", s.handleCalculateBatch)
	protected.HandleFunc("POST /api/credit/ks", s.handleCalculateKS)
	protected.HandleFunc("GET /api/credit/dashboard/{customer}", s.handleDashboard)
	protected.HandleFunc("GET /api/credit/statistics", s.handleStatistics)

	// Mirror reads
	protected.HandleFunc("GET /api/customers", s.handleGetCustomers)
	protected.HandleFunc("GET /api/customers/{code}", s.handleGetCustomer)
	protected.HandleFunc("GET /api/customers/{code}/orders", s.handleGetCustomerOrders)
	protected.HandleFunc("GET /api/sales-orders", s.handleGetRecentOrders)
	protected.HandleFunc("GET /api/sales-orders/{order}", s.handleGetSalesOrder)
	protected.HandleFunc("GET /api/credit-limits", s.handleGetCreditLimits)
	protected.HandleFunc("GET /api/credit-limits/{code}", s.handleGetCreditLimit)

	// Sync control
	protected.HandleFunc("GET /api/sync/status", s.handleSyncStatus)
	protected.HandleFunc("GET /api/sync/logs", s.handleSyncLogs)
	protected.HandleFunc("POST /api/sync/trigger/{type}", s.handleSyncTrigger)

	// Realtime events
	protected.Handle("GET /api/events", s.broker)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authSvc.Middleware(protected))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server on the specified port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	log.Printf("🚀 API server starting on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
