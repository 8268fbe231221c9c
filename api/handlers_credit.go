package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"revvo-sap-connector/credit"
)

// dashboardCacheTTL is how long a built dashboard is served from Redis.
const dashboardCacheTTL = 5 * time.Minute

type calculateRequest struct {
	Customer      string `json:"customer"`
	CompanyCode   string `json:"company_code"`
	ReferenceDate string `json:"reference_date"`
}

func (s *Server) handleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "calculate_credit_score", "invalid JSON body")
		return
	}
	if req.Customer == "" {
		writeBadRequest(w, "calculate_credit_score", "customer is required")
		return
	}
	if req.CompanyCode == "" {
		req.CompanyCode = "1000"
	}

	result, err := s.scorer.CalculateCreditScore(r.Context(), req.Customer, req.CompanyCode, req.ReferenceDate)
	if err != nil {
		writeError(w, "calculate_credit_score", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req credit.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "calculate_batch_credit_scores", "invalid JSON body")
		return
	}
	if len(req.Customers) == 0 {
		writeBadRequest(w, "calculate_batch_credit_scores", "customers is required")
		return
	}
	if req.CompanyCode == "" {
		req.CompanyCode = "1000"
	}

	writeJSON(w, http.StatusOK, s.scorer.CalculateBatch(r.Context(), req))
}

type ksRequest struct {
	Clients []credit.KSClient `json:"clients"`
}

func (s *Server) handleCalculateKS(w http.ResponseWriter, r *http.Request) {
	var req ksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "calculate_ks_statistics", "invalid JSON body")
		return
	}

	writeJSON(w, http.StatusOK, credit.CalculateKS(req.Clients))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	customer := r.PathValue("customer")
	companyCode := companyCodeParam(r)

	cacheKey := fmt.Sprintf("dashboard:%s:%s", customer, companyCode)
	var cached credit.DashboardResponse
	if err := s.redis.Get(r.Context(), cacheKey, &cached); err == nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	dashboard, err := s.scorer.Dashboard(r.Context(), customer, companyCode)
	if err != nil {
		writeError(w, "get_customer_dashboard", err)
		return
	}

	// cache trouble is not a request failure
	if err := s.redis.Set(r.Context(), cacheKey, dashboard, dashboardCacheTTL); err != nil {
		log.Printf("⚠️ dashboard cache write failed for %s: %v", customer, err)
	}

	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"global_statistics": s.scorer.GlobalStats(),
		"model_weights":     s.scorer.Weights(),
		"model_parameters":  s.scorer.Parameters(),
	})
}
