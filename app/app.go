// Package app wires the SAP connector together: configuration, Postgres,
// Redis, the CPI gateway client, the scoring engine, the sync workers and
// the HTTP API.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revvo-sap-connector/api"
	"revvo-sap-connector/auth"
	"revvo-sap-connector/cache"
	"revvo-sap-connector/config"
	"revvo-sap-connector/credit"
	"revvo-sap-connector/database"
	"revvo-sap-connector/notifications"
	"revvo-sap-connector/realtime"
	"revvo-sap-connector/sap"
	"revvo-sap-connector/workers"
)

// shutdownTimeout bounds the graceful stop of the HTTP server.
const shutdownTimeout = 10 * time.Second

// App is the assembled connector.
type App struct {
	cfg    *config.Config
	db     *database.Database
	redis  *cache.RedisClient
	server *api.Server

	runners []*workers.Runner
	cancel  context.CancelFunc
}

// fanoutNotifier forwards sync outcomes to every registered sink.
type fanoutNotifier []workers.Notifier

func (f fanoutNotifier) SyncFinished(syncLog *database.SyncLog) {
	for _, n := range f {
		n.SyncFinished(syncLog)
	}
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseUser, cfg.DatabasePassword)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	// nil when Redis is unreachable; caching is then disabled
	redis := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)

	gateway := sap.NewClient(cfg.SAPBaseURL, cfg.SAPOAuthURL, sap.Credentials{
		ClientID:     cfg.SAPClientID,
		ClientSecret: cfg.SAPClientSecret,
	})

	scorer := credit.NewScorer(gateway)
	repo := database.NewRepository(db)

	broker := realtime.NewBroker()
	notifier := fanoutNotifier{broker}
	if cfg.SyncWebhookURL != "" {
		notifier = append(notifier, notifications.NewWebhookNotifier(cfg.SyncWebhookURL))
	}

	customerWorker := workers.NewCustomerWorker(gateway, repo, time.Duration(cfg.Workers.CustomerIntervalSeconds)*time.Second)
	salesWorker := workers.NewSalesWorker(gateway, repo, time.Duration(cfg.Workers.SalesIntervalSeconds)*time.Second)
	creditWorker := workers.NewCreditWorker(gateway, repo, time.Duration(cfg.Workers.CreditIntervalSeconds)*time.Second)

	customerRunner := workers.NewRunner(customerWorker, notifier)
	salesRunner := workers.NewRunner(salesWorker, notifier)
	creditRunner := workers.NewRunner(creditWorker, notifier)

	authSvc := auth.NewService(cfg.JWTSecretKey)

	server := api.NewServer(scorer, repo, redis, broker, authSvc)
	server.RegisterTrigger(database.SyncTypeCustomers, customerRunner)
	server.RegisterTrigger(database.SyncTypeSales, salesRunner)
	server.RegisterTrigger(database.SyncTypeCredit, creditRunner)

	app := &App{
		cfg:     cfg,
		db:      db,
		redis:   redis,
		server:  server,
		runners: []*workers.Runner{customerRunner, salesRunner, creditRunner},
	}

	go broker.Run()

	return app, nil
}

// Run starts the workers and the HTTP server and blocks until a shutdown
// signal arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	for _, runner := range a.runners {
		go runner.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.cfg.APIPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("🔄 received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			a.shutdown()
			return err
		}
	}

	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown error: %v", err)
	}
	if err := a.redis.Close(); err != nil {
		log.Printf("⚠️ Redis close error: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("⚠️ database close error: %v", err)
	}

	log.Println("✅ shutdown complete")
}
