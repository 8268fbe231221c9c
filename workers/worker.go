// Package workers runs the background synchronization loops that mirror
// SAP master data into the local Postgres store. Each entity has its own
// task; a shared Runner drives the tick/run/sleep cycle.
package workers

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"gorm.io/datatypes"

	"revvo-sap-connector/database"
	"revvo-sap-connector/metrics"
	"revvo-sap-connector/sap"
)

// errorMessageLimit bounds the stored failure message on a sync log.
const errorMessageLimit = 500

// Gateway is the slice of the SAP client the workers need
type Gateway interface {
	CallRemote(ctx context.Context, procedure string, payload interface{}) (json.RawMessage, error)
}

// Store is the slice of the mirror repository the workers need.
// *database.Repository satisfies it.
type Store interface {
	StartSyncLog(syncType string) (*database.SyncLog, error)
	SaveSyncLog(syncLog *database.SyncLog) error
	ActiveCustomerCodes() ([]string, error)
	UpsertCustomer(customerCode string, sapData datatypes.JSON) (bool, error)
	UpsertSalesOrder(orderNumber, customerCode string, documentDate *time.Time, sapData datatypes.JSON) (bool, error)
	UpsertCreditLimit(customerCode, segment string, sapData datatypes.JSON) (bool, error)
}

// SyncTask is one synchronization job. RunSync executes a full pass and
// returns the finished log; a nil log means the run could not even be
// recorded.
type SyncTask interface {
	Name() string
	Interval() time.Duration
	RunSync(ctx context.Context) (*database.SyncLog, error)
}

// Notifier receives the outcome of every finished sync run.
type Notifier interface {
	SyncFinished(syncLog *database.SyncLog)
}

// Runner drives a SyncTask: an immediate run on start, then one run per
// interval tick until stopped.
type Runner struct {
	task     SyncTask
	notifier Notifier
	done     chan struct{}
	stopOnce sync.Once
}

// NewRunner creates a runner for the given task. notifier may be nil.
func NewRunner(task SyncTask, notifier Notifier) *Runner {
	return &Runner{
		task:     task,
		notifier: notifier,
		done:     make(chan struct{}),
	}
}

// Start runs the sync loop. Call in a goroutine.
func (r *Runner) Start(ctx context.Context) {
	log.Printf("🔄 %s worker started (interval %s)", r.task.Name(), r.task.Interval())

	ticker := time.NewTicker(r.task.Interval())
	defer ticker.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.done:
			log.Printf("🔄 %s worker stopped", r.task.Name())
			return
		case <-ctx.Done():
			log.Printf("🔄 %s worker stopped", r.task.Name())
			return
		}
	}
}

// Stop stops the sync loop. Safe to call more than once and after the
// loop already exited through context cancellation.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// TriggerNow runs a single sync pass outside the schedule.
func (r *Runner) TriggerNow(ctx context.Context) (*database.SyncLog, error) {
	return r.runOnce(ctx)
}

func (r *Runner) runOnce(ctx context.Context) (*database.SyncLog, error) {
	syncLog, err := r.task.RunSync(ctx)
	if err != nil {
		log.Printf("❌ %s sync failed: %v", r.task.Name(), err)
	}

	if syncLog != nil {
		metrics.IncSyncRun(syncLog.SyncType, syncLog.Status)
		if r.notifier != nil {
			r.notifier.SyncFinished(syncLog)
		}
	} else {
		metrics.IncSyncRun(r.task.Name(), database.SyncStatusFailed)
	}

	return syncLog, err
}

// failRun marks a sync log as failed with a truncated error message.
func failRun(repo Store, syncLog *database.SyncLog, err error) {
	syncLog.Status = database.SyncStatusFailed
	syncLog.ErrorMessage = truncateError(err)
	now := time.Now().UTC()
	syncLog.CompletedAt = &now
	if saveErr := repo.SaveSyncLog(syncLog); saveErr != nil {
		log.Printf("⚠️ failed to persist sync log %s: %v", syncLog.SyncType, saveErr)
	}
}

// completeRun marks a sync log as completed and persists the counters.
func completeRun(repo Store, syncLog *database.SyncLog) {
	syncLog.Status = database.SyncStatusCompleted
	now := time.Now().UTC()
	syncLog.CompletedAt = &now
	if err := repo.SaveSyncLog(syncLog); err != nil {
		log.Printf("⚠️ failed to persist sync log %s: %v", syncLog.SyncType, err)
	}
	log.Printf("✅ %s sync completed: %d processed, %d created, %d updated, %d failed",
		syncLog.SyncType, syncLog.RecordsProcessed, syncLog.RecordsCreated,
		syncLog.RecordsUpdated, syncLog.RecordsFailed)
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > errorMessageLimit {
		return msg[:errorMessageLimit]
	}
	return msg
}

// stringField extracts a string member of a raw SAP record, tolerating
// numeric values.
func stringField(raw json.RawMessage, name string) string {
	v := sap.Field(raw, name)
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}
