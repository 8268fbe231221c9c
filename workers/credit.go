package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/datatypes"

	"revvo-sap-connector/database"
	"revvo-sap-connector/sap"
)

// creditCheckpoint is how many processed records trigger a counter save.
const creditCheckpoint = 50

// defaultSegment is the UKM credit segment mirrored by the worker.
const defaultSegment = "0001"

type creditSegmentPayload struct {
	Partner string `json:"I_PARTNER"`
	Segment string `json:"I_SEGMENT"`
	DBRead  string `json:"I_DB_READ"`
}

// CreditWorker mirrors the UKM credit segment record of every active
// customer into sap_credit_limits.
type CreditWorker struct {
	gateway  Gateway
	repo     Store
	interval time.Duration
}

// NewCreditWorker creates the credit limit sync task.
func NewCreditWorker(gateway Gateway, repo Store, interval time.Duration) *CreditWorker {
	return &CreditWorker{gateway: gateway, repo: repo, interval: interval}
}

// Name implements SyncTask.
func (w *CreditWorker) Name() string { return database.SyncTypeCredit }

// Interval implements SyncTask.
func (w *CreditWorker) Interval() time.Duration { return w.interval }

// RunSync reads the credit segment of each active customer. The UKM read
// returns a single object, not a table; an empty object means the
// customer has no credit master record and is skipped.
func (w *CreditWorker) RunSync(ctx context.Context) (*database.SyncLog, error) {
	log.Println("🔄 Starting credit limits sync")

	syncLog, err := w.repo.StartSyncLog(database.SyncTypeCredit)
	if err != nil {
		return nil, err
	}

	customers, err := w.repo.ActiveCustomerCodes()
	if err != nil {
		failRun(w.repo, syncLog, err)
		return syncLog, err
	}
	log.Printf("🔄 Found %d active customers to sync credit limits", len(customers))

	for _, customerCode := range customers {
		syncLog.RecordsProcessed++

		payload := creditSegmentPayload{Partner: customerCode, Segment: defaultSegment, DBRead: ""}
		raw, err := w.gateway.CallRemote(ctx, sap.ProcCreditSegment, payload)
		if err != nil {
			log.Printf("❌ Error syncing credit for customer %s: %v", customerCode, err)
			syncLog.RecordsFailed++
			continue
		}

		env := sap.Envelope(raw, sap.ProcCreditSegment)
		if len(env) == 0 || string(env) == "{}" || string(env) == "null" {
			continue
		}

		created, err := w.repo.UpsertCreditLimit(customerCode, defaultSegment, datatypes.JSON(env))
		if err != nil {
			log.Printf("❌ Error storing credit limit for customer %s: %v", customerCode, err)
			syncLog.RecordsFailed++
			continue
		}
		if created {
			syncLog.RecordsCreated++
		} else {
			syncLog.RecordsUpdated++
		}

		if syncLog.RecordsProcessed%creditCheckpoint == 0 {
			if err := w.repo.SaveSyncLog(syncLog); err != nil {
				log.Printf("⚠️ checkpoint save failed: %v", err)
			}
			log.Printf("🔄 Processed %d credit limits", syncLog.RecordsProcessed)
		}
	}

	completeRun(w.repo, syncLog)
	return syncLog, nil
}
