package workers

import (
	"context"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"

	"revvo-sap-connector/database"
	"revvo-sap-connector/sap"
)

// customerCheckpoint is how many processed records trigger a counter save.
const customerCheckpoint = 100

type customerListPayload struct {
	MaxRows int             `json:"MAXROWS"`
	IDRange customerIDRange `json:"IDRANGE"`
}

type customerIDRange struct {
	Item customerIDRangeItem `json:"item"`
}

type customerIDRangeItem struct {
	Sign   string `json:"SIGN"`
	Option string `json:"OPTION"`
	Low    string `json:"LOW"`
	High   string `json:"HIGH"`
}

// CustomerWorker mirrors the full SAP customer list into sap_customers
type CustomerWorker struct {
	gateway  Gateway
	repo     Store
	interval time.Duration
}

// NewCustomerWorker creates the customer sync task.
func NewCustomerWorker(gateway Gateway, repo Store, interval time.Duration) *CustomerWorker {
	return &CustomerWorker{gateway: gateway, repo: repo, interval: interval}
}

// Name implements SyncTask.
func (w *CustomerWorker) Name() string { return database.SyncTypeCustomers }

// Interval implements SyncTask.
func (w *CustomerWorker) Interval() time.Duration { return w.interval }

// RunSync fetches the entire customer population and upserts it record by
// record.
func (w *CustomerWorker) RunSync(ctx context.Context) (*database.SyncLog, error) {
	log.Println("🔄 Starting customer sync")

	syncLog, err := w.repo.StartSyncLog(database.SyncTypeCustomers)
	if err != nil {
		return nil, err
	}

	payload := customerListPayload{
		MaxRows: 9999999,
		IDRange: customerIDRange{
			Item: customerIDRangeItem{Sign: "I", Option: "BT", Low: "1", High: "9999999999"},
		},
	}

	raw, err := w.gateway.CallRemote(ctx, sap.ProcCustomerList, payload)
	if err != nil {
		failRun(w.repo, syncLog, err)
		return syncLog, err
	}

	env := sap.Envelope(raw, sap.ProcCustomerList)
	items := sap.RawList(sap.Field(env, "ADDRESSDATA"))
	log.Printf("🔄 Fetched %d customers from SAP", len(items))

	for _, item := range items {
		syncLog.RecordsProcessed++

		customerCode := strings.TrimSpace(stringField(item, "CUSTOMER"))
		if customerCode == "" {
			// malformed source record, not a processing failure
			continue
		}

		created, err := w.repo.UpsertCustomer(customerCode, datatypes.JSON(item))
		if err != nil {
			log.Printf("❌ Error storing customer %s: %v", customerCode, err)
			syncLog.RecordsFailed++
			continue
		}
		if created {
			syncLog.RecordsCreated++
		} else {
			syncLog.RecordsUpdated++
		}

		if syncLog.RecordsProcessed%customerCheckpoint == 0 {
			if err := w.repo.SaveSyncLog(syncLog); err != nil {
				log.Printf("⚠️ checkpoint save failed: %v", err)
			}
			log.Printf("🔄 Processed %d customers", syncLog.RecordsProcessed)
		}
	}

	completeRun(w.repo, syncLog)
	return syncLog, nil
}
