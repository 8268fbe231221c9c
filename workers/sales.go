package workers

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"

	"revvo-sap-connector/database"
	"revvo-sap-connector/sap"
)

// salesCheckpoint is how many processed records trigger a counter save.
const salesCheckpoint = 100

// salesLookback is how far back orders are pulled per customer.
const salesLookback = 365 * 24 * time.Hour

type salesOrderPayload struct {
	CustomerNumber   string `json:"CUSTOMER_NUMBER"`
	DocumentDate     string `json:"DOCUMENT_DATE"`
	DocumentDateTo   string `json:"DOCUMENT_DATE_TO"`
	TransactionGroup string `json:"TRANSACTION_GROUP"`
}

// SalesWorker mirrors the last year of sales orders for every active
// customer into sap_sales_orders.
type SalesWorker struct {
	gateway  Gateway
	repo     Store
	interval time.Duration
}

// NewSalesWorker creates the sales order sync task.
func NewSalesWorker(gateway Gateway, repo Store, interval time.Duration) *SalesWorker {
	return &SalesWorker{gateway: gateway, repo: repo, interval: interval}
}

// Name implements SyncTask.
func (w *SalesWorker) Name() string { return database.SyncTypeSales }

// Interval implements SyncTask.
func (w *SalesWorker) Interval() time.Duration { return w.interval }

// RunSync iterates the active customers and pulls each one's orders. A
// failing customer counts one failure and the run moves on.
func (w *SalesWorker) RunSync(ctx context.Context) (*database.SyncLog, error) {
	log.Println("🔄 Starting sales orders sync")

	syncLog, err := w.repo.StartSyncLog(database.SyncTypeSales)
	if err != nil {
		return nil, err
	}

	customers, err := w.repo.ActiveCustomerCodes()
	if err != nil {
		failRun(w.repo, syncLog, err)
		return syncLog, err
	}
	log.Printf("🔄 Found %d active customers to sync sales orders", len(customers))

	for _, customerCode := range customers {
		items, err := w.fetchOrders(ctx, customerCode)
		if err != nil {
			log.Printf("❌ Error syncing sales for customer %s: %v", customerCode, err)
			syncLog.RecordsFailed++
			continue
		}

		for _, item := range items {
			syncLog.RecordsProcessed++

			orderNumber := strings.TrimSpace(stringField(item, "SD_DOC"))
			if orderNumber == "" {
				continue
			}

			created, err := w.repo.UpsertSalesOrder(orderNumber, customerCode, parseDocumentDate(item), datatypes.JSON(item))
			if err != nil {
				log.Printf("❌ Error storing sales order %s: %v", orderNumber, err)
				syncLog.RecordsFailed++
				continue
			}
			if created {
				syncLog.RecordsCreated++
			} else {
				syncLog.RecordsUpdated++
			}

			if syncLog.RecordsProcessed%salesCheckpoint == 0 {
				if err := w.repo.SaveSyncLog(syncLog); err != nil {
					log.Printf("⚠️ checkpoint save failed: %v", err)
				}
				log.Printf("🔄 Processed %d sales orders", syncLog.RecordsProcessed)
			}
		}
	}

	completeRun(w.repo, syncLog)
	return syncLog, nil
}

func (w *SalesWorker) fetchOrders(ctx context.Context, customerCode string) ([]json.RawMessage, error) {
	end := time.Now().UTC()
	start := end.Add(-salesLookback)

	payload := salesOrderPayload{
		CustomerNumber:   customerCode,
		DocumentDate:     start.Format("20060102"),
		DocumentDateTo:   end.Format("20060102"),
		TransactionGroup: "0",
	}

	raw, err := w.gateway.CallRemote(ctx, sap.ProcSalesOrders, payload)
	if err != nil {
		return nil, err
	}

	env := sap.Envelope(raw, sap.ProcSalesOrders)
	return sap.RawList(sap.Field(env, "SALES_ORDERS")), nil
}

// parseDocumentDate reads DOC_DATE when it is a full 8-digit date; SAP
// sends blanks and zero dates for unposted documents.
func parseDocumentDate(item json.RawMessage) *time.Time {
	s := stringField(item, "DOC_DATE")
	if len(s) != 8 {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}
