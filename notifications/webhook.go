// Package notifications delivers sync run outcomes to an external
// webhook, letting downstream systems react to fresh mirror data.
package notifications

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"revvo-sap-connector/database"
)

// deliveryTimeout bounds one webhook POST.
const deliveryTimeout = 10 * time.Second

// WebhookNotifier POSTs a JSON summary of each finished sync run to a
// configured URL. An empty URL disables delivery.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// SyncEventPayload is the JSON body delivered to the webhook
type SyncEventPayload struct {
	Event            string     `json:"event"`
	SyncType         string     `json:"sync_type"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsCreated   int        `json:"records_created"`
	RecordsUpdated   int        `json:"records_updated"`
	RecordsFailed    int        `json:"records_failed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// NewWebhookNotifier creates a notifier for the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: deliveryTimeout,
		},
	}
}

// SyncFinished delivers the run outcome asynchronously.
func (n *WebhookNotifier) SyncFinished(syncLog *database.SyncLog) {
	if n == nil || n.url == "" {
		return
	}

	payload := SyncEventPayload{
		Event:            "sync_finished",
		SyncType:         syncLog.SyncType,
		Status:           syncLog.Status,
		StartedAt:        syncLog.StartedAt,
		CompletedAt:      syncLog.CompletedAt,
		RecordsProcessed: syncLog.RecordsProcessed,
		RecordsCreated:   syncLog.RecordsCreated,
		RecordsUpdated:   syncLog.RecordsUpdated,
		RecordsFailed:    syncLog.RecordsFailed,
		ErrorMessage:     syncLog.ErrorMessage,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}

	go n.deliver(body)
}

func (n *WebhookNotifier) deliver(body []byte) {
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️  Webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️  Webhook returned status %d", resp.StatusCode)
	}
}
