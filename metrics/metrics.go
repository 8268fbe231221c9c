// Package metrics exposes Prometheus counters for the SAP gateway and an
// HTTP handler serving them on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sap_connector_requests_total",
			Help: "Number of SAP requests with success/failure status",
		},
		[]string{"procedure", "status"},
	)

	sapTokenRenew = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sap_connector_token_renew_total",
			Help: "Number of times the SAP OAuth token was renewed",
		},
	)

	syncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sap_connector_sync_runs_total",
			Help: "Number of completed sync worker runs by outcome",
		},
		[]string{"sync_type", "status"},
	)
)

// IncSAPRequest records one SAP call outcome. Status is "success" or "failure".
func IncSAPRequest(procedure, status string) {
	sapRequests.WithLabelValues(procedure, status).Inc()
}

// IncTokenRenew records one OAuth token renewal attempt.
func IncTokenRenew() {
	sapTokenRenew.Inc()
}

// IncSyncRun records one finished worker run. Status is "completed" or "failed".
func IncSyncRun(syncType, status string) {
	syncRuns.WithLabelValues(syncType, status).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
