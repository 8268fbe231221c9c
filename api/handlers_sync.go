package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"revvo-sap-connector/database"
)

// triggerTimeout bounds a manually triggered sync run.
const triggerTimeout = 30 * time.Minute

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	syncTypes := []string{database.SyncTypeCustomers, database.SyncTypeSales, database.SyncTypeCredit}

	status := make(map[string]interface{}, len(syncTypes))
	for _, syncType := range syncTypes {
		latest, err := s.repo.LatestSyncLog(syncType)
		if err != nil {
			writeError(w, "get_sync_status", err)
			return
		}
		stats, err := s.repo.GetSyncStats(syncType)
		if err != nil {
			writeError(w, "get_sync_status", err)
			return
		}
		status[syncType] = map[string]interface{}{
			"latest": latest,
			"stats":  stats,
		}
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 20, 1, 200)

	logs, err := s.repo.RecentSyncLogs(limit)
	if err != nil {
		writeError(w, "get_sync_logs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	syncType := r.PathValue("type")

	trigger, ok := s.triggers[syncType]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Operation: "trigger_sync", Error: "unknown sync type: " + syncType})
		return
	}

	// run detached from the request: a full sync can take minutes
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if _, err := trigger.TriggerNow(ctx); err != nil {
			log.Printf("❌ manual %s sync failed: %v", syncType, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"sync_type": syncType,
		"status":    "triggered",
	})
}
