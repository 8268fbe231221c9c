package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"revvo-sap-connector/sap"
)

// writeJSON serializes a payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

// errorResponse is the uniform error body: the failing operation plus the
// underlying cause, so clients can tell "SAP unreachable" from "bad
// input" from "internal failure".
type errorResponse struct {
	Operation string `json:"operation"`
	Error     string `json:"error"`
}

// writeError maps an error to a status code: gateway failures are 502
// (the upstream broke, not us), everything else is 500.
func writeError(w http.ResponseWriter, operation string, err error) {
	status := http.StatusInternalServerError
	var callErr *sap.CallError
	if errors.As(err, &callErr) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Operation: operation, Error: err.Error()})
}

// writeBadRequest reports invalid client input.
func writeBadRequest(w http.ResponseWriter, operation, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Operation: operation, Error: detail})
}

// getIntParam retrieves an integer query parameter with a default and
// bounds; out-of-range values fall back to the default.
func getIntParam(r *http.Request, key string, defaultVal, minVal, maxVal int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil || val < minVal || val > maxVal {
		return defaultVal
	}
	return val
}

// companyCodeParam returns the company_code query parameter, defaulting
// to the standard company.
func companyCodeParam(r *http.Request) string {
	if code := r.URL.Query().Get("company_code"); code != "" {
		return code
	}
	return "1000"
}
