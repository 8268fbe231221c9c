package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"revvo-sap-connector/auth"
	"revvo-sap-connector/credit"
	"revvo-sap-connector/database"
	"revvo-sap-connector/realtime"
	"revvo-sap-connector/sap"
)

type stubGateway struct {
	err       error
	responses map[string]json.RawMessage
}

func (s *stubGateway) CallRemote(ctx context.Context, procedure string, payload interface{}) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.responses[procedure], nil
}

func emptyOpenItems() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		sap.ProcOpenItems: json.RawMessage(`{"ZBAPI_AR_ACC_GETOPENITEMS_V2.Response":{"T_ITEMS":{"item":[]}}}`),
	}
}

func testServer(t *testing.T, gw credit.Gateway) (*Server, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	wrapped := database.NewDatabase(db)
	require.NoError(t, wrapped.InitSchema())

	broker := realtime.NewBroker()
	go broker.Run()

	authSvc := auth.NewService("test-secret")
	token, err := authSvc.CreateAccessToken("tester", time.Hour)
	require.NoError(t, err)

	server := NewServer(credit.NewScorer(gw), database.NewRepository(wrapped), nil, broker, authSvc)
	return server, token
}

func doRequest(t *testing.T, server *Server, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, "", http.MethodGet, "/api/customers", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, server, token, http.MethodGet, "/api/customers", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthIsOpen(t *testing.T) {
	server, _ := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, "", http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalculateScore(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodPost, "/api/credit/calculate", `{"customer":"4234"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp credit.ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "4234", resp.Customer)
	assert.NotEmpty(t, resp.RiskLevel)
}

func TestCalculateScoreMissingCustomer(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodPost, "/api/credit/calculate", `{"company_code":"1000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateScoreGatewayFailure(t *testing.T) {
	server, token := testServer(t, &stubGateway{
		err: &sap.CallError{Procedure: sap.ProcOpenItems, Kind: sap.ErrKindRemote, StatusCode: 500},
	})

	rec := doRequest(t, server, token, http.MethodPost, "/api/credit/calculate", `{"customer":"4234"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "calculate_credit_score", resp.Operation)
}

func TestCalculateKS(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	body := `{"clients":[
		{"score":2.0,"is_defaulted":false},
		{"score":-2.0,"is_defaulted":true}
	]}`
	rec := doRequest(t, server, token, http.MethodPost, "/api/credit/ks", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp credit.KSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Deciles, 10)
}

func TestGetCustomerNotFound(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodGet, "/api/customers/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCustomerFound(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	_, err := server.repo.UpsertCustomer("100", datatypes.JSON(`{"NAME":"ACME"}`))
	require.NoError(t, err)

	rec := doRequest(t, server, token, http.MethodGet, "/api/customers/100", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var customer database.SAPCustomer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customer))
	assert.Equal(t, "100", customer.CustomerCode)
}

func TestSyncTriggerUnknownType(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodPost, "/api/sync/trigger/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubTrigger struct {
	fired chan struct{}
}

func (s *stubTrigger) TriggerNow(ctx context.Context) (*database.SyncLog, error) {
	close(s.fired)
	return &database.SyncLog{SyncType: database.SyncTypeCustomers, Status: database.SyncStatusCompleted}, nil
}

func TestSyncTriggerFires(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	trigger := &stubTrigger{fired: make(chan struct{})}
	server.RegisterTrigger(database.SyncTypeCustomers, trigger)

	rec := doRequest(t, server, token, http.MethodPost, "/api/sync/trigger/customers", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-trigger.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
}

func TestSyncStatusEmpty(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodGet, "/api/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Contains(t, status, database.SyncTypeCustomers)
	assert.Contains(t, status, database.SyncTypeSales)
	assert.Contains(t, status, database.SyncTypeCredit)
}

func TestStatistics(t *testing.T) {
	server, token := testServer(t, &stubGateway{responses: emptyOpenItems()})

	rec := doRequest(t, server, token, http.MethodGet, "/api/credit/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "global_statistics")
	assert.Contains(t, resp, "model_weights")
	assert.Contains(t, resp, "model_parameters")
}
