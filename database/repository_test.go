package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	wrapped := NewDatabase(db)
	require.NoError(t, wrapped.InitSchema())

	return NewRepository(wrapped)
}

func TestUpsertCustomerIdempotent(t *testing.T) {
	repo := testRepository(t)

	created, err := repo.UpsertCustomer("4234", datatypes.JSON(`{"CUSTOMER":"4234","NAME":"ACME"}`))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.UpsertCustomer("4234", datatypes.JSON(`{"CUSTOMER":"4234","NAME":"ACME LTDA"}`))
	require.NoError(t, err)
	assert.False(t, created, "second upsert must update, not create")

	count, err := repo.CountCustomers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	customer, err := repo.GetCustomerByCode("4234")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Contains(t, string(customer.SAPData), "ACME LTDA")
	assert.True(t, customer.IsActive)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", customer.ID.String())
}

func TestGetCustomerByCodeMissing(t *testing.T) {
	repo := testRepository(t)

	customer, err := repo.GetCustomerByCode("nope")
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestSearchCustomers(t *testing.T) {
	repo := testRepository(t)

	_, err := repo.UpsertCustomer("100", datatypes.JSON(`{"CUSTOMER":"100","NAME":"PADARIA CENTRAL"}`))
	require.NoError(t, err)
	_, err = repo.UpsertCustomer("200", datatypes.JSON(`{"CUSTOMER":"200","NAME":"MERCADO SUL"}`))
	require.NoError(t, err)

	byCode, err := repo.SearchCustomers("10", 50)
	require.NoError(t, err)
	assert.Len(t, byCode, 1)

	byName, err := repo.SearchCustomers("PADARIA", 50)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "100", byName[0].CustomerCode)
}

func TestActiveCustomerCodes(t *testing.T) {
	repo := testRepository(t)

	for _, code := range []string{"1", "2", "3"} {
		_, err := repo.UpsertCustomer(code, datatypes.JSON(`{}`))
		require.NoError(t, err)
	}

	codes, err := repo.ActiveCustomerCodes()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, codes)
}

func TestUpsertSalesOrder(t *testing.T) {
	repo := testRepository(t)

	docDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := repo.UpsertSalesOrder("900001", "4234", &docDate, datatypes.JSON(`{"SD_DOC":"900001"}`))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.UpsertSalesOrder("900001", "4234", &docDate, datatypes.JSON(`{"SD_DOC":"900001","NET_VALUE":"10.00"}`))
	require.NoError(t, err)
	assert.False(t, created)

	orders, err := repo.GetSalesOrdersByCustomer("4234", 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Contains(t, string(orders[0].SAPData), "NET_VALUE")
}

func TestUpsertCreditLimitKeyedBySegment(t *testing.T) {
	repo := testRepository(t)

	created, err := repo.UpsertCreditLimit("4234", "0001", datatypes.JSON(`{"CREDIT_LIMIT":"5000"}`))
	require.NoError(t, err)
	assert.True(t, created)

	// same customer, different segment: a second row
	created, err = repo.UpsertCreditLimit("4234", "0002", datatypes.JSON(`{"CREDIT_LIMIT":"9000"}`))
	require.NoError(t, err)
	assert.True(t, created)

	limit, err := repo.GetCreditLimit("4234", "0001")
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Contains(t, string(limit.SAPData), "5000")

	limits, err := repo.GetAllCreditLimits(10)
	require.NoError(t, err)
	assert.Len(t, limits, 2)
}

func TestSyncLogLifecycle(t *testing.T) {
	repo := testRepository(t)

	syncLog, err := repo.StartSyncLog(SyncTypeCustomers)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusRunning, syncLog.Status)
	assert.False(t, syncLog.StartedAt.IsZero())

	syncLog.RecordsProcessed = 150
	syncLog.RecordsCreated = 100
	syncLog.RecordsUpdated = 50
	syncLog.Status = SyncStatusCompleted
	now := time.Now().UTC()
	syncLog.CompletedAt = &now
	require.NoError(t, repo.SaveSyncLog(syncLog))

	latest, err := repo.LatestSyncLog(SyncTypeCustomers)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, SyncStatusCompleted, latest.Status)
	assert.Equal(t, 150, latest.RecordsProcessed)
	require.NotNil(t, latest.CompletedAt)
}

func TestLatestSyncLogFilters(t *testing.T) {
	repo := testRepository(t)

	first, err := repo.StartSyncLog(SyncTypeCustomers)
	require.NoError(t, err)
	first.StartedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.SaveSyncLog(first))

	_, err = repo.StartSyncLog(SyncTypeSales)
	require.NoError(t, err)

	latest, err := repo.LatestSyncLog("")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, SyncTypeSales, latest.SyncType)

	latestCustomers, err := repo.LatestSyncLog(SyncTypeCustomers)
	require.NoError(t, err)
	require.NotNil(t, latestCustomers)
	assert.Equal(t, SyncTypeCustomers, latestCustomers.SyncType)

	none, err := repo.LatestSyncLog(SyncTypeCredit)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetSyncStats(t *testing.T) {
	repo := testRepository(t)

	for i := 0; i < 3; i++ {
		syncLog, err := repo.StartSyncLog(SyncTypeCustomers)
		require.NoError(t, err)
		syncLog.Status = SyncStatusCompleted
		require.NoError(t, repo.SaveSyncLog(syncLog))
	}
	failed, err := repo.StartSyncLog(SyncTypeCustomers)
	require.NoError(t, err)
	failed.Status = SyncStatusFailed
	require.NoError(t, repo.SaveSyncLog(failed))
	_, err = repo.StartSyncLog(SyncTypeSales)
	require.NoError(t, err)

	stats, err := repo.GetSyncStats("")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Running)

	customerStats, err := repo.GetSyncStats(SyncTypeCustomers)
	require.NoError(t, err)
	assert.Equal(t, int64(0), customerStats.Running)
}
