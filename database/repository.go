package database

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository handles all reads and writes against the SAP mirror
type Repository struct {
	db *Database
}

// NewRepository creates a new repository
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// UpsertCustomer stores the latest SAP payload for a customer. Returns
// true when a new row was created, false when an existing one was updated.
func (r *Repository) UpsertCustomer(customerCode string, sapData datatypes.JSON) (bool, error) {
	var existing SAPCustomer
	err := r.db.db.Where("customer_code = ?", customerCode).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer := SAPCustomer{CustomerCode: customerCode, SAPData: sapData}
		return true, r.db.db.Create(&customer).Error
	}
	if err != nil {
		return false, err
	}

	existing.SAPData = sapData
	existing.UpdatedAt = time.Now().UTC()
	return false, r.db.db.Save(&existing).Error
}

// UpsertSalesOrder stores the latest SAP payload for a sales order.
func (r *Repository) UpsertSalesOrder(orderNumber, customerCode string, documentDate *time.Time, sapData datatypes.JSON) (bool, error) {
	var existing SAPSalesOrder
	err := r.db.db.Where("order_number = ?", orderNumber).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order := SAPSalesOrder{
			OrderNumber:  orderNumber,
			CustomerCode: customerCode,
			DocumentDate: documentDate,
			SAPData:      sapData,
		}
		return true, r.db.db.Create(&order).Error
	}
	if err != nil {
		return false, err
	}

	existing.CustomerCode = customerCode
	existing.DocumentDate = documentDate
	existing.SAPData = sapData
	existing.UpdatedAt = time.Now().UTC()
	return false, r.db.db.Save(&existing).Error
}

// UpsertCreditLimit stores the latest credit segment payload, keyed by
// customer and segment.
func (r *Repository) UpsertCreditLimit(customerCode, segment string, sapData datatypes.JSON) (bool, error) {
	var existing SAPCreditLimit
	err := r.db.db.Where("customer_code = ? AND segment = ?", customerCode, segment).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		limit := SAPCreditLimit{CustomerCode: customerCode, Segment: segment, SAPData: sapData}
		return true, r.db.db.Create(&limit).Error
	}
	if err != nil {
		return false, err
	}

	existing.SAPData = sapData
	existing.UpdatedAt = time.Now().UTC()
	return false, r.db.db.Save(&existing).Error
}

// GetCustomerByCode returns an active customer by its natural key.
func (r *Repository) GetCustomerByCode(customerCode string) (*SAPCustomer, error) {
	var customer SAPCustomer
	err := r.db.db.Where("customer_code = ? AND is_active = ?", customerCode, true).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetAllCustomers pages through active customers.
func (r *Repository) GetAllCustomers(offset, limit int) ([]SAPCustomer, error) {
	var customers []SAPCustomer
	err := r.db.db.Where("is_active = ?", true).Offset(offset).Limit(limit).Find(&customers).Error
	return customers, err
}

// SearchCustomers matches the natural key or any part of the raw SAP
// payload (name, city, tax id).
func (r *Repository) SearchCustomers(term string, limit int) ([]SAPCustomer, error) {
	pattern := "%" + term + "%"
	var customers []SAPCustomer
	err := r.db.db.
		Where("is_active = ?", true).
		Where("customer_code LIKE ? OR CAST(sap_data AS TEXT) LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

// CountCustomers returns the number of active customers.
func (r *Repository) CountCustomers() (int64, error) {
	var count int64
	err := r.db.db.Model(&SAPCustomer{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// ActiveCustomerCodes lists the natural keys of every active customer,
// the driving set for the per-customer sync workers.
func (r *Repository) ActiveCustomerCodes() ([]string, error) {
	var codes []string
	err := r.db.db.Model(&SAPCustomer{}).Where("is_active = ?", true).Pluck("customer_code", &codes).Error
	return codes, err
}

// GetSalesOrderByNumber returns an active sales order by document number.
func (r *Repository) GetSalesOrderByNumber(orderNumber string) (*SAPSalesOrder, error) {
	var order SAPSalesOrder
	err := r.db.db.Where("order_number = ? AND is_active = ?", orderNumber, true).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetSalesOrdersByCustomer lists a customer's orders, newest document first.
func (r *Repository) GetSalesOrdersByCustomer(customerCode string, limit int) ([]SAPSalesOrder, error) {
	var orders []SAPSalesOrder
	err := r.db.db.
		Where("customer_code = ? AND is_active = ?", customerCode, true).
		Order("document_date DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// GetRecentSalesOrders lists the most recently mirrored orders.
func (r *Repository) GetRecentSalesOrders(limit int) ([]SAPSalesOrder, error) {
	var orders []SAPSalesOrder
	err := r.db.db.
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// GetCreditLimit returns the credit segment record for a customer.
func (r *Repository) GetCreditLimit(customerCode, segment string) (*SAPCreditLimit, error) {
	var limit SAPCreditLimit
	err := r.db.db.Where("customer_code = ? AND segment = ? AND is_active = ?", customerCode, segment, true).First(&limit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &limit, nil
}

// GetAllCreditLimits lists active credit limit records.
func (r *Repository) GetAllCreditLimits(limit int) ([]SAPCreditLimit, error) {
	var limits []SAPCreditLimit
	err := r.db.db.Where("is_active = ?", true).Limit(limit).Find(&limits).Error
	return limits, err
}

// StartSyncLog opens a new sync run in running status.
func (r *Repository) StartSyncLog(syncType string) (*SyncLog, error) {
	syncLog := SyncLog{
		SyncType:  syncType,
		Status:    SyncStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.db.Create(&syncLog).Error; err != nil {
		return nil, err
	}
	return &syncLog, nil
}

// SaveSyncLog persists the current counters of an in-flight or finished
// run. Workers call this at every checkpoint.
func (r *Repository) SaveSyncLog(syncLog *SyncLog) error {
	return r.db.db.Save(syncLog).Error
}

// LatestSyncLog returns the most recently started run, optionally
// filtered by sync type.
func (r *Repository) LatestSyncLog(syncType string) (*SyncLog, error) {
	query := r.db.db.Model(&SyncLog{})
	if syncType != "" {
		query = query.Where("sync_type = ?", syncType)
	}

	var syncLog SyncLog
	err := query.Order("started_at DESC").First(&syncLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &syncLog, nil
}

// RecentSyncLogs lists runs newest first.
func (r *Repository) RecentSyncLogs(limit int) ([]SyncLog, error) {
	var logs []SyncLog
	err := r.db.db.Order("started_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// SyncStats summarizes run outcomes, optionally per sync type.
type SyncStats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Running   int64 `json:"running"`
}

// GetSyncStats counts runs by status.
func (r *Repository) GetSyncStats(syncType string) (*SyncStats, error) {
	stats := &SyncStats{}

	counts := []struct {
		status string
		dest   *int64
	}{
		{SyncStatusCompleted, &stats.Completed},
		{SyncStatusFailed, &stats.Failed},
		{SyncStatusRunning, &stats.Running},
	}

	for _, c := range counts {
		query := r.db.db.Model(&SyncLog{}).Where("status = ?", c.status)
		if syncType != "" {
			query = query.Where("sync_type = ?", syncType)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}
