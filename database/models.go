package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sync lifecycle states
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Sync types, one per mirrored SAP entity
const (
	SyncTypeCustomers = "customers"
	SyncTypeSales     = "sales_orders"
	SyncTypeCredit    = "credit_limits"
)

// BaseModel carries the identity and audit columns shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
}

// BeforeCreate assigns a UUID when none was provided.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if !b.IsActive {
		b.IsActive = true
	}
	return nil
}

// SAPCustomer mirrors one BAPI_CUSTOMER_GETLIST row. The raw SAP record is
// kept verbatim in sap_data alongside the extracted natural key.
type SAPCustomer struct {
	BaseModel
	CustomerCode string         `gorm:"size:50;uniqueIndex;not null" json:"customer_code"`
	SAPData      datatypes.JSON `gorm:"not null" json:"sap_data"`
}

// TableName specifies the table name for SAPCustomer
func (SAPCustomer) TableName() string {
	return "sap_customers"
}

// SAPSalesOrder mirrors one BAPI_SALESORDER_GETLIST row
type SAPSalesOrder struct {
	BaseModel
	OrderNumber  string         `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	CustomerCode string         `gorm:"size:50;index" json:"customer_code"`
	DocumentDate *time.Time     `gorm:"index" json:"document_date"`
	SAPData      datatypes.JSON `gorm:"not null" json:"sap_data"`
}

// TableName specifies the table name for SAPSalesOrder
func (SAPSalesOrder) TableName() string {
	return "sap_sales_orders"
}

// SAPCreditLimit mirrors one UKM credit segment record, unique per
// customer and segment.
type SAPCreditLimit struct {
	BaseModel
	CustomerCode string         `gorm:"size:50;not null;index;uniqueIndex:idx_credit_customer_segment" json:"customer_code"`
	Segment      string         `gorm:"size:50;not null;uniqueIndex:idx_credit_customer_segment" json:"segment"`
	SAPData      datatypes.JSON `gorm:"not null" json:"sap_data"`
}

// TableName specifies the table name for SAPCreditLimit
func (SAPCreditLimit) TableName() string {
	return "sap_credit_limits"
}

// SyncLog records one synchronization run from start to completion,
// including per-record counters updated at checkpoints while the run is
// still in flight.
type SyncLog struct {
	BaseModel
	SyncType         string         `gorm:"size:50;not null;index:idx_sync_type_status" json:"sync_type"`
	Status           string         `gorm:"size:20;not null;index:idx_sync_type_status" json:"status"`
	StartedAt        time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
	RecordsProcessed int            `gorm:"default:0" json:"records_processed"`
	RecordsCreated   int            `gorm:"default:0" json:"records_created"`
	RecordsUpdated   int            `gorm:"default:0" json:"records_updated"`
	RecordsFailed    int            `gorm:"default:0" json:"records_failed"`
	ErrorMessage     string         `gorm:"size:500" json:"error_message"`
	Details          datatypes.JSON `json:"details"`
}

// TableName specifies the table name for SyncLog
func (SyncLog) TableName() string {
	return "sync_logs"
}
