// Package database provides the Postgres mirror of SAP master data and the
// sync run bookkeeping, built on GORM.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the GORM connection shared by the repositories
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes the Postgres connection using GORM
func Connect(host, port, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("✅ Database connection established")
	return &Database{db: db}, nil
}

// NewDatabase wraps an existing GORM connection, used by tests to run the
// repositories against sqlite.
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// InitSchema migrates the mirror and bookkeeping tables.
func (d *Database) InitSchema() error {
	if err := d.db.AutoMigrate(
		&SAPCustomer{},
		&SAPSalesOrder{},
		&SAPCreditLimit{},
		&SyncLog{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	log.Println("📡 Closing database connection...")
	return sqlDB.Close()
}
