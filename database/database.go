package database

import (
	"fmt"

	"retail-billing-app/internal/domain/bills"
	"retail-billing-app/internal/domain/catalog"
	"retail-billing-app/internal/domain/customers"
	"retail-billing-app/internal/domain/subscriptions"
	"retail-billing-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the process-wide connection pool and migrates the schema.
// The handle is passed explicitly to handlers and the scheduler; there is
// no package-level DB.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate is separate from Connect so tests can run it against sqlite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// identity + billing
		&users.User{},
		&subscriptions.Subscription{},
		&subscriptions.UsageRecord{},
		&subscriptions.SubscriptionBill{},

		// retail
		&catalog.Product{},
		&customers.Customer{},
		&bills.Bill{},
		&bills.BillItem{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
