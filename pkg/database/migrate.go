package database

import (
	"gorm.io/gorm"

	"go-bookstore-ws/internal/model"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Book{},
		&model.StockLog{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoicePayment{},
		&model.LedgerEntry{},
	)
}
