package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRefType string

const (
	StockRefOpening StockRefType = "OPENING"
	StockRefInvoice StockRefType = "INVOICE"
	StockRefReturn  StockRefType = "RETURN"
	StockRefManual  StockRefType = "MANUAL"
)

// StockLog is one append-only quantity change of a book.
// Rows are never updated; a Reversal is the only path that deletes them.
type StockLog struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	BookID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"book_id"`
	Delta     int          `gorm:"not null" json:"delta"`
	QtyBefore int          `gorm:"not null" json:"qty_before"`
	QtyAfter  int          `gorm:"not null" json:"qty_after"`
	Reason    string       `gorm:"type:varchar(255)" json:"reason"`
	RefType   StockRefType `gorm:"type:varchar(20);not null" json:"ref_type"`

	InvoiceID     *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	InvoiceItemID *uuid.UUID `gorm:"type:uuid" json:"invoice_item_id,omitempty"`
	LedgerEntryID *uuid.UUID `gorm:"type:uuid;index" json:"ledger_entry_id,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *StockLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
