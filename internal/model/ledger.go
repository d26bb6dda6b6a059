package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type LedgerCategory string

const (
	CategoryPayment LedgerCategory = "PAYMENT"
	CategoryReturn  LedgerCategory = "RETURN"
	CategoryIncome  LedgerCategory = "INCOME"
	CategoryExpense LedgerCategory = "EXPENSE"
)

// LedgerEntry is one cash event of the mutasi (general cash ledger).
// Amount is signed: IN > 0, OUT < 0.
type LedgerEntry struct {
	BaseModel
	Number    string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	Direction Direction       `gorm:"type:varchar(3);not null" json:"direction"`
	Category  LedgerCategory  `gorm:"type:varchar(20);not null;index" json:"category"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Note      string          `gorm:"type:varchar(255)" json:"note"`
	Date      time.Time       `gorm:"not null;index" json:"date"`

	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	BatchID   *uuid.UUID `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	ProofURL  string     `gorm:"type:varchar(512)" json:"proof_url,omitempty"`

	Detail datatypes.JSONType[LedgerDetail] `json:"detail"`
}

// LedgerDetail is the structured audit payload of an entry.
type LedgerDetail struct {
	// Pembayaran multi-faktur
	Allocations []Allocation     `json:"allocations,omitempty"`
	BatchTotal  *decimal.Decimal `json:"batch_total,omitempty"`

	// Retur
	ReturnedItems []ReturnedItem   `json:"returned_items,omitempty"`
	Gross         *decimal.Decimal `json:"gross,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Net           *decimal.Decimal `json:"net,omitempty"`
	// Refund is how much AmountPaid was capped by; a reversal adds it back.
	Refund *decimal.Decimal `json:"refund,omitempty"`
}

type Allocation struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	LedgerEntryID uuid.UUID       `json:"ledger_entry_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type ReturnedItem struct {
	BookID      uuid.UUID       `json:"book_id"`
	Title       string          `json:"title"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Qty         int             `json:"qty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SignedAmount applies the direction sign to a non-negative magnitude.
func SignedAmount(dir Direction, magnitude decimal.Decimal) decimal.Decimal {
	if dir == DirectionOut {
		return magnitude.Abs().Neg()
	}
	return magnitude.Abs()
}
