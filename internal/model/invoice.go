package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPaid    PaymentStatus = "PAID"
)

var hundred = decimal.NewFromInt(100)

// DeriveStatus is the only place the payment status is decided.
// PAID wins when paid >= total, so a fully returned invoice (total 0) is PAID.
func DeriveStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Invoice is the sales transaction (faktur penjualan).
type Invoice struct {
	BaseModel
	Number       string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName string    `gorm:"type:varchar(255);not null;index" json:"customer_name"`
	Date         time.Time `gorm:"not null;index" json:"date"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`

	OtherDiscount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"other_discount"`
	OtherFee      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"other_fee"`
	TotalDue      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_due"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_paid"`
	Status        PaymentStatus   `gorm:"type:varchar(10);not null;index" json:"status"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`

	// Riwayat pembayaran, urut berdasarkan tanggal
	Payments []InvoicePayment `gorm:"foreignKey:InvoiceID" json:"payments"`

	Version int64 `gorm:"not null" json:"version"`
}

type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	BookID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"book_id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Qty         int             `gorm:"not null" json:"qty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_pct"`
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// Net is qty x price x (1 - discount%), rounded to 2 places.
func (it InvoiceItem) Net() decimal.Decimal {
	return NetValue(it.Qty, it.UnitPrice, it.DiscountPct)
}

// NetValue prices qty units after a percentage discount.
func NetValue(qty int, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return gross.Mul(hundred.Sub(discountPct)).Div(hundred).Round(2)
}

// InvoicePayment is one row of the invoice payment history, keyed by the
// ledger entry that recorded the cash.
type InvoicePayment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LedgerEntryID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"ledger_entry_id"`
	Date          time.Time       `gorm:"not null" json:"date"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Note          string          `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p *InvoicePayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ComputeTotal returns Σ line net - other discount + other fee.
func (inv *Invoice) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Net())
	}
	return total.Sub(inv.OtherDiscount).Add(inv.OtherFee)
}

// Recalculate refreshes TotalDue and Status from the line items and AmountPaid.
func (inv *Invoice) Recalculate() {
	inv.TotalDue = inv.ComputeTotal()
	inv.Status = DeriveStatus(inv.AmountPaid, inv.TotalDue)
}

// Clone returns a deep copy so planners never mutate what they read.
func (inv *Invoice) Clone() *Invoice {
	cp := *inv
	cp.Items = append([]InvoiceItem(nil), inv.Items...)
	cp.Payments = append([]InvoicePayment(nil), inv.Payments...)
	return &cp
}

// PaymentsTotal sums the payment history rows still on the invoice.
func (inv *Invoice) PaymentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// ItemIndex finds the line for a book, -1 when the invoice does not carry it.
func (inv *Invoice) ItemIndex(bookID uuid.UUID) int {
	for i, it := range inv.Items {
		if it.BookID == bookID {
			return i
		}
	}
	return -1
}
