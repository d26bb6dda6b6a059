package model

import (
	"github.com/shopspring/decimal"
)

type Book struct {
	BaseModel
	Code      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required"`
	Title     string `gorm:"type:varchar(255);not null;index" json:"title" validate:"required"`
	Publisher string `gorm:"type:varchar(120)" json:"publisher"`
	Subject   string `gorm:"type:varchar(120)" json:"subject"`
	Grade     string `gorm:"type:varchar(20)" json:"grade"`

	// Harga umum dan harga khusus (untuk customer dengan special pricing)
	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	SpecialPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"special_price"`
	DiscountPct  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_pct"`

	// Stock hanya boleh berubah lewat AdjustStock (selalu berpasangan dengan StockLog)
	Stock   int   `gorm:"not null" json:"stock"`
	Version int64 `gorm:"not null" json:"version"`
}

// PriceFor returns the unit price a customer pays for this book.
func (b *Book) PriceFor(specialPricing bool) decimal.Decimal {
	if specialPricing && b.SpecialPrice.IsPositive() {
		return b.SpecialPrice
	}
	return b.Price
}
