package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard Audit Trails
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"` // Soft Delete (mutasi yang dibatalkan)

	// Audit User Tracking
	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
	DeletedBy string `json:"deleted_by"`
}

// Stamp records actor as the last writer, and as the creator when the row is new.
func (base *BaseModel) Stamp(actor string) {
	if base.CreatedBy == "" {
		base.CreatedBy = actor
	}
	base.UpdatedBy = actor
}

// BeforeCreate keeps an id reserved by the caller; ledger ids are picked
// before the invoice payment rows that point at them are written.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}
