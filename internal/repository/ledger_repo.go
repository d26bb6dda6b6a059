package repository

import (
	"fmt"
	"time"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(tx *gorm.DB, entries []model.LedgerEntry) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.LedgerEntry, error)
	FindBatch(tx *gorm.DB, batchID uuid.UUID) ([]model.LedgerEntry, error)
	SoftDelete(tx *gorm.DB, ids []uuid.UUID, deletedBy string) error
	List(filter LedgerFilter) ([]model.LedgerEntry, int64, error)
	GetFinancialSummary(startDate, endDate time.Time) (*FinancialSummary, error)
}

// LedgerFilter selects mutasi rows by date range [From, To).
type LedgerFilter struct {
	From      *time.Time
	To        *time.Time
	Category  model.LedgerCategory
	Direction model.Direction
	InvoiceID *uuid.UUID
	Limit     int
	Offset    int
}

type FinancialSummary struct {
	In  decimal.Decimal `json:"in"`
	Out decimal.Decimal `json:"out"`
	Net decimal.Decimal `json:"net"`
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) Create(tx *gorm.DB, entries []model.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

func (r *ledgerRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	if err := tx.First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepo) FindBatch(tx *gorm.DB, batchID uuid.UUID) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := tx.Where("batch_id = ?", batchID).Order("number ASC").Find(&entries).Error
	return entries, err
}

// SoftDelete marks entries removed (deleted_by + deleted_at). Every id must still be live.
func (r *ledgerRepo) SoftDelete(tx *gorm.DB, ids []uuid.UUID, deletedBy string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&model.LedgerEntry{}).Where("id IN ?", ids).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	res := tx.Where("id IN ?", ids).Delete(&model.LedgerEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: ledger entry already reversed", reconcile.ErrConcurrentUpdate)
	}
	return nil
}

func (r *ledgerRepo) filtered(f LedgerFilter) *gorm.DB {
	q := r.db.Model(&model.LedgerEntry{})
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.InvoiceID != nil {
		q = q.Where("invoice_id = ?", *f.InvoiceID)
	}
	return q
}

func (r *ledgerRepo) List(f LedgerFilter) ([]model.LedgerEntry, int64, error) {
	var total int64
	if err := r.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.LedgerEntry
	q := r.filtered(f).Order("date DESC, number DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	err := q.Find(&entries).Error
	return entries, total, err
}

func (r *ledgerRepo) GetFinancialSummary(startDate, endDate time.Time) (*FinancialSummary, error) {
	var in, out decimal.Decimal
	f := LedgerFilter{From: &startDate, To: &endDate}

	// Pemasukan = amount > 0, Pengeluaran = amount < 0
	if err := r.filtered(f).Where("amount > 0").Select("COALESCE(SUM(amount), 0)").Row().Scan(&in); err != nil {
		return nil, err
	}
	if err := r.filtered(f).Where("amount < 0").Select("COALESCE(SUM(amount), 0)").Row().Scan(&out); err != nil {
		return nil, err
	}

	return &FinancialSummary{In: in, Out: out.Neg(), Net: in.Add(out)}, nil
}
