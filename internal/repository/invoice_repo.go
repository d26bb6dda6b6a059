package repository

import (
	"strings"
	"time"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(tx *gorm.DB, inv *model.Invoice) error
	FindByID(id uuid.UUID) (*model.Invoice, error)
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Invoice, error)
	Search(filter InvoiceFilter) ([]model.Invoice, int64, error)
	Update(tx *gorm.DB, w reconcile.InvoiceWrite, updatedBy string) error
	Outstanding() (decimal.Decimal, int64, error)
}

// InvoiceFilter is a range query over invoices, newest first.
type InvoiceFilter struct {
	Customer string
	Number   string
	Status   model.PaymentStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func withLines(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, created_at ASC") })
}

func (r *invoiceRepo) Create(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := withLines(r.db).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByIDs reads invoices with their lines and payments. Missing ids are absent.
func (r *invoiceRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Invoice, error) {
	out := make(map[uuid.UUID]*model.Invoice, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Invoice
	if err := withLines(tx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *invoiceRepo) Search(f InvoiceFilter) ([]model.Invoice, int64, error) {
	q := r.db.Model(&model.Invoice{})
	if c := strings.TrimSpace(strings.ToLower(f.Customer)); c != "" {
		q = q.Where("LOWER(customer_name) LIKE ?", "%"+c+"%")
	}
	if n := strings.TrimSpace(strings.ToUpper(f.Number)); n != "" {
		q = q.Where("UPPER(number) LIKE ?", n+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.Invoice
	err := withLines(q).Order("date DESC, number DESC").Limit(limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

// Update writes the final invoice state guarded by the version it was read at.
func (r *invoiceRepo) Update(tx *gorm.DB, w reconcile.InvoiceWrite, updatedBy string) error {
	inv := w.Invoice

	// 1. Header dengan optimistic lock
	res := tx.Model(&model.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, w.ExpectedVersion).
		Updates(map[string]interface{}{
			"total_due":   inv.TotalDue,
			"amount_paid": inv.AmountPaid,
			"status":      inv.Status,
			"version":     w.ExpectedVersion + 1,
			"updated_by":  updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reconcile.ErrConcurrentUpdate
	}

	// 2. Qty baris (retur / pembatalan retur)
	if w.ItemsChanged {
		for _, it := range inv.Items {
			if err := tx.Model(&model.InvoiceItem{}).Where("id = ?", it.ID).Update("qty", it.Qty).Error; err != nil {
				return err
			}
		}
	}

	// 3. Riwayat pembayaran
	if len(w.AddPayments) > 0 {
		if err := tx.Create(&w.AddPayments).Error; err != nil {
			return err
		}
	}
	if len(w.RemovePayments) > 0 {
		if err := tx.Where("invoice_id = ? AND ledger_entry_id IN ?", inv.ID, w.RemovePayments).
			Delete(&model.InvoicePayment{}).Error; err != nil {
			return err
		}
	}

	inv.Version = w.ExpectedVersion + 1
	return nil
}

// Outstanding sums what customers still owe on unpaid and partial invoices.
func (r *invoiceRepo) Outstanding() (decimal.Decimal, int64, error) {
	var (
		amount decimal.Decimal
		count  int64
	)
	err := r.db.Model(&model.Invoice{}).
		Select("COALESCE(SUM(total_due - amount_paid), 0), COUNT(*)").
		Where("status <> ?", model.StatusPaid).
		Row().Scan(&amount, &count)
	return amount, count, err
}
