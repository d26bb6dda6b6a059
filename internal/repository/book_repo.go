package repository

import (
	"strings"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookRepository interface {
	Create(tx *gorm.DB, book *model.Book) error
	FindAll(query string) ([]model.Book, error)
	FindByID(id uuid.UUID) (*model.Book, error)
	FindByCode(code string) (*model.Book, error)
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Book, error)
	UpdateDetails(book *model.Book) error
	UpdateStock(tx *gorm.DB, id uuid.UUID, expectedVersion int64, newStock int, updatedBy string) error
	GetStats(lowStockThreshold int) (*BookStats, error)
}

// BookStats untuk overview stats
type BookStats struct {
	TotalBooks     int64           `json:"total_books"`
	LowStockCount  int64           `json:"low_stock_count"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
}

type bookRepo struct {
	db *gorm.DB
}

func NewBookRepo(db *gorm.DB) BookRepository {
	return &bookRepo{db}
}

func (r *bookRepo) Create(tx *gorm.DB, book *model.Book) error {
	return tx.Create(book).Error
}

func (r *bookRepo) FindAll(query string) ([]model.Book, error) {
	var books []model.Book
	q := r.db.Order("title ASC")
	if query = strings.TrimSpace(strings.ToLower(query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	err := q.Find(&books).Error
	return books, err
}

func (r *bookRepo) FindByID(id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) FindByCode(code string) (*model.Book, error) {
	var book model.Book
	if err := r.db.First(&book, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDs reads a set of books, keyed by id. Missing ids are simply absent.
func (r *bookRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Book, error) {
	out := make(map[uuid.UUID]*model.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var books []model.Book
	if err := tx.Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}
	for i := range books {
		out[books[i].ID] = &books[i]
	}
	return out, nil
}

// UpdateDetails changes catalog fields only; stock moves through UpdateStock.
func (r *bookRepo) UpdateDetails(book *model.Book) error {
	return r.db.Model(&model.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]interface{}{
			"code":          book.Code,
			"title":         book.Title,
			"publisher":     book.Publisher,
			"subject":       book.Subject,
			"grade":         book.Grade,
			"price":         book.Price,
			"special_price": book.SpecialPrice,
			"discount_pct":  book.DiscountPct,
			"updated_by":    book.UpdatedBy,
		}).Error
}

// UpdateStock menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi.
// Gagal dengan ErrConcurrentUpdate bila versi sudah berubah.
func (r *bookRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, expectedVersion int64, newStock int, updatedBy string) error {
	res := tx.Model(&model.Book{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"stock":      newStock,
			"version":    expectedVersion + 1,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reconcile.ErrConcurrentUpdate
	}
	return nil
}

func (r *bookRepo) GetStats(lowStockThreshold int) (*BookStats, error) {
	var stats BookStats

	if err := r.db.Model(&model.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Book{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	// Nilai stok = SUM(stock * price)
	if err := r.db.Model(&model.Book{}).Select("COALESCE(SUM(stock * price), 0)").Row().Scan(&stats.StockValuation); err != nil {
		return nil, err
	}
	return &stats, nil
}
