package repository

import (
	"fmt"
	"time"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockLogRepository interface {
	Create(tx *gorm.DB, logs []model.StockLog) error
	Delete(tx *gorm.DB, ids []uuid.UUID) error
	FindByBook(bookID uuid.UUID, limit int) ([]model.StockLog, error)
	FindByLedgerEntry(tx *gorm.DB, ledgerEntryID uuid.UUID) ([]model.StockLog, error)
	SumDeltas() (map[uuid.UUID]int, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type stockLogRepo struct {
	db *gorm.DB
}

func NewStockLogRepo(db *gorm.DB) StockLogRepository {
	return &stockLogRepo{db}
}

func (r *stockLogRepo) Create(tx *gorm.DB, logs []model.StockLog) error {
	if len(logs) == 0 {
		return nil
	}
	return tx.Create(&logs).Error
}

// Delete removes log rows for a reversal. Every id must still exist.
func (r *stockLogRepo) Delete(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	res := tx.Where("id IN ?", ids).Delete(&model.StockLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: %d of %d stock logs already gone", reconcile.ErrConcurrentUpdate, int64(len(ids))-res.RowsAffected, len(ids))
	}
	return nil
}

func (r *stockLogRepo) FindByBook(bookID uuid.UUID, limit int) ([]model.StockLog, error) {
	var logs []model.StockLog
	q := r.db.Where("book_id = ?", bookID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}

func (r *stockLogRepo) FindByLedgerEntry(tx *gorm.DB, ledgerEntryID uuid.UUID) ([]model.StockLog, error) {
	var logs []model.StockLog
	err := tx.Where("ledger_entry_id = ?", ledgerEntryID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}

// SumDeltas returns Σ delta per book, the value stock must always equal.
func (r *stockLogRepo) SumDeltas() (map[uuid.UUID]int, error) {
	var rows []struct {
		BookID uuid.UUID
		Total  int
	}
	err := r.db.Model(&model.StockLog{}).
		Select("book_id, COALESCE(SUM(delta), 0) AS total").
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.BookID] = row.Total
	}
	return out, nil
}

func (r *stockLogRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate mutasi stok per hari
	rows, err := r.db.Model(&model.StockLog{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
