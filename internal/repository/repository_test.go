package repository

import (
	"strings"
	"testing"
	"time"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.ConnectSQLite("file:"+name+"?mode=memory&cache=shared", logrus.New())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestBookRepo_UpdateStockVersionCheck(t *testing.T) {
	db := openDB(t)
	repo := NewBookRepo(db)

	book := &model.Book{Code: "B1", Title: "Buku", Price: decimal.NewFromInt(1000)}
	require.NoError(t, repo.Create(db, book))

	require.NoError(t, repo.UpdateStock(db, book.ID, 0, 5, "u1"))
	err := repo.UpdateStock(db, book.ID, 0, 7, "u2")
	assert.ErrorIs(t, err, reconcile.ErrConcurrentUpdate)

	got, err := repo.FindByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.EqualValues(t, 1, got.Version)
	assert.Equal(t, "u1", got.UpdatedBy)
}

func TestStockLogRepo_DeleteMissingRows(t *testing.T) {
	db := openDB(t)
	repo := NewStockLogRepo(db)
	bookID := uuid.New()

	logs := []model.StockLog{
		{BookID: bookID, Delta: 5, QtyAfter: 5, RefType: model.StockRefOpening},
		{BookID: bookID, Delta: -2, QtyBefore: 5, QtyAfter: 3, RefType: model.StockRefManual},
	}
	require.NoError(t, repo.Create(db, logs))

	sums, err := repo.SumDeltas()
	require.NoError(t, err)
	assert.Equal(t, 3, sums[bookID])

	found, err := repo.FindByBook(bookID, 10)
	require.NoError(t, err)
	require.Len(t, found, 2)

	ids := []uuid.UUID{found[0].ID, found[1].ID}
	require.NoError(t, repo.Delete(db, ids[:1]))
	assert.ErrorIs(t, repo.Delete(db, ids), reconcile.ErrConcurrentUpdate)
}

func TestLedgerRepo_SoftDeleteAndSummary(t *testing.T) {
	db := openDB(t)
	repo := NewLedgerRepo(db)
	date := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	entry := func(number string, dir model.Direction, amount int64) model.LedgerEntry {
		return model.LedgerEntry{
			Number:    number,
			Direction: dir,
			Category:  model.CategoryIncome,
			Amount:    model.SignedAmount(dir, decimal.NewFromInt(amount)),
			Date:      date,
			Detail:    datatypes.NewJSONType(model.LedgerDetail{}),
		}
	}
	entries := []model.LedgerEntry{
		entry("MUT-1", model.DirectionIn, 70000),
		entry("MUT-2", model.DirectionOut, 25000),
	}
	require.NoError(t, repo.Create(db, entries))

	from, to := date.Add(-time.Hour), date.Add(time.Hour)
	sum, err := repo.GetFinancialSummary(from, to)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70000).Equal(sum.In))
	assert.True(t, decimal.NewFromInt(25000).Equal(sum.Out))
	assert.True(t, decimal.NewFromInt(45000).Equal(sum.Net))

	require.NoError(t, repo.SoftDelete(db, []uuid.UUID{entries[1].ID}, "u1"))
	assert.ErrorIs(t, repo.SoftDelete(db, []uuid.UUID{entries[1].ID}, "u1"), reconcile.ErrConcurrentUpdate)

	_, err = repo.FindByID(db, entries[1].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, total, err := repo.List(LedgerFilter{Direction: model.DirectionOut})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}
