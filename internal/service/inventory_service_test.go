package service

import (
	"context"
	"testing"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook_OpeningStockIsLogged(t *testing.T) {
	env := newTestEnv(t)
	b := env.book(t, "MTK-7", 45000, 20)

	assert.Equal(t, 20, env.stock(t, b))
	logs, err := env.inventory.GetStockLogs(b.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.StockRefOpening, logs[0].RefType)
	assert.Equal(t, 20, logs[0].Delta)
	env.assertNoDrift(t)

	err = env.inventory.CreateBook(context.Background(), &model.Book{Code: "MTK-7", Title: "Lain", Price: rp(1)}, owner)
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateBook_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		book model.Book
		want error
	}{
		{"missing title", model.Book{Code: "X1", Price: rp(1000)}, ErrValidation},
		{"negative price", model.Book{Code: "X2", Title: "X", Price: rp(-1)}, reconcile.ErrInvalidAmount},
		{"discount over 100", model.Book{Code: "X3", Title: "X", Price: rp(1), DiscountPct: rp(101)}, reconcile.ErrInvalidAmount},
		{"negative opening", model.Book{Code: "X4", Title: "X", Price: rp(1), Stock: -1}, reconcile.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.book
			assert.ErrorIs(t, env.inventory.CreateBook(context.Background(), &b, owner), tt.want)
		})
	}
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t)
	b := env.book(t, "IPA-8", 52000, 5)
	ctx := context.Background()

	log, err := env.inventory.AdjustStock(ctx, b.ID, StockAdjustment{Delta: 10, Reason: "Kiriman penerbit"}, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, log.QtyBefore)
	assert.Equal(t, 15, log.QtyAfter)
	assert.Equal(t, 15, env.stock(t, b))

	_, err = env.inventory.AdjustStock(ctx, b.ID, StockAdjustment{Delta: -16, Reason: "Rusak"}, owner)
	assert.ErrorIs(t, err, reconcile.ErrInsufficientStock)

	_, err = env.inventory.AdjustStock(ctx, b.ID, StockAdjustment{Delta: 0, Reason: "Nol"}, owner)
	assert.ErrorIs(t, err, reconcile.ErrInvalidAmount)

	_, err = env.inventory.AdjustStock(ctx, uuid.New(), StockAdjustment{Delta: 1, Reason: "Salah"}, owner)
	assert.ErrorIs(t, err, reconcile.ErrBookNotFound)

	assert.Equal(t, 15, env.stock(t, b))
	env.assertNoDrift(t)
	assert.Contains(t, env.pub.actions(), "stock_adjusted")
}

func TestUpdateBook_IgnoresStock(t *testing.T) {
	env := newTestEnv(t)
	b := env.book(t, "BI-9", 30000, 8)

	updated, err := env.inventory.UpdateBook(b.ID, &model.Book{Code: "BI-9", Title: "Bahasa Indonesia 9", Price: rp(32000), Stock: 999}, owner)
	require.NoError(t, err)
	assert.Equal(t, "Bahasa Indonesia 9", updated.Title)
	assert.Equal(t, 8, env.stock(t, b))
}

func TestAuditStock_ReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	b := env.book(t, "PKN-7", 25000, 12)
	env.book(t, "SBK-7", 25000, 3)

	// Perubahan stok di luar AdjustStock
	require.NoError(t, env.store.DB.Model(&model.Book{}).Where("id = ?", b.ID).Update("stock", 9).Error)

	drift, err := env.inventory.AuditStock()
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, b.ID, drift[0].BookID)
	assert.Equal(t, 9, drift[0].Stock)
	assert.Equal(t, 12, drift[0].LogTotal)
}

func TestCreateInvoice(t *testing.T) {
	env := newTestEnv(t)
	sekolah := env.customer(t, "SMP Tunas", true)
	b := &model.Book{Code: "MTK-8", Title: "Matematika 8", Price: rp(10000), SpecialPrice: rp(8000), Stock: 10}
	require.NoError(t, env.inventory.CreateBook(context.Background(), b, owner))

	inv := env.sell(t, sekolah, reconcile.SaleLine{BookID: b.ID, Qty: 4})
	assertMoney(t, 32000, inv.TotalDue)
	assert.Equal(t, "SMP Tunas", inv.CustomerName)
	assert.Equal(t, 6, env.stock(t, b))
	env.assertNoDrift(t)

	_, err := env.invoices.CreateInvoice(context.Background(), reconcile.SaleInput{
		CustomerID: sekolah.ID,
		Items:      []reconcile.SaleLine{{BookID: b.ID, Qty: 7}},
	}, owner)
	assert.ErrorIs(t, err, reconcile.ErrInsufficientStock)

	_, err = env.invoices.CreateInvoice(context.Background(), reconcile.SaleInput{
		CustomerID: uuid.New(),
		Items:      []reconcile.SaleLine{{BookID: b.ID, Qty: 1}},
	}, owner)
	assert.ErrorIs(t, err, reconcile.ErrCustomerNotFound)

	list, total, err := env.invoices.Search(invoiceFilterFor("tunas"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, inv.Number, list[0].Number)

	_, err = env.invoices.GetInvoice(uuid.New())
	assert.ErrorIs(t, err, reconcile.ErrInvoiceNotFound)
}
