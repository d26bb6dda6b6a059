package reconcile

import (
	"testing"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReturn_RefundWhenOverpaid(t *testing.T) {
	m := newMemStore()
	b1 := m.addBook(t, "B1", 10000, 0, 20)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 10)}, 100000)
	require.Equal(t, model.StatusPaid, inv.Status)

	plan := m.returnItems(t, inv.ID, PolicyOverpayment, ReturnLine{BookID: b1.ID, Qty: 3})

	got := m.invoices[inv.ID]
	assertMoney(t, 70000, got.TotalDue)
	assertMoney(t, 70000, got.AmountPaid)
	assert.Equal(t, model.StatusPaid, got.Status)
	assert.Equal(t, 7, got.Items[0].Qty)
	assertMoney(t, 30000, plan.Refund)
	assertMoney(t, 30000, plan.Outflow)
	assert.Equal(t, 23, m.books[b1.ID].Stock)

	entry := m.ledger[plan.LedgerEntryID]
	assert.Equal(t, model.DirectionOut, entry.Direction)
	assert.Equal(t, model.CategoryReturn, entry.Category)
	assertMoney(t, -30000, entry.Amount)
	detail := entry.Detail.Data()
	require.Len(t, detail.ReturnedItems, 1)
	assert.Equal(t, 3, detail.ReturnedItems[0].Qty)
	assertMoney(t, 30000, detail.ReturnedItems[0].Subtotal)

	logs := m.logsForLedger(plan.LedgerEntryID)
	require.Len(t, logs, 1)
	assert.Equal(t, 3, logs[0].Delta)
	assert.Equal(t, 20, logs[0].QtyBefore)
	assert.Equal(t, 23, logs[0].QtyAfter)
	assert.Equal(t, model.StockRefReturn, logs[0].RefType)
	assert.Contains(t, logs[0].Reason, inv.Number)
}

func TestPlanReturn_NoRefundWhenUnderpaid(t *testing.T) {
	m := newMemStore()
	b1 := m.addBook(t, "B1", 10000, 0, 20)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 10)}, 40000)
	require.Equal(t, model.StatusPartial, inv.Status)

	plan := m.returnItems(t, inv.ID, PolicyOverpayment, ReturnLine{BookID: b1.ID, Qty: 3})

	got := m.invoices[inv.ID]
	assertMoney(t, 70000, got.TotalDue)
	assertMoney(t, 40000, got.AmountPaid)
	assert.Equal(t, model.StatusPartial, got.Status)
	assert.True(t, plan.Refund.IsZero())
	assertMoney(t, 30000, plan.Net)
	assertMoney(t, -30000, m.ledger[plan.LedgerEntryID].Amount)
	assert.Equal(t, 23, m.books[b1.ID].Stock)
}

func TestPlanReturn_Discounts(t *testing.T) {
	m := newMemStore()
	b1 := m.addBook(t, "B1", 10000, 10, 20)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 10)}, 0)
	assertMoney(t, 90000, inv.TotalDue)

	t.Run("auto discount follows item discount", func(t *testing.T) {
		plan, err := PlanReturn(ReturnInput{InvoiceID: inv.ID, Items: []ReturnLine{{BookID: b1.ID, Qty: 3}}, Date: testDate},
			m.invoices[inv.ID], m.books, PolicyOverpayment, m.ids)
		require.NoError(t, err)
		assertMoney(t, 30000, plan.Gross)
		assertMoney(t, 3000, plan.Discount)
		assertMoney(t, 27000, plan.Net)
		assertMoney(t, 63000, plan.Changeset.Invoices[0].Invoice.TotalDue)
	})

	t.Run("manual override replaces auto discount", func(t *testing.T) {
		override := rp(5000)
		plan, err := PlanReturn(ReturnInput{InvoiceID: inv.ID, Items: []ReturnLine{{BookID: b1.ID, Qty: 3}}, DiscountOverride: &override, Date: testDate},
			m.invoices[inv.ID], m.books, PolicyOverpayment, m.ids)
		require.NoError(t, err)
		assertMoney(t, 5000, plan.Discount)
		assertMoney(t, 25000, plan.Net)
		assertMoney(t, -25000, plan.Changeset.CreateLedger[0].Amount)
	})
}

func TestPlanReturn_OutflowPolicy(t *testing.T) {
	tests := []struct {
		policy      OutflowPolicy
		wantOutflow int64
	}{
		{PolicyOverpayment, 10000},
		{PolicyReturnedValue, 30000},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			m := newMemStore()
			b1 := m.addBook(t, "B1", 10000, 0, 20)
			inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 10)}, 80000)

			plan := m.returnItems(t, inv.ID, tt.policy, ReturnLine{BookID: b1.ID, Qty: 3})

			assertMoney(t, 10000, plan.Refund)
			assertMoney(t, tt.wantOutflow, plan.Outflow)
			assertMoney(t, 70000, m.invoices[inv.ID].AmountPaid)
			assert.Equal(t, model.StatusPaid, m.invoices[inv.ID].Status)
		})
	}
}

func TestPlanReturn_Rejects(t *testing.T) {
	m := newMemStore()
	b1 := m.addBook(t, "B1", 10000, 0, 20)
	other := m.addBook(t, "B2", 5000, 0, 20)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 10)}, 0)
	tooMuch := rp(40000)

	tests := []struct {
		name     string
		lines    []ReturnLine
		override *decimal.Decimal
		wantErr  error
	}{
		{"more than sold", []ReturnLine{{BookID: b1.ID, Qty: 11}}, nil, ErrQuantityExceedsAvailable},
		{"duplicate lines summed past sold", []ReturnLine{{BookID: b1.ID, Qty: 6}, {BookID: b1.ID, Qty: 5}}, nil, ErrQuantityExceedsAvailable},
		{"book not on invoice", []ReturnLine{{BookID: other.ID, Qty: 1}}, nil, ErrQuantityExceedsAvailable},
		{"nothing selected", []ReturnLine{{BookID: b1.ID, Qty: 0}}, nil, ErrNoItemsSelected},
		{"negative qty", []ReturnLine{{BookID: b1.ID, Qty: -1}}, nil, ErrInvalidAmount},
		{"discount above gross", []ReturnLine{{BookID: b1.ID, Qty: 3}}, &tooMuch, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanReturn(ReturnInput{InvoiceID: inv.ID, Items: tt.lines, DiscountOverride: tt.override, Date: testDate},
				m.invoices[inv.ID], m.books, PolicyOverpayment, m.ids)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}

	_, err := PlanReturn(ReturnInput{InvoiceID: uuid.New()}, nil, m.books, PolicyOverpayment, m.ids)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	assert.Equal(t, 10, m.invoices[inv.ID].Items[0].Qty)
	assert.Equal(t, 20, m.books[b1.ID].Stock)
}

func TestPlanReturn_FullReturnLeavesZeroLine(t *testing.T) {
	m := newMemStore()
	b1 := m.addBook(t, "B1", 10000, 0, 0)
	b2 := m.addBook(t, "B2", 20000, 0, 0)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(b1, 2), lineItem(b2, 1)}, 0)

	m.returnItems(t, inv.ID, PolicyOverpayment, ReturnLine{BookID: b1.ID, Qty: 2}, ReturnLine{BookID: b2.ID, Qty: 1})

	got := m.invoices[inv.ID]
	require.Len(t, got.Items, 2)
	assert.Equal(t, 0, got.Items[0].Qty)
	assert.Equal(t, 0, got.Items[1].Qty)
	assert.True(t, got.TotalDue.IsZero())
	assert.Equal(t, model.StatusPaid, got.Status)
	assert.Equal(t, 2, m.books[b1.ID].Stock)
	assert.Equal(t, 1, m.books[b2.ID].Stock)
}

func TestParseOutflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OutflowPolicy
		wantErr bool
	}{
		{"", PolicyOverpayment, false},
		{"overpayment", PolicyOverpayment, false},
		{" Returned_Value ", PolicyReturnedValue, false},
		{"always-refund", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutflowPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
