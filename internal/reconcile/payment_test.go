package reconcile

import (
	"testing"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPayment_PartialThenPaid(t *testing.T) {
	m := newMemStore()
	book := m.addBook(t, "Matematika Kelas 7", 10000, 0, 50)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(book, 10)}, 0)
	assertMoney(t, 100000, inv.TotalDue)

	m.pay(t, AllocationInput{InvoiceID: inv.ID, Amount: rp(60000)})
	got := m.invoices[inv.ID]
	assertMoney(t, 60000, got.AmountPaid)
	assert.Equal(t, model.StatusPartial, got.Status)

	m.pay(t, AllocationInput{InvoiceID: inv.ID, Amount: rp(40000)})
	got = m.invoices[inv.ID]
	assertMoney(t, 100000, got.AmountPaid)
	assert.Equal(t, model.StatusPaid, got.Status)
	assert.Len(t, got.Payments, 2)
	assert.Len(t, m.ledger, 2)
}

func TestPlanPayment_SingleInvoiceEntry(t *testing.T) {
	m := newMemStore()
	book := m.addBook(t, "IPA Kelas 8", 25000, 0, 10)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(book, 2)}, 0)

	plan := m.pay(t, AllocationInput{InvoiceID: inv.ID, Amount: rp(20000)})

	require.Len(t, plan.LedgerIDs, 1)
	assert.Nil(t, plan.BatchID)
	entry := m.ledger[plan.LedgerIDs[0]]
	assert.Equal(t, model.DirectionIn, entry.Direction)
	assert.Equal(t, model.CategoryPayment, entry.Category)
	assertMoney(t, 20000, entry.Amount)
	require.NotNil(t, entry.InvoiceID)
	assert.Equal(t, inv.ID, *entry.InvoiceID)
	assert.Empty(t, entry.Detail.Data().Allocations)

	payments := m.invoices[inv.ID].Payments
	require.Len(t, payments, 1)
	assert.Equal(t, entry.ID, payments[0].LedgerEntryID)
}

func TestPlanPayment_MultiInvoiceAllocationsMatchBatchTotal(t *testing.T) {
	m := newMemStore()
	book := m.addBook(t, "Bahasa Indonesia", 50000, 0, 100)
	a := m.addInvoice([]model.InvoiceItem{lineItem(book, 1)}, 0)
	b := m.addInvoice([]model.InvoiceItem{lineItem(book, 1)}, 0)
	c := m.addInvoice([]model.InvoiceItem{lineItem(book, 1)}, 0)

	amounts := []decimal.Decimal{
		decimal.RequireFromString("33333.33"),
		decimal.RequireFromString("33333.33"),
		decimal.RequireFromString("33333.34"),
	}
	plan := m.pay(t,
		AllocationInput{InvoiceID: a.ID, Amount: amounts[0]},
		AllocationInput{InvoiceID: b.ID, Amount: amounts[1]},
		AllocationInput{InvoiceID: c.ID, Amount: amounts[2]},
	)

	require.NotNil(t, plan.BatchID)
	require.Len(t, plan.LedgerIDs, 3)
	assertMoney(t, 100000, plan.Total)

	entriesSum := decimal.Zero
	for _, id := range plan.LedgerIDs {
		entry := m.ledger[id]
		entriesSum = entriesSum.Add(entry.Amount)

		detail := entry.Detail.Data()
		require.NotNil(t, detail.BatchTotal)
		require.Len(t, detail.Allocations, 3)
		allocSum := decimal.Zero
		for _, al := range detail.Allocations {
			allocSum = allocSum.Add(al.Amount)
		}
		assert.True(t, allocSum.Equal(*detail.BatchTotal), "allocations %s != batch total %s", allocSum, detail.BatchTotal)
		assert.Equal(t, *plan.BatchID, *entry.BatchID)
	}
	assert.True(t, entriesSum.Equal(plan.Total))

	for i, inv := range []*model.Invoice{a, b, c} {
		got := m.invoices[inv.ID]
		assertStatusConsistent(t, got)
		assert.Equal(t, model.StatusPartial, got.Status)
		assert.True(t, amounts[i].Equal(got.AmountPaid))
	}
}

func TestPlanPayment_Rejects(t *testing.T) {
	m := newMemStore()
	book := m.addBook(t, "PKn Kelas 9", 10000, 0, 10)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(book, 1)}, 0)

	tests := []struct {
		name    string
		allocs  []AllocationInput
		wantErr error
	}{
		{"empty batch", nil, ErrInvalidAmount},
		{"zero amount", []AllocationInput{{InvoiceID: inv.ID, Amount: decimal.Zero}}, ErrInvalidAmount},
		{"negative amount", []AllocationInput{{InvoiceID: inv.ID, Amount: rp(-5000)}}, ErrInvalidAmount},
		{"unknown invoice", []AllocationInput{{InvoiceID: uuid.New(), Amount: rp(5000)}}, ErrInvoiceNotFound},
		{"same invoice twice", []AllocationInput{
			{InvoiceID: inv.ID, Amount: rp(1000)},
			{InvoiceID: inv.ID, Amount: rp(2000)},
		}, ErrInvalidAmount},
		{"one bad allocation fails the batch", []AllocationInput{
			{InvoiceID: inv.ID, Amount: rp(1000)},
			{InvoiceID: uuid.New(), Amount: rp(2000)},
		}, ErrInvoiceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanPayment(PaymentInput{Allocations: tt.allocs, Date: testDate}, m.invoices, m.ids)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}
	assert.True(t, m.invoices[inv.ID].AmountPaid.IsZero())
}

func TestPlanPayment_DoesNotMutateRead(t *testing.T) {
	m := newMemStore()
	book := m.addBook(t, "Sejarah", 10000, 0, 10)
	inv := m.addInvoice([]model.InvoiceItem{lineItem(book, 5)}, 0)

	_, err := PlanPayment(PaymentInput{
		Allocations: []AllocationInput{{InvoiceID: inv.ID, Amount: rp(10000)}},
		Date:        testDate,
	}, m.invoices, m.ids)
	require.NoError(t, err)

	assert.True(t, m.invoices[inv.ID].AmountPaid.IsZero())
	assert.Empty(t, m.invoices[inv.ID].Payments)
}
