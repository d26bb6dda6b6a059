package reconcile

import (
	"fmt"
	"testing"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() uuid.UUID { return uuid.New() }

func (s *seqIDs) NextNumber(prefix string) string {
	s.n++
	return fmt.Sprintf("%s-%04d", prefix, s.n)
}

var testDate = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func rp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, rp(want).Equal(got), "want %d, got %s %v", want, got.String(), msgAndArgs)
}

// memStore applies changesets the way the repository does, with version checks,
// so operation sequences can be tested without a database.
type memStore struct {
	invoices map[uuid.UUID]*model.Invoice
	books    map[uuid.UUID]*model.Book
	logs     map[uuid.UUID]model.StockLog
	ledger   map[uuid.UUID]model.LedgerEntry
	ids      *seqIDs
}

func newMemStore() *memStore {
	return &memStore{
		invoices: map[uuid.UUID]*model.Invoice{},
		books:    map[uuid.UUID]*model.Book{},
		logs:     map[uuid.UUID]model.StockLog{},
		ledger:   map[uuid.UUID]model.LedgerEntry{},
		ids:      &seqIDs{},
	}
}

// addBook creates a book whose opening stock is logged, like InventoryService does.
func (m *memStore) addBook(t *testing.T, title string, price int64, discountPct int64, stock int) *model.Book {
	t.Helper()
	b := &model.Book{Title: title, Code: title, Price: rp(price), DiscountPct: rp(discountPct)}
	b.ID = uuid.New()
	m.books[b.ID] = b
	if stock != 0 {
		cs := &Changeset{}
		working := *b
		_, err := AdjustStock(cs, &working, stock, StockEntry{Reason: "Stok awal", RefType: model.StockRefOpening, At: testDate}, m.ids)
		require.NoError(t, err)
		require.NoError(t, m.apply(cs))
	}
	return m.books[b.ID]
}

// addInvoice stores an invoice in the state the walkthrough scenarios start from.
func (m *memStore) addInvoice(items []model.InvoiceItem, paid int64) *model.Invoice {
	inv := &model.Invoice{Number: m.ids.NextNumber("INV"), CustomerName: "Toko Buku Sinar", Date: testDate}
	inv.ID = uuid.New()
	for i := range items {
		items[i].ID = uuid.New()
		items[i].InvoiceID = inv.ID
		items[i].Position = i
	}
	inv.Items = items
	m.invoices[inv.ID] = inv
	m.seedPaid(inv, paid)
	return inv
}

// seedPaid records an earlier payment so paid is backed by a history row.
func (m *memStore) seedPaid(inv *model.Invoice, paid int64) {
	inv.Payments = nil
	if paid > 0 {
		inv.Payments = []model.InvoicePayment{{
			ID:            uuid.New(),
			InvoiceID:     inv.ID,
			LedgerEntryID: uuid.New(),
			Date:          testDate,
			Amount:        rp(paid),
		}}
	}
	inv.AmountPaid = rp(paid)
	inv.Recalculate()
}

func (m *memStore) apply(cs *Changeset) error {
	for _, w := range cs.Invoices {
		cur, ok := m.invoices[w.Invoice.ID]
		if !ok || cur.Version != w.ExpectedVersion {
			return ErrConcurrentUpdate
		}
	}
	for _, s := range cs.Stocks {
		cur, ok := m.books[s.BookID]
		if !ok || cur.Version != s.ExpectedVersion {
			return ErrConcurrentUpdate
		}
	}

	for _, inv := range cs.CreateInvoices {
		m.invoices[inv.ID] = inv.Clone()
	}
	for _, w := range cs.Invoices {
		next := w.Invoice.Clone()
		next.Version = w.ExpectedVersion + 1
		m.invoices[next.ID] = next
	}
	for _, s := range cs.Stocks {
		b := *m.books[s.BookID]
		b.Stock = s.NewStock
		b.Version++
		m.books[s.BookID] = &b
	}
	for _, l := range cs.CreateStockLogs {
		m.logs[l.ID] = l
	}
	for _, id := range cs.DeleteStockLogs {
		delete(m.logs, id)
	}
	for _, e := range cs.CreateLedger {
		m.ledger[e.ID] = e
	}
	for _, id := range cs.DeleteLedger {
		delete(m.ledger, id)
	}
	return nil
}

func (m *memStore) logsForLedger(id uuid.UUID) []model.StockLog {
	var out []model.StockLog
	for _, l := range m.logs {
		if l.LedgerEntryID != nil && *l.LedgerEntryID == id {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) batchOf(e model.LedgerEntry) []model.LedgerEntry {
	if e.BatchID == nil {
		return nil
	}
	var out []model.LedgerEntry
	for _, other := range m.ledger {
		if other.BatchID != nil && *other.BatchID == *e.BatchID {
			out = append(out, other)
		}
	}
	return out
}

func (m *memStore) sumDeltas(bookID uuid.UUID) int {
	sum := 0
	for _, l := range m.logs {
		if l.BookID == bookID {
			sum += l.Delta
		}
	}
	return sum
}

func (m *memStore) pay(t *testing.T, allocs ...AllocationInput) *PaymentPlan {
	t.Helper()
	plan, err := PlanPayment(PaymentInput{Allocations: allocs, Date: testDate, Actor: "tester"}, m.invoices, m.ids)
	require.NoError(t, err)
	require.NoError(t, m.apply(&plan.Changeset))
	return plan
}

func (m *memStore) returnItems(t *testing.T, invoiceID uuid.UUID, policy OutflowPolicy, lines ...ReturnLine) *ReturnPlan {
	t.Helper()
	plan, err := PlanReturn(ReturnInput{InvoiceID: invoiceID, Items: lines, Date: testDate, Actor: "tester"},
		m.invoices[invoiceID], m.books, policy, m.ids)
	require.NoError(t, err)
	require.NoError(t, m.apply(&plan.Changeset))
	return plan
}

func (m *memStore) reverse(t *testing.T, ledgerID uuid.UUID) *ReversalPlan {
	t.Helper()
	entry, ok := m.ledger[ledgerID]
	require.True(t, ok, "ledger entry %s not in store", ledgerID)
	plan, err := PlanReversal(ReversalInput{
		Entry:     &entry,
		Batch:     m.batchOf(entry),
		Invoices:  m.invoices,
		StockLogs: m.logsForLedger(entry.ID),
		Books:     m.books,
	})
	require.NoError(t, err)
	require.NoError(t, m.apply(&plan.Changeset))
	return plan
}

func lineItem(book *model.Book, qty int) model.InvoiceItem {
	return model.InvoiceItem{
		BookID:      book.ID,
		Title:       book.Title,
		Qty:         qty,
		UnitPrice:   book.Price,
		DiscountPct: book.DiscountPct,
	}
}

// assertStatusConsistent checks PAID iff paid >= total, UNPAID iff paid == 0, else PARTIAL.
func assertStatusConsistent(t *testing.T, inv *model.Invoice) {
	t.Helper()
	switch {
	case inv.AmountPaid.GreaterThanOrEqual(inv.TotalDue):
		assert.Equal(t, model.StatusPaid, inv.Status, inv.Number)
	case inv.AmountPaid.IsZero():
		assert.Equal(t, model.StatusUnpaid, inv.Status, inv.Number)
	default:
		assert.Equal(t, model.StatusPartial, inv.Status, inv.Number)
	}
}
