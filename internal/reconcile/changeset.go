package reconcile

import (
	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
)

// IDSource reserves keys before the write so records can reference each other.
type IDSource interface {
	NewID() uuid.UUID
	NextNumber(prefix string) string
}

// InvoiceWrite is the final state of one invoice, guarded by the version it was read at.
type InvoiceWrite struct {
	Invoice         *model.Invoice
	ExpectedVersion int64
	ItemsChanged    bool
	AddPayments     []model.InvoicePayment
	RemovePayments  []uuid.UUID // ledger entry ids
}

// StockWrite is the final stock of one book, guarded by the version it was read at.
type StockWrite struct {
	BookID          uuid.UUID
	ExpectedVersion int64
	NewStock        int
}

// Changeset is everything one operation commits. It is applied all-or-nothing.
type Changeset struct {
	CreateInvoices  []*model.Invoice
	Invoices        []InvoiceWrite
	Stocks          []StockWrite
	CreateStockLogs []model.StockLog
	DeleteStockLogs []uuid.UUID
	CreateLedger    []model.LedgerEntry
	DeleteLedger    []uuid.UUID
}

// Empty reports whether applying the changeset would write nothing.
func (cs *Changeset) Empty() bool {
	return len(cs.CreateInvoices) == 0 && len(cs.Invoices) == 0 && len(cs.Stocks) == 0 &&
		len(cs.CreateStockLogs) == 0 && len(cs.DeleteStockLogs) == 0 &&
		len(cs.CreateLedger) == 0 && len(cs.DeleteLedger) == 0
}

// InvoiceIDs lists the invoices the changeset touches, for locking and notifications.
func (cs *Changeset) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cs.Invoices)+len(cs.CreateInvoices))
	for _, inv := range cs.CreateInvoices {
		ids = append(ids, inv.ID)
	}
	for _, w := range cs.Invoices {
		ids = append(ids, w.Invoice.ID)
	}
	return ids
}

// BookIDs lists the books whose stock changes.
func (cs *Changeset) BookIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cs.Stocks))
	for _, s := range cs.Stocks {
		ids = append(ids, s.BookID)
	}
	return ids
}
