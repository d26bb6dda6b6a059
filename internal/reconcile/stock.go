package reconcile

import (
	"fmt"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
)

// StockEntry describes why a book quantity changes.
type StockEntry struct {
	Reason        string
	RefType       model.StockRefType
	InvoiceID     *uuid.UUID
	InvoiceItemID *uuid.UUID
	LedgerEntryID *uuid.UUID
	Actor         string
	At            time.Time
}

// AdjustStock is the single way to change a book's stock: it moves the working
// copy of the book and records the paired log row in the same changeset.
// Several adjustments of one book inside a plan chain their before/after values.
func AdjustStock(cs *Changeset, book *model.Book, delta int, entry StockEntry, ids IDSource) (model.StockLog, error) {
	if delta == 0 {
		return model.StockLog{}, fmt.Errorf("%w: stock delta must not be zero", ErrInvalidAmount)
	}

	before := book.Stock
	book.Stock += delta

	log := model.StockLog{
		ID:            ids.NewID(),
		BookID:        book.ID,
		Delta:         delta,
		QtyBefore:     before,
		QtyAfter:      book.Stock,
		Reason:        entry.Reason,
		RefType:       entry.RefType,
		InvoiceID:     entry.InvoiceID,
		InvoiceItemID: entry.InvoiceItemID,
		LedgerEntryID: entry.LedgerEntryID,
		CreatedBy:     entry.Actor,
		CreatedAt:     entry.At,
	}
	cs.CreateStockLogs = append(cs.CreateStockLogs, log)
	cs.setStock(book)
	return log, nil
}

// revertStock undoes a logged adjustment by removing its log row and its effect.
func revertStock(cs *Changeset, book *model.Book, log model.StockLog) {
	book.Stock -= log.Delta
	cs.DeleteStockLogs = append(cs.DeleteStockLogs, log.ID)
	cs.setStock(book)
}

func (cs *Changeset) setStock(book *model.Book) {
	for i := range cs.Stocks {
		if cs.Stocks[i].BookID == book.ID {
			cs.Stocks[i].NewStock = book.Stock
			return
		}
	}
	cs.Stocks = append(cs.Stocks, StockWrite{
		BookID:          book.ID,
		ExpectedVersion: book.Version,
		NewStock:        book.Stock,
	})
}

// workingBooks clones books on first use so a plan never mutates what was read.
type workingBooks struct {
	src  map[uuid.UUID]*model.Book
	copy map[uuid.UUID]*model.Book
}

func newWorkingBooks(src map[uuid.UUID]*model.Book) *workingBooks {
	return &workingBooks{src: src, copy: make(map[uuid.UUID]*model.Book)}
}

func (w *workingBooks) get(id uuid.UUID) (*model.Book, bool) {
	if b, ok := w.copy[id]; ok {
		return b, true
	}
	b, ok := w.src[id]
	if !ok || b == nil {
		return nil, false
	}
	cp := *b
	w.copy[id] = &cp
	return &cp, true
}
