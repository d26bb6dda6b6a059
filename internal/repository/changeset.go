package repository

import (
	"go-bookstore-ws/internal/reconcile"

	"gorm.io/gorm"
)

// ChangesetWriter commits a reconcile.Changeset. The caller owns the transaction.
type ChangesetWriter interface {
	Apply(tx *gorm.DB, cs *reconcile.Changeset, actor string) error
}

type changesetWriter struct {
	books    BookRepository
	logs     StockLogRepository
	invoices InvoiceRepository
	ledger   LedgerRepository
}

func NewChangesetWriter(books BookRepository, logs StockLogRepository, invoices InvoiceRepository, ledger LedgerRepository) ChangesetWriter {
	return &changesetWriter{books: books, logs: logs, invoices: invoices, ledger: ledger}
}

// Apply writes every part of cs through tx. Any error leaves the transaction
// to be rolled back; ErrConcurrentUpdate means a version check lost.
func (w *changesetWriter) Apply(tx *gorm.DB, cs *reconcile.Changeset, actor string) error {
	// 1. Faktur baru (penjualan)
	for _, inv := range cs.CreateInvoices {
		inv.Stamp(actor)
		if err := w.invoices.Create(tx, inv); err != nil {
			return err
		}
	}

	// 2. Faktur yang berubah, dijaga versi
	for _, iw := range cs.Invoices {
		if err := w.invoices.Update(tx, iw, actor); err != nil {
			return err
		}
	}

	// 3. Stok buku, dijaga versi
	for _, s := range cs.Stocks {
		if err := w.books.UpdateStock(tx, s.BookID, s.ExpectedVersion, s.NewStock, actor); err != nil {
			return err
		}
	}

	// 4. Log stok
	if err := w.logs.Delete(tx, cs.DeleteStockLogs); err != nil {
		return err
	}
	if err := w.logs.Create(tx, cs.CreateStockLogs); err != nil {
		return err
	}

	// 5. Mutasi
	if err := w.ledger.SoftDelete(tx, cs.DeleteLedger, actor); err != nil {
		return err
	}
	return w.ledger.Create(tx, cs.CreateLedger)
}
