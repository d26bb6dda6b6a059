package service

import (
	"context"
	"fmt"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/logger"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconciliationService keeps invoices, stock and the mutasi consistent when
// payments and returns are recorded or reversed.
type ReconciliationService interface {
	ApplyPayment(ctx context.Context, in reconcile.PaymentInput, actor Actor) (*PaymentResult, error)
	ApplyReturn(ctx context.Context, in reconcile.ReturnInput, actor Actor) (*ReturnResult, error)
	Reverse(ctx context.Context, ledgerEntryID uuid.UUID, actor Actor) (*ReversalResult, error)
}

type PaymentResult struct {
	BatchID  *uuid.UUID          `json:"batch_id,omitempty"`
	Total    decimal.Decimal     `json:"total"`
	Entries  []model.LedgerEntry `json:"entries"`
	Invoices []*model.Invoice    `json:"invoices"`
}

type ReturnResult struct {
	Entry    model.LedgerEntry `json:"entry"`
	Invoice  *model.Invoice    `json:"invoice"`
	Gross    decimal.Decimal   `json:"gross"`
	Discount decimal.Decimal   `json:"discount"`
	Net      decimal.Decimal   `json:"net"`
	Refund   decimal.Decimal   `json:"refund"`
	Outflow  decimal.Decimal   `json:"outflow"`
}

type ReversalResult struct {
	Category        model.LedgerCategory `json:"category"`
	DeletedEntries  []uuid.UUID          `json:"deleted_entries"`
	Invoices        []*model.Invoice     `json:"invoices"`
	SkippedInvoices []uuid.UUID          `json:"skipped_invoices,omitempty"`
}

type reconciliationService struct {
	store     *Store
	committer *Committer
	ids       reconcile.IDSource
	publisher events.Publisher
	blobs     storage.BlobStore
	policy    reconcile.OutflowPolicy
}

func NewReconciliationService(store *Store, committer *Committer, ids reconcile.IDSource, pub events.Publisher, blobs storage.BlobStore, policy reconcile.OutflowPolicy) ReconciliationService {
	return &reconciliationService{
		store:     store,
		committer: committer,
		ids:       ids,
		publisher: pub,
		blobs:     blobs,
		policy:    policy,
	}
}

func (s *reconciliationService) ApplyPayment(ctx context.Context, in reconcile.PaymentInput, actor Actor) (*PaymentResult, error) {
	// 1. Validasi nominal dan struktur
	if err := reconcile.ValidatePayment(in); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	in.Actor = actor.ID
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	// 2. Baca faktur, rencanakan, tulis atomik
	var plan *reconcile.PaymentPlan
	err := s.committer.Run(ctx, "ApplyPayment", lock.Keys("invoice", in.InvoiceIDs()...), actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		invoices, err := s.store.Invoices.FindByIDs(tx, in.InvoiceIDs())
		if err != nil {
			return nil, err
		}
		p, err := reconcile.PlanPayment(in, invoices, s.ids)
		if err != nil {
			return nil, err
		}
		plan = p
		return &p.Changeset, nil
	})
	if err != nil {
		return nil, err
	}

	res := &PaymentResult{
		BatchID: plan.BatchID,
		Total:   plan.Total,
		Entries: plan.Changeset.CreateLedger,
	}
	summaries := make([]payload, 0, len(plan.Changeset.Invoices))
	for _, w := range plan.Changeset.Invoices {
		res.Invoices = append(res.Invoices, w.Invoice)
		summaries = append(summaries, invoiceSummary(w.Invoice))
	}

	// 3. Broadcast setelah commit
	notify(s.publisher, events.Event{
		Type:   events.TypeInvoice,
		Action: "payment_applied",
		Data: map[string]interface{}{
			"batch_id": plan.BatchID,
			"total":    plan.Total,
			"invoices": summaries,
			"ledger":   plan.LedgerIDs,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s recorded a payment of %s on %d invoice(s)", actor.Name, plan.Total.StringFixed(2), len(summaries)),
	})
	return res, nil
}

func (s *reconciliationService) ApplyReturn(ctx context.Context, in reconcile.ReturnInput, actor Actor) (*ReturnResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	in.Actor = actor.ID
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	keys := append(lock.Keys("invoice", in.InvoiceID), lock.Keys("book", in.BookIDs()...)...)

	var plan *reconcile.ReturnPlan
	err := s.committer.Run(ctx, "ApplyReturn", keys, actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		invoices, err := s.store.Invoices.FindByIDs(tx, []uuid.UUID{in.InvoiceID})
		if err != nil {
			return nil, err
		}
		books, err := s.store.Books.FindByIDs(tx, in.BookIDs())
		if err != nil {
			return nil, err
		}
		p, err := reconcile.PlanReturn(in, invoices[in.InvoiceID], books, s.policy, s.ids)
		if err != nil {
			return nil, err
		}
		plan = p
		return &p.Changeset, nil
	})
	if err != nil {
		return nil, err
	}

	inv := plan.Changeset.Invoices[0].Invoice
	res := &ReturnResult{
		Entry:    plan.Changeset.CreateLedger[0],
		Invoice:  inv,
		Gross:    plan.Gross,
		Discount: plan.Discount,
		Net:      plan.Net,
		Refund:   plan.Refund,
		Outflow:  plan.Outflow,
	}

	notify(s.publisher, events.Event{
		Type:   events.TypeInvoice,
		Action: "return_applied",
		Data: map[string]interface{}{
			"invoice": invoiceSummary(inv),
			"ledger":  plan.LedgerEntryID,
			"refund":  plan.Refund,
			"net":     plan.Net,
			"stock":   plan.Changeset.Stocks,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s recorded a return on %s (%s)", actor.Name, inv.Number, plan.Net.StringFixed(2)),
	})
	return res, nil
}

func (s *reconciliationService) Reverse(ctx context.Context, ledgerEntryID uuid.UUID, actor Actor) (*ReversalResult, error) {
	var (
		plan     *reconcile.ReversalPlan
		category model.LedgerCategory
	)
	err := s.committer.Run(ctx, "Reverse", s.reversalKeys(ledgerEntryID), actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		// 1. Entri mutasi yang dibatalkan
		entry, err := s.store.Ledger.FindByID(tx, ledgerEntryID)
		if err != nil {
			return nil, notFound(err, reconcile.ErrLedgerEntryNotFound)
		}
		category = entry.Category
		in := reconcile.ReversalInput{Entry: entry}

		// 2. Data terkait sesuai kategori
		switch entry.Category {
		case model.CategoryPayment:
			if entry.BatchID != nil {
				if in.Batch, err = s.store.Ledger.FindBatch(tx, *entry.BatchID); err != nil {
					return nil, err
				}
			}
			var invoiceIDs []uuid.UUID
			for _, a := range reconcile.PaymentAllocations(entry) {
				invoiceIDs = append(invoiceIDs, a.InvoiceID)
			}
			if in.Invoices, err = s.store.Invoices.FindByIDs(tx, invoiceIDs); err != nil {
				return nil, err
			}

		case model.CategoryReturn:
			if in.StockLogs, err = s.store.StockLogs.FindByLedgerEntry(tx, entry.ID); err != nil {
				return nil, err
			}
			bookIDs := make([]uuid.UUID, 0, len(in.StockLogs))
			for _, l := range in.StockLogs {
				bookIDs = append(bookIDs, l.BookID)
			}
			if in.Books, err = s.store.Books.FindByIDs(tx, bookIDs); err != nil {
				return nil, err
			}
			if entry.InvoiceID != nil {
				if in.Invoices, err = s.store.Invoices.FindByIDs(tx, []uuid.UUID{*entry.InvoiceID}); err != nil {
					return nil, err
				}
			}
		}

		// 3. Rencana pembatalan
		p, err := reconcile.PlanReversal(in)
		if err != nil {
			return nil, err
		}
		plan = p
		return &p.Changeset, nil
	})
	if err != nil {
		return nil, err
	}

	res := &ReversalResult{
		Category:        category,
		DeletedEntries:  plan.Changeset.DeleteLedger,
		SkippedInvoices: plan.SkippedInvoices,
	}
	summaries := make([]payload, 0, len(plan.Changeset.Invoices))
	for _, w := range plan.Changeset.Invoices {
		res.Invoices = append(res.Invoices, w.Invoice)
		summaries = append(summaries, invoiceSummary(w.Invoice))
	}
	if len(plan.SkippedInvoices) > 0 {
		logger.Get().WithField("skipped", plan.SkippedInvoices).Warn("reversal skipped invoices that no longer exist")
	}

	// 4. Hapus bukti (best effort, entri sudah terhapus)
	s.deleteProofs(ctx, plan.ProofURLs)

	notify(s.publisher, events.Event{
		Type:   events.TypeLedger,
		Action: "entry_reversed",
		Data: map[string]interface{}{
			"category": category,
			"deleted":  plan.Changeset.DeleteLedger,
			"invoices": summaries,
			"stock":    plan.Changeset.Stocks,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s reversed a %s entry", actor.Name, category),
	})
	return res, nil
}

// reversalKeys locks the entry plus the invoices and books it touched, read
// before the transaction starts. Everything is read again inside the plan.
func (s *reconciliationService) reversalKeys(ledgerEntryID uuid.UUID) []string {
	keys := lock.Keys("ledger", ledgerEntryID)
	entry, err := s.store.Ledger.FindByID(s.store.DB, ledgerEntryID)
	if err != nil {
		return keys
	}

	switch entry.Category {
	case model.CategoryPayment:
		for _, a := range reconcile.PaymentAllocations(entry) {
			keys = append(keys, lock.Keys("invoice", a.InvoiceID)...)
		}
	case model.CategoryReturn:
		if entry.InvoiceID != nil {
			keys = append(keys, lock.Keys("invoice", *entry.InvoiceID)...)
		}
		logs, err := s.store.StockLogs.FindByLedgerEntry(s.store.DB, entry.ID)
		if err != nil {
			return keys
		}
		for _, l := range logs {
			keys = append(keys, lock.Keys("book", l.BookID)...)
		}
	}
	return keys
}

func (s *reconciliationService) deleteProofs(ctx context.Context, urls []string) {
	if s.blobs == nil {
		return
	}
	seen := map[string]bool{}
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		if err := s.blobs.Delete(ctx, url); err != nil {
			logger.LogError("reconciliation", "Reverse", "delete proof", url, err)
		}
	}
}

type payload = map[string]interface{}

func invoiceSummary(inv *model.Invoice) payload {
	return payload{
		"id":          inv.ID,
		"number":      inv.Number,
		"total_due":   inv.TotalDue,
		"amount_paid": inv.AmountPaid,
		"status":      inv.Status,
	}
}
