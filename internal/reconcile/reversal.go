package reconcile

import (
	"fmt"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReversalInput is everything read for undoing one ledger entry.
type ReversalInput struct {
	Entry *model.LedgerEntry
	// Batch holds the sibling entries of a multi-invoice payment (Entry included or not).
	Batch    []model.LedgerEntry
	Invoices map[uuid.UUID]*model.Invoice
	// StockLogs are the rows created by the return being reversed.
	StockLogs []model.StockLog
	Books     map[uuid.UUID]*model.Book
}

type ReversalPlan struct {
	Changeset Changeset
	// SkippedInvoices could not be rolled back because they no longer resolve.
	SkippedInvoices []uuid.UUID
	// ProofURLs belong to the deleted entries and can be removed from blob storage.
	ProofURLs []string
}

// PaymentAllocations returns what a payment entry applied, per invoice.
// A single-invoice payment carries no allocation list, so it is derived from the entry.
func PaymentAllocations(entry *model.LedgerEntry) []model.Allocation {
	detail := entry.Detail.Data()
	if len(detail.Allocations) > 0 {
		return detail.Allocations
	}
	if entry.InvoiceID == nil {
		return nil
	}
	return []model.Allocation{{
		InvoiceID:     *entry.InvoiceID,
		LedgerEntryID: entry.ID,
		Amount:        entry.Amount.Abs(),
	}}
}

// PlanReversal computes the inverse of a recorded payment or return.
func PlanReversal(in ReversalInput) (*ReversalPlan, error) {
	if in.Entry == nil {
		return nil, ErrLedgerEntryNotFound
	}

	switch in.Entry.Category {
	case model.CategoryPayment:
		return planPaymentReversal(in)
	case model.CategoryReturn:
		return planReturnReversal(in)
	default:
		plan := &ReversalPlan{}
		plan.Changeset.DeleteLedger = []uuid.UUID{in.Entry.ID}
		plan.addProof(in.Entry.ProofURL)
		return plan, nil
	}
}

func planPaymentReversal(in ReversalInput) (*ReversalPlan, error) {
	plan := &ReversalPlan{}
	deleted := map[uuid.UUID]bool{}
	deleteEntry := func(e *model.LedgerEntry) {
		if deleted[e.ID] {
			return
		}
		deleted[e.ID] = true
		plan.Changeset.DeleteLedger = append(plan.Changeset.DeleteLedger, e.ID)
		plan.addProof(e.ProofURL)
	}

	deleteEntry(in.Entry)
	for i := range in.Batch {
		deleteEntry(&in.Batch[i])
	}

	for _, alloc := range PaymentAllocations(in.Entry) {
		current, ok := in.Invoices[alloc.InvoiceID]
		if !ok || current == nil {
			plan.SkippedInvoices = append(plan.SkippedInvoices, alloc.InvoiceID)
			continue
		}
		inv := current.Clone()

		// Lantai nol: urutan operasi apa pun tidak boleh membuat paid negatif
		inv.AmountPaid = decimal.Max(inv.AmountPaid.Sub(alloc.Amount), decimal.Zero)
		inv.Status = model.DeriveStatus(inv.AmountPaid, inv.TotalDue)

		kept := inv.Payments[:0:0]
		for _, p := range inv.Payments {
			if p.LedgerEntryID != alloc.LedgerEntryID {
				kept = append(kept, p)
			}
		}
		inv.Payments = kept

		plan.Changeset.Invoices = append(plan.Changeset.Invoices, InvoiceWrite{
			Invoice:         inv,
			ExpectedVersion: current.Version,
			RemovePayments:  []uuid.UUID{alloc.LedgerEntryID},
		})
	}
	return plan, nil
}

func planReturnReversal(in ReversalInput) (*ReversalPlan, error) {
	plan := &ReversalPlan{}
	plan.Changeset.DeleteLedger = []uuid.UUID{in.Entry.ID}
	plan.addProof(in.Entry.ProofURL)

	if in.Entry.InvoiceID == nil {
		return plan, nil
	}
	current, ok := in.Invoices[*in.Entry.InvoiceID]
	if !ok || current == nil {
		plan.SkippedInvoices = append(plan.SkippedInvoices, *in.Entry.InvoiceID)
		return plan, nil
	}

	inv := current.Clone()
	working := newWorkingBooks(in.Books)

	for _, log := range in.StockLogs {
		idx := -1
		if log.InvoiceItemID != nil {
			for i, it := range inv.Items {
				if it.ID == *log.InvoiceItemID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			idx = inv.ItemIndex(log.BookID)
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: invoice %s has no line for book %s", ErrInvoiceNotFound, inv.Number, log.BookID)
		}
		book, ok := working.get(log.BookID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, log.BookID)
		}

		inv.Items[idx].Qty += log.Delta
		revertStock(&plan.Changeset, book, log)
	}

	// Refund dikembalikan ke paid, tapi tidak melebihi pembayaran yang masih tercatat
	detail := in.Entry.Detail.Data()
	if detail.Refund != nil {
		restored := inv.AmountPaid.Add(*detail.Refund)
		inv.AmountPaid = decimal.Max(decimal.Min(restored, inv.PaymentsTotal()), decimal.Zero)
	}
	inv.Recalculate()

	plan.Changeset.Invoices = append(plan.Changeset.Invoices, InvoiceWrite{
		Invoice:         inv,
		ExpectedVersion: current.Version,
		ItemsChanged:    true,
	})
	return plan, nil
}

func (p *ReversalPlan) addProof(url string) {
	if url != "" {
		p.ProofURLs = append(p.ProofURLs, url)
	}
}
