package reconcile

import (
	"fmt"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AllocationInput is the part of a payment applied to one invoice.
type AllocationInput struct {
	InvoiceID uuid.UUID       `json:"invoice_id" validate:"uuid_required"`
	Amount    decimal.Decimal `json:"amount" validate:"decimal_gt0"`
}

type PaymentInput struct {
	Allocations []AllocationInput `json:"allocations" validate:"required,min=1,dive"`
	Date        time.Time         `json:"date"`
	Note        string            `json:"note" validate:"max=255"`
	ProofURL    string            `json:"proof_url" validate:"omitempty,max=512"`
	Actor       string            `json:"-"`
}

type PaymentPlan struct {
	Changeset Changeset
	LedgerIDs []uuid.UUID
	BatchID   *uuid.UUID
	Total     decimal.Decimal
}

// InvoiceIDs returns the invoices a payment needs read, in request order.
func (in PaymentInput) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(in.Allocations))
	for _, a := range in.Allocations {
		ids = append(ids, a.InvoiceID)
	}
	return ids
}

// ValidatePayment checks the request shape before anything is read.
func ValidatePayment(in PaymentInput) error {
	if len(in.Allocations) == 0 {
		return fmt.Errorf("%w: no allocation given", ErrInvalidAmount)
	}
	seen := make(map[uuid.UUID]bool, len(in.Allocations))
	for _, a := range in.Allocations {
		if !a.Amount.IsPositive() {
			return fmt.Errorf("%w: allocation for invoice %s must be greater than zero", ErrInvalidAmount, a.InvoiceID)
		}
		if seen[a.InvoiceID] {
			return fmt.Errorf("%w: invoice %s allocated twice", ErrInvalidAmount, a.InvoiceID)
		}
		seen[a.InvoiceID] = true
	}
	return nil
}

// PlanPayment computes the final state of every invoice in the batch plus one
// IN ledger entry per invoice. invoices must come from a fresh read.
func PlanPayment(in PaymentInput, invoices map[uuid.UUID]*model.Invoice, ids IDSource) (*PaymentPlan, error) {
	if err := ValidatePayment(in); err != nil {
		return nil, err
	}
	for _, a := range in.Allocations {
		if inv, ok := invoices[a.InvoiceID]; !ok || inv == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, a.InvoiceID)
		}
	}

	plan := &PaymentPlan{Total: decimal.Zero}

	// Reserve ledger ids first: the allocation list stored on every entry
	// of a batch references all of them.
	ledgerIDs := make([]uuid.UUID, len(in.Allocations))
	for i := range in.Allocations {
		ledgerIDs[i] = ids.NewID()
	}

	multi := len(in.Allocations) > 1
	var allocations []model.Allocation
	if multi {
		batchID := ids.NewID()
		plan.BatchID = &batchID
		for i, a := range in.Allocations {
			allocations = append(allocations, model.Allocation{
				InvoiceID:     a.InvoiceID,
				InvoiceNumber: invoices[a.InvoiceID].Number,
				LedgerEntryID: ledgerIDs[i],
				Amount:        a.Amount,
			})
		}
	}
	for _, a := range in.Allocations {
		plan.Total = plan.Total.Add(a.Amount)
	}

	for i, a := range in.Allocations {
		inv := invoices[a.InvoiceID].Clone()
		ledgerID := ledgerIDs[i]

		inv.AmountPaid = inv.AmountPaid.Add(a.Amount)
		inv.Status = model.DeriveStatus(inv.AmountPaid, inv.TotalDue)

		payment := model.InvoicePayment{
			ID:            ids.NewID(),
			InvoiceID:     inv.ID,
			LedgerEntryID: ledgerID,
			Date:          in.Date,
			Amount:        a.Amount,
			Note:          in.Note,
		}
		inv.Payments = append(inv.Payments, payment)

		plan.Changeset.Invoices = append(plan.Changeset.Invoices, InvoiceWrite{
			Invoice:         inv,
			ExpectedVersion: invoices[a.InvoiceID].Version,
			AddPayments:     []model.InvoicePayment{payment},
		})

		detail := model.LedgerDetail{}
		if multi {
			total := plan.Total
			detail.Allocations = allocations
			detail.BatchTotal = &total
		}

		note := in.Note
		if note == "" {
			note = "Pembayaran " + inv.Number
		}
		invoiceID := inv.ID
		entry := model.LedgerEntry{
			Number:    ids.NextNumber("MUT"),
			Direction: model.DirectionIn,
			Category:  model.CategoryPayment,
			Amount:    model.SignedAmount(model.DirectionIn, a.Amount),
			Note:      note,
			Date:      in.Date,
			InvoiceID: &invoiceID,
			BatchID:   plan.BatchID,
			ProofURL:  in.ProofURL,
			Detail:    datatypes.NewJSONType(detail),
		}
		entry.ID = ledgerID
		entry.Stamp(in.Actor)

		plan.Changeset.CreateLedger = append(plan.Changeset.CreateLedger, entry)
		plan.LedgerIDs = append(plan.LedgerIDs, ledgerID)
	}

	return plan, nil
}
