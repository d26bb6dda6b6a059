package reconcile

import (
	"fmt"
	"strings"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OutflowPolicy decides the cash recorded for a return.
type OutflowPolicy string

const (
	// PolicyOverpayment records the refund when the invoice was overpaid,
	// otherwise the net returned value.
	PolicyOverpayment OutflowPolicy = "overpayment"
	// PolicyReturnedValue always records the net returned value.
	PolicyReturnedValue OutflowPolicy = "returned_value"
)

func ParseOutflowPolicy(s string) (OutflowPolicy, error) {
	switch OutflowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyOverpayment:
		return PolicyOverpayment, nil
	case PolicyReturnedValue:
		return PolicyReturnedValue, nil
	}
	return "", fmt.Errorf("unknown return outflow policy %q", s)
}

func (p OutflowPolicy) Outflow(refund, net decimal.Decimal) decimal.Decimal {
	if p == PolicyReturnedValue {
		return net
	}
	if refund.IsPositive() {
		return refund
	}
	return net
}

type ReturnLine struct {
	BookID uuid.UUID `json:"book_id" validate:"uuid_required"`
	Qty    int       `json:"qty" validate:"gte=0"`
}

type ReturnInput struct {
	InvoiceID uuid.UUID    `json:"-"`
	Items     []ReturnLine `json:"items" validate:"required,min=1,dive"`
	// DiscountOverride replaces the auto-computed discount once the user edits it.
	DiscountOverride *decimal.Decimal `json:"discount_override"`
	Date             time.Time        `json:"date"`
	Note             string           `json:"note" validate:"max=255"`
	ProofURL         string           `json:"proof_url" validate:"omitempty,max=512"`
	Actor            string           `json:"-"`
}

// BookIDs lists the books whose stock a return touches.
func (in ReturnInput) BookIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, l := range in.Items {
		ids = append(ids, l.BookID)
	}
	return ids
}

type ReturnPlan struct {
	Changeset     Changeset
	LedgerEntryID uuid.UUID
	Gross         decimal.Decimal
	Discount      decimal.Decimal
	Net           decimal.Decimal
	Refund        decimal.Decimal
	Outflow       decimal.Decimal
}

// mergeReturnLines sums quantities per book, keeping the request order.
func mergeReturnLines(lines []ReturnLine) ([]ReturnLine, error) {
	merged := make([]ReturnLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Qty < 0 {
			return nil, fmt.Errorf("%w: negative return quantity for book %s", ErrInvalidAmount, l.BookID)
		}
		if i, ok := index[l.BookID]; ok {
			merged[i].Qty += l.Qty
			continue
		}
		index[l.BookID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// PlanReturn shrinks the invoice lines, recomputes totals and the refund,
// restores stock and records one OUT ledger entry, as a single changeset.
func PlanReturn(in ReturnInput, invoice *model.Invoice, books map[uuid.UUID]*model.Book, policy OutflowPolicy, ids IDSource) (*ReturnPlan, error) {
	if invoice == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, in.InvoiceID)
	}
	lines, err := mergeReturnLines(in.Items)
	if err != nil {
		return nil, err
	}

	inv := invoice.Clone()
	working := newWorkingBooks(books)
	plan := &ReturnPlan{LedgerEntryID: ids.NewID()}

	gross := decimal.Zero
	autoDiscount := decimal.Zero
	var returned []model.ReturnedItem
	type pending struct {
		itemIdx int
		qty     int
	}
	var toRestock []pending

	// 1. Validasi semua baris sebelum ada perubahan
	for _, l := range lines {
		if l.Qty == 0 {
			continue
		}
		idx := inv.ItemIndex(l.BookID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: book %s is not on invoice %s", ErrQuantityExceedsAvailable, l.BookID, inv.Number)
		}
		item := inv.Items[idx]
		if l.Qty > item.Qty {
			return nil, fmt.Errorf("%w: %q has %d left, %d requested", ErrQuantityExceedsAvailable, item.Title, item.Qty, l.Qty)
		}
		if _, ok := working.get(l.BookID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, l.BookID)
		}
		toRestock = append(toRestock, pending{itemIdx: idx, qty: l.Qty})
	}
	if len(toRestock) == 0 {
		return nil, ErrNoItemsSelected
	}

	// 2. Kurangi qty baris faktur dan hitung nilai retur
	for _, p := range toRestock {
		item := &inv.Items[p.itemIdx]
		item.Qty -= p.qty

		lineGross := item.UnitPrice.Mul(decimal.NewFromInt(int64(p.qty)))
		lineNet := model.NetValue(p.qty, item.UnitPrice, item.DiscountPct)
		gross = gross.Add(lineGross)
		autoDiscount = autoDiscount.Add(lineGross.Sub(lineNet))

		returned = append(returned, model.ReturnedItem{
			BookID:      item.BookID,
			Title:       item.Title,
			UnitPrice:   item.UnitPrice,
			DiscountPct: item.DiscountPct,
			Qty:         p.qty,
			Subtotal:    lineNet,
		})
	}

	discount := autoDiscount
	if in.DiscountOverride != nil {
		if in.DiscountOverride.IsNegative() || in.DiscountOverride.GreaterThan(gross) {
			return nil, fmt.Errorf("%w: discount must be between 0 and %s", ErrInvalidAmount, gross.StringFixed(2))
		}
		discount = *in.DiscountOverride
	}
	net := gross.Sub(discount)

	// 3. Total baru, refund jika sudah bayar lebih dari total baru
	newTotal := inv.ComputeTotal()
	ceiling := decimal.Max(newTotal, decimal.Zero)
	refund := decimal.Zero
	if inv.AmountPaid.GreaterThan(ceiling) {
		refund = inv.AmountPaid.Sub(ceiling)
		inv.AmountPaid = ceiling
	}
	inv.TotalDue = newTotal
	inv.Status = model.DeriveStatus(inv.AmountPaid, inv.TotalDue)

	outflow := policy.Outflow(refund, net)

	// 4. Kembalikan stok buku
	invoiceID := inv.ID
	ledgerID := plan.LedgerEntryID
	for _, p := range toRestock {
		item := inv.Items[p.itemIdx]
		book, _ := working.get(item.BookID)
		itemID := item.ID
		if _, err := AdjustStock(&plan.Changeset, book, p.qty, StockEntry{
			Reason:        "Retur " + inv.Number,
			RefType:       model.StockRefReturn,
			InvoiceID:     &invoiceID,
			InvoiceItemID: &itemID,
			LedgerEntryID: &ledgerID,
			Actor:         in.Actor,
			At:            in.Date,
		}, ids); err != nil {
			return nil, err
		}
	}

	plan.Changeset.Invoices = append(plan.Changeset.Invoices, InvoiceWrite{
		Invoice:         inv,
		ExpectedVersion: invoice.Version,
		ItemsChanged:    true,
	})

	note := in.Note
	if note == "" {
		note = "Retur " + inv.Number
	}
	detail := model.LedgerDetail{
		ReturnedItems: returned,
		Gross:         &gross,
		Discount:      &discount,
		Net:           &net,
		Refund:        &refund,
	}
	entry := model.LedgerEntry{
		Number:    ids.NextNumber("MUT"),
		Direction: model.DirectionOut,
		Category:  model.CategoryReturn,
		Amount:    model.SignedAmount(model.DirectionOut, outflow),
		Note:      note,
		Date:      in.Date,
		InvoiceID: &invoiceID,
		ProofURL:  in.ProofURL,
		Detail:    datatypes.NewJSONType(detail),
	}
	entry.ID = ledgerID
	entry.Stamp(in.Actor)
	plan.Changeset.CreateLedger = append(plan.Changeset.CreateLedger, entry)

	plan.Gross = gross
	plan.Discount = discount
	plan.Net = net
	plan.Refund = refund
	plan.Outflow = outflow
	return plan, nil
}
