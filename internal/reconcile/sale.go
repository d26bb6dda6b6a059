package reconcile

import (
	"fmt"
	"time"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleLine struct {
	BookID uuid.UUID `json:"book_id" validate:"uuid_required"`
	Qty    int       `json:"qty" validate:"gt=0"`
	// DiscountPct overrides the catalog discount when set.
	DiscountPct *decimal.Decimal `json:"discount_pct"`
}

type SaleInput struct {
	CustomerID    uuid.UUID       `json:"customer_id" validate:"uuid_required"`
	Date          time.Time       `json:"date"`
	Items         []SaleLine      `json:"items" validate:"required,min=1,dive"`
	OtherDiscount decimal.Decimal `json:"other_discount" validate:"decimal_gte0"`
	OtherFee      decimal.Decimal `json:"other_fee" validate:"decimal_gte0"`
	Note          string          `json:"note"`
	Actor         string          `json:"-"`
}

func (in SaleInput) BookIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, l := range in.Items {
		ids = append(ids, l.BookID)
	}
	return ids
}

// mergeSaleLines folds repeated books into one line so every book appears on
// the invoice once. Repeats must agree on the discount override.
func mergeSaleLines(lines []SaleLine) ([]SaleLine, error) {
	merged := make([]SaleLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Qty <= 0 {
			return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidAmount)
		}
		i, ok := index[l.BookID]
		if !ok {
			index[l.BookID] = len(merged)
			merged = append(merged, l)
			continue
		}
		if !sameDiscount(merged[i].DiscountPct, l.DiscountPct) {
			return nil, fmt.Errorf("%w: book %s is listed twice with different discounts", ErrInvalidAmount, l.BookID)
		}
		merged[i].Qty += l.Qty
	}
	return merged, nil
}

func sameDiscount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// PlanSale builds a new UNPAID invoice and takes the sold quantities out of stock.
func PlanSale(in SaleInput, customer *model.Customer, books map[uuid.UUID]*model.Book, ids IDSource) (*model.Invoice, *Changeset, error) {
	if customer == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, in.CustomerID)
	}
	if len(in.Items) == 0 {
		return nil, nil, ErrNoItemsSelected
	}
	if in.OtherDiscount.IsNegative() || in.OtherFee.IsNegative() {
		return nil, nil, fmt.Errorf("%w: other discount and fee must not be negative", ErrInvalidAmount)
	}

	inv := &model.Invoice{
		Number:        ids.NextNumber("INV"),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		Date:          in.Date,
		OtherDiscount: in.OtherDiscount,
		OtherFee:      in.OtherFee,
		AmountPaid:    decimal.Zero,
		Note:          in.Note,
	}
	inv.ID = ids.NewID()
	inv.Stamp(in.Actor)

	lines, err := mergeSaleLines(in.Items)
	if err != nil {
		return nil, nil, err
	}

	cs := &Changeset{}
	working := newWorkingBooks(books)
	invoiceID := inv.ID

	for pos, line := range lines {
		book, ok := working.get(line.BookID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrBookNotFound, line.BookID)
		}
		if book.Stock < line.Qty {
			return nil, nil, fmt.Errorf("%w: %q has %d in stock", ErrInsufficientStock, book.Title, book.Stock)
		}

		discount := book.DiscountPct
		if line.DiscountPct != nil {
			if line.DiscountPct.IsNegative() || line.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
				return nil, nil, fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidAmount)
			}
			discount = *line.DiscountPct
		}

		item := model.InvoiceItem{
			ID:          ids.NewID(),
			InvoiceID:   inv.ID,
			Position:    pos,
			BookID:      book.ID,
			Title:       book.Title,
			Qty:         line.Qty,
			UnitPrice:   book.PriceFor(customer.SpecialPricing),
			DiscountPct: discount,
		}
		inv.Items = append(inv.Items, item)

		itemID := item.ID
		if _, err := AdjustStock(cs, book, -line.Qty, StockEntry{
			Reason:        "Penjualan " + inv.Number,
			RefType:       model.StockRefInvoice,
			InvoiceID:     &invoiceID,
			InvoiceItemID: &itemID,
			Actor:         in.Actor,
			At:            in.Date,
		}, ids); err != nil {
			return nil, nil, err
		}
	}

	inv.Recalculate()
	cs.CreateInvoices = append(cs.CreateInvoices, inv)
	return inv, cs, nil
}
