package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, in reconcile.SaleInput, actor Actor) (*model.Invoice, error)
	GetInvoice(id uuid.UUID) (*model.Invoice, error)
	Search(filter repository.InvoiceFilter) ([]model.Invoice, int64, error)
}

type invoiceService struct {
	store     *Store
	committer *Committer
	ids       reconcile.IDSource
	publisher events.Publisher
}

func NewInvoiceService(store *Store, committer *Committer, ids reconcile.IDSource, pub events.Publisher) InvoiceService {
	return &invoiceService{
		store:     store,
		committer: committer,
		ids:       ids,
		publisher: pub,
	}
}

// CreateInvoice records a sale: the invoice starts UNPAID and every line
// takes its quantity out of stock in the same transaction.
func (s *invoiceService) CreateInvoice(ctx context.Context, in reconcile.SaleInput, actor Actor) (*model.Invoice, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	in.Actor = actor.ID
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	var (
		inv *model.Invoice
		cs  *reconcile.Changeset
	)
	err := s.committer.Run(ctx, "CreateInvoice", lock.Keys("book", in.BookIDs()...), actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		// customer nil → PlanSale menolak dengan ErrCustomerNotFound
		customer, err := s.store.Customers.FindByID(tx, in.CustomerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		books, err := s.store.Books.FindByIDs(tx, in.BookIDs())
		if err != nil {
			return nil, err
		}
		inv, cs, err = reconcile.PlanSale(in, customer, books, s.ids)
		return cs, err
	})
	if err != nil {
		return nil, err
	}

	notify(s.publisher, events.Event{
		Type:   events.TypeInvoice,
		Action: "invoice_created",
		Data: map[string]interface{}{
			"invoice": invoiceSummary(inv),
			"stock":   cs.Stocks,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s created invoice %s for %s", actor.Name, inv.Number, inv.CustomerName),
	})
	return inv, nil
}

func (s *invoiceService) GetInvoice(id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.store.Invoices.FindByID(id)
	if err != nil {
		return nil, notFound(err, reconcile.ErrInvoiceNotFound)
	}
	return inv, nil
}

func (s *invoiceService) Search(filter repository.InvoiceFilter) ([]model.Invoice, int64, error) {
	return s.store.Invoices.Search(filter)
}
