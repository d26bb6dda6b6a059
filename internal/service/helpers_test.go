package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/idgen"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDate = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	owner    = Actor{ID: "u-owner", Name: "Bu Sari", Email: "sari@toko.id"}
)

func rp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, rp(want).Equal(got), "want %d, got %s %v", want, got.String(), msgAndArgs)
}

// recorder keeps every published event for assertions.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}

type testEnv struct {
	store     *Store
	committer *Committer
	pub       *recorder
	ids       *idgen.Generator

	inventory InventoryService
	invoices  InvoiceService
	recon     ReconciliationService
	ledger    LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite("file:"+name+"?mode=memory&cache=shared", logrus.New())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ids, err := idgen.New(7)
	require.NoError(t, err)

	store := NewStore(db)
	committer := NewCommitter(store, lock.NewNoop(), 3)
	pub := &recorder{}
	return &testEnv{
		store:     store,
		committer: committer,
		pub:       pub,
		ids:       ids,
		inventory: NewInventoryService(store, committer, ids, pub),
		invoices:  NewInvoiceService(store, committer, ids, pub),
		recon:     NewReconciliationService(store, committer, ids, pub, nil, reconcile.PolicyOverpayment),
		ledger:    NewLedgerService(store, committer, ids, pub),
	}
}

func (e *testEnv) customer(t *testing.T, name string, special bool) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: name, SpecialPricing: special}
	require.NoError(t, e.store.Customers.Create(c))
	return c
}

func (e *testEnv) book(t *testing.T, code string, price int64, stock int) *model.Book {
	t.Helper()
	b := &model.Book{Code: code, Title: "Buku " + code, Price: rp(price), Stock: stock}
	require.NoError(t, e.inventory.CreateBook(context.Background(), b, owner))
	return b
}

func (e *testEnv) sell(t *testing.T, c *model.Customer, lines ...reconcile.SaleLine) *model.Invoice {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(context.Background(), reconcile.SaleInput{
		CustomerID: c.ID,
		Date:       testDate,
		Items:      lines,
	}, owner)
	require.NoError(t, err)
	return inv
}

func (e *testEnv) pay(t *testing.T, amounts map[uuid.UUID]int64) *PaymentResult {
	t.Helper()
	in := reconcile.PaymentInput{Date: testDate}
	for id, amt := range amounts {
		in.Allocations = append(in.Allocations, reconcile.AllocationInput{InvoiceID: id, Amount: rp(amt)})
	}
	res, err := e.recon.ApplyPayment(context.Background(), in, owner)
	require.NoError(t, err)
	return res
}

func (e *testEnv) reload(t *testing.T, inv *model.Invoice) *model.Invoice {
	t.Helper()
	got, err := e.invoices.GetInvoice(inv.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) stock(t *testing.T, b *model.Book) int {
	t.Helper()
	got, err := e.inventory.GetBook(b.ID)
	require.NoError(t, err)
	return got.Stock
}

func (e *testEnv) assertNoDrift(t *testing.T) {
	t.Helper()
	drift, err := e.inventory.AuditStock()
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func reconcileFilter(invoiceID uuid.UUID) repository.LedgerFilter {
	return repository.LedgerFilter{InvoiceID: &invoiceID}
}

func invoiceFilterFor(customer string) repository.InvoiceFilter {
	return repository.InvoiceFilter{Customer: customer}
}

func reconcileFilterNone() repository.LedgerFilter {
	return repository.LedgerFilter{}
}
