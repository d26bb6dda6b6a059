package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/logger"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrDuplicateCode = errors.New("book code already exists")
)

// Actor is the signed-in user behind a request.
type Actor = events.Actor

// Store groups the repositories over one database handle.
type Store struct {
	DB        *gorm.DB
	Books     repository.BookRepository
	StockLogs repository.StockLogRepository
	Invoices  repository.InvoiceRepository
	Ledger    repository.LedgerRepository
	Customers repository.CustomerRepository
	Users     repository.UserRepository
	Writer    repository.ChangesetWriter
}

func NewStore(db *gorm.DB) *Store {
	s := &Store{
		DB:        db,
		Books:     repository.NewBookRepo(db),
		StockLogs: repository.NewStockLogRepo(db),
		Invoices:  repository.NewInvoiceRepo(db),
		Ledger:    repository.NewLedgerRepo(db),
		Customers: repository.NewCustomerRepo(db),
		Users:     repository.NewUserRepo(db),
	}
	s.Writer = repository.NewChangesetWriter(s.Books, s.StockLogs, s.Invoices, s.Ledger)
	return s
}

// Committer runs read → plan → write inside one transaction and retries the
// whole thing when a version check lost against a concurrent writer.
type Committer struct {
	store      *Store
	locker     lock.Locker
	maxRetries int
}

func NewCommitter(store *Store, locker lock.Locker, maxRetries int) *Committer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if locker == nil {
		locker = lock.NewNoop()
	}
	return &Committer{store: store, locker: locker, maxRetries: maxRetries}
}

// Run calls plan with the transaction; plan must only read through tx and
// must be safe to call again. A nil or empty changeset commits nothing.
func (c *Committer) Run(ctx context.Context, op string, keys []string, actor string, plan func(tx *gorm.DB) (*reconcile.Changeset, error)) error {
	release := c.locker.Acquire(ctx, keys)
	defer release()

	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = c.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cs, err := plan(tx)
			if err != nil {
				return err
			}
			if cs == nil || cs.Empty() {
				return nil
			}
			return c.store.Writer.Apply(tx, cs, actor)
		})
		if !errors.Is(err, reconcile.ErrConcurrentUpdate) {
			break
		}
		logger.Get().WithFields(logrus.Fields{
			"module":  "committer",
			"op":      op,
			"attempt": attempt,
		}).Warn("version conflict, retrying")
	}
	return classify(op, err)
}

// classify keeps domain errors as they are and turns anything else coming
// out of the transaction into ErrPartialWriteFailure.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case reconcile.IsValidation(err), reconcile.IsNotFound(err),
		errors.Is(err, reconcile.ErrConcurrentUpdate),
		errors.Is(err, ErrValidation),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	logger.LogError("committer", op, "transaction rolled back", nil, err)
	return fmt.Errorf("%w: %v", reconcile.ErrPartialWriteFailure, err)
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, validator.Summary(errs))
	}
	return nil
}

// notify publishes after commit. Failures are logged; the write already stands.
func notify(pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		logger.LogError("events", "notify", ev.Type+"/"+ev.Action, nil, err)
	}
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
