package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/export"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LedgerService interface {
	List(filter repository.LedgerFilter) ([]model.LedgerEntry, int64, error)
	RecordEntry(ctx context.Context, in MiscEntryInput, actor Actor) (*model.LedgerEntry, error)
	Summary(from, to time.Time) (*repository.FinancialSummary, error)
	Export(w io.Writer, from, to time.Time) error
}

// MiscEntryInput is cash that is not tied to an invoice (biaya operasional, pemasukan lain).
type MiscEntryInput struct {
	Category model.LedgerCategory `json:"category" validate:"required,oneof=INCOME EXPENSE"`
	Amount   decimal.Decimal      `json:"amount"`
	Date     time.Time            `json:"date"`
	Note     string               `json:"note" validate:"required,max=255"`
	ProofURL string               `json:"proof_url" validate:"omitempty,max=512"`
}

type ledgerService struct {
	store     *Store
	committer *Committer
	ids       reconcile.IDSource
	publisher events.Publisher
}

func NewLedgerService(store *Store, committer *Committer, ids reconcile.IDSource, pub events.Publisher) LedgerService {
	return &ledgerService{
		store:     store,
		committer: committer,
		ids:       ids,
		publisher: pub,
	}
}

func (s *ledgerService) List(filter repository.LedgerFilter) ([]model.LedgerEntry, int64, error) {
	return s.store.Ledger.List(filter)
}

func (s *ledgerService) RecordEntry(ctx context.Context, in MiscEntryInput, actor Actor) (*model.LedgerEntry, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", reconcile.ErrInvalidAmount)
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	dir := model.DirectionIn
	if in.Category == model.CategoryExpense {
		dir = model.DirectionOut
	}

	var entry model.LedgerEntry
	err := s.committer.Run(ctx, "RecordEntry", nil, actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		entry = model.LedgerEntry{
			Number:    s.ids.NextNumber("MUT"),
			Direction: dir,
			Category:  in.Category,
			Amount:    model.SignedAmount(dir, in.Amount),
			Note:      in.Note,
			Date:      in.Date,
			ProofURL:  in.ProofURL,
			Detail:    datatypes.NewJSONType(model.LedgerDetail{}),
		}
		entry.ID = s.ids.NewID()
		entry.Stamp(actor.ID)
		return &reconcile.Changeset{CreateLedger: []model.LedgerEntry{entry}}, nil
	})
	if err != nil {
		return nil, err
	}

	notify(s.publisher, events.Event{
		Type:   events.TypeLedger,
		Action: "entry_created",
		Data: map[string]interface{}{
			"id":       entry.ID,
			"number":   entry.Number,
			"category": entry.Category,
			"amount":   entry.Amount,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s recorded %s %s", actor.Name, entry.Category, in.Amount.StringFixed(2)),
	})
	return &entry, nil
}

func (s *ledgerService) Summary(from, to time.Time) (*repository.FinancialSummary, error) {
	return s.store.Ledger.GetFinancialSummary(from, to)
}

// Export writes the mutasi of [from, to) oldest first, opening with the balance before from.
func (s *ledgerService) Export(w io.Writer, from, to time.Time) error {
	before, err := s.store.Ledger.GetFinancialSummary(time.Time{}, from)
	if err != nil {
		return err
	}
	entries, _, err := s.store.Ledger.List(repository.LedgerFilter{From: &from, To: &to})
	if err != nil {
		return err
	}
	// List urut terbaru dulu, ekspor urut kronologis
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	period := from.Format("02 Jan 2006") + " - " + to.AddDate(0, 0, -1).Format("02 Jan 2006")
	return export.WriteMutasi(w, entries, before.Net, period)
}
