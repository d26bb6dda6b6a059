package service

import (
	"context"
	"fmt"
	"strings"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateBook(ctx context.Context, req *model.Book, actor Actor) error
	UpdateBook(id uuid.UUID, req *model.Book, actor Actor) (*model.Book, error)
	AdjustStock(ctx context.Context, bookID uuid.UUID, req StockAdjustment, actor Actor) (*model.StockLog, error)
	GetAllBooks(query string) ([]model.Book, error)
	GetBook(id uuid.UUID) (*model.Book, error)
	GetStockLogs(bookID uuid.UUID, limit int) ([]model.StockLog, error)
	AuditStock() ([]StockDrift, error)
}

// StockAdjustment is a manual restock (+) or correction (-).
type StockAdjustment struct {
	Delta  int    `json:"delta" validate:"ne=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// StockDrift is a book whose stock no longer equals the sum of its logs.
type StockDrift struct {
	BookID   uuid.UUID `json:"book_id"`
	Code     string    `json:"code"`
	Title    string    `json:"title"`
	Stock    int       `json:"stock"`
	LogTotal int       `json:"log_total"`
}

type inventoryService struct {
	store     *Store
	committer *Committer
	ids       reconcile.IDSource
	publisher events.Publisher
}

func NewInventoryService(store *Store, committer *Committer, ids reconcile.IDSource, pub events.Publisher) InventoryService {
	return &inventoryService{
		store:     store,
		committer: committer,
		ids:       ids,
		publisher: pub,
	}
}

func (s *inventoryService) CreateBook(ctx context.Context, req *model.Book, actor Actor) error {
	// 1. Validasi Struct Dasar
	if err := validate(req); err != nil {
		return err
	}
	if err := checkPricing(req); err != nil {
		return err
	}
	if req.Stock < 0 {
		return fmt.Errorf("%w: opening stock must not be negative", reconcile.ErrInvalidAmount)
	}

	// 2. Cek Duplikasi Kode
	req.Code = strings.TrimSpace(req.Code)
	if existing, err := s.store.Books.FindByCode(req.Code); err == nil && existing.ID != uuid.Nil {
		return ErrDuplicateCode
	}

	// 3. Simpan buku dan stok awal sebagai log OPENING
	opening := req.Stock
	err := s.committer.Run(ctx, "CreateBook", nil, actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		req.ID = s.ids.NewID()
		req.Stock = 0
		req.Version = 0
		req.Stamp(actor.ID)
		if err := s.store.Books.Create(tx, req); err != nil {
			return nil, err
		}
		if opening == 0 {
			return nil, nil
		}
		cs := &reconcile.Changeset{}
		working := *req
		if _, err := reconcile.AdjustStock(cs, &working, opening, reconcile.StockEntry{
			Reason:  "Stok awal",
			RefType: model.StockRefOpening,
			Actor:   actor.ID,
		}, s.ids); err != nil {
			return nil, err
		}
		return cs, nil
	})
	if err != nil {
		return err
	}
	req.Stock = opening
	if opening > 0 {
		req.Version = 1
	}

	// 4. Broadcast ke WebSocket
	notify(s.publisher, events.Event{
		Type:   events.TypeStock,
		Action: "book_created",
		Data: map[string]interface{}{
			"id":    req.ID,
			"code":  req.Code,
			"title": req.Title,
			"stock": req.Stock,
			"price": req.Price,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s added book '%s'", actor.Name, req.Title),
	})
	return nil
}

// UpdateBook changes catalog data. Stock in req is ignored; it only moves through AdjustStock.
func (s *inventoryService) UpdateBook(id uuid.UUID, req *model.Book, actor Actor) (*model.Book, error) {
	existing, err := s.store.Books.FindByID(id)
	if err != nil {
		return nil, notFound(err, reconcile.ErrBookNotFound)
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPricing(req); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code)
	if code != existing.Code {
		if other, err := s.store.Books.FindByCode(code); err == nil && other.ID != existing.ID {
			return nil, ErrDuplicateCode
		}
	}

	existing.Code = code
	existing.Title = req.Title
	existing.Publisher = req.Publisher
	existing.Subject = req.Subject
	existing.Grade = req.Grade
	existing.Price = req.Price
	existing.SpecialPrice = req.SpecialPrice
	existing.DiscountPct = req.DiscountPct
	existing.UpdatedBy = actor.ID
	if err := s.store.Books.UpdateDetails(existing); err != nil {
		return nil, err
	}

	notify(s.publisher, events.Event{
		Type:   events.TypeStock,
		Action: "book_updated",
		Data: map[string]interface{}{
			"id":    existing.ID,
			"code":  existing.Code,
			"title": existing.Title,
			"price": existing.Price,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s updated book '%s'", actor.Name, existing.Title),
	})
	return existing, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, bookID uuid.UUID, req StockAdjustment, actor Actor) (*model.StockLog, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: stock delta must not be zero", reconcile.ErrInvalidAmount)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		log   model.StockLog
		title string
	)
	err := s.committer.Run(ctx, "AdjustStock", lock.Keys("book", bookID), actor.ID, func(tx *gorm.DB) (*reconcile.Changeset, error) {
		books, err := s.store.Books.FindByIDs(tx, []uuid.UUID{bookID})
		if err != nil {
			return nil, err
		}
		book, ok := books[bookID]
		if !ok {
			return nil, reconcile.ErrBookNotFound
		}
		if book.Stock+req.Delta < 0 {
			return nil, fmt.Errorf("%w: %q has %d in stock", reconcile.ErrInsufficientStock, book.Title, book.Stock)
		}
		title = book.Title

		cs := &reconcile.Changeset{}
		working := *book
		log, err = reconcile.AdjustStock(cs, &working, req.Delta, reconcile.StockEntry{
			Reason:  req.Reason,
			RefType: model.StockRefManual,
			Actor:   actor.ID,
		}, s.ids)
		if err != nil {
			return nil, err
		}
		return cs, nil
	})
	if err != nil {
		return nil, err
	}

	notify(s.publisher, events.Event{
		Type:   events.TypeStock,
		Action: "stock_adjusted",
		Data: map[string]interface{}{
			"book_id":   bookID,
			"old_stock": log.QtyBefore,
			"new_stock": log.QtyAfter,
			"delta":     log.Delta,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s adjusted '%s' by %+d (%s)", actor.Name, title, log.Delta, req.Reason),
	})
	return &log, nil
}

func (s *inventoryService) GetAllBooks(query string) ([]model.Book, error) {
	return s.store.Books.FindAll(query)
}

func (s *inventoryService) GetBook(id uuid.UUID) (*model.Book, error) {
	book, err := s.store.Books.FindByID(id)
	if err != nil {
		return nil, notFound(err, reconcile.ErrBookNotFound)
	}
	return book, nil
}

func (s *inventoryService) GetStockLogs(bookID uuid.UUID, limit int) ([]model.StockLog, error) {
	if _, err := s.GetBook(bookID); err != nil {
		return nil, err
	}
	return s.store.StockLogs.FindByBook(bookID, limit)
}

// AuditStock lists books where stock differs from Σ log deltas.
func (s *inventoryService) AuditStock() ([]StockDrift, error) {
	books, err := s.store.Books.FindAll("")
	if err != nil {
		return nil, err
	}
	sums, err := s.store.StockLogs.SumDeltas()
	if err != nil {
		return nil, err
	}

	drift := []StockDrift{}
	for _, b := range books {
		if total := sums[b.ID]; total != b.Stock {
			drift = append(drift, StockDrift{BookID: b.ID, Code: b.Code, Title: b.Title, Stock: b.Stock, LogTotal: total})
		}
	}
	return drift, nil
}

func checkPricing(b *model.Book) error {
	switch {
	case b.Price.IsNegative(), b.SpecialPrice.IsNegative():
		return fmt.Errorf("%w: price must not be negative", reconcile.ErrInvalidAmount)
	case b.DiscountPct.IsNegative(), b.DiscountPct.GreaterThan(hundred):
		return fmt.Errorf("%w: discount must be between 0 and 100", reconcile.ErrInvalidAmount)
	}
	return nil
}

var hundred = decimal.NewFromInt(100)
