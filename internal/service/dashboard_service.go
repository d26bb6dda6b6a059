package service

import (
	"time"

	"go-bookstore-ws/internal/repository"

	"github.com/shopspring/decimal"
)

const lowStockThreshold = 10

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	repository.BookStats
	Receivables  decimal.Decimal              `json:"receivables"`
	OpenInvoices int64                        `json:"open_invoices"`
	CashFlow     *repository.FinancialSummary `json:"cash_flow_month"`
}

type dashboardService struct {
	store *Store
	now   func() time.Time
}

func NewDashboardService(store *Store) DashboardService {
	return &dashboardService{store: store, now: time.Now}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.store.StockLogs.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	books, err := s.store.Books.GetStats(lowStockThreshold)
	if err != nil {
		return nil, err
	}
	receivables, open, err := s.store.Invoices.Outstanding()
	if err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	cash, err := s.store.Ledger.GetFinancialSummary(monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		BookStats:    *books,
		Receivables:  receivables,
		OpenInvoices: open,
		CashFlow:     cash,
	}, nil
}
