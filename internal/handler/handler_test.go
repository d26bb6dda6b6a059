package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/service"
	"go-bookstore-ws/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("%w: x", service.ErrValidation), 400, "validation failed: x"},
		{reconcile.ErrQuantityExceedsAvailable, 400, reconcile.ErrQuantityExceedsAvailable.Error()},
		{fmt.Errorf("%w: abc", reconcile.ErrInvoiceNotFound), 404, "invoice not found: abc"},
		{reconcile.ErrLedgerEntryNotFound, 404, reconcile.ErrLedgerEntryNotFound.Error()},
		{reconcile.ErrConcurrentUpdate, 409, reconcile.ErrConcurrentUpdate.Error()},
		{service.ErrDuplicateCode, 409, service.ErrDuplicateCode.Error()},
		{storage.ErrUnsupportedType, 415, storage.ErrUnsupportedType.Error()},
		{fmt.Errorf("%w: disk full", reconcile.ErrPartialWriteFailure), 500, reconcile.ErrPartialWriteFailure.Error()},
		{io.ErrUnexpectedEOF, 500, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return fail(c, "test", tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.body, body["error"])
		})
	}
}

func TestDateRange(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		from, to, err := dateRange(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		return c.SendString(from.Format("2006-01-02") + "/" + to.Format("2006-01-02"))
	})

	tests := []struct {
		query  string
		status int
		want   string
	}{
		{"?from=2026-03-01&to=2026-03-31", 200, "2026-03-01/2026-04-01"},
		{"?from=2026-02-01", 200, "2026-02-01/2026-03-01"},
		{"?from=2026-03-10&to=2026-03-01", 400, ""},
		{"?from=maret", 400, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.want != "" {
				b, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.want, string(b))
			}
		})
	}
}

type stubRecon struct {
	gotReturn reconcile.ReturnInput
	gotActor  service.Actor
	gotID     uuid.UUID
	err       error
}

func (s *stubRecon) ApplyPayment(_ context.Context, in reconcile.PaymentInput, actor service.Actor) (*service.PaymentResult, error) {
	s.gotActor = actor
	return &service.PaymentResult{}, s.err
}

func (s *stubRecon) ApplyReturn(_ context.Context, in reconcile.ReturnInput, actor service.Actor) (*service.ReturnResult, error) {
	s.gotReturn, s.gotActor = in, actor
	return &service.ReturnResult{}, s.err
}

func (s *stubRecon) Reverse(_ context.Context, id uuid.UUID, actor service.Actor) (*service.ReversalResult, error) {
	s.gotID, s.gotActor = id, actor
	if s.err != nil {
		return nil, s.err
	}
	return &service.ReversalResult{}, nil
}

func newReconApp(svc service.ReconciliationService) *fiber.App {
	h := NewReconciliationHandler(svc)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		c.Locals("user_name", "Kasir")
		return c.Next()
	})
	app.Post("/payments", h.ApplyPayment)
	app.Post("/invoices/:id/returns", h.ApplyReturn)
	app.Delete("/ledger/:id", h.Reverse)
	return app
}

func TestReconciliationHandler_Return(t *testing.T) {
	svc := &stubRecon{}
	app := newReconApp(svc)
	invoiceID, bookID := uuid.New(), uuid.New()

	body := fmt.Sprintf(`{"items":[{"book_id":"%s","qty":3}],"date":"%s"}`, bookID, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))
	req := httptest.NewRequest("POST", "/invoices/"+invoiceID.String()+"/returns", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, invoiceID, svc.gotReturn.InvoiceID)
	require.Len(t, svc.gotReturn.Items, 1)
	assert.Equal(t, 3, svc.gotReturn.Items[0].Qty)
	assert.Equal(t, "Kasir", svc.gotActor.Name)
}

func TestReconciliationHandler_Reverse(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"ok", "/ledger/" + uuid.NewString(), nil, 200},
		{"bad id", "/ledger/123", nil, 400},
		{"missing", "/ledger/" + uuid.NewString(), reconcile.ErrLedgerEntryNotFound, 404},
		{"conflict", "/ledger/" + uuid.NewString(), reconcile.ErrConcurrentUpdate, 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newReconApp(&stubRecon{err: tt.err})
			resp, err := app.Test(httptest.NewRequest("DELETE", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestReconciliationHandler_PaymentInvalidJSON(t *testing.T) {
	app := newReconApp(&stubRecon{})
	req := httptest.NewRequest("POST", "/payments", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
