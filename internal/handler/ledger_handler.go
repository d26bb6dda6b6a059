package handler

import (
	"bytes"

	"go-bookstore-ws/internal/export"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LedgerHandler struct {
	service service.LedgerService
}

func NewLedgerHandler(s service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: s}
}

// GetLedger lists mutasi rows, default current month
// Query params: from, to, category, direction, limit, offset
func (h *LedgerHandler) GetLedger(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}

	entries, total, err := h.service.List(repository.LedgerFilter{
		From:      &from,
		To:        &to,
		Category:  model.LedgerCategory(c.Query("category")),
		Direction: model.Direction(c.Query("direction")),
		Limit:     c.QueryInt("limit", 100),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return fail(c, "GetLedger", err)
	}
	return c.JSON(fiber.Map{"data": entries, "total": total})
}

// CreateEntry records miscellaneous income or expense
// POST /api/v1/ledger
func (h *LedgerHandler) CreateEntry(c *fiber.Ctx) error {
	var req service.MiscEntryInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	entry, err := h.service.RecordEntry(c.UserContext(), req, actorFrom(c))
	if err != nil {
		return fail(c, "CreateEntry", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Entry recorded", "data": entry})
}

func (h *LedgerHandler) GetSummary(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}

	summary, err := h.service.Summary(from, to)
	if err != nil {
		return fail(c, "GetSummary", err)
	}
	return c.JSON(fiber.Map{
		"from":    from,
		"to":      to,
		"summary": summary,
	})
}

// Export downloads the mutasi as .xlsx
// GET /api/v1/ledger/export?from=&to=
func (h *LedgerHandler) Export(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}

	var buf bytes.Buffer
	if err := h.service.Export(&buf, from, to); err != nil {
		return fail(c, "Export", err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(export.Filename(from, to.AddDate(0, 0, -1)))
	return c.Send(buf.Bytes())
}
