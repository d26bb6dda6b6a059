package handler

import (
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InvoiceHandler struct {
	service service.InvoiceService
}

func NewInvoiceHandler(s service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: s}
}

// CreateInvoice records a sale
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var req reconcile.SaleInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	inv, err := h.service.CreateInvoice(c.UserContext(), req, actorFrom(c))
	if err != nil {
		return fail(c, "CreateInvoice", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Invoice created", "data": inv})
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}
	inv, err := h.service.GetInvoice(id)
	if err != nil {
		return fail(c, "GetInvoice", err)
	}
	return c.JSON(inv)
}

// SearchInvoices supports ?customer=&number=&status=&from=&to=&limit=&offset=
func (h *InvoiceHandler) SearchInvoices(c *fiber.Ctx) error {
	filter := repository.InvoiceFilter{
		Customer: c.Query("customer"),
		Number:   c.Query("number"),
		Status:   model.PaymentStatus(c.Query("status")),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, err := dateRange(c)
		if err != nil {
			return badRequest(c, "Invalid date range")
		}
		filter.From, filter.To = &from, &to
	}

	list, total, err := h.service.Search(filter)
	if err != nil {
		return fail(c, "SearchInvoices", err)
	}
	return c.JSON(fiber.Map{"data": list, "total": total})
}
