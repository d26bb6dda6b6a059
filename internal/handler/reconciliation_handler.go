package handler

import (
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(s service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// ApplyPayment records one payment spread over one or more invoices
// POST /api/v1/payments
func (h *ReconciliationHandler) ApplyPayment(c *fiber.Ctx) error {
	var req reconcile.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	res, err := h.service.ApplyPayment(c.UserContext(), req, actorFrom(c))
	if err != nil {
		return fail(c, "ApplyPayment", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment recorded", "data": res})
}

// ApplyReturn records returned books against an invoice
// POST /api/v1/invoices/:id/returns
func (h *ReconciliationHandler) ApplyReturn(c *fiber.Ctx) error {
	invoiceID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}

	var req reconcile.ReturnInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.InvoiceID = invoiceID

	res, err := h.service.ApplyReturn(c.UserContext(), req, actorFrom(c))
	if err != nil {
		return fail(c, "ApplyReturn", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Return recorded", "data": res})
}

// Reverse deletes a PAYMENT or RETURN ledger entry and undoes its effects
// DELETE /api/v1/ledger/:id
func (h *ReconciliationHandler) Reverse(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid ledger entry ID")
	}

	res, err := h.service.Reverse(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return fail(c, "Reverse", err)
	}
	return c.JSON(fiber.Map{"message": "Entry reversed", "data": res})
}
