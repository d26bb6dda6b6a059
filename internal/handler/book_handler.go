package handler

import (
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BookHandler struct {
	service service.InventoryService
}

func NewBookHandler(s service.InventoryService) *BookHandler {
	return &BookHandler{service: s}
}

func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var book model.Book
	if err := c.BodyParser(&book); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.service.CreateBook(c.UserContext(), &book, actorFrom(c)); err != nil {
		return fail(c, "CreateBook", err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Book created", "data": book})
}

func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	bookID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid book ID")
	}

	var book model.Book
	if err := c.BodyParser(&book); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.UpdateBook(bookID, &book, actorFrom(c))
	if err != nil {
		return fail(c, "UpdateBook", err)
	}

	return c.JSON(fiber.Map{"message": "Book updated", "data": updated})
}

func (h *BookHandler) GetBooks(c *fiber.Ctx) error {
	books, err := h.service.GetAllBooks(c.Query("q"))
	if err != nil {
		return fail(c, "GetBooks", err)
	}
	return c.JSON(books)
}

func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	bookID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid book ID")
	}
	book, err := h.service.GetBook(bookID)
	if err != nil {
		return fail(c, "GetBook", err)
	}
	return c.JSON(book)
}

// AdjustStock handles manual restock (+) and correction (-)
// POST /api/v1/books/:id/adjust-stock
func (h *BookHandler) AdjustStock(c *fiber.Ctx) error {
	bookID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid book ID")
	}

	var req service.StockAdjustment
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	log, err := h.service.AdjustStock(c.UserContext(), bookID, req, actorFrom(c))
	if err != nil {
		return fail(c, "AdjustStock", err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Stock adjusted", "data": log})
}

func (h *BookHandler) GetStockLogs(c *fiber.Ctx) error {
	bookID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid book ID")
	}

	logs, err := h.service.GetStockLogs(bookID, c.QueryInt("limit", 100))
	if err != nil {
		return fail(c, "GetStockLogs", err)
	}
	return c.JSON(logs)
}

// AuditStock lists books whose stock no longer matches their logs
// GET /api/v1/books/audit
func (h *BookHandler) AuditStock(c *fiber.Ctx) error {
	drift, err := h.service.AuditStock()
	if err != nil {
		return fail(c, "AuditStock", err)
	}
	return c.JSON(fiber.Map{"drift": drift, "ok": len(drift) == 0})
}
