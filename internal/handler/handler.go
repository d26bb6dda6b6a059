package handler

import (
	"errors"
	"time"

	"go-bookstore-ws/internal/logger"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/service"
	"go-bookstore-ws/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "system" // Fallback jika tidak ada (shouldn't happen in protected routes)
	}
	return userID
}

func getUserName(c *fiber.Ctx) string {
	userName, ok := c.Locals("user_name").(string)
	if !ok {
		return "Unknown"
	}
	return userName
}

func getUserEmail(c *fiber.Ctx) string {
	userEmail, _ := c.Locals("user_email").(string)
	return userEmail
}

func actorFrom(c *fiber.Ctx) service.Actor {
	return service.Actor{ID: getUserID(c), Name: getUserName(c), Email: getUserEmail(c)}
}

// paramUUID parses a path parameter such as :id.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// dateRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD as [from, to+1 day).
// Without from it covers the current month.
func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
		to = t.AddDate(0, 1, 0)
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// fail maps service errors to HTTP status codes.
func fail(c *fiber.Ctx, funcName string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), reconcile.IsValidation(err):
		status = fiber.StatusBadRequest
	case reconcile.IsNotFound(err), errors.Is(err, service.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrConcurrentUpdate), errors.Is(err, service.ErrDuplicateCode):
		status = fiber.StatusConflict
	case errors.Is(err, storage.ErrUnsupportedType):
		status = fiber.StatusUnsupportedMediaType
	}

	if status == fiber.StatusInternalServerError {
		logger.LogError("handler", funcName, c.Method()+" "+c.Path(), nil, err)
		msg := "Internal Server Error"
		if errors.Is(err, reconcile.ErrPartialWriteFailure) {
			msg = reconcile.ErrPartialWriteFailure.Error()
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
