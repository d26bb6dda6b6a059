package handler

import (
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CustomerHandler struct {
	service service.CustomerService
}

func NewCustomerHandler(s service.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: s}
}

func (h *CustomerHandler) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.service.List(c.Query("q"))
	if err != nil {
		return fail(c, "GetCustomers", err)
	}
	return c.JSON(customers)
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var customer model.Customer
	if err := c.BodyParser(&customer); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := h.service.Create(&customer, actorFrom(c)); err != nil {
		return fail(c, "CreateCustomer", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Customer created", "data": customer})
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid customer ID")
	}

	var customer model.Customer
	if err := c.BodyParser(&customer); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.Update(id, &customer, actorFrom(c))
	if err != nil {
		return fail(c, "UpdateCustomer", err)
	}
	return c.JSON(fiber.Map{"message": "Customer updated", "data": updated})
}
