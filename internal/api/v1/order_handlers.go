package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoodFox/internal/pkg/apperror"
	"github.com/ManuelReschke/FoodFox/internal/pkg/order"
	"github.com/ManuelReschke/FoodFox/internal/pkg/usercontext"
)

// PostOrder places an order from an explicit item list
func (s *APIServer) PostOrder(c *fiber.Ctx) error {
	var in order.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, apperror.Validation("body", "invalid request body: %v", err))
	}
	created, err := s.orders.CreateOrder(c.UserContext(), usercontext.GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// PostCheckout places an order from the caller's cart
func (s *APIServer) PostCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	created, err := s.orders.CheckoutCart(c.UserContext(), usercontext.GetUserID(c), req.ShippingAddress, req.ContactEmail)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetOrders lists the caller's orders
func (s *APIServer) GetOrders(c *fiber.Ctx) error {
	orders, err := s.orders.ListOrders(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// GetOrder returns one order of the caller
func (s *APIServer) GetOrder(c *fiber.Ctx) error {
	orderID, err := idParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	o, err := s.orders.GetOrder(c.UserContext(), usercontext.GetUserID(c), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

// GetAdminOrders lists all orders, optionally filtered by ?status=
func (s *APIServer) GetAdminOrders(c *fiber.Ctx) error {
	orders, err := s.orders.ListAllOrders(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// PutAdminOrderStatus sets the status of any order
func (s *APIServer) PutAdminOrderStatus(c *fiber.Ctx) error {
	orderID, err := idParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	o, err := s.orders.UpdateOrderStatus(c.UserContext(), orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}
