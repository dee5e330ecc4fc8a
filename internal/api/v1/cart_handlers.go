package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoodFox/internal/pkg/usercontext"
)

// GetCart returns the caller's cart
func (s *APIServer) GetCart(c *fiber.Ctx) error {
	view, err := s.carts.GetCart(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// PostCartItem adds a product to the caller's cart
func (s *APIServer) PostCartItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	view, err := s.carts.AddItem(c.UserContext(), usercontext.GetUserID(c), req.ProductID, req.Quantity, req.QuantityUnit)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// PatchCartItem changes quantity or unit of a cart line
func (s *APIServer) PatchCartItem(c *fiber.Ctx) error {
	itemID, err := idParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req UpdateItemRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	view, err := s.carts.UpdateItem(c.UserContext(), usercontext.GetUserID(c), itemID, req.Quantity, req.QuantityUnit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// DeleteCartItem removes a cart line
func (s *APIServer) DeleteCartItem(c *fiber.Ctx) error {
	itemID, err := idParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	view, err := s.carts.RemoveItem(c.UserContext(), usercontext.GetUserID(c), itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// DeleteCart empties the caller's cart
func (s *APIServer) DeleteCart(c *fiber.Ctx) error {
	view, err := s.carts.ClearCart(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}
