package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoodFox/internal/pkg/cart"
	"github.com/ManuelReschke/FoodFox/internal/pkg/order"
	"github.com/ManuelReschke/FoodFox/internal/pkg/subscription"
)

// APIServer exposes the cart, order and subscription services over HTTP
type APIServer struct {
	carts         *cart.Service
	orders        *order.Service
	subscriptions *subscription.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer(carts *cart.Service, orders *order.Service, subscriptions *subscription.Service) *APIServer {
	return &APIServer{carts: carts, orders: orders, subscriptions: subscriptions}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}
