package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoodFox/internal/pkg/middleware"
)

// RegisterHandlers mounts every v1 endpoint on router. Identity must already
// be resolved by middleware.Identity.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	router.Get("/plans", s.GetPlans)
	router.Get("/plans/:id", s.GetPlan)

	cart := router.Group("/cart", middleware.RequireUser)
	cart.Get("/", s.GetCart)
	cart.Delete("/", s.DeleteCart)
	cart.Post("/items", s.PostCartItem)
	cart.Patch("/items/:id", s.PatchCartItem)
	cart.Delete("/items/:id", s.DeleteCartItem)

	router.Post("/checkout", middleware.RequireUser, s.PostCheckout)

	orders := router.Group("/orders", middleware.RequireUser)
	orders.Get("/", s.GetOrders)
	orders.Post("/", s.PostOrder)
	orders.Get("/:id", s.GetOrder)

	subs := router.Group("/subscriptions", middleware.RequireUser)
	subs.Post("/", s.PostSubscription)
	subs.Get("/current", s.GetCurrentSubscription)
	subs.Get("/history", s.GetSubscriptionHistory)
	subs.Post("/cancel", s.PostCancelSubscription)
	subs.Post("/pause", s.PostPauseSubscription)
	subs.Post("/resume", s.PostResumeSubscription)
	subs.Post("/renew", s.PostRenewSubscription)
	subs.Post("/change-plan", s.PostChangePlan)

	admin := router.Group("/admin", middleware.RequireAdmin)
	admin.Get("/orders", s.GetAdminOrders)
	admin.Put("/orders/:id/status", s.PutAdminOrderStatus)
}
