package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/FoodFox/internal/pkg/metrics"
)

type MetricsRouter struct {
	user     string
	password string
}

func (h MetricsRouter) InstallRouter(app *fiber.App) {
	group := app.Group("/metrics")
	if h.user != "" {
		group.Use(basicauth.New(basicauth.Config{
			Users: map[string]string{h.user: h.password},
		}))
	}
	group.Get("/", monitor.New())
	group.Get("/prometheus", adaptor.HTTPHandler(metrics.Handler()))
}

// NewMetricsRouter serves the fiber monitor and the Prometheus registry.
// An empty user leaves both unauthenticated.
func NewMetricsRouter(user, password string) *MetricsRouter {
	return &MetricsRouter{user: user, password: password}
}
