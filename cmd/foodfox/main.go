package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ManuelReschke/FoodFox/app/repository"
	"github.com/ManuelReschke/FoodFox/app/repository/memory"
	apiv1 "github.com/ManuelReschke/FoodFox/internal/api/v1"
	"github.com/ManuelReschke/FoodFox/internal/pkg/cache"
	"github.com/ManuelReschke/FoodFox/internal/pkg/cart"
	"github.com/ManuelReschke/FoodFox/internal/pkg/database"
	"github.com/ManuelReschke/FoodFox/internal/pkg/env"
	"github.com/ManuelReschke/FoodFox/internal/pkg/mail"
	"github.com/ManuelReschke/FoodFox/internal/pkg/notify"
	"github.com/ManuelReschke/FoodFox/internal/pkg/order"
	"github.com/ManuelReschke/FoodFox/internal/pkg/router"
	"github.com/ManuelReschke/FoodFox/internal/pkg/subscription"
)

// Application holds the wired fiber app and everything that must be stopped with it
type Application struct {
	App    *fiber.App
	Orders *order.Service
	queue  *notify.Queue
	amqp   *amqp.Connection
}

func main() {
	application := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := application.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := application.App.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	application.Close()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *Application {
	env.SetupEnvFile()

	a := &Application{}

	var store repository.Store
	var planCache subscription.Cache
	var limiterStorage fiber.Storage
	if env.GetEnv("STORE_DRIVER", "mysql") == "memory" {
		log.Println("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	} else {
		database.SetupDatabase()
		repository.InitializeFactory(database.GetDB())
		store = repository.GetGlobalFactory()
	}

	if env.GetEnv("CACHE_HOST", "") != "" {
		cache.SetupCache()
		planCache = cache.NewStore(cache.GetClient(), "foodfox:")
		limiterStorage = cache.NewFiberStorage(env.GetInt("LIMITER_CACHE_DB", 2))
	}

	dispatcher := a.setupNotifications()

	carts := cart.NewService(store)
	a.Orders = order.NewService(store, order.Options{
		PriceSource:   order.ParsePriceSource(env.GetEnv("ORDER_PRICE_SOURCE", string(order.PriceSourceDeclared))),
		OperatorEmail: env.GetEnv("OPERATOR_EMAIL", ""),
		Dispatcher:    dispatcher,
		NotifyTimeout: env.GetDuration("NOTIFY_TIMEOUT", 10*time.Second),
	})
	catalog := subscription.NewCatalog(store.Repositories().Plan, planCache, env.GetDuration("PLAN_CACHE_TTL", 5*time.Minute))
	subscriptions := subscription.NewService(store, catalog, subscription.Options{
		PauseExtendsEnd:  env.GetBool("SUBSCRIPTION_PAUSE_EXTENDS_END", false),
		RenewClosesPrior: env.GetBool("SUBSCRIPTION_RENEW_CLOSES_PRIOR", false),
	})

	// init fiber app
	a.App = fiber.New(fiber.Config{
		AppName:           "FoodFox",
		BodyLimit:         1 * 1024 * 1024,
		EnablePrintRoutes: env.IsDev(),
	})

	// recovery and logging
	a.App.Use(recover.New(), logger.New())

	// ROUTER
	server := apiv1.NewAPIServer(carts, a.Orders, subscriptions)
	apiRouter := router.NewApiRouter(server, env.GetInt("API_RATE_LIMIT", 120))
	if limiterStorage != nil {
		apiRouter.WithStorage(limiterStorage)
	}
	router.InstallRouter(a.App,
		apiRouter,
		router.NewMetricsRouter(env.GetEnv("METRICS_USER", ""), env.GetEnv("METRICS_PASSWORD", "")),
	)

	return a
}

// setupNotifications builds the dispatcher chain from NOTIFY_DRIVER and AMQP_URL
func (a *Application) setupNotifications() notify.Dispatcher {
	var chain notify.Fanout

	switch env.GetEnv("NOTIFY_DRIVER", "log") {
	case "queue":
		a.queue = notify.NewQueue(cache.GetClient(), mail.SendMail, env.GetInt("NOTIFY_WORKERS", 3))
		a.queue.Start()
		chain = append(chain, a.queue)
	case "smtp":
		chain = append(chain, notify.DispatcherFunc(func(_ context.Context, n notify.Notification) error {
			return mail.SendMail(n.Destination, notify.Subject(n), notify.Body(n))
		}))
	default:
		chain = append(chain, notify.LogDispatcher{})
	}

	if url := env.GetEnv("AMQP_URL", ""); url != "" {
		conn, ch, err := notify.SetupConn(url, env.GetInt("AMQP_CONNECT_ATTEMPTS", 5))
		if err != nil {
			log.Printf("Order events disabled: %v", err)
		} else {
			a.amqp = conn
			chain = append(chain, notify.Only(notify.NewPublisher(ch), notify.KindOrderPlaced))
		}
	}

	return chain
}

// Close waits for in-flight notifications and releases background workers
func (a *Application) Close() {
	a.Orders.Wait()
	if a.queue != nil {
		a.queue.Stop()
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			log.Printf("Failed to close AMQP connection: %v", err)
		}
	}
}
