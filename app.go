package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"webstore/internal/config"
	"webstore/internal/handlers"
	"webstore/internal/loader"
	"webstore/internal/middleware"
	"webstore/internal/models"
	"webstore/internal/repositories"
	"webstore/internal/services"
	"webstore/internal/view"
	"webstore/pkg/rabbitmq"
)

const defaultSQLiteDSN = "file:webstore.db"

// newProductSource picks the listing's product source from configuration.
func newProductSource(cfg config.Config, client *http.Client) loader.Source {
	if cfg.ProductSource == config.SourceRemote {
		if cfg.APIBaseURL == "" {
			log.Println("Warning: API_BASE_URL is empty; product requests will go to /products and fail")
		}
		return loader.NewRemoteSource(loader.RemoteConfig{BaseURL: cfg.APIBaseURL}, client)
	}
	return loader.NewMockSource(models.SampleProducts(), cfg.MockDelay)
}

// newListingService wires the source, metrics and the optional event publisher.
func newListingService(cfg config.Config, source loader.Source, publisher services.EventPublisher, reg prometheus.Registerer) (*services.ListingService, error) {
	metrics, err := loader.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return services.NewListingService(source, cfg.SettleTimeout, publisher, rabbitmq.ListingQueue, metrics.Observe), nil
}

// connectPublisher returns a RabbitMQ client, or nil when RABBITMQ_URL is
// unset or the broker is unreachable. Events are optional for the storefront.
func connectPublisher(cfg config.Config) *rabbitmq.Client {
	if cfg.RabbitMQURL == "" {
		return nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("Warning: listing events disabled: %v", err)
		return nil
	}
	return client
}

// asPublisher avoids handing a typed nil to the listing service.
func asPublisher(client *rabbitmq.Client) services.EventPublisher {
	if client == nil {
		return nil
	}
	return client
}

// openProductRepository opens the catalog storage, migrating and seeding it
// with the bundled products when empty.
func openProductRepository(cfg config.Config) (repositories.ProductRepository, error) {
	var repo repositories.ProductRepository

	switch cfg.DatabaseDriver {
	case "memory":
		repo = repositories.NewMockProductRepository()
	case "sqlite", "postgres":
		var dialector gorm.Dialector
		if cfg.DatabaseDriver == "sqlite" {
			dsn := cfg.DatabaseDSN
			if dsn == "" {
				dsn = defaultSQLiteDSN
			}
			dialector = sqlite.Open(dsn)
		} else {
			dialector = postgres.Open(cfg.DatabaseDSN)
		}

		db, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DatabaseDriver, err)
		}
		gormRepo := repositories.NewGORMProductRepository(db)
		if err := gormRepo.Migrate(); err != nil {
			return nil, err
		}
		repo = gormRepo
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	seeded, err := repositories.Seed(repo, models.SampleProducts())
	if err != nil {
		return nil, fmt.Errorf("failed to seed products: %w", err)
	}
	if seeded > 0 {
		log.Printf("Seeded %d products into %s storage", seeded, cfg.DatabaseDriver)
	}
	return repo, nil
}

// newFiberApp creates an app with the shared middleware stack, extra
// middleware, and the health and metrics endpoints.
func newFiberApp(name string, reg *prometheus.Registry, extra ...fiber.Handler) (*fiber.App, error) {
	httpMetrics, err := middleware.NewHTTPMetrics(reg, name)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(httpMetrics.Handler())
	for _, h := range extra {
		app.Use(h)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return app, nil
}

// NewStorefrontApp builds the storefront: the listing page in the shell,
// health and metrics.
func NewStorefrontApp(listing *services.ListingService, reg *prometheus.Registry) (*fiber.App, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}
	app, err := newFiberApp("storefront", reg)
	if err != nil {
		return nil, err
	}
	handlers.NewStorefrontHandler(listing, renderer).RegisterRoutes(app)
	return app, nil
}

// NewCatalogApp builds the product API with CORS enabled for all routes.
func NewCatalogApp(repo repositories.ProductRepository, reg *prometheus.Registry) (*fiber.App, error) {
	app, err := newFiberApp("catalog", reg, cors.New())
	if err != nil {
		return nil, err
	}
	handlers.NewProductHandler(services.NewProductService(repo)).RegisterRoutes(app)
	return app, nil
}
