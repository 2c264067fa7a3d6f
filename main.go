package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"webstore/internal/config"
	"webstore/internal/services"
	"webstore/internal/view"
	"webstore/pkg/rabbitmq"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Flags are bound into the same viper
// instance that reads the environment, so a flag wins over its variable.
func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "webstore",
		Short:        "Single-page storefront and its product catalog API",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("source", "", "product source for the listing page: mock or remote")
	flags.String("api-base-url", "", "catalog API base URL used by the remote source")
	flags.Duration("mock-delay", 0, "artificial latency of the mock source")
	flags.Duration("settle-timeout", 0, "how long a page waits for its products before rendering")
	flags.String("rabbitmq-url", "", "RabbitMQ URL for listing events (empty disables them)")
	bindFlag(v, "PRODUCT_SOURCE", root, "source")
	bindFlag(v, "API_BASE_URL", root, "api-base-url")
	bindFlag(v, "MOCK_DELAY", root, "mock-delay")
	bindFlag(v, "SETTLE_TIMEOUT", root, "settle-timeout")
	bindFlag(v, "RABBITMQ_URL", root, "rabbitmq-url")

	root.AddCommand(
		newServeCommand(v),
		newCatalogCommand(v),
		newRenderCommand(v),
		newEventsCommand(v),
	)
	return root
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		log.Fatalf("Failed to bind flag --%s: %v", name, err)
	}
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			mqClient := connectPublisher(cfg)
			if mqClient != nil {
				defer mqClient.Close()
			}

			reg := prometheus.NewRegistry()
			listing, err := newListingService(cfg, newProductSource(cfg, nil), asPublisher(mqClient), reg)
			if err != nil {
				return err
			}
			// Flush pending listing events before the broker connection closes.
			defer listing.Wait()
			app, err := NewStorefrontApp(listing, reg)
			if err != nil {
				return err
			}

			log.Printf("Starting storefront on %s with %s product source", cfg.AppPort, listing.SourceName())
			return listenUntilSignal(app, cfg.AppPort)
		},
	}
	cmd.Flags().String("port", "", "listen address, e.g. :8080")
	if err := v.BindPFlag("APP_PORT", cmd.Flags().Lookup("port")); err != nil {
		log.Fatalf("Failed to bind flag --port: %v", err)
	}
	return cmd
}

func newCatalogCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Serve the product catalog API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			repo, err := openProductRepository(cfg)
			if err != nil {
				return err
			}
			app, err := NewCatalogApp(repo, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			log.Printf("Starting catalog API on %s (%s storage)", cfg.CatalogPort, cfg.DatabaseDriver)
			return listenUntilSignal(app, cfg.CatalogPort)
		},
	}
	flags := cmd.Flags()
	flags.String("port", "", "listen address, e.g. :5001")
	flags.String("db-driver", "", "catalog storage: memory, sqlite or postgres")
	flags.String("db-dsn", "", "database DSN")
	for key, name := range map[string]string{
		"CATALOG_PORT":    "port",
		"DATABASE_DRIVER": "db-driver",
		"DATABASE_DSN":    "db-dsn",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			log.Fatalf("Failed to bind flag --%s: %v", name, err)
		}
	}
	return cmd
}

func newRenderCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Load the product listing once and print it as text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			listing, err := newListingService(cfg, newProductSource(cfg, nil), nil, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			state := listing.LoadListing(cmd.Context())
			listing.Wait()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), view.Text(state))
			return err
		},
	}
}

func newEventsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume and log listing events from RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is required to consume listing events")
			}

			mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
			if err != nil {
				return err
			}
			defer mqClient.Close()

			if err := mqClient.ConsumeListingEvents(logListingEvent); err != nil {
				return err
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Println("Stopping listing event consumer")
			return nil
		},
	}
}

// logListingEvent is the consumer handler; malformed bodies are rejected so
// they are requeued once and then dropped.
func logListingEvent(msg amqp.Delivery) error {
	var event services.ListingEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed listing event: %w", err)
	}
	log.Printf("Listing event (Tag: %d): page=%s source=%s status=%s products=%d duration=%dms",
		msg.DeliveryTag, event.ActivationID, event.Source, event.Status, event.ProductCount, event.DurationMs)
	return nil
}

// listenUntilSignal serves app on addr until SIGINT or SIGTERM, then shuts
// it down gracefully.
func listenUntilSignal(app *fiber.App, addr string) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}
