package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Source names accepted by PRODUCT_SOURCE.
const (
	SourceMock   = "mock"
	SourceRemote = "remote"
)

// Config holds every setting of the storefront and the catalog API.
type Config struct {
	AppPort        string        `validate:"required"`
	CatalogPort    string        `validate:"required"`
	ProductSource  string        `validate:"oneof=mock remote"`
	APIBaseURL     string        `validate:"omitempty,url"`
	MockDelay      time.Duration `validate:"gte=0"`
	SettleTimeout  time.Duration `validate:"gt=0"`
	DatabaseDriver string        `validate:"oneof=memory sqlite postgres"`
	DatabaseDSN    string        `validate:"required_if=DatabaseDriver postgres"`
	RabbitMQURL    string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("CATALOG_PORT", ":5001")
	v.SetDefault("PRODUCT_SOURCE", SourceMock)
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("MOCK_DELAY", "500ms")
	v.SetDefault("SETTLE_TIMEOUT", "5s")
	v.SetDefault("DATABASE_DRIVER", "memory")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("RABBITMQ_URL", "")
}

// Load reads the configuration from v, falling back to environment variables
// and defaults, and validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		CatalogPort:    v.GetString("CATALOG_PORT"),
		ProductSource:  v.GetString("PRODUCT_SOURCE"),
		APIBaseURL:     v.GetString("API_BASE_URL"),
		MockDelay:      v.GetDuration("MOCK_DELAY"),
		SettleTimeout:  v.GetDuration("SETTLE_TIMEOUT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
