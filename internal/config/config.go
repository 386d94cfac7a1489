package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/propzen/billing/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment    DeploymentConfig    `validate:"required"`
	Server        ServerConfig        `validate:"required"`
	BillingEngine BillingEngineConfig `validate:"required"`
	MercadoPago   MercadoPagoConfig   `validate:"required"`
	Checkout      CheckoutConfig      `validate:"required"`
	Logging       LoggingConfig       `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

// BillingEngineConfig points at the remote billing engine that owns plan
// and subscription state and performs the actual proration arithmetic.
type BillingEngineConfig struct {
	BaseURL    string        `validate:"required,url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `validate:"required"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// MercadoPagoConfig configures the card tokenization client. Only the
// public key lives here; the service never handles secret card data.
type MercadoPagoConfig struct {
	BaseURL   string        `validate:"required,url"`
	PublicKey string        `mapstructure:"public_key" validate:"required"`
	Timeout   time.Duration `validate:"required"`
}

type CheckoutConfig struct {
	// CatalogTTL bounds how long a fetched plan list is reused for a
	// tenant page view before it is refetched.
	CatalogTTL time.Duration `mapstructure:"catalog_ttl" validate:"required"`
	// ProrationTimeout bounds a single proration lookup.
	ProrationTimeout time.Duration `mapstructure:"proration_timeout" validate:"required"`
	// TokenizerReadyTimeout bounds how long a submit waits for the
	// payment widget to report ready.
	TokenizerReadyTimeout time.Duration `mapstructure:"tokenizer_ready_timeout" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/propzen")

	v.SetEnvPrefix("PROPZEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		BillingEngine: BillingEngineConfig{
			BaseURL:    "http://localhost:9090",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:   "https://api.mercadopago.com",
			PublicKey: "TEST-public-key",
			Timeout:   30 * time.Second,
		},
		Checkout: CheckoutConfig{
			CatalogTTL:            5 * time.Minute,
			ProrationTimeout:      15 * time.Second,
			TokenizerReadyTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
	}
}
