package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment  DeploymentConfig      `validate:"required"`
	Server      ServerConfig          `validate:"required"`
	Logging     LoggingConfig         `validate:"required"`
	Postgres    PostgresConfig        `validate:"required"`
	Frontend    FrontendConfig        `validate:"required"`
	Identity    IdentityConfig        `validate:"required"`
	Payment     PaymentConfig         `validate:"required"`
	Entitlement EntitlementConfig     `validate:"required"`
	Plans       map[string]PlanConfig `mapstructure:"plans" validate:"required,min=1,dive"`
	// legacy entitlement product ids mapped to plan keys
	PlanProductAliases map[string]string `mapstructure:"plan_product_aliases"`
	HTTPClient         HTTPClientConfig  `mapstructure:"http_client"`
	Auth               AuthConfig        `validate:"required"`
	Webhook            Webhook           `mapstructure:"webhook"`
	Sentry             SentryConfig      `mapstructure:"sentry"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

// FrontendConfig holds the funnel site used to build checkout redirect links
type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// IdentityConfig configures the identity provider backend API
type IdentityConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	SecretKey      string        `mapstructure:"secret_key"`
	SignInTokenTTL time.Duration `mapstructure:"sign_in_token_ttl"`
}

// PaymentConfig configures the payment provider
type PaymentConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency" validate:"required"`
}

// EntitlementConfig configures the subscriber entitlement provider
type EntitlementConfig struct {
	BaseURL       string              `mapstructure:"base_url" validate:"required,url"`
	SecretKey     string              `mapstructure:"secret_key"`
	WebhookSecret string              `mapstructure:"webhook_secret"`
	EntitlementID string              `mapstructure:"entitlement_id" validate:"required"`
	GrantStrategy types.GrantStrategy `mapstructure:"grant_strategy" validate:"required,oneof=promotional receipt"`
	// webhook event ids are remembered this long to drop redeliveries
	EventDedupTTL time.Duration `mapstructure:"event_dedup_ttl"`
}

// PlanConfig is one entry of the plan catalog keyed by plan type
type PlanConfig struct {
	Label         string `mapstructure:"label" validate:"required"`
	AmountInCents int64  `mapstructure:"amount_in_cents" validate:"required,gt=0"`
	PriceID       string `mapstructure:"price_id"`
	ProductID     string `mapstructure:"product_id"`
	Duration      string `mapstructure:"duration" validate:"required"`
}

// HTTPClientConfig bounds every outbound call to a third party
type HTTPClientConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0,max=5"`
	// requests per second allowed towards a single provider, zero disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
}

type AuthConfig struct {
	Provider  types.AuthProvider `mapstructure:"provider" validate:"required"`
	Secret    string             `mapstructure:"secret"`
	APIKey    APIKeyConfig       `mapstructure:"api_key"`
	Operators []OperatorConfig   `mapstructure:"operators"`
	Supabase  SupabaseConfig     `mapstructure:"supabase"`
}

type APIKeyConfig struct {
	Header string                   `mapstructure:"header" validate:"required"`
	Keys   map[string]APIKeyDetails `mapstructure:"keys"`
}

type APIKeyDetails struct {
	UserID   string `mapstructure:"user_id"`
	Name     string `mapstructure:"name"`
	IsActive bool   `mapstructure:"is_active"`
}

// OperatorConfig is an admin login for the local auth provider
type OperatorConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type SupabaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/leadsync")

	v.SetEnvPrefix("LEADSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
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

// setDefaults registers every key env overrides are expected for,
// viper only resolves environment variables for keys it already knows.
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "leadsync")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "leadsync")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)

	v.SetDefault("frontend.base_url", "http://localhost:3000")

	v.SetDefault("identity.base_url", "https://api.clerk.com")
	v.SetDefault("identity.secret_key", "")
	v.SetDefault("identity.sign_in_token_ttl", 7*24*time.Hour)

	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.webhook_secret", "")
	v.SetDefault("payment.currency", "usd")

	v.SetDefault("entitlement.base_url", "https://api.revenuecat.com")
	v.SetDefault("entitlement.secret_key", "")
	v.SetDefault("entitlement.webhook_secret", "")
	v.SetDefault("entitlement.entitlement_id", "Premium Courses")
	v.SetDefault("entitlement.grant_strategy", types.GrantStrategyPromotional)
	v.SetDefault("entitlement.event_dedup_ttl", 24*time.Hour)

	v.SetDefault("http_client.timeout", 10*time.Second)
	v.SetDefault("http_client.max_retries", 2)
	v.SetDefault("http_client.rate_limit", 0)

	v.SetDefault("auth.provider", types.AuthProviderLocal)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.api_key.header", "x-api-key")
	v.SetDefault("auth.supabase.base_url", "")
	v.SetDefault("auth.supabase.service_key", "")

	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.topic", "lead_notifications")
	v.SetDefault("webhook.pubsub", types.MemoryPubSub)
	v.SetDefault("webhook.endpoint", "")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.max_elapsed_time", 2*time.Minute)
	v.SetDefault("webhook.svix.enabled", false)
	v.SetDefault("webhook.svix.base_url", "https://api.svix.com")
	v.SetDefault("webhook.svix.auth_token", "")
	v.SetDefault("webhook.svix.app_id", "leadsync")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Auth.Provider == types.AuthProviderSupabase && c.Auth.Supabase.BaseURL == "" {
		return fmt.Errorf("auth.supabase.base_url is required for the supabase provider")
	}
	if c.Webhook.Enabled && !c.Webhook.Svix.Enabled && c.Webhook.Endpoint == "" {
		return fmt.Errorf("webhook.endpoint is required when notifications are enabled without svix")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
