package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kevin07696/donation-relay/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Gateway     GatewayConfig   `mapstructure:"gateway"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Secrets     SecretsConfig   `mapstructure:"secrets"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	CORS        CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	MetricsPort int    `mapstructure:"metrics_port" validate:"min=1,max=65535"`
}

// GatewayConfig holds Fiserv payment gateway configuration.
// Required values are checked per request by Validate, not at startup,
// so a misconfigured deployment answers 500 instead of crash-looping.
type GatewayConfig struct {
	APIKey          string        `mapstructure:"api_key"`          // Sent in the Api-Key header
	APISecret       string        `mapstructure:"api_secret"`       // HMAC key; never logged
	APISecretPath   string        `mapstructure:"api_secret_path"`  // Secret manager path used when APISecret is empty
	PaymentsURL     string        `mapstructure:"payments_url"`     // Full URL of the payments endpoint
	StoreID         string        `mapstructure:"store_id"`         // Optional
	NotificationURL string        `mapstructure:"notification_url"` // Optional transaction notification callback
	Timeout         time.Duration `mapstructure:"timeout"`          // Outbound call budget (default: 30s)
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// SecretsConfig selects the secret manager backend
type SecretsConfig struct {
	Manager      string        `mapstructure:"manager" validate:"oneof=local aws vault gcp"`
	Dir          string        `mapstructure:"dir"`
	AWSRegion    string        `mapstructure:"aws_region"`
	VaultAddress string        `mapstructure:"vault_address"`
	VaultToken   string        `mapstructure:"vault_token"`
	VaultMount   string        `mapstructure:"vault_mount"`
	GCPProjectID string        `mapstructure:"gcp_project_id"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// RateLimitConfig controls inbound request throttling per client IP
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"rps" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
}

// CORSConfig controls the cross-origin headers on relay responses
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// envBindings maps config keys to the environment variables operators set
var envBindings = map[string]string{
	"environment":              "ENVIRONMENT",
	"server.host":              "HTTP_HOST",
	"server.port":              "HTTP_PORT",
	"server.metrics_port":      "METRICS_PORT",
	"gateway.api_key":          "FISERV_API_KEY",
	"gateway.api_secret":       "FISERV_API_SECRET",
	"gateway.api_secret_path":  "FISERV_API_SECRET_PATH",
	"gateway.payments_url":     "FISERV_PAYMENTS_URL",
	"gateway.store_id":         "FISERV_STORE_ID",
	"gateway.notification_url": "FISERV_NOTIFICATION_URL",
	"gateway.timeout":          "FISERV_TIMEOUT",
	"logger.level":             "LOG_LEVEL",
	"logger.development":       "LOG_DEVELOPMENT",
	"secrets.manager":          "SECRET_MANAGER",
	"secrets.dir":              "SECRETS_DIR",
	"secrets.aws_region":       "AWS_REGION",
	"secrets.vault_address":    "VAULT_ADDR",
	"secrets.vault_token":      "VAULT_TOKEN",
	"secrets.vault_mount":      "VAULT_MOUNT",
	"secrets.gcp_project_id":   "GCP_PROJECT_ID",
	"secrets.cache_ttl":        "SECRET_CACHE_TTL",
	"rate_limit.rps":           "RATE_LIMIT_RPS",
	"rate_limit.burst":         "RATE_LIMIT_BURST",
	"cors.allowed_origins":     "ALLOWED_ORIGINS",
}

// LoadFromEnv loads configuration from environment variables.
// Missing gateway credentials are not an error here; see GatewayConfig.Validate.
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.metrics_port", 9090)

	v.SetDefault("gateway.timeout", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)

	v.SetDefault("secrets.manager", "local")
	v.SetDefault("secrets.dir", "./secrets")
	v.SetDefault("secrets.aws_region", "us-east-1")
	v.SetDefault("secrets.vault_mount", "secret")
	v.SetDefault("secrets.cache_ttl", 5*time.Minute)

	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// splitOrigins normalizes "a, b" style values into trimmed, non-empty origins
func splitOrigins(raw []string) []string {
	var origins []string
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Validate reports which required gateway settings are missing.
// The returned error names settings only, never their values.
func (c *GatewayConfig) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "FISERV_API_KEY")
	}
	if c.APISecret == "" {
		missing = append(missing, "FISERV_API_SECRET")
	}
	if c.PaymentsURL == "" {
		missing = append(missing, "FISERV_PAYMENTS_URL")
	}
	if len(missing) > 0 {
		return domain.NewConfigurationError(missing...)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
