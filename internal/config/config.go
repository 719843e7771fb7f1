package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

// Handler names accepted in HANDLER.
const (
	HandlerCheckout = "checkout"
	HandlerWebhook  = "webhook"
)

// Config is the Lambda configuration.
type Config struct {
	Handler string
	Env     string

	ATHMovil ATHMovilConfig
	Callback CallbackConfig
	Checkout CheckoutConfig
	Logging  LoggingConfig
}

// ATHMovilConfig configures the API client.
type ATHMovilConfig struct {
	PublicToken        string
	PrivateToken       string
	BaseURL            string
	WebhookBaseURL     string
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	InsecureSkipVerify bool
	RequireMetadata    bool
}

// CallbackConfig configures downstream delivery.
type CallbackConfig struct {
	URL    string
	Secret string
}

// CheckoutConfig configures confirmation polling.
type CheckoutConfig struct {
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

type LoggingConfig struct {
	Level string
}

// Load reads the configuration from the environment. Outside production a .env file
// in the working directory is loaded first when present; it never overrides variables
// that are already set.
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	if env != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		Handler: strings.ToLower(getEnv("HANDLER", HandlerCheckout)),
		Env:     env,
		ATHMovil: ATHMovilConfig{
			PublicToken:        strings.TrimSpace(getEnv("ATHM_PUBLIC_TOKEN", "")),
			PrivateToken:       strings.TrimSpace(getEnv("ATHM_PRIVATE_TOKEN", "")),
			BaseURL:            getEnv("ATHM_BASE_URL", athmovil.DefaultBaseURL),
			WebhookBaseURL:     getEnv("ATHM_WEBHOOK_BASE_URL", athmovil.DefaultWebhookBaseURL),
			RequestTimeout:     getEnvAsDuration("ATHM_REQUEST_TIMEOUT", athmovil.DefaultRequestTimeout),
			MaxRetries:         getEnvAsInt("ATHM_MAX_RETRIES", athmovil.DefaultMaxRetries),
			RetryDelay:         getEnvAsDuration("ATHM_RETRY_DELAY", athmovil.DefaultRetryDelay),
			InsecureSkipVerify: getEnvAsBool("ATHM_INSECURE_SKIP_VERIFY", false),
			RequireMetadata:    getEnvAsBool("ATHM_REQUIRE_METADATA", false),
		},
		Callback: CallbackConfig{
			URL:    strings.TrimSpace(getEnv("CALLBACK_URL", "")),
			Secret: getEnv("CALLBACK_SECRET", ""),
		},
		Checkout: CheckoutConfig{
			PollInterval:   getEnvAsDuration("POLL_INTERVAL", athmovil.DefaultPollInterval),
			ConfirmTimeout: getEnvAsDuration("CONFIRM_TIMEOUT", athmovil.DefaultTimeoutSeconds*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.ATHMovil.PublicToken == "":
		return errors.New("ATHM_PUBLIC_TOKEN must be set")
	case c.Callback.URL == "":
		return errors.New("CALLBACK_URL must be set")
	case c.Handler != HandlerCheckout && c.Handler != HandlerWebhook:
		return fmt.Errorf("HANDLER must be %q or %q, got %q", HandlerCheckout, HandlerWebhook, c.Handler)
	}
	return nil
}

// ClientConfig converts the ATH Móvil section into a client configuration.
func (c *Config) ClientConfig() athmovil.Config {
	retries := c.ATHMovil.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return athmovil.Config{
		PublicToken:        c.ATHMovil.PublicToken,
		PrivateToken:       c.ATHMovil.PrivateToken,
		BaseURL:            c.ATHMovil.BaseURL,
		WebhookBaseURL:     c.ATHMovil.WebhookBaseURL,
		RequestTimeout:     c.ATHMovil.RequestTimeout,
		MaxRetries:         retries,
		RetryBaseDelay:     c.ATHMovil.RetryDelay,
		InsecureSkipVerify: c.ATHMovil.InsecureSkipVerify,
		RequireMetadata:    c.ATHMovil.RequireMetadata,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "2m") or a plain number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
