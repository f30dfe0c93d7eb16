package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nyaruka/phonenumbers"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const PROD_STRING = "prod"

// Config holds all application configuration.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	LogLevel          zerolog.Level

	// Transactions on a court are retried this many times before giving up.
	TxMaxAttempts int

	AutoCompleteCron    string
	AutoCompleteTimeout time.Duration

	WaitlistDefaultRegion string

	NotifyTimeout time.Duration
	AMQPURL       string
	AMQPExchange  string

	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
	SESSender          string

	OTLPEndpoint string
}

// Load reads configuration from environment variables, a .env file (optional)
// and the YAML file named by CONFIG_FILE (optional). Environment variables
// win over the file; the file uses the same keys.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	file := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if file, err = readFile(path); err != nil {
			return nil, err
		}
	}

	return load(source{file: file})
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return values, nil
}

func load(src source) (*Config, error) {
	var err error
	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = src.get("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = src.get("APP_ENV", "dev") == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = src.get("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = src.get("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tokens
	cfg.JWTSecret = src.get("JWT_SECRET", "")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = src.duration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(src.get("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.TxMaxAttempts, err = src.int("TX_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.TxMaxAttempts < 1 {
		return nil, fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1")
	}

	// Auto-complete sweep schedule, standard five-field cron (default: 03:00 daily)
	cfg.AutoCompleteCron = src.get("AUTO_COMPLETE_CRON", "0 3 * * *")
	if _, err := cron.ParseStandard(cfg.AutoCompleteCron); err != nil {
		return nil, fmt.Errorf("invalid AUTO_COMPLETE_CRON: %w", err)
	}
	if cfg.AutoCompleteTimeout, err = src.duration("AUTO_COMPLETE_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.WaitlistDefaultRegion = strings.ToUpper(src.get("WAITLIST_DEFAULT_REGION", "US"))
	if phonenumbers.GetCountryCodeForRegion(cfg.WaitlistDefaultRegion) == 0 {
		return nil, fmt.Errorf("invalid WAITLIST_DEFAULT_REGION %q", cfg.WaitlistDefaultRegion)
	}

	if cfg.NotifyTimeout, err = src.duration("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	cfg.AMQPURL = src.get("AMQP_URL", "")
	cfg.AMQPExchange = src.get("AMQP_EXCHANGE", "court.events")

	cfg.SESRegion = src.get("SES_REGION", "")
	cfg.SESAccessKeyID = src.get("SES_ACCESS_KEY_ID", "")
	cfg.SESSecretAccessKey = src.get("SES_SECRET_ACCESS_KEY", "")
	cfg.SESSender = src.get("SES_SENDER", "")
	if cfg.SESRegion != "" && cfg.SESSender == "" {
		return nil, fmt.Errorf("SES_SENDER is required when SES_REGION is set")
	}

	cfg.OTLPEndpoint = src.get("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	return cfg, nil
}

// source resolves keys from the environment, then the config file.
type source struct {
	file map[string]string
}

func (s source) get(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	if v, ok := s.file[key]; ok {
		return v
	}
	return defaultValue
}

// int retrieves a value as an integer.
// It returns an error if the value is set but is not a valid integer.
func (s source) int(key string, defaultValue int) (int, error) {
	valStr := s.get(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("%s value %q is not a valid integer: %w", key, valStr, err)
	}
	return val, nil
}

// duration parses a value as time.Duration (e.g. "15m", "1h").
func (s source) duration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := s.get(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}
