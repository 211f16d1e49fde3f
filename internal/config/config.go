package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string

	HTTPPort string
	LogLevel logrus.Level
	// RateLimit is the allowed requests per second across all clients; 0 disables it.
	RateLimit float64

	// AMQPURL is optional. Without it change notifications stay in-process.
	AMQPURL      string
	AMQPExchange string

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration
	// TrustClientIdentity enables POST /v1/session, which opens a session for
	// whatever identity the client reports. Nothing verifies that identity
	// against the identity provider, so only enable it behind a gateway that
	// does, or for local development.
	TrustClientIdentity bool

	OperatorWorkers int

	NotificationWindow   time.Duration
	NotificationCapacity int
	CurrencySymbol       string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func ProcessEnvironmentVariables() (*Config, error) {
	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		PostgresAddress:      "localhost",
		PostgresPort:         "5433",
		PostgresDB:           "postgres",
		PostgresUsername:     "postgres",
		PostgresPassword:     "testpassword",
		HTTPPort:             "9446",
		LogLevel:             logrus.InfoLevel,
		RateLimit:            50,
		AMQPExchange:         "finance.changes",
		JWTSecret:            "local-development-secret",
		JWTIssuer:            "finance-tracker",
		SessionTTL:           24 * time.Hour,
		OperatorWorkers:      4,
		NotificationWindow:   10 * time.Minute,
		NotificationCapacity: 50,
		CurrencySymbol:       "₦",
	}

	setString(&env.PostgresAddress, "POSTGRES_ADDRESS")
	setString(&env.PostgresPort, "POSTGRES_PORT")
	setString(&env.PostgresDB, "POSTGRES_DB")
	setString(&env.PostgresUsername, "POSTGRES_USERNAME")
	setString(&env.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&env.HTTPPort, "HTTP_PORT")
	setString(&env.AMQPURL, "AMQP_URL")
	setString(&env.AMQPExchange, "AMQP_EXCHANGE")
	setString(&env.JWTSecret, "JWT_SECRET")
	setString(&env.JWTIssuer, "JWT_ISSUER")
	setString(&env.CurrencySymbol, "CURRENCY_SYMBOL")

	var errs []error

	if raw := os.Getenv("LOG_LEVEL"); len(raw) != 0 {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		} else {
			env.LogLevel = level
		}
	}

	errs = append(errs,
		setDuration(&env.SessionTTL, "SESSION_TTL"),
		setDuration(&env.NotificationWindow, "NOTIFICATION_WINDOW"),
		setInt(&env.OperatorWorkers, "OPERATOR_WORKERS"),
		setInt(&env.NotificationCapacity, "NOTIFICATION_CAPACITY"),
		setFloat(&env.RateLimit, "RATE_LIMIT"),
		setBool(&env.TrustClientIdentity, "TRUST_CLIENT_IDENTITY"),
	)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &env, nil
}

// Validate reports every setting that cannot be used as configured.
func (c *Config) Validate() error {
	var problems []string

	if c.PostgresAddress == "" || c.PostgresPort == "" || c.PostgresDB == "" {
		problems = append(problems, "postgres address, port and db are required")
	}
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		problems = append(problems, "HTTP_PORT must be numeric")
	}
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.OperatorWorkers < 1 {
		problems = append(problems, "OPERATOR_WORKERS must be at least 1")
	}
	if c.NotificationCapacity < 1 {
		problems = append(problems, "NOTIFICATION_CAPACITY must be at least 1")
	}
	if c.NotificationWindow < 0 {
		problems = append(problems, "NOTIFICATION_WINDOW must not be negative")
	}
	if c.RateLimit < 0 {
		problems = append(problems, "RATE_LIMIT must not be negative")
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		problems = append(problems, "AMQP_EXCHANGE is required when AMQP_URL is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PostgresURL builds the lib/pq connection string.
func (c *Config) PostgresURL() string {
	return "postgres://" + c.PostgresUsername + ":" +
		c.PostgresPassword + "@" + c.PostgresAddress + ":" +
		c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}

func setString(target *string, key string) {
	if value := os.Getenv(key); len(value) != 0 {
		*target = value
	}
}

func setDuration(target *time.Duration, key string) error {
	value := os.Getenv(key)
	if len(value) == 0 {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setInt(target *int, key string) error {
	value := os.Getenv(key)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setFloat(target *float64, key string) error {
	value := os.Getenv(key)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setBool(target *bool, key string) error {
	value := os.Getenv(key)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}
