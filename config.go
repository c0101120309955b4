package users

import (
	"fmt"
	"os"
	"strconv"
)

// AppConfig holds all service configuration, loaded from the environment.
type AppConfig struct {
	DBHost     string
	DBPort     string
	DBUsername string
	DBPassword string
	DBName     string

	SigningKey      string
	TokenExpiration int // hours

	ListenAddress string
}

var _ Config = (*AppConfig)(nil)

// LoadConfig reads configuration from environment variables. The signing
// secret and database name have no safe defaults and fail loading when
// absent.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUsername:    getEnv("DB_USERNAME", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", ""),
		SigningKey:    getEnv("JWT_SECRET_KEY", ""),
		ListenAddress: getEnv("SERVER_ADDRESS", ":3000"),
	}

	expiration, err := getEnvInt("TOKEN_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.TokenExpiration = expiration

	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DB_NAME environment variable is not set")
	}

	return cfg, nil
}

// DSN builds the Postgres connection string for the bun pgdriver.
func (c *AppConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AppConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *AppConfig) GetContextKey() string {
	return "user"
}

func (c *AppConfig) GetAuthScheme() string {
	return "Bearer"
}

func (c *AppConfig) GetIssuer() string {
	return "go-users"
}

// String masks credentials for startup logging.
func (c *AppConfig) String() string {
	return fmt.Sprintf(
		"AppConfig{db: %s@%s:%s/%s, listen: %s, secret: ***}",
		c.DBUsername, c.DBHost, c.DBPort, c.DBName, c.ListenAddress,
	)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}
