package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        uint   `envconfig:"PORT" default:"8080"`
	Domain      string `envconfig:"DOMAIN"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	StoreBackend   string `envconfig:"STORE_BACKEND" default:"mongo"`
	MongoURI       string `envconfig:"MONGODB_URI"`
	MongoDatabase  string `envconfig:"MONGODB_DATABASE" default:"civicreport"`
	RedisAddress   string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	IssueQueueName string `envconfig:"REDIS_QUEUE_FOR_ISSUE_LIMIT" default:"issue_limit"`

	JWTSecret        string `envconfig:"JWT_SECRET"`
	IssueDailyLimit  int    `envconfig:"ISSUE_DAILY_LIMIT" default:"10"`
	StatusPolicy     string `envconfig:"STATUS_TRANSITION_POLICY" default:"permissive"`
	ShutdownTimeoutS uint   `envconfig:"SHUTDOWN_TIMEOUT_SEC" default:"10"`
}

// Load reads .env when present and processes the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("set MONGODB_URI or STORE_BACKEND=memory")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("set JWT_SECRET")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
