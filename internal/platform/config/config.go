package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers soportados.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config del servicio, leída de env vars.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	AppName   string `env:"APP_NAME" envDefault:"pet-registry"`

	// STORAGE_DRIVER vacío: postgres si hay DB_DSN, si no memory.
	StorageDriver string `env:"STORAGE_DRIVER"`
	DBDSN         string `env:"DB_DSN"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"pet-registry.db"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"pet-registry.events"`

	IdentityVerifyURL string        `env:"IDENTITY_VERIFY_URL"`
	IdentityAPIKey    string        `env:"IDENTITY_API_KEY"`
	IdentityTimeout   time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"5s"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parsea el entorno y normaliza valores.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func (c Config) normalize() (Config, error) {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	if c.StorageDriver == "" {
		c.StorageDriver = StorageMemory
		if strings.TrimSpace(c.DBDSN) != "" {
			c.StorageDriver = StoragePostgres
		}
	}

	switch c.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return Config{}, fmt.Errorf("STORAGE_DRIVER=postgres requires DB_DSN")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	brokers := make([]string, 0, len(c.KafkaBrokers))
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
	return c, nil
}
