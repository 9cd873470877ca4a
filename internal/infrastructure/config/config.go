package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const EnvDevelopment = "development"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Activity ActivityConfig
}

type AuthConfig struct {
	AccessSecret    string        `env:"JWT_ACCESS_SECRET, required"`
	AccessTTL       time.Duration `env:"JWT_ACCESS_TTL,    default=15m"`
	RefreshSecret   string        `env:"JWT_REFRESH_SECRET, required"`
	RefreshTTL      time.Duration `env:"JWT_REFRESH_TTL,   default=168h"`
	AdminEmails     []string      `env:"ADMIN_EMAILS,      default=admin@example.com"`
	RevokeOnRefresh bool          `env:"REVOKE_ON_REFRESH, default=true"`
	BcryptCost      int           `env:"BCRYPT_COST,       default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_manager"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ActivityConfig struct {
	Workers int `env:"ACTIVITY_WORKERS, default=4"`
}

// IsDevelopment reports whether the service runs in the development env.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Load reads configuration from the process environment. In development a
// .env file in the working directory is loaded first when present.
func Load(ctx context.Context) (*Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == EnvDevelopment {
		_ = godotenv.Load()
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Auth.AccessSecret == c.Auth.RefreshSecret:
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	case c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0:
		return errors.New("token TTLs must be positive")
	case c.Activity.Workers < 0:
		return errors.New("ACTIVITY_WORKERS must not be negative")
	}
	return nil
}
