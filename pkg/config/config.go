package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT, default=3000"`
	Env      string `env:"APP_ENV, default=dev"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DatabaseURL    string `env:"DATABASE_URL, required"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS, default=20"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS, default=5"`

	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL, default=24h"`

	FileService FileServiceConfig
	HTTP        HTTPConfig
}

type FileServiceConfig struct {
	BaseURL string        `env:"FILE_SERVICE_URL, default=http://law_s3_api:8000"`
	Timeout time.Duration `env:"FILE_SERVICE_TIMEOUT, default=30s"`
}

type HTTPConfig struct {
	CORSOrigins     string        `env:"CORS_ORIGINS, default=*"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX, default=100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW, default=15m"`
}

// Load reads .env (if present) and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// FromLookuper is Load without the .env step, for tests.
func FromLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
