package config

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	// TokenKeyHex is the hex-encoded 32-byte key used to encrypt upstream
	// bearer tokens at rest.
	TokenKeyHex string `env:"TOKEN_CIPHER_KEY"`

	Upstream UpstreamConfig
	Mongo    MongoConfig
	Redis    RedisConfig

	tokenKey []byte
}

type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_BASE_URL, default=http://localhost:5000/api"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT,  default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=donation_gateway"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig and
// validates the fields that cannot fail later.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	key, err := hex.DecodeString(cfg.TokenKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: TOKEN_CIPHER_KEY must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: TOKEN_CIPHER_KEY must decode to 32 bytes, got %d", len(key))
	}
	cfg.tokenKey = key

	return &cfg, nil
}

// TokenCipherKey returns the decoded token encryption key.
func (c *Config) TokenCipherKey() []byte {
	return c.tokenKey
}
