package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Identity IdentityConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type IdentityConfig struct {
	// SessionTTL bounds how long an issued session token stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`
	// LockoutThreshold is the failed-login count that triggers a lockout.
	LockoutThreshold int `env:"LOCKOUT_THRESHOLD, default=5"`
	// LockoutWindow is how long a locked identifier stays denied after its
	// last failure.
	LockoutWindow time.Duration `env:"LOCKOUT_WINDOW, default=15m"`
	// ResetTokenTTL is the lifetime of a password-reset token.
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL, default=1h"`
	// MinPasswordScore is the minimum strength score (out of 5) accepted.
	MinPasswordScore int `env:"MIN_PASSWORD_SCORE, default=4"`
	// InstitutionalDomains overrides the built-in allow-list of domain
	// fragments accepted for agent/admin registration.
	InstitutionalDomains []string `env:"INSTITUTIONAL_DOMAINS"`
	// BcryptCost tunes credential hashing; 0 means the library default.
	BcryptCost int `env:"BCRYPT_COST"`
	// NotifyWorkers sizes the reset-notification delivery pool.
	NotifyWorkers int `env:"NOTIFY_WORKERS, default=4"`
	// ResetBaseURL, when set, is prepended to reset tokens to form a link.
	ResetBaseURL string `env:"RESET_BASE_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sentinela_identity"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
