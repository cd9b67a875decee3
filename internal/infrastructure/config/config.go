package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BcryptCost below the hasher's floor is raised to it, so a stale or
	// missing value can never weaken stored credentials.
	BcryptCost int `env:"BCRYPT_COST, default=12"`

	NotificationWorkers int `env:"NOTIFICATION_WORKERS, default=4"`

	Token TokenConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// TokenConfig carries one signing secret and lifetime per token purpose.
// Secrets have no defaults on purpose: an unset secret disables that flow
// rather than shipping a known value.
type TokenConfig struct {
	AccessSecret            string        `env:"TOKEN_ACCESS_SECRET"`
	RefreshSecret           string        `env:"TOKEN_REFRESH_SECRET"`
	EmailVerificationSecret string        `env:"TOKEN_EMAIL_VERIFICATION_SECRET"`
	PasswordResetSecret     string        `env:"TOKEN_PASSWORD_RESET_SECRET"`
	AccessTTL               time.Duration `env:"TOKEN_ACCESS_TTL,             default=15m"`
	RefreshTTL              time.Duration `env:"TOKEN_REFRESH_TTL,            default=168h"`
	EmailVerificationTTL    time.Duration `env:"TOKEN_EMAIL_VERIFICATION_TTL, default=24h"`
	PasswordResetTTL        time.Duration `env:"TOKEN_PASSWORD_RESET_TTL,     default=1h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity_core"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}
