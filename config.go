package adal

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config describes the token cache setup read from the environment.
type Config struct {
	RedisAddr     string        `env:"ADAL_REDIS_ADDR"`
	RedisPassword string        `env:"ADAL_REDIS_PASSWORD"`
	RedisDB       int           `env:"ADAL_REDIS_DB"             envDefault:"0"`
	KeyPrefix     string        `env:"ADAL_CACHE_KEY_PREFIX"     envDefault:"ADAL"`
	DefaultExpire time.Duration `env:"ADAL_CACHE_DEFAULT_EXPIRE" envDefault:"1h"`
	LogLevel      string        `env:"ADAL_LOG_LEVEL"            envDefault:"info"`
}

func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)
	if cfg.DefaultExpire <= 0 {
		return Config{}, errors.Wrap(ErrInvalidArgument, "ADAL_CACHE_DEFAULT_EXPIRE must be positive")
	}
	return cfg, nil
}

// RedisClient returns nil when no Redis address is configured.
func (c Config) RedisClient() *redis.Client {
	if c.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
}

// Options turns the config into cache options. Redis is used when an
// address is set, memory otherwise. The returned client is nil for the
// memory backend; otherwise the caller owns it and must close it.
func (c Config) Options() ([]Option, *redis.Client) {
	opts := []Option{
		WithDefaultExpire(c.DefaultExpire),
		WithKeyPrefix(c.KeyPrefix),
	}
	client := c.RedisClient()
	if client != nil {
		opts = append(opts, WithRedisBackend(client))
	} else {
		opts = append(opts, WithMemoryBackend())
	}
	return opts, client
}
