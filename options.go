package adal

import (
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type options struct {
	defaultExpire time.Duration
	keyPrefix     string
	backend       backend
	logger        *slog.Logger
}

var (
	defaultOptions = &options{
		defaultExpire: time.Hour,
		keyPrefix:     "ADAL",
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
)

type Option func(*options)

// WithDefaultExpire sets the lifetime of entries whose token carries no
// expiry.
func WithDefaultExpire(expire time.Duration) Option {
	return func(o *options) {
		o.defaultExpire = expire
	}
}

// WithKeyPrefix sets the prefix of every Redis key.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
		if rb, ok := o.backend.(*redisBackend); ok {
			rb.prefix = prefix
		}
	}
}

func WithRedisBackend(client *redis.Client) Option {
	return func(o *options) {
		o.backend = &redisBackend{
			client: client,
			prefix: o.keyPrefix,
		}
	}
}

func WithMemoryBackend() Option {
	return func(o *options) {
		o.backend = newMemoryBackend()
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func apply(opts []Option) *options {
	optCopy := &options{}
	*optCopy = *defaultOptions
	for _, o := range opts {
		o(optCopy)
	}
	if optCopy.backend == nil {
		optCopy.backend = newMemoryBackend()
	}
	return optCopy
}
