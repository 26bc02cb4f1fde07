package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rediskit/rediskit/pkg/pool"
)

// Option configures connection establishment.
type Option func(*options)

type options struct {
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
}

func defaultOptions() *options {
	return &options{
		retryAttempts: 3,
		retryInterval: 5 * time.Second,
		dialTimeout:   5 * time.Second,
	}
}

// WithRetry configures startup retry behavior.
// Default: 3 attempts, 5 second base interval with linear backoff.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithDialTimeout sets the timeout for establishing new connections.
// Default: 5 seconds
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

// Open creates a go-redis client whose internal pool is sized from cfg.
// Supports both redis:// and rediss:// (TLS) URL schemes. go-redis owns the
// actual pooling; cfg only parameterizes it.
//
// Example:
//
//	cfg, _ := pool.Load(settings.NewEnv("REDIS"))
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"), cfg)
func Open(ctx context.Context, url string, cfg pool.Config, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	redisOpts.DialTimeout = o.dialTimeout
	applyPoolConfig(cfg, &poolFields{
		PoolSize:        &redisOpts.PoolSize,
		MinIdleConns:    &redisOpts.MinIdleConns,
		MaxIdleConns:    &redisOpts.MaxIdleConns,
		PoolTimeout:     &redisOpts.PoolTimeout,
		ConnMaxIdleTime: &redisOpts.ConnMaxIdleTime,
	})

	return connect(ctx, func() redis.UniversalClient {
		return redis.NewClient(redisOpts)
	}, o.retryAttempts, o.retryInterval)
}

// poolFields collects the go-redis knobs shared between single-node Options
// and ClusterOptions so both constructors map a pool.Config identically.
type poolFields struct {
	PoolSize        *int
	MinIdleConns    *int
	MaxIdleConns    *int
	PoolTimeout     *time.Duration
	ConnMaxIdleTime *time.Duration
}

// applyPoolConfig translates the resolved pool parameters onto go-redis.
// MaxTotal -1 (unbounded) leaves the go-redis default in place since go-redis
// has no unbounded mode; a negative MaxWait maps to a generous pool timeout
// for the same reason.
func applyPoolConfig(cfg pool.Config, f *poolFields) {
	if cfg.MaxTotal > 0 {
		*f.PoolSize = cfg.MaxTotal
	}
	*f.MinIdleConns = cfg.MinIdle
	*f.MaxIdleConns = cfg.MaxIdle
	if cfg.MaxWait > 0 {
		*f.PoolTimeout = cfg.MaxWait
	} else {
		*f.PoolTimeout = time.Hour
	}
	if cfg.MinEvictableIdleTime > 0 {
		*f.ConnMaxIdleTime = cfg.MinEvictableIdleTime
	}
}

// connect establishes a connection with retry and linear backoff.
func connect(ctx context.Context, build func() redis.UniversalClient, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	attempts = max(attempts, 1)

	for i := 0; i < attempts; i++ {
		client := build()

		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}

		_ = client.Close()

		if waitErr := wait(ctx, time.Duration(i+1)*interval); waitErr != nil {
			return nil, errors.Join(ErrConnectionFailed, waitErr)
		}
	}

	return nil, ErrConnectionFailed
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
