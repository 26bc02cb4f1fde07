package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/rediskit/rediskit/pkg/pool"
)

// OpenCluster creates a go-redis cluster client whose per-node pools are
// sized from cfg. Addresses are seed nodes; the client discovers the rest of
// the topology itself.
//
// Example:
//
//	client, err := redis.OpenCluster(ctx, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, cfg)
func OpenCluster(ctx context.Context, addrs []string, cfg pool.Config, opts ...Option) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, ErrNoClusterAddrs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	clusterOpts := &redis.ClusterOptions{
		Addrs:       addrs,
		DialTimeout: o.dialTimeout,
	}
	applyPoolConfig(cfg, &poolFields{
		PoolSize:        &clusterOpts.PoolSize,
		MinIdleConns:    &clusterOpts.MinIdleConns,
		MaxIdleConns:    &clusterOpts.MaxIdleConns,
		PoolTimeout:     &clusterOpts.PoolTimeout,
		ConnMaxIdleTime: &clusterOpts.ConnMaxIdleTime,
	})

	return connect(ctx, func() redis.UniversalClient {
		return redis.NewClusterClient(clusterOpts)
	}, o.retryAttempts, o.retryInterval)
}
