// Package redis constructs go-redis clients from resolved pool
// configuration.
//
// [Open] and [OpenCluster] map a validated [pool.Config] onto the go-redis
// client and cluster-client pool knobs (PoolSize, MinIdleConns, MaxIdleConns,
// PoolTimeout, ConnMaxIdleTime) and connect with bounded retry. The actual
// connection pooling, eviction and cluster topology handling belong to
// go-redis; nothing of the wire protocol is reimplemented here.
//
//	cfg, err := pool.Load(settings.NewEnv("REDIS"))
//	if err != nil {
//	    return err
//	}
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"), cfg,
//	    redis.WithRetry(5, 3*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// [Healthcheck] produces a ping closure for health endpoints and [Shutdown]
// a graceful-shutdown hook.
//
// Sentinel translation: pool.Config uses -1 for "unbounded" (MaxTotal) and
// the -1 ms [pool.MaxWaitForever] sentinel for "wait forever" (MaxWait);
// go-redis supports neither, so the former keeps the go-redis default pool
// size and the latter becomes an hour-long pool timeout.
package redis
