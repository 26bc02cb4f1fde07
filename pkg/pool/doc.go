// Package pool provides a bounded, generic connection pool with idle
// eviction, configured from key/value settings or typed environment
// properties.
//
// # Configuration
//
// A [Config] is resolved either from a [settings.Source] via [Load] (keys use
// the conventional jedis-style names: maxTotal, maxIdle, minIdle,
// testOnBorrow, testOnReturn, testWhileIdle, timeBetweenEvictionRunsMillis,
// minEvictableIdleTimeMillis, numTestsPerEvictionRun, maxWaitMillis) or from
// env-tagged [Properties] via [LoadProperties]. Both paths share the same
// named defaults and validation, so they cannot drift apart.
//
// Sentinels follow the jedis conventions: MaxTotal -1 means unbounded,
// [MaxWaitForever] (-1 ms) waits indefinitely (zero and other negatives are
// rejected at validation time), a non-positive TimeBetweenEvictionRuns
// disables the evictor, and NumTestsPerEvictionRun -1 scans the whole idle
// set.
//
// # Pooling
//
// [New] builds a [Pool] over any io.Closer resource from a [Factory].
// [Pool.Borrow] blocks up to MaxWait for capacity and fails with
// [ErrExhausted] on timeout; [Pool.Return] checks a connection back in, and
// [Pool.Discard] drops one that broke mid-loan.
//
//	cfg, err := pool.Load(settings.Map{"maxTotal": "50", "maxWaitMillis": "500"})
//	if err != nil {
//	    return err
//	}
//	p, err := pool.New(cfg, dial, pool.WithValidator(ping))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	conn, err := p.Borrow(ctx)
//	if err != nil {
//	    return err
//	}
//	defer p.Return(conn)
//
// When eviction is enabled a background goroutine closes connections idle
// past MinEvictableIdleTime and keeps MinIdle connections warm. The evictor
// and borrow/return share one lock over the idle set.
package pool
