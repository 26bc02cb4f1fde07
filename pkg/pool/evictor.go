package pool

import (
	"context"
	"time"
)

// evictor periodically scans the idle set, closing connections that sat idle
// past MinEvictableIdleTime, then re-warms the set up to MinIdle.
func (p *Pool[C]) evictor() {
	ticker := time.NewTicker(p.cfg.TimeBetweenEvictionRuns)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.evictOnce(time.Now())
			p.warmIdle(context.Background())
		}
	}
}

// evictOnce runs one eviction scan. Up to NumTestsPerEvictionRun entries are
// examined (-1 examines all), oldest first. Entries idle at least
// MinEvictableIdleTime are closed; with TestWhileIdle set, younger sampled
// entries are validated and closed on failure.
//
// The scan holds the pool lock for its duration, so validators used with
// TestWhileIdle should stay cheap.
func (p *Pool[C]) evictOnce(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.idle) == 0 {
		return
	}

	sample := len(p.idle)
	if n := p.cfg.NumTestsPerEvictionRun; n > 0 && n < sample {
		sample = n
	}

	kept := p.idle[:0]
	evicted := 0
	for i, e := range p.idle {
		if i < sample {
			if now.Sub(e.returnedAt) >= p.cfg.MinEvictableIdleTime {
				_ = e.conn.Close()
				evicted++
				continue
			}
			if p.cfg.TestWhileIdle && p.validate != nil {
				if err := p.validate(context.Background(), e.conn); err != nil {
					_ = e.conn.Close()
					evicted++
					p.log.Debug("closed idle connection failing validation",
						"pool", p.name, "error", err)
					continue
				}
			}
		}
		kept = append(kept, e)
	}
	p.idle = kept

	if evicted > 0 {
		p.log.Debug("evicted idle connections", "pool", p.name, "count", evicted)
	}
}

// warmIdle creates connections until the idle set holds MinIdle entries,
// stopping early when borrowed plus idle connections already reach MaxTotal.
// Each creation holds a capacity permit while dialing.
func (p *Pool[C]) warmIdle(ctx context.Context) {
	for {
		p.mu.Lock()
		atCapacity := !p.cfg.unbounded() && p.active+len(p.idle) >= p.cfg.MaxTotal
		if p.closed || atCapacity || len(p.idle) >= p.cfg.MinIdle {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		if !p.sem.TryAcquire(1) {
			return
		}
		conn, err := p.factory(ctx)
		if err != nil {
			p.sem.Release(1)
			p.log.Warn("failed to warm idle connection", "pool", p.name, "error", err)
			return
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.sem.Release(1)
			_ = conn.Close()
			return
		}
		p.idle = append(p.idle, &idleConn[C]{conn: conn, returnedAt: time.Now()})
		p.mu.Unlock()
		p.sem.Release(1)
	}
}
