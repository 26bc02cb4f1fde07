package pool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Factory creates a new connection. It is called when a borrow request finds
// no usable idle connection and when the evictor re-warms the idle set.
type Factory[C io.Closer] func(ctx context.Context) (C, error)

// Validator reports whether a connection is still usable, typically by
// pinging the peer. It is consulted according to the TestOnBorrow,
// TestOnReturn and TestWhileIdle flags.
type Validator[C io.Closer] func(ctx context.Context, conn C) error

// idleConn is an entry in the idle set. Entries are ordered oldest-returned
// first; Borrow takes from the newest end.
type idleConn[C io.Closer] struct {
	returnedAt time.Time
	conn       C
}

// Pool is a bounded connection pool. Capacity is gated by a weighted
// semaphore of MaxTotal permits; a permit is held for the duration of each
// loan. The idle set is guarded by one mutex shared with the evictor.
type Pool[C io.Closer] struct {
	cfg      Config
	factory  Factory[C]
	validate Validator[C]
	log      *slog.Logger
	name     string
	sem      *semaphore.Weighted
	done     chan struct{}

	mu     sync.Mutex
	idle   []*idleConn[C]
	active int
	closed bool
}

// Option configures a Pool.
type Option[C io.Closer] func(*Pool[C])

// WithValidator sets the connection validator. Without one the TestOnBorrow,
// TestOnReturn and TestWhileIdle flags are inert and eviction is purely
// age-based.
func WithValidator[C io.Closer](v Validator[C]) Option[C] {
	return func(p *Pool[C]) {
		p.validate = v
	}
}

// WithLogger sets the logger for eviction and discard events.
// Default: discard.
func WithLogger[C io.Closer](log *slog.Logger) Option[C] {
	return func(p *Pool[C]) {
		p.log = log
	}
}

// WithName sets the pool name used in log attributes.
// Default: a random identifier.
func WithName[C io.Closer](name string) Option[C] {
	return func(p *Pool[C]) {
		p.name = name
	}
}

// New creates a pool from a validated Config and a connection factory.
// Connections are created lazily; when eviction is enabled a background
// goroutine scans the idle set every TimeBetweenEvictionRuns and keeps
// MinIdle connections warm. Close releases it.
//
// Example:
//
//	p, err := pool.New(cfg, func(ctx context.Context) (net.Conn, error) {
//	    var d net.Dialer
//	    return d.DialContext(ctx, "tcp", addr)
//	})
func New[C io.Closer](cfg Config, factory Factory[C], opts ...Option[C]) (*Pool[C], error) {
	if factory == nil {
		return nil, invalidConfig("nil connection factory")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capacity := int64(cfg.MaxTotal)
	if cfg.unbounded() {
		capacity = math.MaxInt64
	}

	p := &Pool[C]{
		cfg:     cfg,
		factory: factory,
		log:     slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		name:    uuid.NewString(),
		sem:     semaphore.NewWeighted(capacity),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.evictionEnabled() {
		go p.evictor()
	}

	return p, nil
}

// Borrow checks a connection out of the pool. It blocks up to MaxWait for
// capacity (indefinitely when MaxWait is MaxWaitForever) and returns
// ErrExhausted when the wait times out. The most recently returned idle connection is
// preferred; when the idle set is empty a new connection is dialed.
//
// Every successful Borrow must be paired with exactly one Return or Discard.
func (p *Pool[C]) Borrow(ctx context.Context) (C, error) {
	var zero C

	acquireCtx := ctx
	if p.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.cfg.MaxWait)
		defer cancel()
	}
	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, errors.Join(ErrExhausted, err)
	}

	for {
		e, err := p.popIdle()
		if err != nil {
			p.sem.Release(1)
			return zero, err
		}
		if e == nil {
			break
		}
		if p.cfg.TestOnBorrow && p.validate != nil {
			if verr := p.validate(ctx, e.conn); verr != nil {
				_ = e.conn.Close()
				p.log.DebugContext(ctx, "discarded idle connection failing borrow validation",
					"pool", p.name, "error", verr)
				continue
			}
		}
		p.markBorrowed()
		return e.conn, nil
	}

	conn, err := p.factory(ctx)
	if err != nil {
		p.sem.Release(1)
		return zero, errors.Join(ErrDialFailed, err)
	}
	p.markBorrowed()
	return conn, nil
}

// Return checks a connection back in. With TestOnReturn set, a connection
// failing validation is closed instead of pooled. Connections beyond MaxIdle
// are closed rather than retained.
func (p *Pool[C]) Return(conn C) {
	defer p.sem.Release(1)

	p.mu.Lock()
	p.active--
	closed := p.closed
	p.mu.Unlock()

	if closed {
		_ = conn.Close()
		return
	}

	if p.cfg.TestOnReturn && p.validate != nil {
		if err := p.validate(context.Background(), conn); err != nil {
			_ = conn.Close()
			p.log.Debug("closed connection failing return validation", "pool", p.name, "error", err)
			return
		}
	}

	p.mu.Lock()
	if p.closed || len(p.idle) >= p.cfg.MaxIdle {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	p.idle = append(p.idle, &idleConn[C]{conn: conn, returnedAt: time.Now()})
	p.mu.Unlock()
}

// Discard closes a borrowed connection without pooling it. Use it for
// connections that hit an error mid-loan.
func (p *Pool[C]) Discard(conn C) {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	p.sem.Release(1)
	_ = conn.Close()
}

// Close stops the evictor and closes all idle connections. Connections on
// loan are closed as they come back. Close is idempotent.
func (p *Pool[C]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range idle {
		_ = e.conn.Close()
	}
	return nil
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	// Idle is the number of pooled connections not on loan.
	Idle int
	// Active is the number of connections currently borrowed.
	Active int
}

// Stats reports current idle and active connection counts.
func (p *Pool[C]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Idle: len(p.idle), Active: p.active}
}

// popIdle removes and returns the newest idle entry, nil when the set is
// empty, or ErrClosed when the pool has been closed.
func (p *Pool[C]) popIdle() (*idleConn[C], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if len(p.idle) == 0 {
		return nil, nil
	}
	e := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	return e, nil
}

func (p *Pool[C]) markBorrowed() {
	p.mu.Lock()
	p.active++
	p.mu.Unlock()
}
