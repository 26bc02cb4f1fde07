package pool

import (
	"errors"
	"fmt"
	"time"

	"github.com/rediskit/rediskit/pkg/settings"
)

// Named defaults for every pool knob. Use these instead of inline literals so
// the reader and properties resolution paths cannot drift apart.
const (
	DefaultMaxTotal                = 400
	DefaultMaxIdle                 = 100
	DefaultMinIdle                 = 10
	DefaultTestOnBorrow            = false
	DefaultTestOnReturn            = false
	DefaultTestWhileIdle           = false
	DefaultTimeBetweenEvictionRuns = time.Minute
	DefaultMinEvictableIdleTime    = 30 * time.Second
	DefaultNumTestsPerEvictionRun  = 1000
	DefaultMaxWait                 = 3 * time.Second
)

// MaxWaitForever is the only negative MaxWait accepted by Validate: the
// conventional -1 sentinel, expressed in the milliseconds the settings path
// resolves. Borrow then waits indefinitely for capacity.
const MaxWaitForever = -time.Millisecond

// Settings keys recognized by Load.
const (
	keyMaxTotal                = "maxTotal"
	keyMaxIdle                 = "maxIdle"
	keyMinIdle                 = "minIdle"
	keyTestOnBorrow            = "testOnBorrow"
	keyTestOnReturn            = "testOnReturn"
	keyTestWhileIdle           = "testWhileIdle"
	keyTimeBetweenEvictionRuns = "timeBetweenEvictionRunsMillis"
	keyMinEvictableIdleTime    = "minEvictableIdleTimeMillis"
	keyNumTestsPerEvictionRun  = "numTestsPerEvictionRun"
	keyMaxWait                 = "maxWaitMillis"
)

// Config holds resolved pool sizing and eviction parameters.
// It is constructed once, validated, and treated as immutable by the pool
// that owns it.
type Config struct {
	// MaxTotal is the upper bound on connections the pool may hand out
	// concurrently. -1 means unbounded.
	MaxTotal int

	// MaxIdle is the upper bound on idle connections retained. Returned
	// connections beyond this limit are closed.
	MaxIdle int

	// MinIdle is the number of idle connections the evictor keeps warm.
	MinIdle int

	// TestOnBorrow validates a connection before handing it to a caller.
	// Invalid connections are discarded and another is tried.
	TestOnBorrow bool

	// TestOnReturn validates a connection before pooling it again.
	TestOnReturn bool

	// TestWhileIdle validates idle connections during eviction scans.
	TestWhileIdle bool

	// TimeBetweenEvictionRuns is the period of the idle eviction scan.
	// Zero or negative disables the evictor entirely.
	TimeBetweenEvictionRuns time.Duration

	// MinEvictableIdleTime is how long a connection must sit idle before an
	// eviction scan may close it. Meaningful only when eviction is enabled.
	MinEvictableIdleTime time.Duration

	// NumTestsPerEvictionRun caps how many idle connections one eviction
	// scan examines. -1 means scan the whole idle set.
	NumTestsPerEvictionRun int

	// MaxWait bounds how long Borrow blocks for capacity. MaxWaitForever
	// waits indefinitely; zero and any other negative are rejected by
	// Validate.
	MaxWait time.Duration
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		MaxTotal:                DefaultMaxTotal,
		MaxIdle:                 DefaultMaxIdle,
		MinIdle:                 DefaultMinIdle,
		TestOnBorrow:            DefaultTestOnBorrow,
		TestOnReturn:            DefaultTestOnReturn,
		TestWhileIdle:           DefaultTestWhileIdle,
		TimeBetweenEvictionRuns: DefaultTimeBetweenEvictionRuns,
		MinEvictableIdleTime:    DefaultMinEvictableIdleTime,
		NumTestsPerEvictionRun:  DefaultNumTestsPerEvictionRun,
		MaxWait:                 DefaultMaxWait,
	}
}

// Load resolves a Config from a settings source. Absent keys fall back to the
// package defaults; present keys must coerce to their declared type or the
// parse error surfaces unrecovered. The resolved Config is validated before
// being returned.
func Load(src settings.Source) (Config, error) {
	cfg := Config{}

	var err error
	if cfg.MaxTotal, err = settings.Int(src, keyMaxTotal, DefaultMaxTotal); err != nil {
		return Config{}, err
	}
	if cfg.MaxIdle, err = settings.Int(src, keyMaxIdle, DefaultMaxIdle); err != nil {
		return Config{}, err
	}
	if cfg.MinIdle, err = settings.Int(src, keyMinIdle, DefaultMinIdle); err != nil {
		return Config{}, err
	}
	if cfg.TestOnBorrow, err = settings.Bool(src, keyTestOnBorrow, DefaultTestOnBorrow); err != nil {
		return Config{}, err
	}
	if cfg.TestOnReturn, err = settings.Bool(src, keyTestOnReturn, DefaultTestOnReturn); err != nil {
		return Config{}, err
	}
	if cfg.TestWhileIdle, err = settings.Bool(src, keyTestWhileIdle, DefaultTestWhileIdle); err != nil {
		return Config{}, err
	}
	if cfg.TimeBetweenEvictionRuns, err = settings.Millis(src, keyTimeBetweenEvictionRuns, DefaultTimeBetweenEvictionRuns); err != nil {
		return Config{}, err
	}
	if cfg.MinEvictableIdleTime, err = settings.Millis(src, keyMinEvictableIdleTime, DefaultMinEvictableIdleTime); err != nil {
		return Config{}, err
	}
	if cfg.NumTestsPerEvictionRun, err = settings.Int(src, keyNumTestsPerEvictionRun, DefaultNumTestsPerEvictionRun); err != nil {
		return Config{}, err
	}
	if cfg.MaxWait, err = settings.Millis(src, keyMaxWait, DefaultMaxWait); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the sizing invariants: MinIdle <= MaxIdle <= MaxTotal (when
// MaxTotal is bounded), the -1 sentinels are the only accepted negatives, and
// a zero MaxWait is rejected as undefined.
func (c Config) Validate() error {
	if c.MaxTotal == 0 || c.MaxTotal < -1 {
		return invalidConfig("maxTotal must be positive or -1 for unbounded, got %d", c.MaxTotal)
	}
	if c.MaxIdle < 0 {
		return invalidConfig("maxIdle must not be negative, got %d", c.MaxIdle)
	}
	if c.MinIdle < 0 {
		return invalidConfig("minIdle must not be negative, got %d", c.MinIdle)
	}
	if c.MinIdle > c.MaxIdle {
		return invalidConfig("minIdle %d exceeds maxIdle %d", c.MinIdle, c.MaxIdle)
	}
	if c.MaxTotal > 0 && c.MaxIdle > c.MaxTotal {
		return invalidConfig("maxIdle %d exceeds maxTotal %d", c.MaxIdle, c.MaxTotal)
	}
	if c.MaxWait == 0 || (c.MaxWait < 0 && c.MaxWait != MaxWaitForever) {
		return invalidConfig("maxWait must be positive or -1 for infinite, got %s", c.MaxWait)
	}
	if c.NumTestsPerEvictionRun == 0 || c.NumTestsPerEvictionRun < -1 {
		return invalidConfig("numTestsPerEvictionRun must be positive or -1 for all, got %d", c.NumTestsPerEvictionRun)
	}
	if c.evictionEnabled() && c.MinEvictableIdleTime <= 0 {
		return invalidConfig("minEvictableIdleTime must be positive when eviction is enabled, got %s", c.MinEvictableIdleTime)
	}
	return nil
}

func (c Config) evictionEnabled() bool {
	return c.TimeBetweenEvictionRuns > 0
}

func (c Config) unbounded() bool {
	return c.MaxTotal < 0
}

func invalidConfig(format string, args ...any) error {
	return errors.Join(ErrInvalidConfig, fmt.Errorf("pool: "+format, args...))
}
