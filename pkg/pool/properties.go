package pool

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

// Properties is the typed environment-variable resolution path. It is a
// deliberately separate env surface from the settings.Env adapter: variables
// are namespaced REDIS_POOL_* (so they cannot collide with the adapter's
// millisecond-integer variables) and durations use duration syntax ("3s",
// "60s"), which reads better in deployment manifests. Both paths resolve to
// the same validated Config.
//
// Embed it in an application config struct or parse it standalone with
// LoadProperties.
type Properties struct {
	// Upper bound on concurrently borrowed connections. -1 means unbounded.
	MaxTotal int `env:"REDIS_POOL_MAX_TOTAL" envDefault:"400"`

	// Idle retention bounds. Returned connections beyond MaxIdle are closed;
	// the evictor keeps MinIdle connections warm.
	MaxIdle int `env:"REDIS_POOL_MAX_IDLE" envDefault:"100"`
	MinIdle int `env:"REDIS_POOL_MIN_IDLE" envDefault:"10"`

	// Validation hooks. All default to off; enable selectively, each one
	// costs a round trip per checkout, checkin, or scan.
	TestOnBorrow  bool `env:"REDIS_POOL_TEST_ON_BORROW" envDefault:"false"`
	TestOnReturn  bool `env:"REDIS_POOL_TEST_ON_RETURN" envDefault:"false"`
	TestWhileIdle bool `env:"REDIS_POOL_TEST_WHILE_IDLE" envDefault:"false"`

	// Eviction timing. A non-positive period disables the background scan.
	TimeBetweenEvictionRuns time.Duration `env:"REDIS_POOL_TIME_BETWEEN_EVICTION_RUNS" envDefault:"60s"`
	MinEvictableIdleTime    time.Duration `env:"REDIS_POOL_MIN_EVICTABLE_IDLE_TIME" envDefault:"30s"`

	// Idle connections sampled per eviction scan. -1 scans the whole set.
	NumTestsPerEvictionRun int `env:"REDIS_POOL_NUM_TESTS_PER_EVICTION_RUN" envDefault:"1000"`

	// Borrow timeout. "-1ms" is the wait-forever sentinel; zero and other
	// negatives are rejected.
	MaxWait time.Duration `env:"REDIS_POOL_MAX_WAIT" envDefault:"3s"`
}

// LoadProperties parses Properties from the process environment and resolves
// them into a validated Config.
func LoadProperties() (Config, error) {
	var p Properties
	if err := env.Parse(&p); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return p.Config()
}

// Config converts the typed properties into a validated Config. Both
// resolution paths produce identical results for equivalent inputs.
func (p Properties) Config() (Config, error) {
	cfg := Config{
		MaxTotal:                p.MaxTotal,
		MaxIdle:                 p.MaxIdle,
		MinIdle:                 p.MinIdle,
		TestOnBorrow:            p.TestOnBorrow,
		TestOnReturn:            p.TestOnReturn,
		TestWhileIdle:           p.TestWhileIdle,
		TimeBetweenEvictionRuns: p.TimeBetweenEvictionRuns,
		MinEvictableIdleTime:    p.MinEvictableIdleTime,
		NumTestsPerEvictionRun:  p.NumTestsPerEvictionRun,
		MaxWait:                 p.MaxWait,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
