package settings

import (
	"os"
	"strings"
	"unicode"
)

// Env is a Source backed by environment variables. Keys are translated from
// camelCase to SCREAMING_SNAKE_CASE and namespaced with the configured prefix,
// so with prefix "REDIS" the key "maxWaitMillis" resolves from
// REDIS_MAX_WAIT_MILLIS.
type Env struct {
	prefix string
}

// NewEnv creates an environment-backed Source with the given prefix.
// An empty prefix is allowed; keys then resolve without namespacing.
func NewEnv(prefix string) Env {
	return Env{prefix: strings.ToUpper(strings.TrimSuffix(prefix, "_"))}
}

// Lookup implements Source.
func (e Env) Lookup(key string) (string, bool) {
	name := envName(key)
	if e.prefix != "" {
		name = e.prefix + "_" + name
	}
	return os.LookupEnv(name)
}

// envName converts a camelCase key to its environment variable form:
// "maxTotal" becomes "MAX_TOTAL".
func envName(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
