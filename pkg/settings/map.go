package settings

// Map is an in-memory Source, primarily for tests and programmatic wiring.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
