package settings

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Source is an abstract key/value settings lookup.
// Implementations report whether the key is present so callers can
// distinguish "absent" from "empty".
type Source interface {
	Lookup(key string) (string, bool)
}

// Int resolves key as an integer, returning fallback when the key is absent.
// A present but non-numeric value is an error.
func Int(src Source, key string, fallback int) (int, error) {
	raw, ok := src.Lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key, raw, err)
	}
	return v, nil
}

// Bool resolves key as a boolean, returning fallback when the key is absent.
// Accepts the forms understood by strconv.ParseBool ("true", "1", "false", ...).
func Bool(src Source, key string, fallback bool) (bool, error) {
	raw, ok := src.Lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(key, raw, err)
	}
	return v, nil
}

// Millis resolves key as an integer number of milliseconds and returns it as a
// time.Duration. Negative values are preserved; -1 is the conventional
// "disabled" / "infinite" sentinel for pool timing knobs.
func Millis(src Source, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := src.Lookup(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid(key, raw, err)
	}
	return time.Duration(v) * time.Millisecond, nil
}

func invalid(key, raw string, err error) error {
	return errors.Join(ErrInvalidValue, fmt.Errorf("settings: key %q value %q: %w", key, raw, err))
}
