// Package settings provides an abstract key/value settings source with typed
// accessors and fallback defaults.
//
// A [Source] is any lookup that can report presence. Typed accessors ([Int],
// [Bool], [Millis]) return the declared fallback for absent keys and fail with
// [ErrInvalidValue] when a present value cannot be coerced.
//
// Three adapters are included: [Map] for in-memory values, [Env] for
// environment variables, and [YAMLFile] for flat YAML documents.
package settings
