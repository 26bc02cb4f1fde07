package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLFile loads a YAML document into a Map Source. Nested mappings are
// flattened with dotted keys, so
//
//	redis:
//	  maxTotal: 400
//
// is looked up as "redis.maxTotal". Scalar values keep their textual form and
// are coerced by the typed accessors.
func YAMLFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrUnreadableSource, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrUnreadableSource, err)
	}

	m := make(Map)
	flatten("", doc, m)
	return m, nil
}

func flatten(prefix string, doc map[string]any, out Map) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			// Explicit nulls are treated as absent.
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
