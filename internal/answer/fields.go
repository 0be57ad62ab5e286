package answer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// firstItem decodes body and returns the first object stored under key.
// The value may be an array (first element is used) or a single object.
func firstItem(body []byte, key string) (map[string]any, bool) {
	if len(body) == 0 {
		return nil, false
	}
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, false
	}

	var candidate any
	switch v := root[key].(type) {
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		candidate = v[0]
	default:
		candidate = v
	}

	item, ok := candidate.(map[string]any)
	if !ok || len(item) == 0 {
		return nil, false
	}
	return item, true
}

// pick returns the first alias that resolves to a usable value. Aliases may
// be dotted paths into nested objects (e.g. "asset.ual").
func pick(item map[string]any, aliases ...string) (string, bool) {
	for _, alias := range aliases {
		v, ok := lookup(item, alias)
		if !ok {
			continue
		}
		if s, ok := stringify(v); ok {
			return s, true
		}
	}
	return "", false
}

// pickOr is pick with a default for when no alias resolves
func pickOr(item map[string]any, def string, aliases ...string) string {
	if s, ok := pick(item, aliases...); ok {
		return s
	}
	return def
}

func lookup(item map[string]any, path string) (any, bool) {
	var cur any = item
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringify renders scalars as text. null, empty strings and containers do
// not count as a value.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
