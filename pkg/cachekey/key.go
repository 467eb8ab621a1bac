// Package cachekey builds canonical cache keys from an entity type and its
// request parameters. Keys are deterministic: the same parameter set yields
// the same key regardless of map iteration or insertion order.
package cachekey

import (
	"sort"
	"strings"
)

// Build returns "entity" for an empty parameter set, otherwise
// "entity?k1=v1&k2=v2" with keys sorted lexicographically. Values are taken
// as-is; callers strip empty parameters before building the key.
func Build(entityType string, params map[string]string) string {
	if len(params) == 0 {
		return entityType
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(entityType)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
