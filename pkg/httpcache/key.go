package httpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces response-cache keys in the shared backend.
const keyPrefix = "obs:resp:"

// Key derives the deterministic cache key for a request: a hash over
// the path and the sorted query parameters. Requests that differ only
// in parameter order map to the same key.
func Key(path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(path)

	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), query[name]...)
			sort.Strings(values)
			for _, value := range values {
				b.WriteByte('?')
				b.WriteString(name)
				b.WriteByte('=')
				b.WriteString(value)
			}
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + hex.EncodeToString(sum[:])
}
