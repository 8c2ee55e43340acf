// Package querykey derives cache keys from list filters.
package querykey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

const keyPrefix = "list:"

// Key identifies one list query. Two filters that produce the same request
// produce the same Key.
type Key string

// Canonical is the deterministic serialization a key is hashed from. It is the
// encoded request itself, with parameters sorted by name.
func Canonical(filter entities.FilterState) string {
	return filter.Normalized().QueryParams().Encode()
}

// Build returns the key for listID and filter
func Build(listID string, filter entities.FilterState) Key {
	hash := sha256.Sum256([]byte(Canonical(filter)))
	return Key(Prefix(listID) + hex.EncodeToString(hash[:]))
}

// Prefix returns the prefix shared by every key of listID
func Prefix(listID string) string {
	return keyPrefix + listID + ":"
}

// ListID returns the list a key belongs to
func (k Key) ListID() string {
	rest := strings.TrimPrefix(string(k), keyPrefix)
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		return rest[:i]
	}
	return ""
}

// HasPrefix reports whether k belongs to the key space under prefix
func (k Key) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(k), prefix)
}

func (k Key) String() string {
	return string(k)
}
