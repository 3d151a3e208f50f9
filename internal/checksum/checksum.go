// Package checksum computes content revisions for stored collections.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// JSON returns the Sum of v's JSON encoding. Values that cannot be encoded
// yield the digest of no data.
func JSON(v any) string {
	data, _ := json.Marshal(v)
	return Sum(data)
}

// Match reports whether an If-Match style tag refers to rev. Surrounding
// quotes are ignored and an empty tag matches anything.
func Match(tag, rev string) bool {
	if len(tag) >= 2 && tag[0] == '"' && tag[len(tag)-1] == '"' {
		tag = tag[1 : len(tag)-1]
	}
	return tag == "" || tag == rev
}
