package http

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// etag returns a strong entity tag for a rendered body.
func etag(body string) string {
	sum := blake2b.Sum256([]byte(body))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches reports whether an If-None-Match header names tag.
func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
