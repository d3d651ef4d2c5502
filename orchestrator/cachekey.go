package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
)

// cacheKey hashes its parts into a single hex digest, the same sha256
// composite-key idiom used elsewhere in this codebase for comparing cached
// artifacts against current inputs.
func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
