package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxRawKeyLen bounds key size; longer keys are hashed.
const maxRawKeyLen = 200

// Key builds a cache key from an operation name and its input arguments.
// Arguments are lowercased and trimmed so that equivalent requests collide.
// The operation name stays as a plain prefix to keep InvalidatePrefix usable.
func Key(operation string, args ...string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, strings.ToLower(strings.TrimSpace(a)))
	}
	suffix := strings.Join(parts, "|")
	if len(suffix) > maxRawKeyLen {
		sum := sha256.Sum256([]byte(suffix))
		suffix = hex.EncodeToString(sum[:])
	}
	return operation + ":" + suffix
}
