// Package checksum produces the content digests used for If-Match
// preconditions on snippet updates and for suppressing watcher echoes of
// the vault's own writes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
