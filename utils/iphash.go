package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashIP returns a keyed blake2b digest of a client address, hex-encoded and
// truncated to 32 characters. The raw address is never persisted; the keyed
// hash supports distinct-visitor counting without being reversible by anyone
// who lacks the key.
func HashIP(key []byte, ip string) string {
	h, err := blake2b.New256(key)
	if err != nil {
		// blake2b only rejects keys longer than 64 bytes; fall back to unkeyed
		h, _ = blake2b.New256(nil)
	}
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:32]
}
