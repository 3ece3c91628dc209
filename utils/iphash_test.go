package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIP(t *testing.T) {
	key := []byte("hash-key")

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, HashIP(key, "203.0.113.7"), HashIP(key, "203.0.113.7"))
	})

	t.Run("KeyChangesDigest", func(t *testing.T) {
		assert.NotEqual(t, HashIP(key, "203.0.113.7"), HashIP([]byte("other-key"), "203.0.113.7"))
	})

	t.Run("AddressChangesDigest", func(t *testing.T) {
		assert.NotEqual(t, HashIP(key, "203.0.113.7"), HashIP(key, "203.0.113.8"))
	})

	t.Run("TruncatedHexOutput", func(t *testing.T) {
		digest := HashIP(key, "2001:db8::1")
		assert.Len(t, digest, 32)
		for _, r := range digest {
			ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
			assert.True(t, ok, "unexpected character %q", r)
		}
	})

	t.Run("DoesNotContainRawAddress", func(t *testing.T) {
		assert.NotContains(t, HashIP(key, "203.0.113.7"), "203.0.113.7")
	})
}
