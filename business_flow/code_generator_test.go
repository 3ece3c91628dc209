package businessflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/veritag/veritag/business_flow"
)

func TestCodeGenerator(t *testing.T) {
	t.Run("TokenLength", func(t *testing.T) {
		gen := businessflow.NewCodeGenerator(9)
		code, err := gen.Generate()
		require.NoError(t, err)
		// 9 bytes -> 12 base64url characters, no padding
		assert.Len(t, code, 12)
	})

	t.Run("MinimumEntropyEnforced", func(t *testing.T) {
		gen := businessflow.NewCodeGenerator(1)
		code, err := gen.Generate()
		require.NoError(t, err)
		// raised to 8 bytes -> 11 characters
		assert.Len(t, code, 11)
	})

	t.Run("URLSafeAlphabet", func(t *testing.T) {
		gen := businessflow.NewCodeGenerator(16)
		for i := 0; i < 50; i++ {
			code, err := gen.Generate()
			require.NoError(t, err)
			for _, r := range code {
				ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
				assert.True(t, ok, "unexpected character %q in token %s", r, code)
			}
		}
	})

	t.Run("NoRepeats", func(t *testing.T) {
		gen := businessflow.NewCodeGenerator(9)
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			code, err := gen.Generate()
			require.NoError(t, err)
			_, dup := seen[code]
			require.False(t, dup, "duplicate token %s", code)
			seen[code] = struct{}{}
		}
	})
}
