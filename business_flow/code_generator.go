package businessflow

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// CodeGenerator produces public code tokens. Tokens carry no structure: no
// product id, no sequence, nothing an outsider could enumerate. Uniqueness is
// owned by the caller, which retries on the store's duplicate error.
type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodeGenerator struct {
	numBytes int
}

// NewCodeGenerator returns a generator producing base64url tokens from
// numBytes of cryptographically strong randomness. numBytes below 8 is
// raised to 8 to keep collision probability negligible.
func NewCodeGenerator(numBytes int) CodeGenerator {
	if numBytes < 8 {
		numBytes = 8
	}
	return &randomCodeGenerator{numBytes: numBytes}
}

func (g *randomCodeGenerator) Generate() (string, error) {
	buf := make([]byte, g.numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
