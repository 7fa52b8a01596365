// Package commitment implements the commit-reveal scheme: a high-entropy
// secret seed is generated at pool close, its SHA-256 digest is published
// immediately, and the seed itself becomes public only once the draw is
// final. Observers can then confirm the operator did not swap seeds after
// entries were known.
package commitment

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// seedBytes is the raw entropy per seed: 256 bits.
const seedBytes = 32

// NewSeed returns a fresh cryptographically strong seed, hex-encoded.
func NewSeed() (string, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSeed derives the publishable commitment from a seed. The digest is
// computed over the seed's string form so independent verifiers need no
// decoding step.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether hash is the commitment for seed. Constant-time,
// although the values are public by the time anyone verifies.
func Matches(seed, hash string) bool {
	expected := HashSeed(seed)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) == 1
}
