// Package shuffle implements the versioned deterministic permutation at the
// heart of the draw. The fairness guarantee depends on every verifier using
// the exact same generator and seeding procedure as the drawer, so the
// algorithm is pinned and identified by name rather than left to whatever
// pseudo-random utility is convenient.
//
// Algorithm hkdf-sha256-fy-v1:
//   - Seed expansion: HKDF-SHA256 keyed by the seed's UTF-8 bytes, nil salt,
//     info "fairdraw/shuffle/v1", read as a byte stream.
//   - Output-to-integer mapping: 8 bytes big-endian per draw, reduced to
//     [0, bound) by rejection sampling so no value is favored.
//   - Fisher-Yates: for i from n-1 down to 1, j = next(i+1), swap i and j.
//
// Two independent implementations given the same seed and input order must
// produce byte-identical permutations.
package shuffle

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// AlgorithmV1 identifies the pinned generator; pools record it so replays
// survive future algorithm revisions.
const AlgorithmV1 = "hkdf-sha256-fy-v1"

const infoV1 = "fairdraw/shuffle/v1"

// Generator is a deterministic uniform integer source derived solely from
// a seed string.
type Generator struct {
	stream io.Reader
}

// NewGenerator builds the v1 generator for a seed.
func NewGenerator(seed string) *Generator {
	return &Generator{stream: hkdf.New(sha256.New, []byte(seed), nil, []byte(infoV1))}
}

// Next returns a uniform integer in [0, bound). Rejection sampling: values
// at or above the largest multiple of bound that fits in a uint64 are
// discarded and redrawn, eliminating modulo bias.
func (g *Generator) Next(bound int) (int, error) {
	if bound <= 0 {
		return 0, fmt.Errorf("shuffle: bound must be positive, got %d", bound)
	}
	b := uint64(bound)
	limit := (^uint64(0) / b) * b
	var buf [8]byte
	for {
		if _, err := io.ReadFull(g.stream, buf[:]); err != nil {
			return 0, fmt.Errorf("shuffle: read generator stream: %w", err)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % b), nil
		}
	}
}

// Permute returns the deterministic Fisher-Yates permutation of 0..n-1
// under the given seed. The input is untouched; callers index their
// stably-ordered slice through the result.
func Permute(seed string, n int) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	gen := NewGenerator(seed)
	for i := n - 1; i > 0; i-- {
		j, err := gen.Next(i + 1)
		if err != nil {
			return nil, err
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

// Supported reports whether this build can replay the given algorithm id.
func Supported(algorithm string) bool {
	return algorithm == AlgorithmV1
}
