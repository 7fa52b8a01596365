package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermuteDeterministic(t *testing.T) {
	first, err := Permute("abc123", 50)
	require.NoError(t, err)

	second, err := Permute("abc123", 50)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must always yield the same permutation")
}

func TestPermuteSeedSensitivity(t *testing.T) {
	a, err := Permute("abc123", 50)
	require.NoError(t, err)

	b, err := Permute("abc124", 50)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "different seeds should diverge")
}

func TestPermuteIsValidPermutation(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 17, 100} {
		perm, err := Permute("abc123", n)
		require.NoError(t, err)
		require.Len(t, perm, n)

		seen := make(map[int]bool, n)
		for _, v := range perm {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, n)
			assert.False(t, seen[v], "index %d appeared twice", v)
			seen[v] = true
		}
	}
}

func TestNextStaysInBound(t *testing.T) {
	gen := NewGenerator("abc123")
	for i := 0; i < 1000; i++ {
		v, err := gen.Next(7)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 7)
	}
}

func TestNextRejectsNonPositiveBound(t *testing.T) {
	gen := NewGenerator("abc123")

	_, err := gen.Next(0)
	assert.Error(t, err)

	_, err = gen.Next(-3)
	assert.Error(t, err)
}

func TestNextBoundOneIsAlwaysZero(t *testing.T) {
	gen := NewGenerator("abc123")
	for i := 0; i < 10; i++ {
		v, err := gen.Next(1)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(AlgorithmV1))
	assert.False(t, Supported(""))
	assert.False(t, Supported("fisher-yates"))
	assert.False(t, Supported("hkdf-sha256-fy-v2"))
}
