package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fairdraw/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePoolID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEntryID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		poolID, err := ParsePoolID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PoolID(validUUID), poolID)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		ticketID := NewTicketID()
		parsed, err := ParseTicketID(ticketID.String())
		require.NoError(t, err)
		assert.Equal(t, ticketID, parsed)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
func TestTypeDistinction(t *testing.T) {
	poolID := PoolID(uuid.New())
	eventID := EventID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ PoolID = eventID   // compile error
	// var _ EventID = poolID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(poolID), uuid.UUID(eventID))
}

func TestIsZero(t *testing.T) {
	assert.True(t, PoolID{}.IsZero())
	assert.True(t, EventID(uuid.Nil).IsZero())
	assert.False(t, NewPoolID().IsZero())
	assert.False(t, NewUserID().IsZero())
}
