//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParsePoolID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParsePoolID(f *testing.F) {
	// Seed corpus with interesting inputs
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE raffle_pools;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		poolID, err := ParsePoolID(input)

		// Either valid ID or error, never both
		if err == nil {
			// Valid ID must round-trip
			roundTrip, err2 := ParsePoolID(poolID.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != poolID {
				t.Error("round-trip changed ID value")
			}
		}

		// Error messages stay printable even for garbage input
		if err != nil && !utf8.ValidString(err.Error()) {
			t.Error("error message is not valid UTF-8")
		}
	})
}
