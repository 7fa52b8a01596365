package service

import (
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

// PoolIDFromJobPayload decodes the pool identity a draw job carries.
func PoolIDFromJobPayload(payload []byte) (id.PoolID, error) {
	return id.ParsePoolID(string(payload))
}

// IsAlreadyDrawn reports whether err is the InvalidState rejection a
// redundant draw trigger receives. At-least-once job delivery makes those
// routine; callers treat them as success rather than retrying.
func IsAlreadyDrawn(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeInvalidState)
}
