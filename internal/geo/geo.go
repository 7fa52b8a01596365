// Package geo holds the location verification collaborator that gates
// entry acceptance. The raffle core treats its verdict as an external
// precondition; fairness bookkeeping never depends on it.
package geo

import "context"

// Result is the collaborator's verdict on a claimed location.
type Result struct {
	Verified       bool
	DiscrepancyKm  float64
	ServerLocation string
}

// AllowAll approves every location. Development and test default; a real
// deployment swaps in the fraud-checking implementation.
type AllowAll struct{}

func NewAllowAll() AllowAll { return AllowAll{} }

func (AllowAll) VerifyLocation(ctx context.Context, lat, lng float64, ip string) (Result, error) {
	return Result{Verified: true}, nil
}

// DenyAll rejects every location; test helper for the Forbidden path.
type DenyAll struct{}

func NewDenyAll() DenyAll { return DenyAll{} }

func (DenyAll) VerifyLocation(ctx context.Context, lat, lng float64, ip string) (Result, error) {
	return Result{Verified: false, DiscrepancyKm: 9999}, nil
}
