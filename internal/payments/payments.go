// Package payments holds the payment gateway collaborator. The raffle core
// only needs a payment intent it can hand back to the client; capture and
// webhook confirmation live outside this service, and entry creation never
// waits on them.
package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Intent is the gateway's handle on a pending charge.
type Intent struct {
	ID           string
	ClientSecret string
}

// StubGateway fabricates payment intents locally. It stands in for a real
// processor in development and tests.
type StubGateway struct {
	mu      sync.Mutex
	created []Intent
}

func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

// CreatePayment returns a fresh intent for the given amount. Metadata is
// accepted for interface parity with real gateways and otherwise ignored.
func (g *StubGateway) CreatePayment(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Intent{}, fmt.Errorf("generate payment intent: %w", err)
	}
	token := hex.EncodeToString(buf[:])
	intent := Intent{
		ID:           "pi_" + token[:16],
		ClientSecret: "pi_" + token[:16] + "_secret_" + token[16:],
	}
	g.mu.Lock()
	g.created = append(g.created, intent)
	g.mu.Unlock()
	return intent, nil
}

// Created returns every intent handed out; test helper.
func (g *StubGateway) Created() []Intent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Intent, len(g.created))
	copy(out, g.created)
	return out
}
