package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fairdraw/internal/geo"
	"fairdraw/internal/notify"
	"fairdraw/internal/payments"
	"fairdraw/internal/raffle/commitment"
	"fairdraw/internal/raffle/models"
	"fairdraw/internal/raffle/shuffle"
	entrystore "fairdraw/internal/raffle/store/entry"
	poolstore "fairdraw/internal/raffle/store/pool"
	ticketstore "fairdraw/internal/raffle/store/ticket"
	"fairdraw/internal/scheduler"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	pools    *poolstore.InMemory
	entries  *entrystore.InMemory
	tickets  *ticketstore.InMemory
	notifier *notify.InMemory
	gateway  *payments.StubGateway
	backend  *scheduler.MemoryBackend
	svc      *Service
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.pools = poolstore.NewInMemory()
	s.entries = entrystore.NewInMemory()
	s.tickets = ticketstore.NewInMemory()
	s.notifier = notify.NewInMemory()
	s.gateway = payments.NewStubGateway()
	s.backend = scheduler.NewMemoryBackend()
	s.svc = New(s.pools, s.entries, s.tickets,
		WithNotifier(s.notifier),
		WithPaymentGateway(s.gateway),
		WithScheduler(scheduler.New(s.backend)),
	)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// eventsForPool narrows recorded notifications to one pool; the suite
// notifier accumulates across subtests.
func eventsForPool(events []notify.Event, poolID id.PoolID) []notify.Event {
	var out []notify.Event
	for _, e := range events {
		if e.Payload["pool_id"] == poolID.String() {
			out = append(out, e)
		}
	}
	return out
}

func (s *ServiceSuite) createPool(ticketCount int) *models.Pool {
	pool, err := s.svc.CreatePool(s.ctx, id.NewEventID(), 5000, time.Now().Add(time.Hour), ticketCount)
	s.Require().NoError(err)
	return pool
}

func (s *ServiceSuite) enterUsers(poolID id.PoolID, n int) []id.UserID {
	users := make([]id.UserID, 0, n)
	for i := 0; i < n; i++ {
		userID := id.UserID(uuid.New())
		_, err := s.svc.Enter(s.ctx, EnterRequest{PoolID: poolID, UserID: userID})
		s.Require().NoError(err)
		users = append(users, userID)
	}
	return users
}

// commitWithSeed closes the pool under a caller-chosen seed so draws
// become reproducible in tests.
func (s *ServiceSuite) commitWithSeed(poolID id.PoolID, seed string) *models.Pool {
	p, err := s.pools.FindByID(s.ctx, poolID)
	s.Require().NoError(err)
	p.ApplyClose(commitment.HashSeed(seed), seed, shuffle.AlgorithmV1, "http://localhost:8080/pools/"+poolID.String()+"/verify", time.Now())
	s.Require().NoError(s.pools.UpdateFromStatus(s.ctx, p, models.PoolStatusOpen))
	return p
}

func (s *ServiceSuite) TestCreatePool() {
	s.Run("creates pool with ticket inventory", func() {
		pool := s.createPool(3)
		s.Equal(models.PoolStatusOpen, pool.Status)
		s.Empty(pool.SeedHash)

		tickets, err := s.tickets.ListAvailableByEvent(s.ctx, pool.EventID)
		s.Require().NoError(err)
		s.Len(tickets, 3)
	})

	s.Run("rejects missing event", func() {
		_, err := s.svc.CreatePool(s.ctx, id.EventID{}, 5000, time.Now(), 3)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects negative ticket count", func() {
		_, err := s.svc.CreatePool(s.ctx, id.NewEventID(), 5000, time.Now(), -1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestEnter() {
	s.Run("accepts entry and hands back payment secret", func() {
		pool := s.createPool(3)
		result, err := s.svc.Enter(s.ctx, EnterRequest{PoolID: pool.ID, UserID: id.UserID(uuid.New())})
		s.Require().NoError(err)
		s.False(result.Entry.Won)
		s.NotEmpty(result.PaymentClientSecret)
		s.Len(s.gateway.Created(), 1)
	})

	s.Run("rejects a second entry by the same user", func() {
		pool := s.createPool(3)
		userID := id.UserID(uuid.New())
		_, err := s.svc.Enter(s.ctx, EnterRequest{PoolID: pool.ID, UserID: userID})
		s.Require().NoError(err)

		_, err = s.svc.Enter(s.ctx, EnterRequest{PoolID: pool.ID, UserID: userID})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects entries once the pool left OPEN", func() {
		pool := s.createPool(3)
		_, err := s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)

		_, err = s.svc.Enter(s.ctx, EnterRequest{PoolID: pool.ID, UserID: id.UserID(uuid.New())})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects unknown pool", func() {
		_, err := s.svc.Enter(s.ctx, EnterRequest{PoolID: id.NewPoolID(), UserID: id.UserID(uuid.New())})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects unverifiable location", func() {
		pool := s.createPool(3)
		denying := New(s.pools, s.entries, s.tickets, WithGeoVerifier(geo.NewDenyAll()))
		_, err := denying.Enter(s.ctx, EnterRequest{PoolID: pool.ID, UserID: id.UserID(uuid.New())})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestClosePool() {
	s.Run("publishes commitment and schedules the draw", func() {
		pool := s.createPool(3)
		closed, err := s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)

		s.Equal(models.PoolStatusDrawing, closed.Status)
		s.Equal(shuffle.AlgorithmV1, closed.Algorithm)
		s.NotEmpty(closed.SeedHash)
		s.NotEmpty(closed.RevealedSeed)
		s.True(commitment.Matches(closed.RevealedSeed, closed.SeedHash))
		s.Contains(closed.VerificationURL, pool.ID.String())

		s.Equal(1, s.backend.Pending())

		events := eventsForPool(s.notifier.ByType(notify.EventPoolClosed), pool.ID)
		s.Require().Len(events, 1)
		s.Equal(closed.SeedHash, events[0].Payload["seed_hash"])
		// The seed itself stays secret until the draw completes.
		s.NotContains(events[0].Payload, "revealed_seed")
		for _, v := range events[0].Payload {
			s.NotEqual(closed.RevealedSeed, v)
		}
	})

	s.Run("rejects closing twice", func() {
		pool := s.createPool(3)
		_, err := s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)

		_, err = s.svc.ClosePool(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects unknown pool", func() {
		_, err := s.svc.ClosePool(s.ctx, id.NewPoolID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCancelPool() {
	s.Run("cancels an open pool", func() {
		pool := s.createPool(3)
		cancelled, err := s.svc.CancelPool(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(models.PoolStatusCancelled, cancelled.Status)
	})

	s.Run("rejects cancelling a committed pool", func() {
		pool := s.createPool(3)
		_, err := s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)

		_, err = s.svc.CancelPool(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestDraw() {
	s.Run("draws winners deterministically under the revealed seed", func() {
		pool := s.createPool(3)
		users := s.enterUsers(pool.ID, 5)
		s.commitWithSeed(pool.ID, "abc123")

		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(3, result.TotalDrawn)
		s.Require().Len(result.Winners, 3)
		s.Equal(models.PoolStatusCompleted, result.Pool.Status)
		s.Require().NotNil(result.Pool.DrawnAt)

		// Winner selection must match an independent replay of the
		// pinned permutation over the stable entry order.
		entries, err := s.entries.ListByPool(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 5)

		perm, err := shuffle.Permute("abc123", 5)
		s.Require().NoError(err)
		for i, w := range result.Winners {
			s.Equal(entries[perm[i]].ID, w.EntryID, "winner %d diverges from replay", i)
		}

		// Tickets are handed out in ascending ID order.
		available, err := s.tickets.ListAvailableByEvent(s.ctx, pool.EventID)
		s.Require().NoError(err)
		s.Empty(available, "all three tickets should be assigned")

		// Exactly three entries won; the other two stay recorded as
		// non-winning forever.
		var won, lost int
		for _, e := range entries {
			if e.Won {
				s.Require().NotNil(e.TicketID)
				won++
			} else {
				s.Nil(e.TicketID)
				lost++
			}
		}
		s.Equal(3, won)
		s.Equal(2, lost)
		s.Len(users, 5)
	})

	s.Run("completes with zero winners when nobody entered", func() {
		pool := s.createPool(3)
		s.commitWithSeed(pool.ID, "abc123")

		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(0, result.TotalDrawn)
		s.Empty(result.Winners)
		s.Equal(models.PoolStatusCompleted, result.Pool.Status)
	})

	s.Run("completes with zero winners when no tickets remain", func() {
		pool := s.createPool(0)
		s.enterUsers(pool.ID, 4)
		s.commitWithSeed(pool.ID, "abc123")

		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(0, result.TotalDrawn)
		s.Equal(models.PoolStatusCompleted, result.Pool.Status)
	})

	s.Run("draws every entrant when tickets outnumber entries", func() {
		pool := s.createPool(10)
		s.enterUsers(pool.ID, 4)
		s.commitWithSeed(pool.ID, "abc123")

		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(4, result.TotalDrawn)

		available, err := s.tickets.ListAvailableByEvent(s.ctx, pool.EventID)
		s.Require().NoError(err)
		s.Len(available, 6)
	})

	s.Run("rejects drawing an OPEN pool", func() {
		pool := s.createPool(3)
		_, err := s.svc.Draw(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects drawing twice", func() {
		pool := s.createPool(3)
		s.enterUsers(pool.ID, 2)
		s.commitWithSeed(pool.ID, "abc123")

		_, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)

		_, err = s.svc.Draw(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.True(IsAlreadyDrawn(err))
	})

	s.Run("announces the result with the now-public seed", func() {
		pool := s.createPool(3)
		s.enterUsers(pool.ID, 5)
		s.commitWithSeed(pool.ID, "abc123")

		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)

		completed := eventsForPool(s.notifier.ByType(notify.EventDrawComplete), pool.ID)
		s.Require().Len(completed, 1)
		s.Equal("abc123", completed[0].Payload["revealed_seed"])
		s.Equal(commitment.HashSeed("abc123"), completed[0].Payload["seed_hash"])
		s.Equal("3", completed[0].Payload["winner_count"])

		winnerEvents := eventsForPool(s.notifier.ByType(notify.EventWinner), pool.ID)
		s.Len(winnerEvents, result.TotalDrawn)
	})
}

func (s *ServiceSuite) TestResults() {
	s.Run("hides the seed until the pool completes", func() {
		pool := s.createPool(3)
		s.enterUsers(pool.ID, 2)
		_, err := s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)

		view, err := s.svc.Results(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(models.PoolStatusDrawing, view.Status)
		s.NotEmpty(view.SeedHash)
		s.Empty(view.RevealedSeed)
	})

	s.Run("reveals the seed and winners once completed", func() {
		pool := s.createPool(3)
		s.enterUsers(pool.ID, 5)
		s.commitWithSeed(pool.ID, "abc123")
		result, err := s.svc.Draw(s.ctx, pool.ID)
		s.Require().NoError(err)

		view, err := s.svc.Results(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(models.PoolStatusCompleted, view.Status)
		s.Equal("abc123", view.RevealedSeed)
		s.Equal(5, view.EntryCount)
		s.Len(view.Winners, result.TotalDrawn)
	})
}

func (s *ServiceSuite) drawnPool(entrants, ticketCount int, seed string) *models.Pool {
	pool := s.createPool(ticketCount)
	s.enterUsers(pool.ID, entrants)
	s.commitWithSeed(pool.ID, seed)
	result, err := s.svc.Draw(s.ctx, pool.ID)
	s.Require().NoError(err)
	return result.Pool
}

func (s *ServiceSuite) TestVerifyReceipts() {
	s.Run("verifies an honest draw", func() {
		pool := s.drawnPool(5, 3, "abc123")

		receipt, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(ReceiptVerified, receipt.Status)
		s.True(receipt.HashValid)
		s.True(receipt.ResultsValid)
		s.Equal(5, receipt.EntryCount)
		s.Equal(3, receipt.WinnerCount)
		s.Len(receipt.Winners, 3)
	})

	s.Run("verifies an empty draw", func() {
		pool := s.drawnPool(0, 3, "abc123")

		receipt, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(ReceiptVerified, receipt.Status)
		s.Zero(receipt.WinnerCount)
	})

	s.Run("is repeatable byte for byte", func() {
		pool := s.drawnPool(5, 3, "abc123")

		first, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err)
		second, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err)

		a, err := json.Marshal(first)
		s.Require().NoError(err)
		b, err := json.Marshal(second)
		s.Require().NoError(err)
		s.Equal(a, b)
	})

	s.Run("flags a winner list the permutation does not produce", func() {
		pool := s.drawnPool(5, 3, "abc123")

		// Forge an extra winner the draw never selected.
		forgedTicket := id.NewTicketID()
		forged := &models.Entry{
			ID:        id.NewEntryID(),
			PoolID:    pool.ID,
			UserID:    id.UserID(uuid.New()),
			Won:       true,
			TicketID:  &forgedTicket,
			CreatedAt: time.Now(),
		}
		s.Require().NoError(s.entries.Create(s.ctx, forged))

		receipt, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err, "tampering is a reportable verdict, not an error")
		s.Equal(ReceiptFailed, receipt.Status)
		s.False(receipt.ResultsValid)
	})

	s.Run("flags a seed that does not match the commitment", func() {
		pool := s.drawnPool(5, 3, "abc123")

		tampered, err := s.pools.FindByID(s.ctx, pool.ID)
		s.Require().NoError(err)
		tampered.RevealedSeed = "abc124"
		s.Require().NoError(s.pools.UpdateFromStatus(s.ctx, tampered, models.PoolStatusCompleted))

		receipt, err := s.svc.Verify(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(ReceiptFailed, receipt.Status)
		s.False(receipt.HashValid)
	})

	s.Run("rejects pools that have not completed", func() {
		pool := s.createPool(3)
		_, err := s.svc.Verify(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.svc.ClosePool(s.ctx, pool.ID)
		s.Require().NoError(err)
		_, err = s.svc.Verify(s.ctx, pool.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects unknown pool", func() {
		_, err := s.svc.Verify(s.ctx, id.NewPoolID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDrawJobRoundTrip() {
	pool := s.createPool(3)
	jobID := DrawJobID(pool.ID)
	s.Equal("draw-"+pool.ID.String(), jobID)

	poolID, err := PoolIDFromJobPayload([]byte(pool.ID.String()))
	s.Require().NoError(err)
	s.Equal(pool.ID, poolID)

	_, err = PoolIDFromJobPayload([]byte("not-a-uuid"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
