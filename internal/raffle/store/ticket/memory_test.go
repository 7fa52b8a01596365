package ticket

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	"fairdraw/pkg/platform/sentinel"
)

type TicketStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TicketStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestTicketStoreSuite(t *testing.T) {
	suite.Run(t, new(TicketStoreSuite))
}

func (s *TicketStoreSuite) newTicket(eventID id.EventID) *models.Ticket {
	return &models.Ticket{
		ID:      id.NewTicketID(),
		EventID: eventID,
		Status:  models.TicketStatusAvailable,
	}
}

// TestCreateBatch verifies batch insertion is all-or-nothing.
func (s *TicketStoreSuite) TestCreateBatch() {
	eventID := id.EventID(uuid.New())

	s.Run("creates a batch of tickets", func() {
		batch := []*models.Ticket{s.newTicket(eventID), s.newTicket(eventID), s.newTicket(eventID)}
		s.Require().NoError(s.store.CreateBatch(s.ctx, batch))

		tickets, err := s.store.ListAvailableByEvent(s.ctx, eventID)
		s.Require().NoError(err)
		s.Len(tickets, 3)
	})

	s.Run("rejects the whole batch on a duplicate ID", func() {
		other := id.EventID(uuid.New())
		dup := s.newTicket(other)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.Ticket{dup}))

		fresh := s.newTicket(other)
		err := s.store.CreateBatch(s.ctx, []*models.Ticket{fresh, dup})
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		tickets, listErr := s.store.ListAvailableByEvent(s.ctx, other)
		s.Require().NoError(listErr)
		s.Len(tickets, 1, "nothing from the failed batch should persist")
	})
}

// TestListAvailableByEvent verifies filtering and the ascending-ID
// ordering the draw depends on.
func (s *TicketStoreSuite) TestListAvailableByEvent() {
	eventID := id.EventID(uuid.New())
	batch := make([]*models.Ticket, 0, 10)
	for i := 0; i < 10; i++ {
		batch = append(batch, s.newTicket(eventID))
	}
	s.Require().NoError(s.store.CreateBatch(s.ctx, batch))

	userID := id.UserID(uuid.New())
	assigned := *batch[0]
	assigned.Status = models.TicketStatusAssigned
	assigned.AssignedUserID = &userID
	s.Require().NoError(s.store.Assign(s.ctx, &assigned))

	tickets, err := s.store.ListAvailableByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Require().Len(tickets, 9)
	for i, t := range tickets {
		s.Equal(models.TicketStatusAvailable, t.Status)
		s.NotEqual(batch[0].ID, t.ID)
		if i > 0 {
			a, b := uuid.UUID(tickets[i-1].ID), uuid.UUID(t.ID)
			s.True(bytes.Compare(a[:], b[:]) < 0, "tickets out of ID order at %d", i)
		}
	}
}

// TestAssign verifies the one-time AVAILABLE→ASSIGNED transition.
func (s *TicketStoreSuite) TestAssign() {
	eventID := id.EventID(uuid.New())

	s.Run("assigns an available ticket", func() {
		t := s.newTicket(eventID)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.Ticket{t}))

		userID := id.UserID(uuid.New())
		t.Status = models.TicketStatusAssigned
		t.AssignedUserID = &userID
		s.Require().NoError(s.store.Assign(s.ctx, t))

		tickets, err := s.store.ListAvailableByEvent(s.ctx, eventID)
		s.Require().NoError(err)
		s.Empty(tickets)
	})

	s.Run("rejects assigning twice", func() {
		t := s.newTicket(eventID)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.Ticket{t}))

		userID := id.UserID(uuid.New())
		t.Status = models.TicketStatusAssigned
		t.AssignedUserID = &userID
		s.Require().NoError(s.store.Assign(s.ctx, t))
		s.Require().ErrorIs(s.store.Assign(s.ctx, t), sentinel.ErrInvalidState)
	})

	s.Run("returns ErrNotFound for unknown ticket", func() {
		t := s.newTicket(eventID)
		s.Require().ErrorIs(s.store.Assign(s.ctx, t), sentinel.ErrNotFound)
	})
}
