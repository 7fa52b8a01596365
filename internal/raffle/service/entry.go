package service

import (
	"context"
	"errors"

	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/platform/sentinel"
	"fairdraw/pkg/requestcontext"
)

// EnterRequest carries what the entry flow needs: the identity claiming a
// spot and the coordinates the geo collaborator vouches for.
type EnterRequest struct {
	PoolID id.PoolID
	UserID id.UserID
	Lat    float64
	Lng    float64
	IP     string
}

// EnterResult is the accepted entry plus the payment handle the client
// uses to complete the charge.
type EnterResult struct {
	Entry               *models.Entry
	PaymentClientSecret string
}

// Enter accepts one entry per identity per pool. The geo verdict gates
// acceptance; the uniqueness constraint, not a lock, rejects duplicates.
// Payment authorization is requested after the entry exists and its
// failure does not undo the entry: fairness bookkeeping is independent of
// payment status.
func (s *Service) Enter(ctx context.Context, req EnterRequest) (*EnterResult, error) {
	verdict, err := s.geo.VerifyLocation(ctx, req.Lat, req.Lng, req.IP)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "location verification failed")
	}
	if !verdict.Verified {
		return nil, dErrors.New(dErrors.CodeForbidden, "location could not be verified")
	}

	now := requestcontext.Now(ctx)

	pool, err := s.pools.FindByID(ctx, req.PoolID)
	if err != nil {
		return nil, translatePoolErr(err)
	}
	if !pool.IsOpen() {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "pool is %s, not accepting entries", pool.Status)
	}

	entry, err := models.NewEntry(id.NewEntryID(), req.PoolID, req.UserID, now)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already entered this pool")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create entry")
	}

	if s.metrics != nil {
		s.metrics.EntriesCreated.Inc()
	}

	result := &EnterResult{Entry: entry}
	intent, err := s.gateway.CreatePayment(ctx, pool.TierCents, "usd", map[string]string{
		"pool_id":  req.PoolID.String(),
		"entry_id": entry.ID.String(),
	})
	if err != nil {
		// Entry stays provisional until the payment collaborator confirms
		// funds out of band.
		s.log.Warn("create payment intent", "entry_id", entry.ID.String(), "error", err)
		return result, nil
	}
	result.PaymentClientSecret = intent.ClientSecret
	return result, nil
}

// ListEntries returns the pool's entries in the draw input order. Callers
// displaying results anonymously should redact UserID themselves.
func (s *Service) ListEntries(ctx context.Context, poolID id.PoolID) ([]*models.Entry, error) {
	if _, err := s.pools.FindByID(ctx, poolID); err != nil {
		return nil, translatePoolErr(err)
	}
	entries, err := s.entries.ListByPool(ctx, poolID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
	}
	return entries, nil
}
