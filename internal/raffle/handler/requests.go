package handler

import (
	"time"

	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

type createPoolRequest struct {
	EventID           string    `json:"event_id"`
	TierCents         int64     `json:"tier_cents"`
	ScheduledDrawTime time.Time `json:"scheduled_draw_time"`
	TicketCount       int       `json:"ticket_count"`
}

func (r createPoolRequest) validate() (id.EventID, error) {
	eventID, err := id.ParseEventID(r.EventID)
	if err != nil {
		return id.EventID{}, err
	}
	if r.TierCents < 0 {
		return id.EventID{}, dErrors.New(dErrors.CodeInvalidInput, "tier_cents cannot be negative")
	}
	if r.TicketCount < 0 {
		return id.EventID{}, dErrors.New(dErrors.CodeInvalidInput, "ticket_count cannot be negative")
	}
	if r.ScheduledDrawTime.IsZero() {
		return id.EventID{}, dErrors.New(dErrors.CodeInvalidInput, "scheduled_draw_time is required")
	}
	return eventID, nil
}

type enterRequest struct {
	UserID string  `json:"user_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

func (r enterRequest) validate() (id.UserID, error) {
	return id.ParseUserID(r.UserID)
}
