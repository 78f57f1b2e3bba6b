package redemption

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventsChannel is the pub/sub channel carrying redemption events
const EventsChannel = "redemptions.events"

const (
	EventCreated       = "redemption.created"
	EventStatusChanged = "redemption.status_changed"
)

// Event is published after a redemption change commits
type Event struct {
	Type          string    `json:"type"`
	RequestID     uuid.UUID `json:"request_id"`
	MasonID       uuid.UUID `json:"mason_id"`
	RewardID      uuid.UUID `json:"reward_id"`
	Quantity      int       `json:"quantity"`
	PointsDebited int64     `json:"points_debited"`
	From          Status    `json:"from,omitempty"`
	To            Status    `json:"to"`
	ActorID       uuid.UUID `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events to subscribers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, channel string, v interface{}) error
}

func newEvent(typ string, req *Request, from Status, actor uuid.UUID) Event {
	return Event{
		Type:          typ,
		RequestID:     req.ID,
		MasonID:       req.MasonID,
		RewardID:      req.RewardID,
		Quantity:      req.Quantity,
		PointsDebited: req.PointsDebited,
		From:          from,
		To:            req.Status,
		ActorID:       actor,
		OccurredAt:    time.Now().UTC(),
	}
}
