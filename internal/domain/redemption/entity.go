package redemption

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a redemption request
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// Statuses lists every state in lifecycle order
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusShipped, StatusDelivered}

// ParseStatus accepts any case and the legacy PLACED alias for PENDING.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case "PLACED":
		return StatusPending, true
	case StatusPending, StatusApproved, StatusRejected, StatusShipped, StatusDelivered:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transition can leave s
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusDelivered
}

// Request is a mason's claim on catalog rewards. PointsDebited is fixed at
// creation and never edited.
type Request struct {
	ID               uuid.UUID `db:"id" json:"id"`
	MasonID          uuid.UUID `db:"mason_id" json:"mason_id"`
	RewardID         uuid.UUID `db:"reward_id" json:"reward_id"`
	Quantity         int       `db:"quantity" json:"quantity"`
	Status           Status    `db:"status" json:"status"`
	PointsDebited    int64     `db:"points_debited" json:"points_debited"`
	DeliveryName     *string   `db:"delivery_name" json:"delivery_name,omitempty"`
	DeliveryPhone    *string   `db:"delivery_phone" json:"delivery_phone,omitempty"`
	DeliveryAddress  *string   `db:"delivery_address" json:"delivery_address,omitempty"`
	FulfillmentNotes *string   `db:"fulfillment_notes" json:"fulfillment_notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StatusChange is one row of a request's audit trail. The creation row has
// an empty From.
type StatusChange struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	RequestID uuid.UUID  `db:"request_id" json:"request_id"`
	From      Status     `db:"from_status" json:"from"`
	To        Status     `db:"to_status" json:"to"`
	ActorID   *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	Note      *string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// CreateParams describes a new redemption. Delivery fields default to the
// mason's own contact details.
type CreateParams struct {
	MasonID         uuid.UUID
	RewardID        uuid.UUID
	Quantity        int
	DeliveryName    *string
	DeliveryPhone   *string
	DeliveryAddress *string
	ActorID         uuid.UUID
}

// TransitionParams requests a status change
type TransitionParams struct {
	Status           Status
	FulfillmentNotes *string
	ActorID          uuid.UUID
}

// ListFilter narrows request listings. Nil fields are ignored.
type ListFilter struct {
	Status   *Status
	MasonID  *uuid.UUID
	RewardID *uuid.UUID
	Limit    int
	Offset   int
}

// StatusTotal aggregates a mason's requests in one status
type StatusTotal struct {
	Status Status `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
	Points int64  `db:"points" json:"points"`
}

// MasonSummary is the dashboard view of a mason's redemptions
type MasonSummary struct {
	MasonID        uuid.UUID      `json:"mason_id"`
	Balance        int64          `json:"balance"`
	InFlightPoints int64          `json:"in_flight_points"`
	RedeemedPoints int64          `json:"redeemed_points"`
	RefundedPoints int64          `json:"refunded_points"`
	Counts         map[Status]int `json:"counts"`
}
