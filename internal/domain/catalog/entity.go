package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Item is a redeemable reward. Stock is the live counter; TotalAvailableQuantity
// is the soft ceiling it normally stays under.
type Item struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	Name                   string     `db:"name" json:"name"`
	CategoryID             *uuid.UUID `db:"category_id" json:"category_id,omitempty"`
	PointCost              int64      `db:"point_cost" json:"point_cost"`
	Stock                  int        `db:"stock" json:"stock"`
	TotalAvailableQuantity int        `db:"total_available_quantity" json:"total_available_quantity"`
	IsActive               bool       `db:"is_active" json:"is_active"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// Filter narrows catalog listings
type Filter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Limit      int
	Offset     int
}

// UpdateParams carries the fields to change; nil fields are left alone.
type UpdateParams struct {
	Name                   *string
	CategoryID             *uuid.UUID
	PointCost              *int64
	TotalAvailableQuantity *int
	IsActive               *bool
}
