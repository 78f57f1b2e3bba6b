package ledger

import (
	"time"

	"github.com/google/uuid"
)

// SourceType tags where a point movement came from.
type SourceType string

const (
	SourceBagLift    SourceType = "BAG_LIFT"
	SourceMeeting    SourceType = "MEETING"
	SourceScheme     SourceType = "SCHEME"
	SourceBonus      SourceType = "BONUS"
	SourceRedemption SourceType = "REDEMPTION"
	SourceAdjustment SourceType = "ADJUSTMENT"
)

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceBagLift, SourceMeeting, SourceScheme, SourceBonus, SourceRedemption, SourceAdjustment:
		return true
	}
	return false
}

// Entry is an immutable ledger row. Positive points are credits.
type Entry struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	MasonID    uuid.UUID  `db:"mason_id" json:"mason_id"`
	SourceType SourceType `db:"source_type" json:"source_type"`
	SourceID   *uuid.UUID `db:"source_id" json:"source_id,omitempty"`
	Points     int64      `db:"points" json:"points"`
	Memo       *string    `db:"memo" json:"memo,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// AppendParams describes a new point movement.
type AppendParams struct {
	MasonID    uuid.UUID
	SourceType SourceType
	Points     int64
	SourceID   *uuid.UUID
	Memo       *string
}

// Filter narrows ledger listings. Nil fields are ignored.
type Filter struct {
	MasonID    *uuid.UUID
	SourceType *SourceType
	SourceID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Reconciliation compares the materialized balance with the ledger fold.
type Reconciliation struct {
	MasonID      uuid.UUID `json:"mason_id"`
	Materialized int64     `json:"materialized_balance"`
	LedgerSum    int64     `json:"ledger_sum"`
	Entries      int       `json:"entries"`
	Drift        int64     `json:"drift"`
	InSync       bool      `json:"in_sync"`
}

