package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AppendEntryRequest is the body of POST /ledger/entries. REDEMPTION
// movements are owned by the redemption workflow and cannot be posted here.
type AppendEntryRequest struct {
	MasonID    string  `json:"mason_id" validate:"required,uuid"`
	SourceType string  `json:"source_type" validate:"required,manual_source_type"`
	Points     int64   `json:"points" validate:"nonzero"`
	SourceID   *string `json:"source_id" validate:"omitempty,uuid"`
	Memo       *string `json:"memo" validate:"omitempty,max=500"`
}

// ToParams converts an already-validated request
func (r *AppendEntryRequest) ToParams() AppendParams {
	p := AppendParams{
		MasonID:    uuid.MustParse(r.MasonID),
		SourceType: SourceType(r.SourceType),
		Points:     r.Points,
		Memo:       r.Memo,
	}
	if r.SourceID != nil {
		id := uuid.MustParse(*r.SourceID)
		p.SourceID = &id
	}
	return p
}

// ListResponse is a page of ledger entries
type ListResponse struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

func parseTime(v string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
