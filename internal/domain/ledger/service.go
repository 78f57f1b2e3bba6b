package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

// Service records point movements and answers balance queries
type Service struct {
	repo   Repository
	masons mason.Repository
}

// NewService creates a ledger service
func NewService(repo Repository, masons mason.Repository) *Service {
	return &Service{repo: repo, masons: masons}
}

// AppendEntry writes an immutable ledger row and updates the balance in
// the same transaction. Corrections are ADJUSTMENT entries, never edits.
func (s *Service) AppendEntry(ctx context.Context, p AppendParams) (*Entry, error) {
	if p.Points == 0 {
		return nil, ErrZeroPoints
	}
	if p.MasonID == uuid.Nil {
		return nil, ErrInvalidMason
	}
	if !p.SourceType.Valid() {
		return nil, ErrInvalidSourceType
	}
	if p.Memo != nil {
		memo := strings.TrimSpace(*p.Memo)
		if memo == "" {
			p.Memo = nil
		} else {
			p.Memo = &memo
		}
	}

	e := &Entry{
		ID:         uuid.New(),
		MasonID:    p.MasonID,
		SourceType: p.SourceType,
		SourceID:   p.SourceID,
		Points:     p.Points,
		Memo:       p.Memo,
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("entry_id", e.ID.String()).
		Str("mason_id", e.MasonID.String()).
		Str("source_type", string(e.SourceType)).
		Int64("points", e.Points).
		Msg("Ledger entry appended")

	return e, nil
}

// GetBalance returns the materialized balance, 0 for masons without entries
func (s *Service) GetBalance(ctx context.Context, masonID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, masonID)
}

// ListEntries returns entries matching f, newest first, and the total match count
func (s *Service) ListEntries(ctx context.Context, f Filter) ([]Entry, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// MasonPoints is a mason's balance with a page of their ledger
type MasonPoints struct {
	Mason   *mason.Mason `json:"mason"`
	Balance int64        `json:"balance"`
	Entries []Entry      `json:"entries"`
	Total   int          `json:"total"`
}

// GetMasonPoints returns the balance and ledger page of an existing mason
func (s *Service) GetMasonPoints(ctx context.Context, masonID uuid.UUID, limit, offset int) (*MasonPoints, error) {
	m, err := s.masons.GetByID(ctx, masonID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetBalance(ctx, masonID)
	if err != nil {
		return nil, err
	}

	entries, total, err := s.ListEntries(ctx, Filter{MasonID: &masonID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &MasonPoints{Mason: m, Balance: balance, Entries: entries, Total: total}, nil
}

// Reconcile folds the ledger and compares it with the materialized balance
func (s *Service) Reconcile(ctx context.Context, masonID uuid.UUID) (*Reconciliation, error) {
	if _, err := s.masons.GetByID(ctx, masonID); err != nil {
		return nil, err
	}

	materialized, sum, count, err := s.repo.FoldWithBalance(ctx, masonID)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		MasonID:      masonID,
		Materialized: materialized,
		LedgerSum:    sum,
		Entries:      count,
		Drift:        materialized - sum,
		InSync:       materialized == sum,
	}
	if !rec.InSync {
		logger.FromContext(ctx).Error().
			Str("mason_id", masonID.String()).
			Int64("materialized", materialized).
			Int64("ledger_sum", sum).
			Msg("Balance drift detected")
	}

	return rec, nil
}

// ReconcileActive reconciles every mason with ledger activity since the
// given time. It returns the drifted results and how many masons it checked.
func (s *Service) ReconcileActive(ctx context.Context, since time.Time, limit int) ([]Reconciliation, int, error) {
	if limit <= 0 {
		limit = 500
	}
	ids, err := s.repo.ActiveMasons(ctx, since, limit)
	if err != nil {
		return nil, 0, err
	}

	drifted := make([]Reconciliation, 0)
	for _, id := range ids {
		rec, err := s.Reconcile(ctx, id)
		if errors.Is(err, ErrMasonNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		if !rec.InSync {
			drifted = append(drifted, *rec)
		}
	}
	return drifted, len(ids), nil
}
