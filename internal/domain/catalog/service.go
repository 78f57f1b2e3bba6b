package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

// Service handles reward catalog business logic
type Service struct {
	repo Repository
}

// NewService creates catalog service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetItem returns the reward whether or not it is active
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns rewards matching f
func (s *Service) List(ctx context.Context, f Filter) ([]Item, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// CreateParams describes a new reward
type CreateParams struct {
	Name                   string
	CategoryID             *uuid.UUID
	PointCost              int64
	Stock                  int
	TotalAvailableQuantity *int
	IsActive               bool
}

// Create adds a reward to the catalog
func (s *Service) Create(ctx context.Context, p CreateParams) (*Item, error) {
	if p.PointCost <= 0 {
		return nil, ErrInvalidPointCost
	}
	if p.Stock < 0 {
		return nil, ErrNegativeStock
	}

	total := p.Stock
	if p.TotalAvailableQuantity != nil && *p.TotalAvailableQuantity > total {
		total = *p.TotalAvailableQuantity
	}

	item := &Item{
		ID:                     uuid.New(),
		Name:                   strings.TrimSpace(p.Name),
		CategoryID:             p.CategoryID,
		PointCost:              p.PointCost,
		Stock:                  p.Stock,
		TotalAvailableQuantity: total,
		IsActive:               p.IsActive,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("reward_id", item.ID.String()).
		Int64("point_cost", item.PointCost).
		Int("stock", item.Stock).
		Msg("Reward created")
	return item, nil
}

// Update changes reward attributes. Stock moves only through Restock and
// the redemption workflow.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Item, error) {
	if p.PointCost != nil && *p.PointCost <= 0 {
		return nil, ErrInvalidPointCost
	}
	if p.TotalAvailableQuantity != nil && *p.TotalAvailableQuantity < 0 {
		return nil, ErrNegativeStock
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}

	item, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("reward_id", id.String()).
		Bool("is_active", item.IsActive).
		Msg("Reward updated")
	return item, nil
}

// Restock adjusts stock by delta; the result may not go below zero
func (s *Service) Restock(ctx context.Context, id uuid.UUID, delta int) (*Item, error) {
	if delta == 0 {
		return s.repo.GetByID(ctx, id)
	}

	item, err := s.repo.Restock(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("reward_id", id.String()).
		Int("delta", delta).
		Int("stock", item.Stock).
		Msg("Reward restocked")
	return item, nil
}
