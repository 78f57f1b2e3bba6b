package catalog

import "github.com/google/uuid"

// CreateItemRequest is the body of POST /rewards
type CreateItemRequest struct {
	Name                   string  `json:"name" validate:"required,min=2,max=200"`
	CategoryID             *string `json:"category_id" validate:"omitempty,uuid"`
	PointCost              int64   `json:"point_cost" validate:"gt=0"`
	Stock                  int     `json:"stock" validate:"gte=0"`
	TotalAvailableQuantity *int    `json:"total_available_quantity" validate:"omitempty,gte=0"`
	IsActive               *bool   `json:"is_active"`
}

// ToParams converts an already-validated request
func (r *CreateItemRequest) ToParams() CreateParams {
	p := CreateParams{
		Name:                   r.Name,
		CategoryID:             parseOptionalUUID(r.CategoryID),
		PointCost:              r.PointCost,
		Stock:                  r.Stock,
		TotalAvailableQuantity: r.TotalAvailableQuantity,
		IsActive:               true,
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p
}

// UpdateItemRequest is the body of PATCH /rewards/{id}
type UpdateItemRequest struct {
	Name                   *string `json:"name" validate:"omitempty,min=2,max=200"`
	CategoryID             *string `json:"category_id" validate:"omitempty,uuid"`
	PointCost              *int64  `json:"point_cost" validate:"omitempty,gt=0"`
	TotalAvailableQuantity *int    `json:"total_available_quantity" validate:"omitempty,gte=0"`
	IsActive               *bool   `json:"is_active"`
}

// ToParams converts an already-validated request
func (r *UpdateItemRequest) ToParams() UpdateParams {
	return UpdateParams{
		Name:                   r.Name,
		CategoryID:             parseOptionalUUID(r.CategoryID),
		PointCost:              r.PointCost,
		TotalAvailableQuantity: r.TotalAvailableQuantity,
		IsActive:               r.IsActive,
	}
}

// RestockRequest is the body of POST /rewards/{id}/restock
type RestockRequest struct {
	Delta int `json:"delta" validate:"nonzero"`
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id := uuid.MustParse(*s)
	return &id
}
