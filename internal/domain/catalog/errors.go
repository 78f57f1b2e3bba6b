package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrRewardNotFound    = errors.New("reward not found")
	ErrInactiveReward    = errors.New("reward is not active")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrValidation marks catalog input that cannot be stored
	ErrValidation       = errors.New("validation error")
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrInvalidPointCost = fmt.Errorf("%w: point cost must be positive", ErrValidation)
	ErrNegativeStock    = fmt.Errorf("%w: stock cannot go below zero", ErrValidation)

	ErrInternal = errors.New("internal error")
)
