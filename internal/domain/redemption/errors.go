package redemption

import (
	"errors"
	"fmt"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
)

var (
	ErrRequestNotFound   = errors.New("redemption request not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation marks redemption input rejected at the boundary
	ErrValidation      = errors.New("validation error")
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: unknown status", ErrValidation)
	ErrCostOverflow    = fmt.Errorf("%w: redemption cost is too large", ErrValidation)

	ErrRewardNotFound    = catalog.ErrRewardNotFound
	ErrInactiveReward    = catalog.ErrInactiveReward
	ErrInsufficientStock = catalog.ErrInsufficientStock
	ErrMasonNotFound     = mason.ErrMasonNotFound

	ErrInternal = errors.New("internal error")
)

// InvalidTransitionError names the rejected edge of the state machine
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
