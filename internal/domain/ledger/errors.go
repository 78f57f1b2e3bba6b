package ledger

import (
	"errors"
	"fmt"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
)

var (
	// ErrValidation marks input the ledger refuses to record
	ErrValidation = errors.New("validation error")

	ErrZeroPoints        = fmt.Errorf("%w: points must not be zero", ErrValidation)
	ErrInvalidMason      = fmt.Errorf("%w: mason id is required", ErrValidation)
	ErrInvalidSourceType = fmt.Errorf("%w: unknown source type", ErrValidation)

	// ErrMasonNotFound is returned when the referenced mason does not exist
	ErrMasonNotFound = mason.ErrMasonNotFound

	ErrInternal = errors.New("internal error")
)

// InsufficientBalanceError is returned when a debit exceeds the balance
type InsufficientBalanceError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Balance, e.Required)
}
