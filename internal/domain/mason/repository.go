package mason

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines read access to masons
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Mason, error)
}

const defaultQueryTimeout = 3 * time.Second

type repository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRepository creates new mason repository
func NewRepository(db *sqlx.DB, queryTimeout time.Duration) Repository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &repository{db: db, timeout: queryTimeout}
}

// GetByID returns the mason or ErrMasonNotFound
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Mason, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, name, phone, address, dealer_id, role, area, region, created_at
		FROM masons WHERE id = $1
	`
	var m Mason
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMasonNotFound
		}
		return nil, fmt.Errorf("mason repository get: %w", err)
	}
	return &m, nil
}
