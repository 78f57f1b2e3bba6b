package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/database"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

const itemColumns = `id, name, category_id, point_cost, stock, total_available_quantity, is_active, created_at, updated_at`

// Repository defines reward catalog data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f Filter) ([]Item, int, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Item, error)
	Restock(ctx context.Context, id uuid.UUID, delta int) (*Item, error)

	// DecrementStockTx takes qty units if the reward is active and has them,
	// returning the remaining stock.
	DecrementStockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, qty int) (int, error)
	// IncrementStockTx returns qty units, returning the new stock.
	IncrementStockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, qty int) (int, error)
}

type repository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRepository creates new catalog repository
func NewRepository(db *sqlx.DB, queryTimeout time.Duration) Repository {
	if queryTimeout <= 0 {
		queryTimeout = 3 * time.Second
	}
	return &repository{db: db, timeout: queryTimeout}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var item Item
	err := r.db.GetContext(ctx2, &item, `SELECT `+itemColumns+` FROM reward_catalog WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("%w: get reward: %v", ErrInternal, err)
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Item, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	clauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM reward_catalog`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: count rewards: %v", ErrInternal, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	idx := len(args) + 1
	query := `SELECT ` + itemColumns + ` FROM reward_catalog` + where +
		fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	items := make([]Item, 0)
	if err := r.db.SelectContext(ctx2, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: list rewards: %v", ErrInternal, err)
	}
	return items, total, nil
}

func (r *repository) Create(ctx context.Context, item *Item) error {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO reward_catalog (id, name, category_id, point_cost, stock, total_available_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, item.ID, item.Name, item.CategoryID, item.PointCost, item.Stock, item.TotalAvailableQuantity, item.IsActive).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create reward")
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Item, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.CategoryID != nil {
		set("category_id", *p.CategoryID)
	}
	if p.PointCost != nil {
		set("point_cost", *p.PointCost)
	}
	if p.TotalAvailableQuantity != nil {
		set("total_available_quantity", *p.TotalAvailableQuantity)
	}
	if p.IsActive != nil {
		set("is_active", *p.IsActive)
	}

	var item Item
	err := r.db.GetContext(ctx2, &item,
		`UPDATE reward_catalog SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+itemColumns, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, mapWriteError(err, "update reward")
	}
	return &item, nil
}

func (r *repository) Restock(ctx context.Context, id uuid.UUID, delta int) (*Item, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var item Item
	err := r.db.GetContext(ctx2, &item, `
		UPDATE reward_catalog
		SET stock = stock + $2,
		    total_available_quantity = GREATEST(total_available_quantity, stock + $2),
		    updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING `+itemColumns, id, delta)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapWriteError(err, "restock reward")
	}

	var exists bool
	if err := r.db.GetContext(ctx2, &exists, `SELECT EXISTS(SELECT 1 FROM reward_catalog WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("%w: restock lookup: %v", ErrInternal, err)
	}
	if !exists {
		return nil, ErrRewardNotFound
	}
	return nil, ErrNegativeStock
}

func (r *repository) DecrementStockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	var stock int
	err := tx.QueryRowContext(ctx, `
		UPDATE reward_catalog
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND stock >= $2
		RETURNING stock
	`, id, qty).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: decrement stock: %v", ErrInternal, err)
	}

	// Nothing matched; find out why.
	var state struct {
		Stock    int  `db:"stock"`
		IsActive bool `db:"is_active"`
	}
	err = tx.GetContext(ctx, &state, `SELECT stock, is_active FROM reward_catalog WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRewardNotFound
		}
		return 0, fmt.Errorf("%w: classify stock failure: %v", ErrInternal, err)
	}
	if !state.IsActive {
		return 0, ErrInactiveReward
	}
	return 0, ErrInsufficientStock
}

func (r *repository) IncrementStockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	var row struct {
		Stock int `db:"stock"`
		Total int `db:"total_available_quantity"`
	}
	err := tx.GetContext(ctx, &row, `
		UPDATE reward_catalog
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock, total_available_quantity
	`, id, qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRewardNotFound
		}
		return 0, fmt.Errorf("%w: increment stock: %v", ErrInternal, err)
	}

	if row.Stock > row.Total {
		logger.LogWarn(ctx, "Reward stock above total available quantity",
			"reward_id", id.String(), "stock", row.Stock, "total_available_quantity", row.Total)
	}
	return row.Stock, nil
}

func mapWriteError(err error, op string) error {
	if database.PgCode(err) == database.CodeCheckViolation {
		return fmt.Errorf("%w: %s rejected by constraint", ErrValidation, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
