package ledger

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
)

const defaultQueryTimeout = 3 * time.Second

// Repository is the append-only store of point movements plus the
// materialized per-mason balance.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// AppendTx writes e and folds it into the balance inside the caller's
	// transaction. It does not commit or roll back.
	AppendTx(ctx context.Context, tx *sqlx.Tx, e *Entry) error
	// LockBalanceTx returns the mason's balance holding its row FOR UPDATE
	// until tx ends.
	LockBalanceTx(ctx context.Context, tx *sqlx.Tx, masonID uuid.UUID) (int64, error)
	GetBalance(ctx context.Context, masonID uuid.UUID) (int64, error)
	List(ctx context.Context, f Filter) ([]Entry, int, error)
	// FoldWithBalance reads the materialized balance and folds the ledger in
	// one statement, so both come from the same snapshot.
	FoldWithBalance(ctx context.Context, masonID uuid.UUID) (balance, sum int64, count int, err error)
	// ActiveMasons lists masons with entries created at or after since.
	ActiveMasons(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

// PointsRepository implements Repository on Postgres.
type PointsRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewRepository(db *sqlx.DB, queryTimeout time.Duration) *PointsRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PointsRepository{db: db, timeout: queryTimeout}
}

func (r *PointsRepository) Append(ctx context.Context, e *Entry) error {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return database.WithTx(ctx2, r.db, func(tx *sqlx.Tx) error {
		return r.AppendTx(ctx2, tx, e)
	})
}

func (r *PointsRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO points_ledger (id, mason_id, source_type, source_id, points, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.MasonID, e.SourceType, e.SourceID, e.Points, e.Memo).Scan(&e.CreatedAt)
	if err != nil {
		return mapWriteError(err, "insert ledger entry")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mason_point_balances (mason_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (mason_id) DO UPDATE
		SET balance = mason_point_balances.balance + EXCLUDED.balance,
		    updated_at = NOW()
	`, e.MasonID, e.Points)
	if err != nil {
		return mapWriteError(err, "upsert balance")
	}

	return nil
}

func (r *PointsRepository) LockBalanceTx(ctx context.Context, tx *sqlx.Tx, masonID uuid.UUID) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mason_point_balances (mason_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (mason_id) DO NOTHING
	`, masonID)
	if err != nil {
		return 0, mapWriteError(err, "ensure balance row")
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `
		SELECT balance FROM mason_point_balances WHERE mason_id = $1 FOR UPDATE
	`, masonID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMasonNotFound
		}
		return 0, fmt.Errorf("%w: lock balance row: %v", ErrInternal, err)
	}

	return balance, nil
}

func (r *PointsRepository) GetBalance(ctx context.Context, masonID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, `SELECT balance FROM mason_point_balances WHERE mason_id = $1`, masonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get balance: %v", ErrInternal, err)
	}

	return balance, nil
}

func (r *PointsRepository) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	where, args := buildWhere(f)

	var total int
	if err := r.db.GetContext(ctx2, &total, "SELECT COUNT(*) FROM points_ledger"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: count entries: %v", ErrInternal, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	idx := len(args) + 1
	query := `
		SELECT id, mason_id, source_type, source_id, points, memo, created_at
		FROM points_ledger` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	entries := make([]Entry, 0)
	if err := r.db.SelectContext(ctx2, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: list entries: %v", ErrInternal, err)
	}

	return entries, total, nil
}

func (r *PointsRepository) FoldWithBalance(ctx context.Context, masonID uuid.UUID) (int64, int64, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row struct {
		Balance int64 `db:"balance"`
		Sum     int64 `db:"sum"`
		Count   int   `db:"count"`
	}
	err := r.db.GetContext(ctx2, &row, `
		SELECT
			COALESCE((SELECT balance FROM mason_point_balances WHERE mason_id = $1), 0) AS balance,
			COALESCE(SUM(points), 0) AS sum,
			COUNT(*) AS count
		FROM points_ledger WHERE mason_id = $1
	`, masonID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: fold ledger: %v", ErrInternal, err)
	}

	return row.Balance, row.Sum, row.Count, nil
}

func (r *PointsRepository) ActiveMasons(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ids := make([]uuid.UUID, 0)
	err := r.db.SelectContext(ctx2, &ids, `
		SELECT mason_id FROM points_ledger
		WHERE created_at >= $1
		GROUP BY mason_id
		ORDER BY MAX(created_at) DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: active masons: %v", ErrInternal, err)
	}
	return ids, nil
}

func buildWhere(f Filter) (string, []interface{}) {
	clauses := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)

	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.MasonID != nil {
		add("mason_id = $%d", *f.MasonID)
	}
	if f.SourceType != nil && *f.SourceType != "" {
		add("source_type = $%d", *f.SourceType)
	}
	if f.SourceID != nil {
		add("source_id = $%d", *f.SourceID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func mapWriteError(err error, op string) error {
	switch database.PgCode(err) {
	case database.CodeForeignKeyViolation:
		return ErrMasonNotFound
	case database.CodeCheckViolation:
		return fmt.Errorf("%w: %s rejected by constraint", ErrValidation, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
