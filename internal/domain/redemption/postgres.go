package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/database"
)

const requestColumns = `id, mason_id, reward_id, quantity, status, points_debited,
	delivery_name, delivery_phone, delivery_address, fulfillment_notes, created_at, updated_at`

// PostgresRepository stores requests in Postgres and reuses the ledger and
// catalog repositories for balance and stock movements in the same transaction.
type PostgresRepository struct {
	db      *sqlx.DB
	ledger  ledger.Repository
	catalog catalog.Repository
	timeout time.Duration
}

// NewPostgresRepository creates the redemption repository
func NewPostgresRepository(db *sqlx.DB, ledgerRepo ledger.Repository, catalogRepo catalog.Repository, queryTimeout time.Duration) *PostgresRepository {
	if queryTimeout <= 0 {
		queryTimeout = 3 * time.Second
	}
	return &PostgresRepository{db: db, ledger: ledgerRepo, catalog: catalogRepo, timeout: queryTimeout}
}

func (r *PostgresRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &pgTx{tx: tx, ledger: r.ledger, catalog: r.catalog})
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var req Request
	err := r.db.GetContext(ctx2, &req, `SELECT `+requestColumns+` FROM redemption_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: get request: %v", ErrInternal, err)
	}
	return &req, nil
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Request, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.MasonID != nil {
		add("mason_id = $%d", *f.MasonID)
	}
	if f.RewardID != nil {
		add("reward_id = $%d", *f.RewardID)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM redemption_requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: count requests: %v", ErrInternal, err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	idx := len(args) + 1
	query := `SELECT ` + requestColumns + ` FROM redemption_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	reqs := make([]Request, 0)
	if err := r.db.SelectContext(ctx2, &reqs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: list requests: %v", ErrInternal, err)
	}
	return reqs, total, nil
}

func (r *PostgresRepository) History(ctx context.Context, requestID uuid.UUID) ([]StatusChange, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	changes := make([]StatusChange, 0)
	err := r.db.SelectContext(ctx2, &changes, `
		SELECT id, request_id, from_status, to_status, actor_id, note, created_at
		FROM redemption_status_history
		WHERE request_id = $1
		ORDER BY created_at, id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: request history: %v", ErrInternal, err)
	}
	return changes, nil
}

func (r *PostgresRepository) Totals(ctx context.Context, masonID uuid.UUID) ([]StatusTotal, error) {
	ctx2, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	totals := make([]StatusTotal, 0)
	err := r.db.SelectContext(ctx2, &totals, `
		SELECT status, COUNT(*) AS count, COALESCE(SUM(points_debited), 0) AS points
		FROM redemption_requests
		WHERE mason_id = $1
		GROUP BY status
	`, masonID)
	if err != nil {
		return nil, fmt.Errorf("%w: request totals: %v", ErrInternal, err)
	}
	return totals, nil
}

// pgTx binds the transactional operations to one *sqlx.Tx
type pgTx struct {
	tx      *sqlx.Tx
	ledger  ledger.Repository
	catalog catalog.Repository
}

func (t *pgTx) LockBalance(ctx context.Context, masonID uuid.UUID) (int64, error) {
	return t.ledger.LockBalanceTx(ctx, t.tx, masonID)
}

func (t *pgTx) AppendLedger(ctx context.Context, e *ledger.Entry) error {
	return t.ledger.AppendTx(ctx, t.tx, e)
}

func (t *pgTx) DecrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error) {
	return t.catalog.DecrementStockTx(ctx, t.tx, rewardID, qty)
}

func (t *pgTx) IncrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error) {
	return t.catalog.IncrementStockTx(ctx, t.tx, rewardID, qty)
}

func (t *pgTx) Insert(ctx context.Context, req *Request) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO redemption_requests (
			id, mason_id, reward_id, quantity, status, points_debited,
			delivery_name, delivery_phone, delivery_address, fulfillment_notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, req.ID, req.MasonID, req.RewardID, req.Quantity, req.Status, req.PointsDebited,
		req.DeliveryName, req.DeliveryPhone, req.DeliveryAddress, req.FulfillmentNotes).
		Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		switch database.PgCode(err) {
		case database.CodeForeignKeyViolation:
			if strings.Contains(database.PgConstraint(err), "reward_id") {
				return ErrRewardNotFound
			}
			return ErrMasonNotFound
		case database.CodeCheckViolation:
			return fmt.Errorf("%w: request rejected by constraint", ErrValidation)
		}
		return fmt.Errorf("%w: insert request: %v", ErrInternal, err)
	}
	return nil
}

func (t *pgTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := t.tx.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM redemption_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: lock request: %v", ErrInternal, err)
	}
	return &req, nil
}

func (t *pgTx) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes *string) (*Request, error) {
	var req Request
	err := t.tx.GetContext(ctx, &req, `
		UPDATE redemption_requests
		SET status = $2,
		    fulfillment_notes = COALESCE($3, fulfillment_notes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+requestColumns, id, status, notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("%w: update status: %v", ErrInternal, err)
	}
	return &req, nil
}

func (t *pgTx) InsertStatusChange(ctx context.Context, ch *StatusChange) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO redemption_status_history (id, request_id, from_status, to_status, actor_id, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, ch.ID, ch.RequestID, ch.From, ch.To, ch.ActorID, ch.Note).Scan(&ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert status change: %v", ErrInternal, err)
	}
	return nil
}
