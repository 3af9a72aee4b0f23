package purchaseorders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates a purchase order with its lines.
func (r *Repository) Insert(ctx context.Context, po PurchaseOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO purchase_orders (id, supplier, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		po.ID, po.Supplier, po.Note, string(po.Status), po.CreatedAt)
	if err != nil {
		return err
	}
	for _, line := range po.Lines {
		_, err = tx.Exec(ctx, `INSERT INTO purchase_order_lines (po_id, category_id, quantity, unit_cost, title)
			VALUES ($1, $2, $3, $4, $5)`,
			po.ID, line.CategoryID, line.Quantity, line.UnitCost, line.Title)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Get fetches a purchase order and its lines.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	var (
		po     PurchaseOrder
		status string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, supplier, note, status, created_at
		FROM purchase_orders WHERE id = $1`, id).
		Scan(&po.ID, &po.Supplier, &po.Note, &status, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrPONotFound
		}
		return PurchaseOrder{}, err
	}
	po.Status = POStatus(status)

	rows, err := r.pool.Query(ctx, `SELECT id, category_id, quantity, unit_cost, title
		FROM purchase_order_lines WHERE po_id = $1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.CategoryID, &line.Quantity, &line.UnitCost, &line.Title); err != nil {
			return PurchaseOrder{}, err
		}
		po.Lines = append(po.Lines, line)
	}
	return po, rows.Err()
}

// List returns purchase orders without their lines, newest first.
func (r *Repository) List(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier, note, status, created_at
		FROM purchase_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PurchaseOrder
	for rows.Next() {
		var (
			po     PurchaseOrder
			status string
		)
		if err := rows.Scan(&po.ID, &po.Supplier, &po.Note, &status, &po.CreatedAt); err != nil {
			return nil, err
		}
		po.Status = POStatus(status)
		result = append(result, po)
	}
	return result, rows.Err()
}

// MarkExploded flips an OPEN order to EXPLODED. Reports ErrAlreadyExploded
// when another actor got there first.
func (r *Repository) MarkExploded(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchase_orders SET status = $2
		WHERE id = $1 AND status = $3`, id, string(StatusExploded), string(StatusOpen))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExploded
	}
	return nil
}
