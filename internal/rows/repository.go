package rows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists inventory rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	UpsertRow(ctx context.Context, row InventoryRow) error
	NextSequence(ctx context.Context, prefix string, count int) (int, error)
	InsertRow(ctx context.Context, row InventoryRow) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// ErrRowNotFound indicates a missing inventory row.
var ErrRowNotFound = errors.New("inventory row not found")

const rowColumns = `id, synergy_id, status, category_id, grade, title, list_price, sold_price, unit_cost, tester_comments, ebay_item_url, ebay_listing_id, updated_at`

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("rows repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListByStatus returns rows in one lifecycle stage, newest first.
func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]InventoryRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_rows WHERE status = $1 ORDER BY updated_at DESC`, rowColumns)
	pgrows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer pgrows.Close()
	return scanRows(pgrows)
}

// GetByID fetches one row.
func (r *Repository) GetByID(ctx context.Context, id int64) (InventoryRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_rows WHERE id = $1`, rowColumns)
	row, err := scanRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryRow{}, ErrRowNotFound
		}
		return InventoryRow{}, err
	}
	return row, nil
}

// Patch applies a partial update and returns the updated row. Nil patch
// fields keep the stored value via COALESCE.
func (r *Repository) Patch(ctx context.Context, id int64, patch RowPatch) (InventoryRow, error) {
	query := fmt.Sprintf(`UPDATE inventory_rows SET
			status = COALESCE($2, status),
			category_id = COALESCE($3, category_id),
			grade = COALESCE($4, grade),
			title = COALESCE($5, title),
			list_price = COALESCE($6, list_price),
			sold_price = COALESCE($7, sold_price),
			tester_comments = COALESCE($8, tester_comments),
			ebay_item_url = COALESCE($9, ebay_item_url),
			ebay_listing_id = COALESCE($10, ebay_listing_id),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, rowColumns)
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	row, err := scanRow(r.pool.QueryRow(ctx, query, id,
		status, patch.CategoryID, patch.Grade, patch.Title,
		patch.ListPrice, patch.SoldPrice, patch.TesterComments,
		patch.EbayItemURL, patch.EbayListingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryRow{}, ErrRowNotFound
		}
		return InventoryRow{}, err
	}
	return row, nil
}

// Delete removes a row and reports its synergy key.
func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	var synergyID string
	err := r.pool.QueryRow(ctx, `DELETE FROM inventory_rows WHERE id = $1 RETURNING synergy_id`, id).Scan(&synergyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRowNotFound
		}
		return "", err
	}
	return synergyID, nil
}

func (r *txRepository) UpsertRow(ctx context.Context, row InventoryRow) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO inventory_rows
			(synergy_id, status, category_id, grade, title, list_price, sold_price, unit_cost, tester_comments, ebay_item_url, ebay_listing_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (synergy_id) DO UPDATE SET
			status = EXCLUDED.status,
			category_id = EXCLUDED.category_id,
			grade = EXCLUDED.grade,
			title = EXCLUDED.title,
			list_price = EXCLUDED.list_price,
			sold_price = EXCLUDED.sold_price,
			tester_comments = EXCLUDED.tester_comments,
			ebay_item_url = EXCLUDED.ebay_item_url,
			ebay_listing_id = EXCLUDED.ebay_listing_id,
			updated_at = now()`,
		row.SynergyID, string(row.Status), nullableID(row.CategoryID), row.Grade, row.Title,
		row.ListPrice, row.SoldPrice, row.UnitCost, row.TesterComments, row.EbayItemURL, row.EbayListingID)
	return err
}

// NextSequence reserves count sequence numbers for a prefix and returns the
// first one. The counter row is locked for the duration of the transaction.
func (r *txRepository) NextSequence(ctx context.Context, prefix string, count int) (int, error) {
	var next int
	err := r.tx.QueryRow(ctx, `INSERT INTO synergy_counters (prefix, next_seq) VALUES ($1, 1 + $2)
		ON CONFLICT (prefix) DO UPDATE SET next_seq = synergy_counters.next_seq + $2
		RETURNING next_seq - $2`, prefix, count).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *txRepository) InsertRow(ctx context.Context, row InventoryRow) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_rows
			(synergy_id, status, category_id, grade, title, list_price, sold_price, unit_cost, tester_comments, ebay_item_url, ebay_listing_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING id`,
		row.SynergyID, string(row.Status), nullableID(row.CategoryID), row.Grade, row.Title,
		row.ListPrice, row.SoldPrice, row.UnitCost, row.TesterComments, row.EbayItemURL, row.EbayListingID).Scan(&id)
	return id, err
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(s rowScanner) (InventoryRow, error) {
	var (
		row        InventoryRow
		status     string
		categoryID *int64
		updatedAt  *time.Time
	)
	err := s.Scan(&row.ID, &row.SynergyID, &status, &categoryID, &row.Grade, &row.Title,
		&row.ListPrice, &row.SoldPrice, &row.UnitCost, &row.TesterComments,
		&row.EbayItemURL, &row.EbayListingID, &updatedAt)
	if err != nil {
		return InventoryRow{}, err
	}
	row.Status = Status(status)
	if categoryID != nil {
		row.CategoryID = *categoryID
	}
	if updatedAt != nil {
		row.UpdatedAt = *updatedAt
	}
	return row, nil
}

func scanRows(pgrows pgx.Rows) ([]InventoryRow, error) {
	var result []InventoryRow
	for pgrows.Next() {
		row, err := scanRow(pgrows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, pgrows.Err()
}
