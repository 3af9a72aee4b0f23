package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists categories in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCategoryNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCategory
	}
	return err
}

// List returns all categories ordered by label.
func (r *Repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, label, COALESCE(prefix, '') FROM categories ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Label, &c.Prefix); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Get fetches one category.
func (r *Repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, label, COALESCE(prefix, '') FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Label, &c.Prefix)
	return c, mapErr(err)
}

// Insert creates a category and returns it with its assigned ID.
func (r *Repository) Insert(ctx context.Context, input CategoryInput) (Category, error) {
	c := Category{Label: input.Label, Prefix: input.Prefix}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (label, prefix) VALUES ($1, NULLIF($2, '')) RETURNING id`,
		input.Label, input.Prefix).Scan(&c.ID)
	return c, mapErr(err)
}

// Update modifies label and prefix.
func (r *Repository) Update(ctx context.Context, id int64, input CategoryInput) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `UPDATE categories SET label = $2, prefix = NULLIF($3, '')
		WHERE id = $1 RETURNING id, label, COALESCE(prefix, '')`,
		id, input.Label, input.Prefix).Scan(&c.ID, &c.Label, &c.Prefix)
	return c, mapErr(err)
}

// SetPrefix assigns the synergy ID prefix only.
func (r *Repository) SetPrefix(ctx context.Context, id int64, prefix string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `UPDATE categories SET prefix = NULLIF($2, '')
		WHERE id = $1 RETURNING id, label, COALESCE(prefix, '')`,
		id, prefix).Scan(&c.ID, &c.Label, &c.Prefix)
	return c, mapErr(err)
}

// Delete removes a category.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
