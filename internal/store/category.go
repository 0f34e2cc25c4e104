package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todoapp/apiserver/internal/db"
	"github.com/todoapp/apiserver/types"
)

const categoryColumns = `id, name, color, created_at, updated_at`

// CategoryRepository handles persistence for the shared category list.
type CategoryRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewCategoryRepository(conn *db.DB) *CategoryRepository {
	return &CategoryRepository{db: conn, now: now}
}

func scanCategory(row rowScanner) (types.Category, error) {
	var category types.Category
	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Color,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return types.Category{}, err
	}
	category.CreatedAt = category.CreatedAt.UTC()
	category.UpdatedAt = utcPtr(category.UpdatedAt)
	return category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []types.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (types.Category, error) {
	query := r.db.Rebind(`
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = ?`)
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	if category.ID == "" {
		id, err := newID()
		if err != nil {
			return types.Category{}, err
		}
		category.ID = id
	}
	category.CreatedAt = r.now()
	category.UpdatedAt = nil

	query := r.db.Rebind(`
		INSERT INTO categories (id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Color,
		category.CreatedAt,
		category.UpdatedAt,
	); err != nil {
		return types.Category{}, classify(err, "categories")
	}
	return category, nil
}
