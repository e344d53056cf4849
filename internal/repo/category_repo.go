package repo

import (
	"context"
	"errors"

	dom "github.com/lucasvital/todocomplete/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepo interface {
	ListByOwner(ctx context.Context, userID string) ([]dom.Category, error)
	Create(ctx context.Context, c dom.Category) (dom.Category, error)
	Update(ctx context.Context, userID, id string, patch dom.CategoryPatch) (dom.Category, error)
	Delete(ctx context.Context, userID, id string) error
}

type PGCategoryRepo struct {
	db *pgxpool.Pool
}

func NewPGCategoryRepo(db *pgxpool.Pool) *PGCategoryRepo {
	return &PGCategoryRepo{db: db}
}

func scanCategory(row pgx.Row) (dom.Category, error) {
	var c dom.Category
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Category{}, dom.ErrNotFound
	}
	return c, err
}

func (r *PGCategoryRepo) ListByOwner(ctx context.Context, userID string) ([]dom.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, color, user_id FROM categories WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dom.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGCategoryRepo) Create(ctx context.Context, c dom.Category) (dom.Category, error) {
	query := `
		INSERT INTO categories (id, name, color, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, color, user_id`
	return scanCategory(r.db.QueryRow(ctx, query, newID(c.ID), c.Name, c.Color, c.UserID))
}

func (r *PGCategoryRepo) Update(ctx context.Context, userID, id string, patch dom.CategoryPatch) (dom.Category, error) {
	set := newSetList(id, userID)
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Color != nil {
		set.add("color", *patch.Color)
	}
	if set.empty() {
		return scanCategory(r.db.QueryRow(ctx,
			`SELECT id, name, color, user_id FROM categories WHERE id = $1 AND user_id = $2`, id, userID))
	}
	query := `UPDATE categories SET ` + set.String() + ` WHERE id = $1 AND user_id = $2 RETURNING id, name, color, user_id`
	return scanCategory(r.db.QueryRow(ctx, query, set.args...))
}

func (r *PGCategoryRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}
