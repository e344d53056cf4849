package repo

import (
	"context"
	"errors"

	dom "github.com/lucasvital/todocomplete/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListRepo persists lists. Owner and collaborators are e-mail addresses.
type ListRepo interface {
	ListVisibleTo(ctx context.Context, email string) ([]dom.List, error)
	GetByID(ctx context.Context, id string) (dom.List, error)
	Create(ctx context.Context, l dom.List) (dom.List, error)
	Update(ctx context.Context, owner, id string, patch dom.ListPatch) (dom.List, error)
	Delete(ctx context.Context, owner, id string) error
	AddCollaborator(ctx context.Context, owner, id, email string) (dom.List, error)
}

const listColumns = `id, name, color, icon, owner, shared_with, created_at, updated_at`

type PGListRepo struct {
	db *pgxpool.Pool
}

func NewPGListRepo(db *pgxpool.Pool) *PGListRepo {
	return &PGListRepo{db: db}
}

func scanList(row pgx.Row) (dom.List, error) {
	var l dom.List
	err := row.Scan(&l.ID, &l.Name, &l.Color, &l.Icon, &l.Owner, &l.SharedWith, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.List{}, dom.ErrNotFound
	}
	return l, err
}

// ListVisibleTo returns lists owned by email or shared with it.
func (r *PGListRepo) ListVisibleTo(ctx context.Context, email string) ([]dom.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists
		WHERE owner = $1 OR $1 = ANY(shared_with)
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dom.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGListRepo) GetByID(ctx context.Context, id string) (dom.List, error) {
	return scanList(r.db.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, id))
}

func (r *PGListRepo) Create(ctx context.Context, l dom.List) (dom.List, error) {
	shared := l.SharedWith
	if shared == nil {
		shared = []string{}
	}
	query := `
		INSERT INTO lists (id, name, color, icon, owner, shared_with, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + listColumns
	return scanList(r.db.QueryRow(ctx, query, newID(l.ID), l.Name, l.Color, l.Icon, l.Owner, shared))
}

func (r *PGListRepo) Update(ctx context.Context, owner, id string, patch dom.ListPatch) (dom.List, error) {
	set := newSetList(id, owner)
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Color != nil {
		set.add("color", *patch.Color)
	}
	if patch.Icon.Set {
		set.add("icon", patch.Icon.Value)
	}
	if !patch.UpdatedAt.IsZero() {
		set.add("updated_at", patch.UpdatedAt)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	query := `UPDATE lists SET ` + set.String() + ` WHERE id = $1 AND owner = $2 RETURNING ` + listColumns
	return scanList(r.db.QueryRow(ctx, query, set.args...))
}

func (r *PGListRepo) Delete(ctx context.Context, owner, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM lists WHERE id = $1 AND owner = $2`, id, owner)
	return err
}

// AddCollaborator adds email to shared_with once; repeating it is a no-op.
// Only the owner can share: any other caller gets ErrNotFound.
func (r *PGListRepo) AddCollaborator(ctx context.Context, owner, id, email string) (dom.List, error) {
	query := `
		UPDATE lists SET shared_with = CASE
			WHEN $2 = ANY(shared_with) THEN shared_with
			ELSE array_append(shared_with, $2::text) END
		WHERE id = $1 AND owner = $3
		RETURNING ` + listColumns
	return scanList(r.db.QueryRow(ctx, query, id, email, owner))
}
