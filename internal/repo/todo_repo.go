package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TodoRepo interface {
	ListByOwner(ctx context.Context, userID string) ([]dom.Todo, error)
	GetByID(ctx context.Context, userID, id string) (dom.Todo, error)
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	Update(ctx context.Context, userID, id string, patch dom.TodoPatch) (dom.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	DueReminders(ctx context.Context, now time.Time) ([]dom.Todo, error)
	MarkReminded(ctx context.Context, id string) error
}

const todoColumns = `id, user_id, text, completed, priority, list_id, category_id, tags, sub_tasks,
	created_at, updated_at, completed_at, due_date, reminder`

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.Priority, &t.ListID, &t.CategoryID,
		&t.Tags, &t.SubTasks, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.DueDate, &t.Reminder)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, dom.ErrNotFound
	}
	if utils.IsPGCheckViolation(err) {
		// todos_reminder_chk: the merged row has a reminder without a due
		// date or after it.
		return dom.Todo{}, fmt.Errorf("%w: reminder requires a due date not before it", dom.ErrValidation)
	}
	return t, err
}

func collectTodos(rows pgx.Rows, err error) ([]dom.Todo, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) ListByOwner(ctx context.Context, userID string) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at DESC NULLS FIRST`
	return collectTodos(r.db.Query(ctx, query, userID))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id string) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	return scanTodo(r.db.QueryRow(ctx, query, id, userID))
}

// Create inserts t. created_at comes from the transaction clock.
func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, user_id, text, completed, priority, list_id, category_id, tags, sub_tasks,
			created_at, updated_at, completed_at, due_date, reminder)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10,
			CASE WHEN $4::boolean THEN NOW() END, $11, $12)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query,
		newID(t.ID), t.UserID, t.Text, t.Completed, t.Priority, t.ListID, t.CategoryID,
		nonNilTags(t.Tags), nonNilSubTasks(t.SubTasks), t.UpdatedAt, t.DueDate, t.Reminder,
	))
}

func (r *PGTodoRepo) Update(ctx context.Context, userID, id string, patch dom.TodoPatch) (dom.Todo, error) {
	set := newSetList(id, userID)
	if patch.Text != nil {
		set.add("text", *patch.Text)
	}
	if patch.Completed != nil {
		ph := set.add("completed", *patch.Completed)
		set.raw("completed_at = CASE WHEN " + ph + "::boolean THEN COALESCE(completed_at, NOW()) END")
	}
	if patch.Priority != nil {
		set.add("priority", *patch.Priority)
	}
	if patch.ListID.Set {
		set.add("list_id", patch.ListID.Value)
	}
	if patch.CategoryID.Set {
		set.add("category_id", patch.CategoryID.Value)
	}
	if patch.Tags != nil {
		set.add("tags", nonNilTags(*patch.Tags))
	}
	if patch.SubTasks != nil {
		set.add("sub_tasks", nonNilSubTasks(*patch.SubTasks))
	}
	if patch.DueDate.Set {
		set.add("due_date", patch.DueDate.Value)
	}
	if patch.Reminder.Set {
		set.add("reminder", patch.Reminder.Value)
		set.raw("reminded_at = NULL")
	}
	if !patch.UpdatedAt.IsZero() {
		set.add("updated_at", patch.UpdatedAt)
	}
	if set.empty() {
		return r.GetByID(ctx, userID, id)
	}
	query := `UPDATE todos SET ` + set.String() + ` WHERE id = $1 AND user_id = $2 RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, set.args...))
}

// Delete removes the todo; deleting an absent id is not an error.
func (r *PGTodoRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (r *PGTodoRepo) DueReminders(ctx context.Context, now time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + ` FROM todos
		WHERE reminder IS NOT NULL AND reminder <= $1 AND reminded_at IS NULL AND completed = FALSE
		ORDER BY reminder ASC`
	return collectTodos(r.db.Query(ctx, query, now))
}

func (r *PGTodoRepo) MarkReminded(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE todos SET reminded_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func nonNilTags(tags []dom.Tag) []dom.Tag {
	if tags == nil {
		return []dom.Tag{}
	}
	return tags
}

func nonNilSubTasks(subs []dom.SubTask) []dom.SubTask {
	if subs == nil {
		return []dom.SubTask{}
	}
	return subs
}
