package repo

import (
	"context"
	"errors"

	dom "github.com/lucasvital/todocomplete/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepo persists notifications. They are never deleted.
type NotificationRepo interface {
	ListForRecipient(ctx context.Context, email string) ([]dom.Notification, error)
	Create(ctx context.Context, n dom.Notification) (dom.Notification, error)
	MarkRead(ctx context.Context, email, id string) error
}

const notificationColumns = `id, type, to_email, from_email, message, read, created_at, list_id, list_name, todo_id`

type PGNotificationRepo struct {
	db *pgxpool.Pool
}

func NewPGNotificationRepo(db *pgxpool.Pool) *PGNotificationRepo {
	return &PGNotificationRepo{db: db}
}

func scanNotification(row pgx.Row) (dom.Notification, error) {
	var n dom.Notification
	err := row.Scan(&n.ID, &n.Type, &n.ToEmail, &n.FromEmail, &n.Message, &n.Read, &n.CreatedAt,
		&n.ListID, &n.ListName, &n.TodoID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Notification{}, dom.ErrNotFound
	}
	return n, err
}

func (r *PGNotificationRepo) ListForRecipient(ctx context.Context, email string) ([]dom.Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE to_email = $1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dom.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGNotificationRepo) Create(ctx context.Context, n dom.Notification) (dom.Notification, error) {
	query := `
		INSERT INTO notifications (id, type, to_email, from_email, message, read, list_id, list_name, todo_id, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8, NOW())
		RETURNING ` + notificationColumns
	return scanNotification(r.db.QueryRow(ctx, query,
		newID(n.ID), n.Type, n.ToEmail, n.FromEmail, n.Message, n.ListID, n.ListName, n.TodoID))
}

func (r *PGNotificationRepo) MarkRead(ctx context.Context, email, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND to_email = $2`, id, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}
