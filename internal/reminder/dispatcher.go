// Package reminder turns due todo reminders into REMINDER notifications.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

// Source is the remote client as seen by the dispatcher.
type Source interface {
	DueReminders(ctx context.Context, now time.Time) ([]domain.Todo, error)
	MarkReminded(ctx context.Context, id string) error
	Notify(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

// Users resolves the recipient address of a todo owner.
type Users interface {
	Email(ctx context.Context, userID string) (string, error)
}

type Dispatcher struct {
	source  Source
	users   Users
	now     func() time.Time
	timeout time.Duration
}

func NewDispatcher(source Source, users Users) *Dispatcher {
	return &Dispatcher{source: source, users: users, now: time.Now, timeout: 30 * time.Second}
}

// Run sends one notification per due reminder and marks it fired. A todo
// whose notification fails is retried on the next run. It returns the
// number of notifications sent.
func (d *Dispatcher) Run(ctx context.Context) (int, error) {
	now := d.now().UTC()
	due, err := d.source.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("due reminders: %w", err)
	}

	var errs []error
	sent := 0
	for _, t := range due {
		if err := d.dispatch(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("todo %s: %w", t.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, t domain.Todo) error {
	email, err := d.users.Email(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("owner e-mail: %w", err)
	}
	id := t.ID
	if _, err := d.source.Notify(ctx, domain.Notification{
		Type:    domain.NotificationReminder,
		ToEmail: email,
		Message: message(t),
		TodoID:  &id,
	}); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := d.source.MarkReminded(ctx, t.ID); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func message(t domain.Todo) string {
	if t.DueDate == nil {
		return fmt.Sprintf(`Reminder: "%s"`, t.Text)
	}
	return fmt.Sprintf(`Reminder: "%s" is due %s`, t.Text, t.DueDate.UTC().Format("2006-01-02 15:04 MST"))
}

// Job adapts Run to a cron job.
func (d *Dispatcher) Job() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		n, err := d.Run(ctx)
		if err != nil {
			log.Printf("reminder: %v", err)
		}
		if n > 0 {
			log.Printf("reminder: sent %d notification(s)", n)
		}
	}
}
