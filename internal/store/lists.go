package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/utils"
)

func (s *Store) CreateList(ctx context.Context, in domain.NewList) (string, error) {
	who, err := s.identity()
	if err != nil {
		return "", s.record(err)
	}
	if err := in.Validate(); err != nil {
		return "", s.record(err)
	}
	l := domain.List{Name: in.Name, Color: in.Color, Icon: in.Icon}

	m := s.issue(feed.KindLists, OpCreate, "", func(id string) bool {
		_, ok := s.lists.find(id)
		return ok
	})
	out, err := s.remote.CreateList(ctx, who, l)
	if err != nil {
		return "", s.drop(m, err)
	}
	s.ack(m, out.ID)
	return out.ID, nil
}

// UpdateList patches a list the signed-in user owns.
func (s *Store) UpdateList(ctx context.Context, id string, patch domain.ListPatch) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	if err := patch.Validate(); err != nil {
		return s.record(err)
	}
	if err := s.requireList(id); err != nil {
		return s.record(err)
	}
	patch.UpdatedAt = s.stamp()
	stamp := patch.UpdatedAt

	m := s.issue(feed.KindLists, OpUpdate, id, func(id string) bool {
		l, ok := s.lists.find(id)
		return !ok || (l.UpdatedAt != nil && !l.UpdatedAt.Before(stamp))
	})
	if _, err := s.remote.UpdateList(ctx, who, id, patch); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}

// DeleteList removes a list. Todos that reference it keep the reference.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	m := s.issue(feed.KindLists, OpDelete, id, func(id string) bool {
		_, ok := s.lists.find(id)
		return !ok
	})
	if err := s.remote.DeleteList(ctx, who, id); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}

// ShareList adds email as a collaborator and then sends it a LIST_SHARE
// notification. Only the owner can share, so ShareList waits for the lists
// snapshot (bounded by ctx) before writing. The two writes are
// independent: when the notification fails the list stays shared and the
// error is returned. Sharing again is safe.
func (s *Store) ShareList(ctx context.Context, id, email string) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	email = utils.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return s.record(fmt.Errorf("%w: invalid e-mail %q", domain.ErrValidation, email))
	}
	if _, err := s.ownedList(ctx, who, id); err != nil {
		return s.record(err)
	}

	m := s.issue(feed.KindLists, OpShare, id, func(id string) bool {
		l, ok := s.lists.find(id)
		return !ok || slices.Contains(l.SharedWith, email)
	})
	l, err := s.remote.AddCollaborator(ctx, who, id, email)
	if err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)

	_, err = s.remote.Notify(ctx, domain.Notification{
		Type:      domain.NotificationListShare,
		ToEmail:   email,
		FromEmail: who.Email,
		Message:   fmt.Sprintf(`%s invited you to collaborate on list "%s"`, who.Email, l.Name),
		ListID:    &l.ID,
		ListName:  &l.Name,
	})
	if err != nil {
		return s.record(fmt.Errorf("list %s shared, notifying %s: %w", id, email, err))
	}
	return nil
}

// requireList fails with ErrNotFound when a loaded snapshot lacks id. It
// is best effort; the repository checks ownership on every write.
func (s *Store) requireList(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.lists.find(id); !ok && s.lists.state.Status == StatusReady {
		return fmt.Errorf("%w: list %s", domain.ErrNotFound, id)
	}
	return nil
}

// ownedList waits until the lists snapshot is loaded and returns list id
// if who owns it. Without a snapshot it never reports success.
func (s *Store) ownedList(ctx context.Context, who domain.Identity, id string) (domain.List, error) {
	for {
		s.mu.RLock()
		st := s.lists.state
		l, found := s.lists.find(id)
		ch := s.changed
		s.mu.RUnlock()

		switch st.Status {
		case StatusReady:
			if !found || l.Owner != who.Email {
				return domain.List{}, fmt.Errorf("%w: list %s", domain.ErrNotFound, id)
			}
			return l, nil
		case StatusFailed:
			return domain.List{}, st.Err
		case StatusIdle:
			return domain.List{}, fmt.Errorf("%w: no signed-in user", domain.ErrAuth)
		}
		select {
		case <-ctx.Done():
			return domain.List{}, fmt.Errorf("%w: lists not loaded: %w", domain.ErrTransport, ctx.Err())
		case <-ch:
		}
	}
}
