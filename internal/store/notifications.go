package store

import (
	"context"
	"fmt"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
)

// MarkNotificationRead marks one notification of the signed-in user read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	s.mu.RLock()
	_, known := s.notifications.find(id)
	loaded := s.notifications.state.Status == StatusReady
	s.mu.RUnlock()
	if loaded && !known {
		return s.record(fmt.Errorf("%w: notification %s", domain.ErrNotFound, id))
	}

	m := s.issue(feed.KindNotifications, OpMarkRead, id, func(id string) bool {
		n, ok := s.notifications.find(id)
		return !ok || n.Read
	})
	if err := s.remote.MarkRead(ctx, who, id); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}
