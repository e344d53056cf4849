package store

import (
	"context"
	"fmt"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"
)

func (s *Store) CreateCategory(ctx context.Context, in domain.NewCategory) (string, error) {
	who, err := s.identity()
	if err != nil {
		return "", s.record(err)
	}
	if err := in.Validate(); err != nil {
		return "", s.record(err)
	}
	m := s.issue(feed.KindCategories, OpCreate, "", func(id string) bool {
		_, ok := s.categories.find(id)
		return ok
	})
	out, err := s.remote.CreateCategory(ctx, who, domain.Category{Name: in.Name, Color: in.Color})
	if err != nil {
		return "", s.drop(m, err)
	}
	s.ack(m, out.ID)
	return out.ID, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	if err := patch.Validate(); err != nil {
		return s.record(err)
	}
	s.mu.RLock()
	_, known := s.categories.find(id)
	loaded := s.categories.state.Status == StatusReady
	s.mu.RUnlock()
	if loaded && !known {
		return s.record(fmt.Errorf("%w: category %s", domain.ErrNotFound, id))
	}

	// Categories carry no updatedAt; the write is reflected once the
	// snapshot record already holds the patched values.
	m := s.issue(feed.KindCategories, OpUpdate, id, func(id string) bool {
		c, ok := s.categories.find(id)
		return !ok || patch.Apply(c) == c
	})
	if _, err := s.remote.UpdateCategory(ctx, who, id, patch); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	m := s.issue(feed.KindCategories, OpDelete, id, func(id string) bool {
		_, ok := s.categories.find(id)
		return !ok
	})
	if err := s.remote.DeleteCategory(ctx, who, id); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}
