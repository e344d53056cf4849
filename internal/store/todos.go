package store

import (
	"context"
	"fmt"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/feed"

	"github.com/google/uuid"
)

// CreateTodo issues the creation of a todo and returns its id. The todo
// shows up in Todos once a snapshot includes it.
func (s *Store) CreateTodo(ctx context.Context, in domain.NewTodo) (string, error) {
	who, err := s.identity()
	if err != nil {
		return "", s.record(err)
	}
	if err := in.Validate(); err != nil {
		return "", s.record(err)
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	stamp := s.stamp()
	t := domain.Todo{
		Text:       in.Text,
		Priority:   in.Priority,
		ListID:     in.ListID,
		CategoryID: in.CategoryID,
		Tags:       withTagIDs(in.Tags),
		SubTasks:   withSubTaskIDs(in.SubTasks),
		UpdatedAt:  &stamp,
		DueDate:    in.DueDate,
		Reminder:   in.Reminder,
	}

	m := s.issue(feed.KindTodos, OpCreate, "", func(id string) bool {
		_, ok := s.todos.find(id)
		return ok
	})
	out, err := s.remote.CreateTodo(ctx, who, t)
	if err != nil {
		return "", s.drop(m, err)
	}
	s.ack(m, out.ID)
	return out.ID, nil
}

// UpdateTodo applies patch to todo id. An id missing from a loaded
// snapshot fails with ErrNotFound without reaching the remote.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}

	s.mu.RLock()
	cur, known := s.todos.find(id)
	loaded := s.todos.state.Status == StatusReady
	s.mu.RUnlock()
	if loaded && !known {
		return s.record(fmt.Errorf("%w: todo %s", domain.ErrNotFound, id))
	}
	if known {
		err = patch.ValidateAgainst(cur)
	} else {
		err = patch.Validate()
	}
	if err != nil {
		return s.record(err)
	}
	if patch.Tags != nil {
		tags := withTagIDs(*patch.Tags)
		patch.Tags = &tags
	}
	if patch.SubTasks != nil {
		subs := withSubTaskIDs(*patch.SubTasks)
		patch.SubTasks = &subs
	}
	patch.UpdatedAt = s.stamp()
	stamp := patch.UpdatedAt

	m := s.issue(feed.KindTodos, OpUpdate, id, func(id string) bool {
		t, ok := s.todos.find(id)
		return !ok || (t.UpdatedAt != nil && !t.UpdatedAt.Before(stamp))
	})
	if _, err := s.remote.UpdateTodo(ctx, who, id, patch); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}

// ToggleTodo sets the completion flag. The remote stamps completedAt.
func (s *Store) ToggleTodo(ctx context.Context, id string, completed bool) error {
	return s.UpdateTodo(ctx, id, domain.TodoPatch{Completed: &completed})
}

// DeleteTodo removes todo id. Deleting an unknown id is not an error.
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	who, err := s.identity()
	if err != nil {
		return s.record(err)
	}
	m := s.issue(feed.KindTodos, OpDelete, id, func(id string) bool {
		_, ok := s.todos.find(id)
		return !ok
	})
	if err := s.remote.DeleteTodo(ctx, who, id); err != nil {
		return s.drop(m, err)
	}
	s.ack(m, id)
	return nil
}

func withTagIDs(tags []domain.Tag) []domain.Tag {
	out := make([]domain.Tag, len(tags))
	for i, t := range tags {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		out[i] = t
	}
	return out
}

func withSubTaskIDs(subs []domain.SubTask) []domain.SubTask {
	out := make([]domain.SubTask, len(subs))
	for i, st := range subs {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		out[i] = st
	}
	return out
}
