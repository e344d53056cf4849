package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/lucasvital/todocomplete/internal/domain"
)

// Template is a predefined todo with its sub-tasks.
type Template struct {
	Key  string         `json:"key"`
	Name string         `json:"name"`
	Todo domain.NewTodo `json:"-"`
}

var templates = []Template{
	{
		Key:  "daily-standup",
		Name: "Daily Standup",
		Todo: domain.NewTodo{
			Text:     "Daily Standup",
			Priority: domain.PriorityMedium,
			SubTasks: []domain.SubTask{
				{Text: "What I did yesterday"},
				{Text: "What I will do today"},
				{Text: "Any blockers?"},
			},
		},
	},
	{
		Key:  "weekly-planning",
		Name: "Weekly Planning",
		Todo: domain.NewTodo{
			Text:     "Weekly Planning",
			Priority: domain.PriorityHigh,
			SubTasks: []domain.SubTask{
				{Text: "Set the goals for the week"},
				{Text: "Schedule important meetings"},
				{Text: "Review pending tasks"},
			},
		},
	},
}

// Templates lists the built-in templates.
func Templates() []Template {
	return slices.Clone(templates)
}

// CreateFromTemplate creates a todo from the template named key.
func (s *Store) CreateFromTemplate(ctx context.Context, key string) (string, error) {
	i := slices.IndexFunc(templates, func(t Template) bool { return t.Key == key })
	if i < 0 {
		return "", s.record(fmt.Errorf("%w: template %q", domain.ErrNotFound, key))
	}
	in := templates[i].Todo
	in.SubTasks = slices.Clone(in.SubTasks)
	return s.CreateTodo(ctx, in)
}
