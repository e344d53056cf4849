// Package view derives what the user sees from store snapshots. Every
// function is pure: same input, same output, no I/O.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

type Status string

const (
	StatusAll       Status = "ALL"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortPriority  SortKey = "priority"
	SortDueDate   SortKey = "dueDate"
	SortText      SortKey = "text"
)

// Filter selects and orders todos. The zero value matches everything,
// newest first.
type Filter struct {
	Query      string
	Status     Status
	SortBy     SortKey
	CategoryID string
	ListID     string
	DueFrom    *time.Time
	DueTo      *time.Time
}

// Todos sorts todos by f.SortBy and keeps those matching f. The input is
// not modified.
func Todos(todos []domain.Todo, f Filter) []domain.Todo {
	sorted := Sort(todos, f.SortBy)
	return slices.DeleteFunc(sorted, func(t domain.Todo) bool { return !Matches(t, f) })
}

// Matches reports whether t passes every criterion of f.
func Matches(t domain.Todo, f Filter) bool {
	switch f.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
		return false
	}
	if f.ListID != "" && (t.ListID == nil || *t.ListID != f.ListID) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.DueDate == nil {
			return false
		}
		if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return Search(t, f.Query)
}

// Search matches q case-insensitively against the text and tag names.
// An empty query matches everything.
func Search(t domain.Todo, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Text), q) {
		return true
	}
	return slices.ContainsFunc(t.Tags, func(tag domain.Tag) bool {
		return strings.Contains(strings.ToLower(tag.Name), q)
	})
}

// Sort returns a stably sorted copy of todos.
func Sort(todos []domain.Todo, key SortKey) []domain.Todo {
	out := slices.Clone(todos)
	slices.SortStableFunc(out, compareBy(key))
	return out
}

func compareBy(key SortKey) func(a, b domain.Todo) int {
	switch key {
	case SortPriority:
		return func(a, b domain.Todo) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	case SortDueDate:
		return func(a, b domain.Todo) int { return compareTimes(a.DueDate, b.DueDate) }
	case SortText:
		return func(a, b domain.Todo) int {
			return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
		}
	default:
		// Newest first. A createdAt still pending on the server counts as
		// the newest of all.
		return func(a, b domain.Todo) int {
			switch {
			case a.CreatedAt == nil && b.CreatedAt == nil:
				return 0
			case a.CreatedAt == nil:
				return -1
			case b.CreatedAt == nil:
				return 1
			}
			return b.CreatedAt.Compare(*a.CreatedAt)
		}
	}
}

// compareTimes orders ascending with missing values last.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
