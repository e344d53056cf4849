package view

import "github.com/lucasvital/todocomplete/internal/domain"

// VisibleList resolves the list a todo belongs to among the lists the
// user can see. A reference to a deleted or foreign list resolves to
// nothing.
func VisibleList(t domain.Todo, lists []domain.List) (domain.List, bool) {
	if t.ListID == nil {
		return domain.List{}, false
	}
	for _, l := range lists {
		if l.ID == *t.ListID {
			return l, true
		}
	}
	return domain.List{}, false
}

// InList returns the todos that reference listID, in their given order.
func InList(todos []domain.Todo, listID string) []domain.Todo {
	var out []domain.Todo
	for _, t := range todos {
		if t.ListID != nil && *t.ListID == listID {
			out = append(out, t)
		}
	}
	return out
}

// UnreadCount counts unread notifications.
func UnreadCount(ns []domain.Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
