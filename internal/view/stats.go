package view

import (
	"math"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

type CategoryCount struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Count      int    `json:"count"`
}

// WeekdayCount is one bucket of the current week. Date is the start of
// that day in the current week.
type WeekdayCount struct {
	Weekday time.Weekday `json:"weekday"`
	Date    time.Time    `json:"date"`
	Count   int          `json:"count"`
}

type Stats struct {
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	Pending        int             `json:"pending"`
	CompletionRate float64         `json:"completionRate"`
	ByCategory     []CategoryCount `json:"byCategory"`
	ByWeekday      []WeekdayCount  `json:"byWeekday"`
}

// ComputeStats summarizes todos. Categories are reported in the order
// given. Weekday buckets run Sunday to Saturday of the week containing
// now and count todos by the weekday of createdAt in now's location; todos
// without createdAt are not bucketed.
func ComputeStats(todos []domain.Todo, categories []domain.Category, now time.Time) Stats {
	st := Stats{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
	}

	st.ByCategory = make([]CategoryCount, 0, len(categories))
	for _, c := range categories {
		n := 0
		for _, t := range todos {
			if t.CategoryID != nil && *t.CategoryID == c.ID {
				n++
			}
		}
		st.ByCategory = append(st.ByCategory, CategoryCount{CategoryID: c.ID, Name: c.Name, Color: c.Color, Count: n})
	}

	loc := now.Location()
	y, m, d := now.Date()
	sunday := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	st.ByWeekday = make([]WeekdayCount, 7)
	for i := range st.ByWeekday {
		st.ByWeekday[i] = WeekdayCount{Weekday: time.Weekday(i), Date: sunday.AddDate(0, 0, i)}
	}
	for _, t := range todos {
		if t.CreatedAt == nil {
			continue
		}
		st.ByWeekday[t.CreatedAt.In(loc).Weekday()].Count++
	}
	return st
}

type ListStats struct {
	Total        int `json:"totalTasks"`
	Completed    int `json:"completedTasks"`
	HighPriority int `json:"highPriorityTasks"`
	DueSoon      int `json:"dueSoonTasks"`
	Overdue      int `json:"overdueTasks"`
}

// ComputeListStats summarizes the todos of one list. A todo is due soon
// when its due date is not past and at most 3 days away, counting partial
// days as whole ones; it is overdue when its due date is past.
func ComputeListStats(todos []domain.Todo, now time.Time) ListStats {
	var st ListStats
	for _, t := range todos {
		st.Total++
		if t.Completed {
			st.Completed++
		}
		if t.Priority == domain.PriorityHigh {
			st.HighPriority++
		}
		if t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(now) {
			st.Overdue++
			continue
		}
		if days := math.Ceil(t.DueDate.Sub(now).Hours() / 24); days <= 3 {
			st.DueSoon++
		}
	}
	return st
}
