package view

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

var base = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC) // a Wednesday

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func ptr(s string) *string { return &s }

func ids(todos []domain.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func TestSort(t *testing.T) {
	tests := []struct {
		name  string
		key   SortKey
		todos []domain.Todo
		want  []string
	}{
		{
			name: "Given mixed priorities When sorting by priority Then high, medium, low",
			key:  SortPriority,
			todos: []domain.Todo{
				{ID: "low", Priority: domain.PriorityLow},
				{ID: "high", Priority: domain.PriorityHigh},
				{ID: "medium", Priority: domain.PriorityMedium},
			},
			want: []string{"high", "medium", "low"},
		},
		{
			name: "Given missing due dates When sorting by due date Then they come last",
			key:  SortDueDate,
			todos: []domain.Todo{
				{ID: "none"},
				{ID: "later", DueDate: at(48 * time.Hour)},
				{ID: "sooner", DueDate: at(time.Hour)},
				{ID: "none2"},
			},
			want: []string{"sooner", "later", "none", "none2"},
		},
		{
			name: "Given no sort key When sorting Then newest first with pending timestamps on top",
			key:  "",
			todos: []domain.Todo{
				{ID: "old", CreatedAt: at(-48 * time.Hour)},
				{ID: "pending"},
				{ID: "new", CreatedAt: at(-time.Hour)},
			},
			want: []string{"pending", "new", "old"},
		},
		{
			name: "Given mixed case text When sorting by text Then case is ignored",
			key:  SortText,
			todos: []domain.Todo{
				{ID: "b", Text: "banana"},
				{ID: "a", Text: "Apple"},
				{ID: "c", Text: "cherry"},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "Given equal priorities When sorting Then input order is kept",
			key:  SortPriority,
			todos: []domain.Todo{
				{ID: "1", Priority: domain.PriorityHigh},
				{ID: "2", Priority: domain.PriorityHigh},
				{ID: "3", Priority: domain.PriorityHigh},
			},
			want: []string{"1", "2", "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ids(tt.todos)
			got := ids(Sort(tt.todos, tt.key))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if !reflect.DeepEqual(ids(tt.todos), before) {
				t.Error("input was reordered")
			}
		})
	}
}

func TestSearch(t *testing.T) {
	todo := domain.Todo{Text: "Call the dentist", Tags: []domain.Tag{{Name: "Urgente"}}}
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"URGENT", true},
		{"dentist", true},
		{"CALL", true},
		{"plumber", false},
	}
	for _, tt := range tests {
		if got := Search(todo, tt.query); got != tt.want {
			t.Errorf("Search(%q): expected %v, got %v", tt.query, tt.want, got)
		}
	}
}

func TestTodosFilters(t *testing.T) {
	todos := []domain.Todo{
		{ID: "1", Text: "write report", Completed: true, CategoryID: ptr("work"), ListID: ptr("l1"), DueDate: at(24 * time.Hour), CreatedAt: at(-3 * time.Hour)},
		{ID: "2", Text: "buy milk", CategoryID: ptr("home"), CreatedAt: at(-2 * time.Hour)},
		{ID: "3", Text: "review report", CategoryID: ptr("work"), ListID: ptr("l1"), DueDate: at(72 * time.Hour), CreatedAt: at(-time.Hour)},
	}
	from, to := at(0), at(48*time.Hour)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter", Filter{}, []string{"3", "2", "1"}},
		{"active", Filter{Status: StatusActive}, []string{"3", "2"}},
		{"completed", Filter{Status: StatusCompleted}, []string{"1"}},
		{"query", Filter{Query: "REPORT"}, []string{"3", "1"}},
		{"category", Filter{CategoryID: "home"}, []string{"2"}},
		{"list", Filter{ListID: "l1", SortBy: SortDueDate}, []string{"1", "3"}},
		{"due range", Filter{DueFrom: from, DueTo: to}, []string{"1"}},
		{"combined", Filter{Query: "report", Status: StatusActive}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Todos(todos, tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTodosIsDeterministic(t *testing.T) {
	todos := []domain.Todo{
		{ID: "a", Priority: domain.PriorityLow, Text: "x"},
		{ID: "b", Priority: domain.PriorityHigh, Text: "x"},
		{ID: "c", Priority: domain.PriorityLow, Text: "x"},
	}
	f := Filter{Query: "x", SortBy: SortPriority}
	first := Todos(todos, f)
	for i := 0; i < 5; i++ {
		if got := Todos(todos, f); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, ids(got), ids(first))
		}
	}
}

func TestComputeStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		st := ComputeStats(nil, nil, base)
		if st.Total != 0 || st.CompletionRate != 0 {
			t.Errorf("Expected zero stats, got %+v", st)
		}
		if len(st.ByWeekday) != 7 {
			t.Errorf("Expected 7 weekday buckets, got %d", len(st.ByWeekday))
		}
	})

	t.Run("one of three completed", func(t *testing.T) {
		todos := []domain.Todo{
			{Completed: true, CategoryID: ptr("c2")},
			{CategoryID: ptr("c2")},
			{},
		}
		cats := []domain.Category{{ID: "c2", Name: "Work"}, {ID: "c1", Name: "Home"}}
		st := ComputeStats(todos, cats, base)
		if st.Completed != 1 || st.Pending != 2 {
			t.Errorf("Expected 1 completed 2 pending, got %+v", st)
		}
		if math.Abs(st.CompletionRate-33.333) > 0.01 {
			t.Errorf("Expected completion rate 33.33, got %f", st.CompletionRate)
		}
		want := []CategoryCount{{CategoryID: "c2", Name: "Work", Count: 2}, {CategoryID: "c1", Name: "Home", Count: 0}}
		if !reflect.DeepEqual(st.ByCategory, want) {
			t.Errorf("Expected %+v, got %+v", want, st.ByCategory)
		}
	})

	t.Run("weekday buckets", func(t *testing.T) {
		monday := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
		prevSaturday := time.Date(2026, 10, 10, 23, 30, 0, 0, time.UTC)
		todos := []domain.Todo{{CreatedAt: &monday}, {CreatedAt: &prevSaturday}, {}}
		st := ComputeStats(todos, nil, base)

		if !st.ByWeekday[0].Date.Equal(time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Expected the first bucket on Sunday 11 Oct, got %v", st.ByWeekday[0].Date)
		}
		if st.ByWeekday[time.Monday].Count != 1 || st.ByWeekday[time.Saturday].Count != 1 {
			t.Errorf("unexpected buckets %+v", st.ByWeekday)
		}
	})

	t.Run("weekday uses the caller's location", func(t *testing.T) {
		// 23:30 UTC Saturday is already Sunday in UTC+2.
		created := time.Date(2026, 10, 10, 23, 30, 0, 0, time.UTC)
		loc := time.FixedZone("UTC+2", 2*60*60)
		st := ComputeStats([]domain.Todo{{CreatedAt: &created}}, nil, base.In(loc))
		if st.ByWeekday[time.Sunday].Count != 1 {
			t.Errorf("Expected the todo on Sunday, got %+v", st.ByWeekday)
		}
	})
}

func TestComputeListStats(t *testing.T) {
	todos := []domain.Todo{
		{Priority: domain.PriorityHigh, DueDate: at(48 * time.Hour)},
		{Completed: true, DueDate: at(-24 * time.Hour)},
		{DueDate: at(5 * 24 * time.Hour)},
		{Priority: domain.PriorityHigh},
	}
	got := ComputeListStats(todos, base)
	want := ListStats{Total: 4, Completed: 1, HighPriority: 2, DueSoon: 1, Overdue: 1}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestVisibleList(t *testing.T) {
	lists := []domain.List{{ID: "l1", Name: "Home"}}
	if l, ok := VisibleList(domain.Todo{ListID: ptr("l1")}, lists); !ok || l.Name != "Home" {
		t.Errorf("Expected Home, got %+v %v", l, ok)
	}
	if _, ok := VisibleList(domain.Todo{ListID: ptr("deleted")}, lists); ok {
		t.Error("Expected a dangling list reference to resolve to nothing")
	}
	if _, ok := VisibleList(domain.Todo{}, lists); ok {
		t.Error("Expected no list for an unassigned todo")
	}
}

func TestInListAndUnreadCount(t *testing.T) {
	todos := []domain.Todo{{ID: "1", ListID: ptr("l1")}, {ID: "2"}, {ID: "3", ListID: ptr("l1")}}
	if got := ids(InList(todos, "l1")); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("Expected [1 3], got %v", got)
	}
	ns := []domain.Notification{{Read: true}, {}, {}}
	if n := UnreadCount(ns); n != 2 {
		t.Errorf("Expected 2 unread, got %d", n)
	}
}
