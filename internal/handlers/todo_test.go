package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/dto"
)

func hasTodo(id string) func(dto.ListTodosResponse) bool {
	return func(r dto.ListTodosResponse) bool {
		for _, t := range r.Items {
			if t.ID == id {
				return true
			}
		}
		return false
	}
}

func TestTodoLifecycle(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	cookie := env.signIn(t, alice)

	w := env.do(http.MethodPost, "/todos", obj{"text": "Write report", "priority": "high", "dueDate": "2026-10-20"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := decode[dto.CreatedResponse](t, w).ID
	if id == "" {
		t.Fatal("Expected an id")
	}
	eventually(t, env, "/todos", cookie, hasTodo(id))

	w = env.do(http.MethodGet, "/todos/"+id, nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	got := decode[domain.Todo](t, w)
	if got.Text != "Write report" || got.Priority != domain.PriorityHigh || got.DueDate == nil {
		t.Errorf("unexpected todo %+v", got)
	}

	w = env.do(http.MethodPatch, "/todos/"+id, obj{"text": "Write final report"}, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
	}
	w = env.do(http.MethodPost, "/todos/"+id+"/toggle", obj{"completed": true}, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
	}
	eventually(t, env, "/todos?status=COMPLETED", cookie, func(r dto.ListTodosResponse) bool {
		return len(r.Items) == 1 && r.Items[0].Text == "Write final report" && r.Items[0].CompletedAt != nil
	})

	w = env.do(http.MethodDelete, "/todos/"+id, nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	eventually(t, env, "/todos", cookie, func(r dto.ListTodosResponse) bool { return len(r.Items) == 0 })
	if w := env.do(http.MethodGet, "/todos/"+id, nil, cookie); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateTodoRejects(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	cookie := env.signIn(t, alice)

	tests := []struct {
		name   string
		body   obj
		cookie bool
		want   int
	}{
		{"Given no session When creating Then 401", obj{"text": "x"}, false, http.StatusUnauthorized},
		{"Given no text When creating Then 400", obj{"priority": "low"}, true, http.StatusBadRequest},
		{"Given blank text When creating Then 400", obj{"text": "   "}, true, http.StatusBadRequest},
		{"Given unknown priority When creating Then 400", obj{"text": "x", "priority": "urgent"}, true, http.StatusBadRequest},
		{"Given bad date When creating Then 400", obj{"text": "x", "dueDate": "tomorrow"}, true, http.StatusBadRequest},
		{"Given reminder after due When creating Then 400", obj{"text": "x", "dueDate": "2026-10-20", "reminder": "2026-10-21"}, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cookie
			if !tt.cookie {
				c = nil
			}
			w := env.do(http.MethodPost, "/todos", tt.body, c)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
	if n := len(env.todos.All()); n != 0 {
		t.Errorf("Expected nothing stored, got %d todos", n)
	}
}

func TestListTodosQuery(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	base := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time { v := base.Add(time.Duration(h) * time.Hour); return &v }
	work := "list-work"
	env.todos.Put(domain.Todo{ID: "t1", UserID: alice.ID, Text: "Buy milk", Priority: domain.PriorityLow, CreatedAt: at(0)})
	env.todos.Put(domain.Todo{ID: "t2", UserID: alice.ID, Text: "Ship release", Priority: domain.PriorityHigh, Completed: true, CreatedAt: at(1), ListID: &work})
	env.todos.Put(domain.Todo{ID: "t3", UserID: alice.ID, Text: "Plan sprint", Priority: domain.PriorityMedium, CreatedAt: at(2), DueDate: at(48)})
	env.todos.Put(domain.Todo{ID: "t4", UserID: bob.ID, Text: "Bob's milk", CreatedAt: at(3)})
	cookie := env.signIn(t, alice)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"Given no query When listing Then newest first", "", []string{"t3", "t2", "t1"}},
		{"Given sort by priority When listing Then high first", "?sort=priority", []string{"t2", "t3", "t1"}},
		{"Given sort by text When listing Then alphabetical", "?sort=text", []string{"t1", "t3", "t2"}},
		{"Given search When listing Then matching only", "?q=MILK", []string{"t1"}},
		{"Given active status When listing Then open only", "?status=active", []string{"t3", "t1"}},
		{"Given list filter When listing Then that list only", "?list=" + work, []string{"t2"}},
		{"Given due range When listing Then due todos only", "?dueFrom=2026-10-15&dueTo=2026-10-17", []string{"t3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/todos"+tt.query, nil, cookie)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			got := decode[dto.ListTodosResponse](t, w)
			if len(got.Items) != len(tt.want) {
				t.Fatalf("Expected %d todos, got %d", len(tt.want), len(got.Items))
			}
			for i, id := range tt.want {
				if got.Items[i].ID != id {
					t.Errorf("Expected %s at %d, got %s", id, i, got.Items[i].ID)
				}
			}
			if got.State.Status != "ready" {
				t.Errorf("Expected ready state, got %q", got.State.Status)
			}
		})
	}

	for _, q := range []string{"?status=DONE", "?sort=owner", "?dueFrom=someday"} {
		if w := env.do(http.MethodGet, "/todos"+q, nil, cookie); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", q, w.Code)
		}
	}
}

func TestUpdateUnknownTodo(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	cookie := env.signIn(t, alice)

	if w := env.do(http.MethodPatch, "/todos/missing", obj{"text": "x"}, cookie); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/todos/missing/toggle", obj{}, cookie); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without completed, got %d", w.Code)
	}
}

func TestReadsReportTransportFailure(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	env.todos.SetErr(errBackend)
	cookie := env.signIn(t, alice)

	if w := env.do(http.MethodGet, "/todos", nil, cookie); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d: %s", w.Code, w.Body.String())
	}
	env.todos.SetErr(nil)
	eventually(t, env, "/todos", cookie, func(r dto.ListTodosResponse) bool { return r.State.Status == "ready" })
}

func TestTemplates(t *testing.T) {
	env := newTestEnv(t, AuthOptions{})
	cookie := env.signIn(t, alice)

	w := env.do(http.MethodGet, "/templates", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	tpls := decode[dto.TemplatesResponse](t, w)
	if len(tpls.Items) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(tpls.Items))
	}

	w = env.do(http.MethodPost, "/templates/"+tpls.Items[0].Key, nil, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := decode[dto.CreatedResponse](t, w).ID
	got := eventually(t, env, "/todos", cookie, hasTodo(id))
	if n := len(got.Items[0].SubTasks); n != len(tpls.Items[0].SubTasks) {
		t.Errorf("Expected %d sub-tasks, got %d", len(tpls.Items[0].SubTasks), n)
	}

	if w := env.do(http.MethodPost, "/templates/nope", nil, cookie); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown template, got %d", w.Code)
	}
}
