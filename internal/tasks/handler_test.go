package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockRepo struct {
	CreateFunc func(ctx context.Context, t Task) (Task, error)
	ListFunc   func(ctx context.Context) ([]Task, error)
	GetFunc    func(ctx context.Context, id string) (Task, error)
	UpdateFunc func(ctx context.Context, id string, p Patch) (Task, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *mockRepo) Create(ctx context.Context, t Task) (Task, error) { return m.CreateFunc(ctx, t) }
func (m *mockRepo) List(ctx context.Context) ([]Task, error)        { return m.ListFunc(ctx) }
func (m *mockRepo) Get(ctx context.Context, id string) (Task, error) { return m.GetFunc(ctx, id) }
func (m *mockRepo) Update(ctx context.Context, id string, p Patch) (Task, error) {
	return m.UpdateFunc(ctx, id, p)
}
func (m *mockRepo) Delete(ctx context.Context, id string) error { return m.DeleteFunc(ctx, id) }

// memRepo backs a mockRepo with a map.
func memRepo() *mockRepo {
	rows := map[string]Task{}
	get := func(_ context.Context, id string) (Task, error) {
		t, ok := rows[id]
		if !ok {
			return Task{}, ErrNotFound
		}
		return t, nil
	}
	return &mockRepo{
		CreateFunc: func(_ context.Context, t Task) (Task, error) {
			t.ID = primitive.NewObjectID()
			rows[t.ID.Hex()] = t
			return t, nil
		},
		ListFunc: func(context.Context) ([]Task, error) {
			out := []Task{}
			for _, t := range rows {
				out = append(out, t)
			}
			return out, nil
		},
		GetFunc: get,
		UpdateFunc: func(ctx context.Context, id string, p Patch) (Task, error) {
			t, err := get(ctx, id)
			if err != nil {
				return Task{}, err
			}
			if p.Name != nil {
				t.Name = *p.Name
			}
			if p.Status != nil {
				t.Status = *p.Status
			}
			rows[id] = t
			return t, nil
		},
		DeleteFunc: func(_ context.Context, id string) error {
			if _, ok := rows[id]; !ok {
				return ErrNotFound
			}
			delete(rows, id)
			return nil
		},
	}
}

func setupRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo).Register(r)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTaskCRUD(t *testing.T) {
	r := setupRouter(memRepo())

	w := do(r, http.MethodPost, "/api/tasks", `{"name":"Buy milk","status":false}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created Task
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID.IsZero() || created.Name != "Buy milk" || created.Status {
		t.Fatalf("unexpected task %+v", created)
	}
	id := created.ID.Hex()

	w = do(r, http.MethodGet, "/api/tasks", "")
	var list []Task
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("Expected 1 task, got %d (status %d)", len(list), w.Code)
	}

	w = do(r, http.MethodPut, "/api/tasks/"+id, `{"status":true}`)
	var updated Task
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if w.Code != http.StatusOK || !updated.Status || updated.Name != "Buy milk" {
		t.Errorf("Expected only status updated, got %d %+v", w.Code, updated)
	}

	w = do(r, http.MethodGet, "/api/tasks/"+id, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w := do(r, http.MethodDelete, "/api/tasks/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/tasks/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestTaskNotFound(t *testing.T) {
	r := setupRouter(memRepo())
	missing := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"Given an unknown id When getting Then 404", http.MethodGet, "/api/tasks/" + missing, ""},
		{"Given a malformed id When getting Then 404", http.MethodGet, "/api/tasks/wrong-id", ""},
		{"Given an unknown id When updating Then 404", http.MethodPut, "/api/tasks/" + missing, `{"name":"x"}`},
		{"Given an unknown id When deleting Then 404", http.MethodDelete, "/api/tasks/" + missing, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", w.Code)
			}
			if w.Body.String() != "Task not found" {
				t.Errorf("Expected body %q, got %q", "Task not found", w.Body.String())
			}
		})
	}
}

func TestCreateTaskValidation(t *testing.T) {
	called := false
	r := setupRouter(&mockRepo{CreateFunc: func(context.Context, Task) (Task, error) {
		called = true
		return Task{}, nil
	}})

	for _, body := range []string{`{"status":true}`, `{"name":"x"}`, `not json`} {
		if w := do(r, http.MethodPost, "/api/tasks", body); w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", body, w.Code)
		}
	}
	if called {
		t.Error("Expected the repo not to be called")
	}
}

func TestRepoFailure(t *testing.T) {
	r := setupRouter(&mockRepo{ListFunc: func(context.Context) ([]Task, error) {
		return nil, errors.New("server selection timeout")
	}})
	if w := do(r, http.MethodGet, "/api/tasks", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
