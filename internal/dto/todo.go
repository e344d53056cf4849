package dto

import (
	"github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/store"
)

type TagRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" binding:"required,max=40"`
	Color string `json:"color"`
}

type SubTaskRequest struct {
	ID        string `json:"id"`
	Text      string `json:"text" binding:"required,max=500"`
	Completed bool   `json:"completed"`
}

type CreateTodoRequest struct {
	Text     string           `json:"text" binding:"required,max=500"`
	Priority string           `json:"priority" binding:"omitempty,oneof=low medium high"`
	List     *string          `json:"list"`
	Category *string          `json:"category"`
	Tags     []TagRequest     `json:"tags" binding:"dive"`
	SubTasks []SubTaskRequest `json:"subTasks" binding:"dive"`
	DueDate  Date             `json:"dueDate"`  // optional: "2026-02-19" or RFC3339
	Reminder Date             `json:"reminder"` // optional, not after dueDate
}

func (r CreateTodoRequest) NewTodo() domain.NewTodo {
	return domain.NewTodo{
		Text:       r.Text,
		Priority:   domain.Priority(r.Priority),
		ListID:     r.List,
		CategoryID: r.Category,
		Tags:       tags(r.Tags),
		SubTasks:   subTasks(r.SubTasks),
		DueDate:    r.DueDate.Ptr(),
		Reminder:   r.Reminder.Ptr(),
	}
}

// UpdateTodoRequest is a partial update: absent fields are left as is and
// null clears list, category, dueDate and reminder.
type UpdateTodoRequest struct {
	Text      *string           `json:"text" binding:"omitempty,max=500"`
	Completed *bool             `json:"completed"`
	Priority  *string           `json:"priority" binding:"omitempty,oneof=low medium high"`
	List      Optional[string]  `json:"list"`
	Category  Optional[string]  `json:"category"`
	Tags      *[]TagRequest     `json:"tags"`
	SubTasks  *[]SubTaskRequest `json:"subTasks"`
	DueDate   Optional[Date]    `json:"dueDate"`
	Reminder  Optional[Date]    `json:"reminder"`
}

func (r UpdateTodoRequest) Patch() domain.TodoPatch {
	p := domain.TodoPatch{
		Text:       r.Text,
		Completed:  r.Completed,
		ListID:     r.List.Clearable(),
		CategoryID: r.Category.Clearable(),
		DueDate:    clearableTime(r.DueDate),
		Reminder:   clearableTime(r.Reminder),
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.Tags != nil {
		t := tags(*r.Tags)
		p.Tags = &t
	}
	if r.SubTasks != nil {
		s := subTasks(*r.SubTasks)
		p.SubTasks = &s
	}
	return p
}

type ToggleTodoRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type ListTodosResponse struct {
	Items []domain.Todo `json:"items"`
	State store.State   `json:"state"`
}

type TemplatesResponse struct {
	Items []TemplateResponse `json:"items"`
}

type TemplateResponse struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Priority string   `json:"priority"`
	SubTasks []string `json:"subTasks"`
}

func TemplateToResponse(t store.Template) TemplateResponse {
	subs := make([]string, len(t.Todo.SubTasks))
	for i, st := range t.Todo.SubTasks {
		subs[i] = st.Text
	}
	return TemplateResponse{Key: t.Key, Name: t.Name, Priority: string(t.Todo.Priority), SubTasks: subs}
}

type PendingResponse struct {
	Items  []store.Mutation       `json:"items"`
	States map[string]store.State `json:"states"`
	Error  string                 `json:"error,omitempty"`
}

func tags(in []TagRequest) []domain.Tag {
	out := make([]domain.Tag, len(in))
	for i, t := range in {
		out[i] = domain.Tag{ID: t.ID, Name: t.Name, Color: t.Color}
	}
	return out
}

func subTasks(in []SubTaskRequest) []domain.SubTask {
	out := make([]domain.SubTask, len(in))
	for i, s := range in {
		out[i] = domain.SubTask{ID: s.ID, Text: s.Text, Completed: s.Completed}
	}
	return out
}
