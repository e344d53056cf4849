package domain

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities by severity: high 0, medium 1, low 2.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Tag is embedded by value inside a Todo.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// SubTask is owned by its parent Todo and stored inline with it.
type SubTask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Todo is the domain entity for a single task.
// CreatedAt and CompletedAt come from the database clock.
type Todo struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	ListID      *string    `json:"list,omitempty"`
	CategoryID  *string    `json:"category,omitempty"`
	Tags        []Tag      `json:"tags"`
	SubTasks    []SubTask  `json:"subTasks"`
	CreatedAt   *time.Time `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	DueDate     *time.Time `json:"dueDate"`
	Reminder    *time.Time `json:"reminder"`
}

// NewTodo carries the fields a caller may set when creating a todo.
type NewTodo struct {
	Text       string
	Priority   Priority
	ListID     *string
	CategoryID *string
	Tags       []Tag
	SubTasks   []SubTask
	DueDate    *time.Time
	Reminder   *time.Time
}

// TodoPatch enumerates the updatable todo fields. Nil pointers are left as is.
type TodoPatch struct {
	Text       *string
	Completed  *bool
	Priority   *Priority
	ListID     Clearable[string]
	CategoryID Clearable[string]
	Tags       *[]Tag
	SubTasks   *[]SubTask
	DueDate    Clearable[time.Time]
	Reminder   Clearable[time.Time]

	// UpdatedAt is stamped by the caller, not by the database.
	UpdatedAt time.Time
}

// Validate checks the fields required to create a todo.
func (n NewTodo) Validate() error {
	if strings.TrimSpace(n.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, n.Priority)
	}
	return validateSchedule(n.DueDate, n.Reminder)
}

// Apply returns t with the patch applied. Timestamps owned by the database
// (CompletedAt) are left for the repository to settle.
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	t.ListID = p.ListID.Apply(t.ListID)
	t.CategoryID = p.CategoryID.Apply(t.CategoryID)
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.SubTasks != nil {
		t.SubTasks = *p.SubTasks
	}
	t.DueDate = p.DueDate.Apply(t.DueDate)
	t.Reminder = p.Reminder.Apply(t.Reminder)
	if !p.UpdatedAt.IsZero() {
		u := p.UpdatedAt
		t.UpdatedAt = &u
	}
	return t
}

// Validate checks the patched fields on their own.
func (p TodoPatch) Validate() error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, *p.Priority)
	}
	if p.DueDate.Set && p.Reminder.Set {
		return validateSchedule(p.DueDate.Value, p.Reminder.Value)
	}
	return nil
}

// ValidateAgainst checks the patch both alone and merged onto cur.
func (p TodoPatch) ValidateAgainst(cur Todo) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return p.Apply(cur).ValidateSchedule()
}

// ValidateSchedule checks that a reminder has a due date and does not come
// after it. The todos table enforces the same rule.
func (t Todo) ValidateSchedule() error {
	return validateSchedule(t.DueDate, t.Reminder)
}

func validateSchedule(due, reminder *time.Time) error {
	if reminder == nil {
		return nil
	}
	if due == nil {
		return fmt.Errorf("%w: reminder requires a due date", ErrValidation)
	}
	if reminder.After(*due) {
		return fmt.Errorf("%w: reminder must not be after the due date", ErrValidation)
	}
	return nil
}
