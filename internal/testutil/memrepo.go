// Package testutil provides in-memory repositories that mirror the
// Postgres repositories' semantics, for tests that cannot reach a database.
package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"

	"github.com/google/uuid"
)

// Clock is the "server" clock used for database-assigned timestamps.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// gate holds loads open until released. A held load has already read its
// rows, like a query whose result is still in flight.
type gate struct {
	mu      sync.Mutex
	ch      chan struct{}
	waiting int
}

func (g *gate) hold() (release func()) {
	ch := make(chan struct{})
	g.mu.Lock()
	g.ch = ch
	g.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if g.ch == ch {
				g.ch = nil
			}
			g.mu.Unlock()
			close(ch)
		})
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	if ch != nil {
		g.waiting++
	}
	g.mu.Unlock()
	if ch == nil {
		return nil
	}
	defer func() {
		g.mu.Lock()
		g.waiting--
		g.mu.Unlock()
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}

// Todos is an in-memory repo.TodoRepo. Set Err to make every call fail.
type Todos struct {
	mu       sync.Mutex
	rows     map[string]domain.Todo
	reminded map[string]bool
	load     gate
	Clock    Clock
	Err      error
}

func NewTodos() *Todos {
	return &Todos{rows: make(map[string]domain.Todo), reminded: make(map[string]bool)}
}

func (r *Todos) fail() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

// SetErr swaps the injected failure.
func (r *Todos) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

// Hold makes ListByOwner block after reading its rows until release is
// called or the caller's ctx ends.
func (r *Todos) Hold() (release func()) { return r.load.hold() }

// Waiting counts ListByOwner calls blocked by Hold.
func (r *Todos) Waiting() int { return r.load.count() }

func (r *Todos) ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error) {
	if err := r.fail(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	out := []domain.Todo{}
	for _, t := range r.rows {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt) })
	if err := r.load.wait(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// newerFirst orders like ORDER BY created_at DESC NULLS FIRST.
func newerFirst(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.After(*b)
}

func (r *Todos) GetByID(_ context.Context, userID, id string) (domain.Todo, error) {
	if err := r.fail(); err != nil {
		return domain.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok || t.UserID != userID {
		return domain.Todo{}, domain.ErrNotFound
	}
	return t, nil
}

func (r *Todos) Create(_ context.Context, t domain.Todo) (domain.Todo, error) {
	if err := r.fail(); err != nil {
		return domain.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := t.ValidateSchedule(); err != nil {
		return domain.Todo{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.Clock.now()
	t.CreatedAt = &now
	t.CompletedAt = nil
	if t.Completed {
		t.CompletedAt = &now
	}
	if t.Tags == nil {
		t.Tags = []domain.Tag{}
	}
	if t.SubTasks == nil {
		t.SubTasks = []domain.SubTask{}
	}
	r.rows[t.ID] = t
	return t, nil
}

func (r *Todos) Update(_ context.Context, userID, id string, patch domain.TodoPatch) (domain.Todo, error) {
	if err := r.fail(); err != nil {
		return domain.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.UserID != userID {
		return domain.Todo{}, domain.ErrNotFound
	}
	next := patch.Apply(cur)
	if err := next.ValidateSchedule(); err != nil {
		return domain.Todo{}, err
	}
	if patch.Completed != nil {
		switch {
		case !next.Completed:
			next.CompletedAt = nil
		case cur.CompletedAt == nil:
			now := r.Clock.now()
			next.CompletedAt = &now
		}
	}
	if patch.Reminder.Set {
		delete(r.reminded, id)
	}
	r.rows[id] = next
	return next, nil
}

func (r *Todos) Delete(_ context.Context, userID, id string) error {
	if err := r.fail(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.rows[id]; ok && t.UserID == userID {
		delete(r.rows, id)
	}
	return nil
}

func (r *Todos) DueReminders(_ context.Context, now time.Time) ([]domain.Todo, error) {
	if err := r.fail(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Todo{}
	for _, t := range r.rows {
		if t.Reminder != nil && !t.Reminder.After(now) && !t.Completed && !r.reminded[t.ID] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reminder.Before(*out[j].Reminder) })
	return out, nil
}

func (r *Todos) MarkReminded(_ context.Context, id string) error {
	if err := r.fail(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	r.reminded[id] = true
	return nil
}

// Put stores t as-is, bypassing server-side timestamps.
func (r *Todos) Put(t domain.Todo) {
	r.mu.Lock()
	r.rows[t.ID] = t
	r.mu.Unlock()
}

// All returns every stored todo in no particular order.
func (r *Todos) All() []domain.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Todo, 0, len(r.rows))
	for _, t := range r.rows {
		out = append(out, t)
	}
	return out
}

// Lists is an in-memory repo.ListRepo.
type Lists struct {
	mu    sync.Mutex
	rows  map[string]domain.List
	load  gate
	Clock Clock
	Err   error
}

func NewLists() *Lists {
	return &Lists{rows: make(map[string]domain.List)}
}

func (r *Lists) fail() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

func (r *Lists) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

// Hold makes ListVisibleTo block after reading its rows until release is
// called or the caller's ctx ends.
func (r *Lists) Hold() (release func()) { return r.load.hold() }

// Waiting counts ListVisibleTo calls blocked by Hold.
func (r *Lists) Waiting() int { return r.load.count() }

func (r *Lists) ListVisibleTo(ctx context.Context, email string) ([]domain.List, error) {
	if err := r.fail(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	out := []domain.List{}
	for _, l := range r.rows {
		if l.VisibleTo(email) {
			out = append(out, l)
		}
	}
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt) })
	if err := r.load.wait(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Lists) GetByID(_ context.Context, id string) (domain.List, error) {
	if err := r.fail(); err != nil {
		return domain.List{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return domain.List{}, domain.ErrNotFound
	}
	return l, nil
}

func (r *Lists) Create(_ context.Context, l domain.List) (domain.List, error) {
	if err := r.fail(); err != nil {
		return domain.List{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := r.Clock.now()
	l.CreatedAt = &now
	if l.SharedWith == nil {
		l.SharedWith = []string{}
	}
	r.rows[l.ID] = l
	return l, nil
}

func (r *Lists) Update(_ context.Context, owner, id string, patch domain.ListPatch) (domain.List, error) {
	if err := r.fail(); err != nil {
		return domain.List{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.Owner != owner {
		return domain.List{}, domain.ErrNotFound
	}
	next := patch.Apply(cur)
	r.rows[id] = next
	return next, nil
}

func (r *Lists) Delete(_ context.Context, owner, id string) error {
	if err := r.fail(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.rows[id]; ok && l.Owner == owner {
		delete(r.rows, id)
	}
	return nil
}

func (r *Lists) AddCollaborator(_ context.Context, owner, id, email string) (domain.List, error) {
	if err := r.fail(); err != nil {
		return domain.List{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.Owner != owner {
		return domain.List{}, domain.ErrNotFound
	}
	if !slices.Contains(l.SharedWith, email) {
		l.SharedWith = append(slices.Clone(l.SharedWith), email)
	}
	r.rows[id] = l
	return l, nil
}

// Categories is an in-memory repo.CategoryRepo.
type Categories struct {
	mu   sync.Mutex
	rows map[string]domain.Category
	Err  error
}

func NewCategories() *Categories {
	return &Categories{rows: make(map[string]domain.Category)}
}

func (r *Categories) ListByOwner(_ context.Context, userID string) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []domain.Category{}
	for _, c := range r.rows {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Categories) Create(_ context.Context, c domain.Category) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return domain.Category{}, r.Err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.rows[c.ID] = c
	return c, nil
}

func (r *Categories) Update(_ context.Context, userID, id string, patch domain.CategoryPatch) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return domain.Category{}, r.Err
	}
	cur, ok := r.rows[id]
	if !ok || cur.UserID != userID {
		return domain.Category{}, domain.ErrNotFound
	}
	next := patch.Apply(cur)
	r.rows[id] = next
	return next, nil
}

func (r *Categories) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if c, ok := r.rows[id]; ok && c.UserID == userID {
		delete(r.rows, id)
	}
	return nil
}

// Notifications is an in-memory repo.NotificationRepo.
type Notifications struct {
	mu    sync.Mutex
	rows  []domain.Notification
	Clock Clock
	Err   error
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (r *Notifications) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

func (r *Notifications) ListForRecipient(_ context.Context, email string) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []domain.Notification{}
	// rows are kept oldest first; the inbox is newest first.
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].ToEmail == email {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *Notifications) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return domain.Notification{}, r.Err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := r.Clock.now()
	n.CreatedAt = &now
	n.Read = false
	r.rows = append(r.rows, n)
	return n, nil
}

func (r *Notifications) MarkRead(_ context.Context, email, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].ToEmail == email {
			r.rows[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// All returns every stored notification, oldest first.
func (r *Notifications) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rows)
}

// Users is an in-memory repo.UserRepo.
type Users struct {
	mu   sync.Mutex
	rows map[string]domain.User
}

func NewUsers() *Users {
	return &Users{rows: make(map[string]domain.User)}
}

func (r *Users) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *Users) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// Create fails with ErrDuplicateEmail when the e-mail is taken.
func (r *Users) Create(_ context.Context, email, passwordHash string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return domain.User{}, ErrDuplicateEmail
		}
	}
	u := domain.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	r.rows[u.ID] = u
	return u, nil
}

func (r *Users) EnsureExternal(ctx context.Context, email string) (domain.User, error) {
	if u, err := r.GetByEmail(ctx, email); err == nil {
		return u, nil
	}
	return r.Create(ctx, email, "")
}
