// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"tasksync/internal/service"
)

// FakeService is an in-memory implementation of service.Service and
// service.Authenticator for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64
	calls  []string
	users  map[string]string

	// Error injection for testing
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	ToggleTaskErr error
	DeleteTaskErr error
	LoginErr      error
	SignupErr     error

	// ToggleUnknown makes ToggleTask answer without a completion value.
	ToggleUnknown bool

	// BeforeToggle, when set, runs inside ToggleTask before it answers.
	// Tests use it to look at optimistic state while the call is outstanding.
	BeforeToggle func(id service.ID)

	// LoginToken is the token handed out by Login. Defaults to "fake-token".
	LoginToken string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 100,
		users:  make(map[string]string),
	}
}

// AddTask adds a task with a numeric id.
func (f *FakeService) AddTask(id int64, title string, done service.Completion) {
	f.AddTaskWithID(service.IntID(id), title, done)
}

// AddTaskWithID adds a task with an arbitrary id.
func (f *FakeService) AddTaskWithID(id service.ID, title string, done service.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:          id,
		Title:       title,
		IsCompleted: done,
	})
}

// SetCompleted changes a stored task's completion behind the client's back.
func (f *FakeService) SetCompleted(id int64, done service.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(service.IntID(id)); i >= 0 {
		f.tasks[i].IsCompleted = done
	}
}

// AddUser registers an account for Login.
func (f *FakeService) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// Stored returns a copy of the backend's tasks.
func (f *FakeService) Stored() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns the names of the calls made so far, e.g. "toggle 5".
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeService) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *FakeService) index(id service.ID) int {
	for i, t := range f.tasks {
		if t.ID.Equal(id) {
			return i
		}
	}
	return -1
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Stored(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("create %s", draft.Title)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := service.Task{
		ID:          service.IntID(f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		IsCompleted: service.Number(0),
	}
	f.tasks = append([]service.Task{t}, f.tasks...)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, prev service.Task, draft service.Draft) (service.Task, error) {
	f.record("update %s", prev.ID)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(prev.ID)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	f.tasks[i].Title = draft.Title
	f.tasks[i].Description = draft.Description
	return f.tasks[i], nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id service.ID) (service.ToggleResult, error) {
	f.record("toggle %s", id)
	if f.BeforeToggle != nil {
		f.BeforeToggle(id)
	}
	if f.ToggleTaskErr != nil {
		return service.ToggleResult{}, f.ToggleTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.ToggleResult{}, service.ErrNotFound
	}
	f.tasks[i].IsCompleted = f.tasks[i].IsCompleted.Flip()
	if f.ToggleUnknown {
		return service.ToggleResult{}, nil
	}
	return service.ToggleResult{IsCompleted: f.tasks[i].IsCompleted, Known: true}, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id service.ID) error {
	f.record("delete %s", id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// Login implements service.Authenticator.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (string, string, error) {
	f.record("login %s", creds.Username)
	if f.LoginErr != nil {
		return "", "", f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if pw, ok := f.users[creds.Username]; !ok || pw != creds.Password {
		return "", "", fmt.Errorf("invalid credentials: %w", service.ErrAuthExpired)
	}
	token := f.LoginToken
	if token == "" {
		token = "fake-token"
	}
	return token, "", nil
}

// Signup implements service.Authenticator.
func (f *FakeService) Signup(ctx context.Context, creds service.Credentials) (string, error) {
	f.record("signup %s", creds.Username)
	if f.SignupErr != nil {
		return "", f.SignupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[creds.Username]; exists {
		return "", fmt.Errorf("user %s already exists", strconv.Quote(creds.Username))
	}
	f.users[creds.Username] = creds.Password
	return "User created", nil
}
