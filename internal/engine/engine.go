// Package engine owns the in-memory task list of a view and applies
// mutations to it: toggles optimistically, creates, edits and deletes only
// after the backend confirms.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"tasksync/internal/logging"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// Engine holds the task list of one view. Its methods are safe for concurrent
// use; the lock is never held across a backend call.
type Engine struct {
	svc      service.Service
	sess     *session.Handler
	logger   *slog.Logger
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks []service.Task
	// inflight tracks the outstanding toggles of each task.
	inflight map[service.ID]*pending
	seq      uint64
}

// pending is the toggle state of one task. base is the last value the
// backend is known to hold; tokens lists the outstanding toggles in the
// order they were sent. The visible value is base flipped once per
// outstanding toggle.
type pending struct {
	base   service.Completion
	tokens []uint64
}

func (p *pending) visible() service.Completion {
	c := p.base
	for range p.tokens {
		c = c.Flip()
	}
	return c
}

// retire drops token, and with upTo every older token, from the
// outstanding list. It reports whether token was still outstanding.
func (p *pending) retire(token uint64, upTo bool) bool {
	if !slices.Contains(p.tokens, token) {
		return false
	}
	p.tokens = slices.DeleteFunc(p.tokens, func(t uint64) bool {
		return t == token || (upTo && t < token)
	})
	return true
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver sets a transition observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an Engine bound to a view whose lifetime is parent. Closing the
// engine, or cancelling parent, closes the view.
func New(parent context.Context, svc service.Service, sess *session.Handler, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(parent)
	e := &Engine{
		svc:      svc,
		sess:     sess,
		logger:   logging.Discard(),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[service.ID]*pending),
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.With("component", "engine")
	return e
}

// Close tears down the view. Outstanding calls are cancelled and any result
// that still arrives is ignored.
func (e *Engine) Close() {
	e.cancel()
}

// Closed reports whether the view has been torn down.
func (e *Engine) Closed() bool {
	return e.ctx.Err() != nil
}

// Tasks returns a copy of the current list.
func (e *Engine) Tasks() []service.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]service.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Find returns the task with the given id.
func (e *Engine) Find(id service.ID) (service.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.index(id); i >= 0 {
		return e.tasks[i], true
	}
	return service.Task{}, false
}

// At returns the task at a 1-based row.
func (e *Engine) At(row int) (service.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if row < 1 || row > len(e.tasks) {
		return service.Task{}, false
	}
	return e.tasks[row-1], true
}

// index must be called with mu held.
func (e *Engine) index(id service.ID) int {
	for i := range e.tasks {
		if e.tasks[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}

func (e *Engine) notify(t Transition) {
	if e.observer != nil {
		e.observer(t)
	}
}

// call derives a context that ends with either ctx or the view.
func (e *Engine) call(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// fail routes a backend error through the session policy and logs the rest.
func (e *Engine) fail(op Op, id service.ID, err error) {
	if e.sess != nil && e.sess.Handle(err) {
		return
	}
	e.logger.Debug("call failed", "op", string(op), "id", id.String(), "error", err)
}

// Load replaces the list with the backend's. Duplicate ids keep their first
// occurrence.
func (e *Engine) Load(ctx context.Context) error {
	if e.Closed() {
		return ErrViewClosed
	}
	callCtx, done := e.call(ctx)
	tasks, err := e.svc.ListTasks(callCtx)
	done()
	if e.Closed() {
		return ErrViewClosed
	}
	if err != nil {
		e.fail(OpLoad, service.ID{}, err)
		return err
	}

	seen := make(map[service.ID]bool, len(tasks))
	unique := tasks[:0:0]
	for _, t := range tasks {
		if seen[t.ID] {
			e.logger.Warn("dropping duplicate task id", "id", t.ID.String())
			continue
		}
		seen[t.ID] = true
		unique = append(unique, t)
	}

	e.mu.Lock()
	e.tasks = unique
	e.inflight = make(map[service.ID]*pending)
	e.mu.Unlock()
	e.notify(Transition{Op: OpLoad, State: StateConfirmed})
	return nil
}

// Toggle flips the task's done state immediately and asks the backend to do
// the same. The backend's answer overwrites the local value; on failure the
// last value the backend confirmed is restored exactly. An answer for a
// toggle that was sent before an already answered one is ignored.
func (e *Engine) Toggle(ctx context.Context, id service.ID) (service.Task, error) {
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}

	e.mu.Lock()
	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	prev := e.tasks[i].IsCompleted
	e.tasks[i].IsCompleted = prev.Flip()
	e.seq++
	token := e.seq
	p, ok := e.inflight[id]
	if !ok {
		p = &pending{base: prev}
		e.inflight[id] = p
	}
	p.tokens = append(p.tokens, token)
	e.mu.Unlock()
	e.notify(Transition{Op: OpToggle, ID: id, State: StateApplied})

	callCtx, done := e.call(ctx)
	res, err := e.svc.ToggleTask(callCtx, id)
	done()
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}

	if err != nil {
		e.settle(id, token, false, service.ToggleResult{})
		e.notify(Transition{Op: OpToggle, ID: id, State: StateRolledBack, Err: err})
		e.fail(OpToggle, id, err)
		return e.current(id), err
	}

	e.settle(id, token, true, res)
	e.notify(Transition{Op: OpToggle, ID: id, State: StateConfirmed})
	return e.current(id), nil
}

// settle records the outcome of the toggle identified by token. A known
// answer reflects every toggle sent before it, so those are retired too.
// While other toggles are still outstanding the visible value assumes they
// will succeed.
func (e *Engine) settle(id service.ID, token uint64, ok bool, res service.ToggleResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, tracked := e.inflight[id]
	if !tracked || !p.retire(token, ok && res.Known) {
		e.logger.Debug("ignoring superseded toggle result", "id", id.String())
		return
	}
	switch {
	case ok && res.Known:
		p.base = res.IsCompleted
	case ok:
		p.base = p.base.Flip()
	}
	if len(p.tokens) == 0 {
		delete(e.inflight, id)
	}
	if i := e.index(id); i >= 0 {
		e.tasks[i].IsCompleted = p.visible()
	}
}

func (e *Engine) current(id service.ID) service.Task {
	t, _ := e.Find(id)
	return t
}

func validateDraft(d service.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "required"}
	}
	return nil
}

// Create asks the backend to create a task and, once confirmed, puts it at
// the front of the list. Nothing changes locally on failure.
func (e *Engine) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	if err := validateDraft(draft); err != nil {
		return service.Task{}, err
	}
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}

	callCtx, done := e.call(ctx)
	created, err := e.svc.CreateTask(callCtx, draft)
	done()
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}
	if err != nil {
		e.notify(Transition{Op: OpCreate, State: StateFailed, Err: err})
		e.fail(OpCreate, service.ID{}, err)
		return service.Task{}, err
	}

	e.mu.Lock()
	if i := e.index(created.ID); i >= 0 {
		e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
	}
	e.tasks = append([]service.Task{created}, e.tasks...)
	e.mu.Unlock()
	e.notify(Transition{Op: OpCreate, ID: created.ID, State: StateConfirmed})
	return created, nil
}

// Edit updates title and description once the backend confirms, replacing
// the task in place. On failure the list is untouched so the edit can be
// retried.
func (e *Engine) Edit(ctx context.Context, id service.ID, draft service.Draft) (service.Task, error) {
	if err := validateDraft(draft); err != nil {
		return service.Task{}, err
	}
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}
	prev, ok := e.Find(id)
	if !ok {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}

	callCtx, done := e.call(ctx)
	updated, err := e.svc.UpdateTask(callCtx, prev, draft)
	done()
	if e.Closed() {
		return service.Task{}, ErrViewClosed
	}
	if err != nil {
		e.notify(Transition{Op: OpEdit, ID: id, State: StateFailed, Err: err})
		e.fail(OpEdit, id, err)
		return prev, err
	}

	e.mu.Lock()
	if i := e.index(id); i >= 0 {
		e.tasks[i] = updated
		kept := e.tasks[:0]
		for j, t := range e.tasks {
			if j != i && t.ID.Equal(updated.ID) {
				continue
			}
			kept = append(kept, t)
		}
		e.tasks = kept
	}
	e.mu.Unlock()
	e.notify(Transition{Op: OpEdit, ID: id, State: StateConfirmed})
	return updated, nil
}

// Delete removes the task once the backend confirms.
func (e *Engine) Delete(ctx context.Context, id service.ID) error {
	if e.Closed() {
		return ErrViewClosed
	}
	if _, ok := e.Find(id); !ok {
		return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}

	callCtx, done := e.call(ctx)
	err := e.svc.DeleteTask(callCtx, id)
	done()
	if e.Closed() {
		return ErrViewClosed
	}
	if err != nil {
		e.notify(Transition{Op: OpDelete, ID: id, State: StateFailed, Err: err})
		e.fail(OpDelete, id, err)
		return err
	}

	e.mu.Lock()
	if i := e.index(id); i >= 0 {
		e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
	}
	delete(e.inflight, id)
	e.mu.Unlock()
	e.notify(Transition{Op: OpDelete, ID: id, State: StateConfirmed})
	return nil
}
