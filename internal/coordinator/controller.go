// Package coordinator sequences user intents into remote task store calls and
// reconciles the in-memory task list from each call's result.
//
// A Controller owns all client state: the task list, the loading flag, the
// add-input buffer and the edit session. Views read snapshots of it and feed it
// gestures; they never mutate tasks directly.
//
// Every operation is split in two halves. Prepare* reads state and returns a Call,
// which talks to the store without touching controller state. Apply reconciles the
// Call's Result. Event-loop views (the TUI) run the Call off the loop and Apply on it;
// everyone else uses the synchronous wrappers (Fetch, Add, Toggle, ...).
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"todo/internal/editsession"
	"todo/internal/service"
	"todo/internal/tasklist"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrEmptyText is returned when add or save is requested with blank text.
	// No store call is made.
	ErrEmptyText = errors.New("task text required")

	// ErrUnknownTask is returned when an operation names a task the list does not hold.
	ErrUnknownTask = errors.New("unknown task")

	// ErrNoEditSession is returned by SaveEdit when nothing is being edited.
	ErrNoEditSession = errors.New("no task is being edited")
)

// Call performs one store operation. It does not touch controller state.
type Call func(ctx context.Context) Result

// Result is the outcome of a Call, handed back to Apply.
type Result struct {
	Op    string
	ID    string
	Task  service.Task
	Tasks []service.Task
	Err   error
}

// Controller is the single owner of client-side task state.
// It is safe for concurrent use; the lock is never held across a store call,
// so results are applied last-writer-wins.
type Controller struct {
	store   service.Service
	log     logrus.FieldLogger
	timeout time.Duration

	mu      sync.Mutex
	tasks   *tasklist.List
	edit    editsession.Tracker
	loading bool
	input   string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the operational logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithTimeout sets the per-call store timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// New creates a Controller in the loading state with an empty list.
func New(store service.Service, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		log:     logrus.StandardLogger(),
		timeout: DefaultTimeout,
		tasks:   tasklist.New(),
		loading: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run wraps fn with the per-call timeout.
func (c *Controller) run(ctx context.Context, fn func(ctx context.Context) Result) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// PrepareFetch returns the initial list call.
func (c *Controller) PrepareFetch() Call {
	store := c.store
	return func(ctx context.Context) Result {
		return c.run(ctx, func(ctx context.Context) Result {
			tasks, err := store.ListTasks(ctx)
			return Result{Op: service.OpList, Tasks: tasks, Err: err}
		})
	}
}

// PrepareAdd returns the create call for the current input.
// Returns false when the trimmed input is empty.
func (c *Controller) PrepareAdd() (Call, bool) {
	c.mu.Lock()
	text, ok := service.NormalizeText(c.input)
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	store := c.store
	return func(ctx context.Context) Result {
		return c.run(ctx, func(ctx context.Context) Result {
			task, err := store.CreateTask(ctx, text)
			return Result{Op: service.OpCreate, ID: task.ID, Task: task, Err: err}
		})
	}, true
}

// PrepareToggle returns the update call flipping the completion of task id.
// The request carries the task's current text along with the flipped flag.
func (c *Controller) PrepareToggle(id string) (Call, bool) {
	c.mu.Lock()
	task, ok := c.tasks.Get(id)
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	task.Completed = !task.Completed
	patch := service.FullPatch(task)
	store := c.store
	return func(ctx context.Context) Result {
		return c.run(ctx, func(ctx context.Context) Result {
			updated, err := store.UpdateTask(ctx, id, patch)
			return Result{Op: service.OpUpdate, ID: id, Task: updated, Err: err}
		})
	}, true
}

// PrepareDelete returns the delete call for task id.
func (c *Controller) PrepareDelete(id string) Call {
	store := c.store
	return func(ctx context.Context) Result {
		return c.run(ctx, func(ctx context.Context) Result {
			err := store.DeleteTask(ctx, id)
			return Result{Op: service.OpDelete, ID: id, Err: err}
		})
	}
}

// PrepareSave returns the update call for the active edit session.
// Only the trimmed draft text is sent. Returns false when idle or when the draft is blank;
// the session stays active either way.
func (c *Controller) PrepareSave() (Call, bool) {
	c.mu.Lock()
	session, active := c.edit.Active()
	c.mu.Unlock()
	if !active {
		return nil, false
	}
	text, ok := service.NormalizeText(session.Draft)
	if !ok {
		return nil, false
	}

	id := session.TargetID
	patch := service.TextPatch(text)
	store := c.store
	return func(ctx context.Context) Result {
		return c.run(ctx, func(ctx context.Context) Result {
			updated, err := store.UpdateTask(ctx, id, patch)
			return Result{Op: opSave, ID: id, Task: updated, Err: err}
		})
	}, true
}

// opSave distinguishes an edit-save from a toggle; both are store updates.
const opSave = "save"

// Apply reconciles state from a Call's result.
// A failed call is logged and leaves tasks untouched; the store error is returned.
func (c *Controller) Apply(r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Op == service.OpList {
		c.loading = false
	}

	if r.Err != nil {
		op := r.Op
		if op == opSave {
			op = service.OpUpdate
		}
		err := service.WrapStoreError(op, r.Err)
		entry := c.log.WithError(err).WithField("op", op)
		if r.ID != "" {
			entry = entry.WithField("task_id", r.ID)
		}
		entry.Error(failureMessage(r.Op))
		return err
	}

	switch r.Op {
	case service.OpList:
		c.tasks.Load(r.Tasks)
		c.log.WithField("count", len(r.Tasks)).Debug("tasks loaded")
	case service.OpCreate:
		if !c.tasks.Insert(r.Task) {
			c.log.WithField("task_id", r.Task.ID).Warn("store returned a duplicate task id, keeping existing task")
		}
		c.input = ""
	case service.OpUpdate:
		c.tasks.Replace(r.ID, r.Task)
	case opSave:
		c.tasks.Replace(r.ID, r.Task)
		c.edit.EndIf(r.ID)
	case service.OpDelete:
		c.tasks.Remove(r.ID)
	}
	return nil
}

func failureMessage(op string) string {
	switch op {
	case service.OpList:
		return "error fetching tasks"
	case service.OpCreate:
		return "error adding task"
	case service.OpDelete:
		return "error deleting task"
	default:
		return "error updating task"
	}
}

// Fetch loads the list from the store. The loading flag is cleared whether or not it succeeds.
func (c *Controller) Fetch(ctx context.Context) error {
	return c.Apply(c.PrepareFetch()(ctx))
}

// Add creates a task from the input buffer and clears the buffer on success.
func (c *Controller) Add(ctx context.Context) error {
	call, ok := c.PrepareAdd()
	if !ok {
		return ErrEmptyText
	}
	return c.Apply(call(ctx))
}

// Toggle flips the completion of task id.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	call, ok := c.PrepareToggle(id)
	if !ok {
		return ErrUnknownTask
	}
	return c.Apply(call(ctx))
}

// Delete removes task id from the store and, on success, from the list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	return c.Apply(c.PrepareDelete(id)(ctx))
}

// SaveEdit persists the draft of the active edit session and ends it on success.
func (c *Controller) SaveEdit(ctx context.Context) error {
	call, ok := c.PrepareSave()
	if !ok {
		if _, active := c.EditSession(); !active {
			return ErrNoEditSession
		}
		return ErrEmptyText
	}
	return c.Apply(call(ctx))
}

// StartEdit begins editing task id, seeding the draft with its text.
// Any active session is replaced. Returns false if id is unknown.
func (c *Controller) StartEdit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	task, ok := c.tasks.Get(id)
	if !ok {
		return false
	}
	c.edit.Start(task.ID, task.Text)
	return true
}

// SetDraft updates the draft of the active edit session.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit.SetDraft(text)
}

// CancelEdit ends the edit session and discards the draft. No store call is made.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit.End()
}

// EditSession returns the active edit session.
func (c *Controller) EditSession() (editsession.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit.Active()
}

// SetInput replaces the add-input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

// Input returns the add-input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Loading reports whether the initial fetch is still outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Tasks returns a copy of the task list in rendering order.
func (c *Controller) Tasks() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tasks.Tasks()
}

// TaskAt returns the task at position i (0-based) in rendering order.
func (c *Controller) TaskAt(i int) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tasks.At(i)
}

// Editing reports whether id is the task being edited.
func (c *Controller) Editing(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit.Editing(id)
}
