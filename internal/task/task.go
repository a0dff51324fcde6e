package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskTypeResolveCard resolves one deck-list name into its printings.
const TaskTypeResolveCard = "resolve_card"

// Task is one unit of work run by a WorkerPool.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

// Source hands tasks to workers. The channel is closed once no more tasks
// will arrive.
type Source interface {
	Tasks() <-chan Task
}

// FuncTask wraps a closure as a Task.
type FuncTask struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

// NewFuncTask returns a task of type typ with a fresh ID that runs fn.
func NewFuncTask(typ string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: uuid.New(), typ: typ, fn: fn}
}

func (t *FuncTask) ID() uuid.UUID { return t.id }

func (t *FuncTask) Type() string { return t.typ }

func (t *FuncTask) Execute(ctx context.Context) error { return t.fn(ctx) }
