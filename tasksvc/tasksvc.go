package tasksvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Task struct {
	ID          uint64 `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Priority    int    `json:"priority" gorm:"not null;check:chk_todos_priority,priority > 0"`
	Complete    bool   `json:"complete" gorm:"not null;default:false"`
	OwnerID     uint64 `json:"owner_id" gorm:"not null;index"`
}

func (Task) TableName() string { return "todos" }

// Fields are the client-writable attributes of a Task. The owner is never
// part of them.
type Fields struct {
	Title       string
	Description string
	Priority    int
	Complete    bool
}

func (f Fields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if f.Priority <= 0 {
		return fmt.Errorf("%w: priority must be greater than zero", ErrInvalidTask)
	}
	return nil
}

// TaskRepository is the ownership-scoped task store. Every method except
// FindAll filters by ownerID, and a task owned by someone else is reported as
// ErrTaskNotFound.
type TaskRepository interface {
	FindAll(ctx context.Context) ([]Task, error)
	FindByOwner(ctx context.Context, ownerID uint64) ([]Task, error)
	Find(ctx context.Context, ownerID, taskID uint64) (Task, error)
	Create(ctx context.Context, ownerID uint64, f Fields) (Task, error)
	Update(ctx context.Context, ownerID, taskID uint64, f Fields) (Task, error)
	Delete(ctx context.Context, ownerID, taskID uint64) error
}

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidTask      = errors.New("invalid task")
	ErrMalformedRequest = errors.New("malformed request body")
	ErrTaskNotFound     = errors.New("todo not found")
)
