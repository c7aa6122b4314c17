package taskservice

import (
	"context"

	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tasksvc"
)

type Service interface {
	AllTasks(ctx context.Context) ([]tasksvc.Task, error)
	Tasks(ctx context.Context, id authsvc.Identity) ([]tasksvc.Task, error)
	Task(ctx context.Context, id authsvc.Identity, taskID uint64) (tasksvc.Task, error)
	CreateTask(ctx context.Context, id authsvc.Identity, f tasksvc.Fields) (tasksvc.Task, error)
	UpdateTask(ctx context.Context, id authsvc.Identity, taskID uint64, f tasksvc.Fields) (tasksvc.Task, error)
	DeleteTask(ctx context.Context, id authsvc.Identity, taskID uint64) error
}

func New(t tasksvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks tasksvc.TaskRepository
}

func NewBasicService(t tasksvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) AllTasks(ctx context.Context) ([]tasksvc.Task, error) {
	return s.tasks.FindAll(ctx)
}

func (s basicService) Tasks(ctx context.Context, id authsvc.Identity) ([]tasksvc.Task, error) {
	if id.ID == 0 {
		return nil, tasksvc.ErrInvalidArgument
	}
	return s.tasks.FindByOwner(ctx, id.ID)
}

func (s basicService) Task(ctx context.Context, id authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	if id.ID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return s.tasks.Find(ctx, id.ID, taskID)
}

func (s basicService) CreateTask(ctx context.Context, id authsvc.Identity, f tasksvc.Fields) (tasksvc.Task, error) {
	if id.ID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if err := f.Validate(); err != nil {
		return tasksvc.Task{}, err
	}
	return s.tasks.Create(ctx, id.ID, f)
}

func (s basicService) UpdateTask(ctx context.Context, id authsvc.Identity, taskID uint64, f tasksvc.Fields) (tasksvc.Task, error) {
	if id.ID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if err := f.Validate(); err != nil {
		return tasksvc.Task{}, err
	}
	if taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return s.tasks.Update(ctx, id.ID, taskID, f)
}

func (s basicService) DeleteTask(ctx context.Context, id authsvc.Identity, taskID uint64) error {
	if id.ID == 0 {
		return tasksvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return tasksvc.ErrTaskNotFound
	}
	return s.tasks.Delete(ctx, id.ID, taskID)
}
