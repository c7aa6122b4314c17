package taskendpoint

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskservice"
	"github.com/sony/gobreaker"
)

type Set struct {
	AllTasksEndpoint   endpoint.Endpoint
	TasksEndpoint      endpoint.Endpoint
	TaskEndpoint       endpoint.Endpoint
	CreateTaskEndpoint endpoint.Endpoint
	UpdateTaskEndpoint endpoint.Endpoint
	DeleteTaskEndpoint endpoint.Endpoint
}

// New builds the endpoint set. Every endpoint except AllTasks is wrapped by
// authenticate, which must place an authsvc.Identity in the context.
func New(svc taskservice.Service, authenticate endpoint.Middleware, limiter ratelimit.Allower, logger log.Logger) Set {
	var allTasksEndpoint endpoint.Endpoint
	{
		allTasksEndpoint = MakeAllTasksEndpoint(svc)
		allTasksEndpoint = breaker("AllTasks")(allTasksEndpoint)
		allTasksEndpoint = ratelimit.NewErroringLimiter(limiter)(allTasksEndpoint)
		allTasksEndpoint = LoggingMiddleware(log.With(logger, "method", "AllTasks"))(allTasksEndpoint)
	}
	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = breaker("Tasks")(tasksEndpoint)
		tasksEndpoint = authenticate(tasksEndpoint)
		tasksEndpoint = ratelimit.NewErroringLimiter(limiter)(tasksEndpoint)
		tasksEndpoint = LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}
	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = MakeTaskEndpoint(svc)
		taskEndpoint = breaker("Task")(taskEndpoint)
		taskEndpoint = authenticate(taskEndpoint)
		taskEndpoint = ratelimit.NewErroringLimiter(limiter)(taskEndpoint)
		taskEndpoint = LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = breaker("CreateTask")(createTaskEndpoint)
		createTaskEndpoint = authenticate(createTaskEndpoint)
		createTaskEndpoint = ratelimit.NewErroringLimiter(limiter)(createTaskEndpoint)
		createTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}
	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = MakeUpdateTaskEndpoint(svc)
		updateTaskEndpoint = breaker("UpdateTask")(updateTaskEndpoint)
		updateTaskEndpoint = authenticate(updateTaskEndpoint)
		updateTaskEndpoint = ratelimit.NewErroringLimiter(limiter)(updateTaskEndpoint)
		updateTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}
	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = breaker("DeleteTask")(deleteTaskEndpoint)
		deleteTaskEndpoint = authenticate(deleteTaskEndpoint)
		deleteTaskEndpoint = ratelimit.NewErroringLimiter(limiter)(deleteTaskEndpoint)
		deleteTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	return Set{
		AllTasksEndpoint:   allTasksEndpoint,
		TasksEndpoint:      tasksEndpoint,
		TaskEndpoint:       taskEndpoint,
		CreateTaskEndpoint: createTaskEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
	}
}

// breaker trips on store failures only. Domain errors travel inside the
// response and never reach it.
func breaker(name string) endpoint.Middleware {
	return circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
	}))
}

func MakeAllTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		_ = request.(AllTasksRequest)
		t, err := s.AllTasks(ctx)
		if failure(err) {
			return nil, err
		}
		return TasksResponse{Tasks: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.IdentityFromContext(ctx)
		if !ok {
			return nil, authsvc.ErrUnauthenticated
		}

		_ = request.(TasksRequest)
		t, err := s.Tasks(ctx, id)
		if failure(err) {
			return nil, err
		}
		return TasksResponse{Tasks: t, Err: err}, nil
	}
}

func MakeTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.IdentityFromContext(ctx)
		if !ok {
			return nil, authsvc.ErrUnauthenticated
		}

		req := request.(TaskRequest)
		if req.Err != nil {
			return TaskResponse{Err: req.Err}, nil
		}
		t, err := s.Task(ctx, id, req.TaskID)
		if failure(err) {
			return nil, err
		}
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeCreateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.IdentityFromContext(ctx)
		if !ok {
			return nil, authsvc.ErrUnauthenticated
		}

		req := request.(CreateTaskRequest)
		if req.Err != nil {
			return CreateTaskResponse{Err: req.Err}, nil
		}
		t, err := s.CreateTask(ctx, id, req.fields())
		if failure(err) {
			return nil, err
		}
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.IdentityFromContext(ctx)
		if !ok {
			return nil, authsvc.ErrUnauthenticated
		}

		req := request.(UpdateTaskRequest)
		if req.Err != nil {
			return UpdateTaskResponse{Err: req.Err}, nil
		}
		t, err := s.UpdateTask(ctx, id, req.TaskID, req.fields())
		if failure(err) {
			return nil, err
		}
		return UpdateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.IdentityFromContext(ctx)
		if !ok {
			return nil, authsvc.ErrUnauthenticated
		}

		req := request.(DeleteTaskRequest)
		if req.Err != nil {
			return DeleteTaskResponse{Err: req.Err}, nil
		}
		err = s.DeleteTask(ctx, id, req.TaskID)
		if failure(err) {
			return nil, err
		}
		return DeleteTaskResponse{Err: err}, nil
	}
}

// failure reports whether err is an infrastructure error rather than one of
// the task domain's own outcomes.
func failure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, tasksvc.ErrTaskNotFound),
		errors.Is(err, tasksvc.ErrInvalidTask),
		errors.Is(err, tasksvc.ErrMalformedRequest),
		errors.Is(err, tasksvc.ErrInvalidArgument):
		return false
	}
	return true
}

var (
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = UpdateTaskResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
)

type AllTasksRequest struct{}

type TasksRequest struct{}

type TasksResponse struct {
	Tasks []tasksvc.Task `json:"tasks"`
	Err   error          `json:"-"`
}

func (r TasksResponse) Failed() error { return r.Err }

// Request structs carry in Err whatever the transport failed to decode. It
// is reported only once the caller has been authenticated.
type TaskRequest struct {
	TaskID uint64
	Err    error
}

type TaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r TaskResponse) Failed() error { return r.Err }

// CreateTaskRequest has no owner field; the owner always comes from the
// authenticated identity. Complete is a pointer so that a body without it
// can be told apart from one sending false.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    *bool  `json:"complete"`
	Err         error  `json:"-"`
}

func (r CreateTaskRequest) fields() tasksvc.Fields {
	return tasksvc.Fields{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Complete:    r.Complete != nil && *r.Complete,
	}
}

type CreateTaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r CreateTaskResponse) Failed() error { return r.Err }

type UpdateTaskRequest struct {
	TaskID      uint64 `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    *bool  `json:"complete"`
	Err         error  `json:"-"`
}

func (r UpdateTaskRequest) fields() tasksvc.Fields {
	return tasksvc.Fields{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Complete:    r.Complete != nil && *r.Complete,
	}
}

type UpdateTaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r UpdateTaskResponse) Failed() error { return r.Err }

type DeleteTaskRequest struct {
	TaskID uint64
	Err    error
}

type DeleteTaskResponse struct {
	Err error `json:"-"`
}

func (r DeleteTaskResponse) Failed() error { return r.Err }
