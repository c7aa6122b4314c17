package taskservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tasksvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) AllTasks(ctx context.Context) (t []tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "AllTasks",
			"count", len(t),
			"err", err,
		)
	}()
	return mw.next.AllTasks(ctx)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, id authsvc.Identity) (t []tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Tasks",
			"user_id", id.ID,
			"count", len(t),
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, id)
}

func (mw loggingMiddleware) Task(ctx context.Context, id authsvc.Identity, taskID uint64) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Task",
			"user_id", id.ID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.Task(ctx, id, taskID)
}

func (mw loggingMiddleware) CreateTask(ctx context.Context, id authsvc.Identity, f tasksvc.Fields) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"user_id", id.ID,
			"task_id", t.ID,
			"title", f.Title,
			"priority", f.Priority,
			"complete", f.Complete,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, id, f)
}

func (mw loggingMiddleware) UpdateTask(ctx context.Context, id authsvc.Identity, taskID uint64, f tasksvc.Fields) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTask",
			"user_id", id.ID,
			"task_id", taskID,
			"title", f.Title,
			"priority", f.Priority,
			"complete", f.Complete,
			"err", err,
		)
	}()
	return mw.next.UpdateTask(ctx, id, taskID, f)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, id authsvc.Identity, taskID uint64) (err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTask",
			"user_id", id.ID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.DeleteTask(ctx, id, taskID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) AllTasks(ctx context.Context) ([]tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "all_tasks").Add(1)
		mw.requestLatency.With("method", "all_tasks").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.AllTasks(ctx)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, id authsvc.Identity) ([]tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "tasks").Add(1)
		mw.requestLatency.With("method", "tasks").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Tasks(ctx, id)
}

func (mw instrumentingMiddleware) Task(ctx context.Context, id authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "task").Add(1)
		mw.requestLatency.With("method", "task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Task(ctx, id, taskID)
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, id authsvc.Identity, f tasksvc.Fields) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "create_task").Add(1)
		mw.requestLatency.With("method", "create_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.CreateTask(ctx, id, f)
}

func (mw instrumentingMiddleware) UpdateTask(ctx context.Context, id authsvc.Identity, taskID uint64, f tasksvc.Fields) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_task").Add(1)
		mw.requestLatency.With("method", "update_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateTask(ctx, id, taskID, f)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, id authsvc.Identity, taskID uint64) error {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "delete_task").Add(1)
		mw.requestLatency.With("method", "delete_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.DeleteTask(ctx, id, taskID)
}
