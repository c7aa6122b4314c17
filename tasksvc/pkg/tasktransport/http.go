package tasktransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskendpoint"
	"github.com/sony/gobreaker"
)

// Envelope acknowledges a successful create, update or delete.
type Envelope struct {
	Status      int    `json:"status"`
	Transaction string `json:"transaction"`
}

// NewHTTPHandler mounts the /todos routes. The bearer token is taken from the
// Authorization header, or from the access_token cookie when cookies is
// non-nil and no header is sent. publicList controls whether the
// unauthenticated GET /todos/ listing is served at all.
func NewHTTPHandler(endpoints taskendpoint.Set, cookies *securecookie.SecureCookie, publicList bool, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}
	authOptions := append(options,
		httptransport.ServerBefore(kitjwt.HTTPToContext()),
		httptransport.ServerBefore(authtransport.CookieToContext(cookies)),
	)

	allTasksHandler := httptransport.NewServer(
		endpoints.AllTasksEndpoint,
		decodeHTTPAllTasksRequest,
		encodeHTTPTasksResponse,
		options...,
	)

	tasksHandler := httptransport.NewServer(
		endpoints.TasksEndpoint,
		decodeHTTPTasksRequest,
		encodeHTTPTasksResponse,
		authOptions...,
	)

	taskHandler := httptransport.NewServer(
		endpoints.TaskEndpoint,
		decodeHTTPTaskRequest,
		encodeHTTPTaskResponse,
		authOptions...,
	)

	createTaskHandler := httptransport.NewServer(
		endpoints.CreateTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encodeHTTPCreateTaskResponse,
		authOptions...,
	)

	updateTaskHandler := httptransport.NewServer(
		endpoints.UpdateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		encodeHTTPEnvelopeResponse(http.StatusOK),
		authOptions...,
	)

	deleteTaskHandler := httptransport.NewServer(
		endpoints.DeleteTaskEndpoint,
		decodeHTTPDeleteTaskRequest,
		encodeHTTPEnvelopeResponse(http.StatusOK),
		authOptions...,
	)

	r := mux.NewRouter()

	if publicList {
		r.Methods("GET").Path("/todos/").Handler(allTasksHandler)
		r.Methods("GET").Path("/todos").Handler(allTasksHandler)
	}
	r.Methods("GET").Path("/todos/user").Handler(tasksHandler)
	r.Methods("GET").Path("/todos/{task_id:[0-9]+}").Handler(taskHandler)
	r.Methods("POST").Path("/todos/create").Handler(createTaskHandler)
	r.Methods("PUT").Path("/todos/update/{task_id:[0-9]+}").Handler(updateTaskHandler)
	r.Methods("DELETE").Path("/todos/delete/{task_id:[0-9]+}").Handler(deleteTaskHandler)

	return r
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, tasksvc.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, tasksvc.ErrInvalidTask),
		errors.Is(err, tasksvc.ErrMalformedRequest),
		errors.Is(err, tasksvc.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeHTTPAllTasksRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return taskendpoint.AllTasksRequest{}, nil
}

func decodeHTTPTasksRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return taskendpoint.TasksRequest{}, nil
}

// The decoders below never fail on client input. A bad id or body is put in
// the request's Err and surfaces only after authentication.

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFrom(r)
	if errors.Is(err, ErrBadRouting) {
		return nil, err
	}

	return taskendpoint.TaskRequest{TaskID: taskID, Err: err}, nil
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req taskendpoint.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return taskendpoint.CreateTaskRequest{Err: malformed(err)}, nil
	}
	req.Err = requireComplete(req.Complete)

	return req, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFrom(r)
	if errors.Is(err, ErrBadRouting) {
		return nil, err
	}
	if err != nil {
		return taskendpoint.UpdateTaskRequest{Err: err}, nil
	}

	var req taskendpoint.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return taskendpoint.UpdateTaskRequest{TaskID: taskID, Err: malformed(err)}, nil
	}
	req.TaskID = taskID
	req.Err = requireComplete(req.Complete)

	return req, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFrom(r)
	if errors.Is(err, ErrBadRouting) {
		return nil, err
	}

	return taskendpoint.DeleteTaskRequest{TaskID: taskID, Err: err}, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", tasksvc.ErrMalformedRequest, err)
}

func requireComplete(complete *bool) error {
	if complete == nil {
		return fmt.Errorf("%w: complete is required", tasksvc.ErrInvalidTask)
	}
	return nil
}

// An id that overflows uint64 cannot name an existing task.
func taskIDFrom(r *http.Request) (uint64, error) {
	vars := mux.Vars(r)
	raw, ok := vars["task_id"]
	if !ok {
		return 0, ErrBadRouting
	}

	taskID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, tasksvc.ErrTaskNotFound
	}

	return taskID, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func encodeHTTPTasksResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(taskendpoint.TasksResponse)
	if resp.Err != nil {
		errorEncoder(ctx, resp.Err, w)
		return nil
	}

	tasks := resp.Tasks
	if tasks == nil {
		tasks = []tasksvc.Task{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(tasks)
}

func encodeHTTPTaskResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(taskendpoint.TaskResponse)
	if resp.Err != nil {
		errorEncoder(ctx, resp.Err, w)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(resp.Task)
}

func encodeHTTPCreateTaskResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(taskendpoint.CreateTaskResponse)
	if resp.Err == nil {
		w.Header().Set("Location", fmt.Sprintf("/todos/%d", resp.Task.ID))
	}
	return encodeHTTPEnvelopeResponse(http.StatusCreated)(ctx, w, response)
}

func encodeHTTPEnvelopeResponse(code int) httptransport.EncodeResponseFunc {
	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
			errorEncoder(ctx, f.Failed(), w)
			return nil
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		return json.NewEncoder(w).Encode(Envelope{Status: code, Transaction: "Successful"})
	}
}
