package authtransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/usersvc"
)

// NewHTTPHandler mounts the login and registration routes. cookies may be nil,
// in which case login only returns the token in the body. secure sets the
// Secure attribute on the access_token cookie.
func NewHTTPHandler(endpoints authendpoint.Set, cookies *securecookie.SecureCookie, secure bool, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPLoginResponse(cookies, secure),
		options...,
	)

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		encodeHTTPRegisterResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/auth/token").Handler(loginHandler)
	r.Methods("POST").Path("/auth/create/user").Handler(registerHandler)

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
	case errors.Is(err, usersvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, usersvc.ErrInvalidArgument), errors.Is(err, ErrMalformedRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usersvc.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

var ErrMalformedRequest = errors.New("malformed request body")

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, ErrMalformedRequest
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, ErrMalformedRequest
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")

	return req, nil
}

func encodeHTTPLoginResponse(cookies *securecookie.SecureCookie, secure bool) httptransport.EncodeResponseFunc {
	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		resp := response.(authendpoint.LoginResponse)
		if resp.Err != nil {
			errorEncoder(ctx, resp.Err, w)
			return nil
		}

		if cookies != nil {
			value, err := cookies.Encode(CookieName, resp.AccessToken)
			if err != nil {
				return err
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    value,
				Path:     "/",
				Expires:  resp.ExpiresAt,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		return json.NewEncoder(w).Encode(resp)
	}
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedRequest
	}
	return req, nil
}

func encodeHTTPRegisterResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(authendpoint.RegisterResponse)
	if resp.Err != nil {
		errorEncoder(ctx, resp.Err, w)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(resp.User)
}
