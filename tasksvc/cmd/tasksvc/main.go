package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	"github.com/ichigozero/todokit/config"
	"github.com/ichigozero/todokit/database"
	taskgorm "github.com/ichigozero/todokit/tasksvc/db/gorm"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskservice"
	"github.com/ichigozero/todokit/tasksvc/pkg/tasktransport"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		level.Error(logger).Log("during", "LoadDotEnv", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load("tasksvc", os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		level.Error(logger).Log("during", "Load", "err", err)
		os.Exit(2)
	}

	{
		allow, _ := cfg.Level()
		logger = level.NewFilter(logger, allow)
	}

	db, err := database.Open(database.Options{
		URL:          cfg.DatabaseURL,
		SQLitePath:   cfg.SQLitePath,
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		level.Error(logger).Log("during", "Open", "err", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		level.Error(logger).Log("during", "Migrate", "err", err)
		os.Exit(1)
	}

	var cookies *securecookie.SecureCookie
	if cfg.CookieHashKey != "" {
		var blockKey []byte
		if cfg.CookieBlockKey != "" {
			blockKey = []byte(cfg.CookieBlockKey)
		}
		cookies = securecookie.New([]byte(cfg.CookieHashKey), blockKey)
		cookies.MaxAge(int(cfg.AccessTTL.Seconds()))
	}

	fieldKeys := []string{"method"}

	var users userservice.Service
	{
		users = userservice.New(usergorm.NewUserRepository(db), cfg.BcryptCost, log.With(logger, "svc", "user"))
		users = userservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "user_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "user_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(users)
	}

	tokenizer := authservice.NewTokenizer(cfg.AccessSecret, cfg.AccessIssuer, cfg.AccessTTL)

	var tasks taskservice.Service
	{
		tasks = taskservice.New(taskgorm.NewTaskRepository(db), log.With(logger, "svc", "task"))
		tasks = taskservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "task_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "task_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(tasks)
	}

	var (
		authLogger    = log.With(logger, "svc", "auth")
		authenticator = authendpoint.NewAuthenticator(tokenizer, authservice.NewUserResolver(users), authLogger)
		authEndpoints = authendpoint.New(
			authservice.New(tokenizer, users, authLogger),
			rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
			authLogger,
		)
		taskEndpoints = taskendpoint.New(
			tasks,
			authenticator,
			rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
			log.With(logger, "svc", "task"),
		)
	)

	r := mux.NewRouter()
	{
		authHandler := authtransport.NewHTTPHandler(authEndpoints, cookies, cfg.CookieSecure, logger)
		taskHandler := tasktransport.NewHTTPHandler(taskEndpoints, cookies, cfg.PublicList, logger)

		r.PathPrefix("/auth/").Handler(authHandler)
		r.PathPrefix("/todos").Handler(taskHandler)
		r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
		r.Methods("GET").Path("/healthz").HandlerFunc(healthz)
	}

	if !cfg.PublicList {
		level.Info(logger).Log("msg", "unauthenticated todo listing disabled")
	}

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			level.Info(logger).Log("transport", "HTTP", "addr", cfg.HTTPAddr)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	level.Info(logger).Log("exit", g.Run())
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
