// Package database opens the gorm handle shared by the task and user
// repositories and creates their tables.
package database

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/usersvc"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

type Options struct {
	// URL selects postgres when set; otherwise SQLitePath is used.
	URL          string
	SQLitePath   string
	MaxOpenConns int
	Logger       log.Logger
}

func Open(opts Options) (*libgorm.DB, error) {
	dialector := sqlite.Open(opts.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	if opts.URL != "" {
		dialector = postgres.Open(opts.URL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	db, err := libgorm.Open(dialector, &libgorm.Config{
		Logger:         NewLogger(logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	switch {
	case opts.URL == "":
		sqlDB.SetMaxOpenConns(1)
	case opts.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return db, nil
}

// Migrate creates or updates the users and todos tables. It runs once at
// start-up, before the first request is served.
func Migrate(db *libgorm.DB) error {
	if err := db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func Close(db *libgorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
