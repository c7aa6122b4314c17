package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	libgorm "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowThreshold = 200 * time.Millisecond

type gormLogger struct {
	logger log.Logger
	level  gormlogger.LogLevel
}

// NewLogger adapts a go-kit logger to gorm. Statements go to debug, slow
// statements to warn and failed statements to error. Record-not-found is
// an expected outcome and is not logged as an error. Statements are logged
// with placeholders, never with bound values.
func NewLogger(logger log.Logger) gormlogger.Interface {
	return gormLogger{logger: log.With(logger, "component", "gorm"), level: gormlogger.Info}
}

func (l gormLogger) LogMode(lvl gormlogger.LogLevel) gormlogger.Interface {
	l.level = lvl
	return l
}

func (l gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		level.Info(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		level.Warn(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		level.Error(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

// ParamsFilter drops the bound values before gorm renders a statement for
// Trace.
func (l gormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, libgorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		level.Error(l.logger).Log("sql", sql, "rows", rows, "took", elapsed, "err", err)
	case elapsed > slowThreshold && l.level >= gormlogger.Warn:
		level.Warn(l.logger).Log("msg", "slow query", "sql", sql, "rows", rows, "took", elapsed)
	case l.level >= gormlogger.Info:
		level.Debug(l.logger).Log("sql", sql, "rows", rows, "took", elapsed)
	}
}
