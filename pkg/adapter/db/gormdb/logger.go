package gormdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/ormysql/pkg/core/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger passes the gorm logs to the default slog logger.
// Failed statements are logged at the error level, slow ones at the
// warning level, and all others at the debug level.
type gormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

// NewLogger returns a gorm logger which reports the statements slower
// than the slow threshold as warnings.
func NewLogger(slow time.Duration) logger.Interface {
	return &gormLogger{level: logger.Info, slow: slow}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	ll := *l
	ll.level = level
	return &ll
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		log.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		log.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		log.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		log.Error(
			ctx, "statement failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			log.Err("err", err),
		)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		log.Warn(
			ctx, "slow statement",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.Duration("threshold", l.slow),
		)
	case l.level >= logger.Info && log.Enabled(ctx, slog.LevelDebug):
		sql, rows := fc()
		log.Debug(
			ctx, "statement",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}
