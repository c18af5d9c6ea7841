package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's statement log through Logger.
type GormLogger struct {
	log           Logger
	level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger returns a GormLogger that reports warnings and errors.
func NewGormLogger(l Logger) *GormLogger {
	return &GormLogger{
		log:           l.WithField("component", "store"),
		level:         gormlogger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Error(fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	operation, _, _ := strings.Cut(sql, " ")
	fields := map[string]interface{}{
		"sql":     sql,
		"latency": elapsed,
		"rows":    rows,
	}

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		g.log.WithError(err).ErrorWithFields("SQLite "+operation+" failed", fields)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.level >= gormlogger.Warn:
		g.log.WarnWithFields("SQLite "+operation+" slow", fields)
	case g.level >= gormlogger.Info:
		g.log.DebugWithFields("SQLite "+operation, fields)
	}
}
