package logger

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var logg = New("info", "json")

// New builds a logrus logger. format is "json" or "text".
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(os.Stdout)
	return l
}

// Init replaces the process logger, called once from main.
func Init(level, format string) *logrus.Logger {
	logg = New(level, format)
	return logg
}

func Get() *logrus.Logger {
	return logg
}

func LogError(moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}

// Gorm adapts logrus to gorm's logger interface.
type Gorm struct {
	log           *logrus.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGorm(l *logrus.Logger) *Gorm {
	level := gormlogger.Warn
	if l.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return &Gorm{log: l, level: level, slowThreshold: time.Second}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *Gorm) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.WithContext(ctx).Infof(msg, args...)
	}
}

func (g *Gorm) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.WithContext(ctx).Warnf(msg, args...)
	}
}

func (g *Gorm) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.WithContext(ctx).Errorf(msg, args...)
	}
}

func (g *Gorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := g.log.WithContext(ctx).WithFields(logrus.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	})
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		entry.WithError(err).Error("query failed")
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		entry.Warn("slow query")
	case g.level >= gormlogger.Info:
		entry.Debug("query")
	}
}
