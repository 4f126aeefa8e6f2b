// Copyright 2023-2026 The whatsabi Authors
// This file is part of the whatsabi library.
//
// The whatsabi library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The whatsabi library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the whatsabi library. If not, see <http://www.gnu.org/licenses/>.

// Package log exposes a leveled key/value logging API backed by logrus.
// The library is usable without initialization; Init wires file output
// and rotation for the CLI and the HTTP service.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/kila6/whatsabi/conf"
)

var (
	root = &logger{ctx: []interface{}{}, mapPool: sync.Pool{
		New: func() any {
			return map[string]interface{}{}
		},
	}}
	terminal = logrus.New()
)

// Lvl is a log level.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func init() {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	terminal.SetFormatter(formatter)
	terminal.SetLevel(logrus.InfoLevel)
	terminal.SetOutput(os.Stderr)
}

// Init configures the logging backend from the given config. When
// LogFile is empty output stays on the console; otherwise it goes to a
// size-rotated file under dataDir/log, optionally mirrored to the
// console.
func Init(dataDir string, config conf.LoggerConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	lvl, err := logrus.ParseLevel(config.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	terminal.SetLevel(lvl)

	if config.LogFile == "" {
		terminal.SetOutput(os.Stderr)
		return nil
	}

	logDir := filepath.Join(dataDir, "log")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, config.LogFile),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  config.LocalTime,
	}

	if config.JSONFormat {
		jsonFormatter := new(logrus.JSONFormatter)
		jsonFormatter.TimestampFormat = "2006-01-02 15:04:05"
		terminal.SetFormatter(jsonFormatter)
	}

	if config.Console {
		terminal.SetOutput(io.MultiWriter(lj, os.Stderr))
	} else {
		terminal.SetOutput(lj)
	}

	Info("Logger initialized",
		"file", config.LogFile,
		"level", config.Level,
		"max_size_mb", config.MaxSize,
		"max_backups", config.MaxBackups,
		"max_age_days", config.MaxAge,
		"compress", config.Compress,
	)
	return nil
}

// New returns a new logger with the given context.
// New is a convenient alias for Root().New
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// Root returns the root logger
func Root() Logger {
	return root
}

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...interface{}) {
	root.write(msg, LvlTrace, ctx)
}

func Tracef(msg string, ctx ...interface{}) {
	root.write(fmt.Sprintf(msg, ctx...), LvlTrace, nil)
}

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...interface{}) {
	root.write(msg, LvlDebug, ctx)
}

func Debugf(msg string, ctx ...interface{}) {
	root.write(fmt.Sprintf(msg, ctx...), LvlDebug, nil)
}

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...interface{}) {
	root.write(msg, LvlInfo, ctx)
}

// Infof is a convenient alias for Root().Info
func Infof(msg string, ctx ...interface{}) {
	root.write(fmt.Sprintf(msg, ctx...), LvlInfo, nil)
}

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...interface{}) {
	root.write(msg, LvlWarn, ctx)
}

// Warnf is a convenient alias for Root().Warn
func Warnf(msg string, ctx ...interface{}) {
	root.write(fmt.Sprintf(msg, ctx...), LvlWarn, nil)
}

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...interface{}) {
	root.write(msg, LvlError, ctx)
}

// Errorf is a convenient alias for Root().Error
func Errorf(msg string, ctx ...interface{}) {
	root.write(fmt.Sprintf(msg, ctx...), LvlError, nil)
}

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...interface{}) {
	root.write(msg, LvlCrit, ctx)
	os.Exit(1)
}

// A Logger writes key/value pairs to a handler.
type Logger interface {
	// New returns a new Logger that has this logger's context plus the given context
	New(ctx ...interface{}) Logger

	// Log a message at the given level with context key/value pairs
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx     []interface{}
	mapPool sync.Pool
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{ctx: append(append([]interface{}{}, l.ctx...), ctx...), mapPool: sync.Pool{
		New: func() any {
			return map[string]interface{}{}
		},
	}}
	return child
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(msg, LvlTrace, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(msg, LvlDebug, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(msg, LvlInfo, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(msg, LvlWarn, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(msg, LvlError, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(msg, LvlCrit, ctx)
	os.Exit(1)
}

// write flattens the logger context plus the call-site context into
// logrus fields. Odd trailing keys are rendered with the placeholder
// value "MISSING" rather than dropped.
func (l *logger) write(msg string, lvl Lvl, ctx []interface{}) {
	fields := l.mapPool.Get().(map[string]interface{})
	defer func() {
		for k := range fields {
			delete(fields, k)
		}
		l.mapPool.Put(fields)
	}()

	flat := append(append([]interface{}{}, l.ctx...), ctx...)
	for i := 0; i < len(flat); i += 2 {
		key := fmt.Sprint(flat[i])
		if i+1 < len(flat) {
			fields[key] = flat[i+1]
		} else {
			fields[key] = "MISSING"
		}
	}

	entry := terminal.WithFields(logrus.Fields(fields))
	switch lvl {
	case LvlCrit:
		// Log does not exit; Crit handles process termination itself.
		entry.Log(logrus.FatalLevel, msg)
	case LvlError:
		entry.Error(msg)
	case LvlWarn:
		entry.Warn(msg)
	case LvlInfo:
		entry.Info(msg)
	case LvlDebug:
		entry.Debug(msg)
	case LvlTrace:
		entry.Trace(msg)
	}
}
