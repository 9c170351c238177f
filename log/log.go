package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	_globalMu        = sync.RWMutex{}
	_globalS  Logger = Nop()
)

type Logger interface {
	Debug(v ...any)
	Info(v ...any)
	Warn(v ...any)
	Error(v ...any)

	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)

	Sync() error
}

func L() Logger {
	_globalMu.RLock()
	l := _globalS
	_globalMu.RUnlock()

	return l
}

func Debug(v ...any) { L().Debug(v...) }
func Info(v ...any)  { L().Info(v...) }
func Warn(v ...any)  { L().Warn(v...) }
func Error(v ...any) { L().Error(v...) }

func Debugf(format string, v ...any) { L().Debugf(format, v...) }
func Infof(format string, v ...any)  { L().Infof(format, v...) }
func Warnf(format string, v ...any)  { L().Warnf(format, v...) }
func Errorf(format string, v ...any) { L().Errorf(format, v...) }

func Sync() error { return L().Sync() }

// Nop returns a logger that discards everything.
func Nop() Logger { return zap.NewNop().Sugar() }

// ReplaceGlobals swaps the package logger and returns a func restoring the previous one.
func ReplaceGlobals(l Logger) func() {
	_globalMu.Lock()
	prev := _globalS
	_globalS = l
	_globalMu.Unlock()

	return func() { ReplaceGlobals(prev) }
}
