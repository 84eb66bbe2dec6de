// Package logger implements the runtime's structured logger (spec §4.5):
// a list of handlers, each chaining a matcher, a formatter and an
// emitter, built on go.uber.org/zap/zapcore the way the teacher builds
// its own console logger (logger/logger.go, logger/minimal_encoder.go)
// and the way server/wslogs/core.go bolts a second custom zapcore.Core
// onto the same zap.Logger. Each handler becomes one matchingCore
// wrapping a zapcore.Core built from its Formatter's encoder and its
// Emitter's sink; every configured handler's core is combined with
// zapcore.NewTee into the *zap.Logger a Logger dispatches through.
package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/teranos/ten/errors"
)

// Level is the runtime's closed level set. Off sorts highest so no event
// level is ever at or above it; Matcher.Match treats an off rule whose
// category matches as a drop.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelOff:
		return "off"
	default:
		return "unknown"
	}
}

// Letter is the one-letter abbreviation the plain formatter uses.
func (l Level) Letter() string {
	if l == LevelOff {
		return "?"
	}
	return strings.ToUpper(l.String())[:1]
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "off":
		return LevelOff, nil
	default:
		return 0, errors.WithCode(errors.Newf("logger: unknown level %q", s), errors.CodeInvalidArgument)
	}
}

// toZapLevel maps a Level onto the zapcore.Level its Check/Write calls
// carry. Debug/Info/Warn/Error reuse zapcore's own values directly; Trace
// and Off have no zapcore equivalent, so they get out-of-band int8
// values that compare correctly but never collide with zapcore's
// DPanic/Panic/Fatal (3/4/5) — deliberately, since zap's own Logger.check
// triggers os.Exit for an Entry.Level of exactly zapcore.FatalLevel, and
// this runtime's LevelFatal is just its highest severity, not a
// process-exiting call.
func toZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelTrace:
		return zapcore.Level(-2)
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.Level(50)
	case LevelOff:
		return zapcore.Level(126)
	default:
		return zapcore.InfoLevel
	}
}

// levelFromZap inverts toZapLevel for the values it produces, used by a
// handler's matchingCore (to evaluate its Matcher) and by the plain
// encoder (to render the runtime's own level strings instead of zap's).
func levelFromZap(zl zapcore.Level) Level {
	switch {
	case zl <= zapcore.Level(-2):
		return LevelTrace
	case zl == zapcore.DebugLevel:
		return LevelDebug
	case zl == zapcore.InfoLevel:
		return LevelInfo
	case zl == zapcore.WarnLevel:
		return LevelWarn
	case zl == zapcore.ErrorLevel:
		return LevelError
	case zl >= zapcore.Level(126):
		return LevelOff
	default:
		return LevelFatal
	}
}

// ourLevelEncoder is the zapcore.LevelEncoder both formatters configure
// their encoder with, so a JSON or plain line reports this package's
// level names ("trace", "warn", ...) rather than zapcore's.
func ourLevelEncoder(zl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelFromZap(zl).String())
}
