package logger

import (
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Handler chains a Matcher, a Formatter and an Emitter. Each Logger holds
// an ordered list of Handlers; core() turns one into the matchingCore
// that Logger combines with every other handler's via zapcore.NewTee,
// so every handler that admits an entry receives it independently
// (spec §4.5).
type Handler struct {
	Matcher   Matcher
	Formatter Formatter
	Emitter   Emitter
}

// alwaysEnabled is the LevelEnabler handed to the inner zapcore.Core a
// handler wraps. The inner core's own level gate is never consulted —
// matchingCore.Check does the real admission against the Matcher before
// ever reaching it — so this just needs to satisfy zapcore.NewCore's
// signature without rejecting anything up front.
var alwaysEnabled = zap.LevelEnablerFunc(func(zapcore.Level) bool { return true })

// core builds this handler's matchingCore: the Matcher as a Check-time
// filter in front of a zapcore.Core built from the Formatter's encoder
// and the Emitter's sink.
func (h Handler) core() zapcore.Core {
	inner := zapcore.NewCore(h.Formatter.zapEncoder(), h.Emitter.zapSink(), alwaysEnabled)
	return &matchingCore{matcher: h.Matcher, inner: inner}
}

// NewConsoleHandler builds the runtime's default handler: every category
// at minLevel or above, colored plain text to stdout.
func NewConsoleHandler(minLevel Level) Handler {
	return Handler{
		Matcher:   Matcher{Rules: []Rule{{Level: minLevel}}},
		Formatter: PlainFormatter{Colored: true},
		Emitter:   NewConsoleEmitter(false),
	}
}

// callerInfo returns the file/line/func of the frame skip levels up the
// stack (runtime.Caller(skip)), the values a handler's formatter renders.
func callerInfo(skip int) (file string, line int, fn string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0, ""
	}
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return file, line, fn
}
