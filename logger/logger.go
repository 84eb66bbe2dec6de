package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/ten/value"
)

// Logger fans a log call out to every configured Handler by combining
// each handler's matchingCore into a single *zap.Logger via
// zapcore.NewTee, the same fan-out combinator the teacher reaches for
// when wiring its WebSocket core alongside its console core
// (server/wslogs wiring). It implements tenenv.Logger so an Env can
// forward its Log calls to it directly.
type Logger struct {
	mu       sync.RWMutex
	handlers []Handler
	zl       *zap.Logger
}

// New builds a Logger with the given handlers, evaluated independently
// for every event.
func New(handlers ...Handler) *Logger {
	l := &Logger{handlers: handlers}
	l.rebuild()
	return l
}

// rebuild recombines every handler's core into the zap.Logger Log
// dispatches through. Called with mu held for writing.
func (l *Logger) rebuild() {
	cores := make([]zapcore.Core, len(l.handlers))
	for i, h := range l.handlers {
		cores[i] = h.core()
	}
	l.zl = zap.New(zapcore.NewTee(cores...))
}

// AddHandler appends a handler, e.g. a second one added after the
// property_json config for a running App is reloaded.
func (l *Logger) AddHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
	l.rebuild()
}

// Log implements tenenv.Logger. level follows this package's Level enum
// cast to int, so callers that only have the numeric level (e.g. across
// the extension C ABI in the original runtime) still address the same
// closed set. category is routed through zap's logger name (Named) so a
// handler's matchingCore can match on it from the zapcore.Entry alone;
// funcName/fileName/lineNo ride along as ordinary fields rather than
// zap's own Caller, since the caller is supplied by the tenenv layer
// (or callerInfo below) instead of captured by zap itself.
func (l *Logger) Log(level int, category, funcName, fileName string, lineNo int, message string, fields value.Value) {
	l.mu.RLock()
	zl := l.zl
	l.mu.RUnlock()

	lvl := Level(level)
	ce := zl.Named(category).Check(toZapLevel(lvl), message)
	if ce == nil {
		return
	}
	fs := append(zapFieldsFromValue(fields),
		zap.String("func", funcName),
		zap.String("file", fileName),
		zap.Int("line", lineNo),
	)
	ce.Write(fs...)
}

// Trace, Debug, Info, Warn, Error and Fatal are convenience wrappers for
// call sites that log directly against a *Logger rather than through a
// ten_env (e.g. the App process root before any Env exists).
func (l *Logger) log(level Level, category, message string, fields value.Value) {
	file, line, fn := callerInfo(3)
	l.Log(int(level), category, fn, file, line, message, fields)
}

func (l *Logger) Trace(category, message string, fields value.Value) { l.log(LevelTrace, category, message, fields) }
func (l *Logger) Debug(category, message string, fields value.Value) { l.log(LevelDebug, category, message, fields) }
func (l *Logger) Info(category, message string, fields value.Value)  { l.log(LevelInfo, category, message, fields) }
func (l *Logger) Warn(category, message string, fields value.Value)  { l.log(LevelWarn, category, message, fields) }
func (l *Logger) Error(category, message string, fields value.Value) { l.log(LevelError, category, message, fields) }
func (l *Logger) Fatal(category, message string, fields value.Value) { l.log(LevelFatal, category, message, fields) }
