package logger

import (
	"bytes"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/ten/value"
)

// bufEmitter is an in-memory Emitter for tests: its zapSink is itself,
// implementing zapcore.WriteSyncer directly over a buffer.
type bufEmitter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *bufEmitter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *bufEmitter) Sync() error { return nil }

func (b *bufEmitter) zapSink() zapcore.WriteSyncer { return b }

func (b *bufEmitter) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// logThroughHandler drives a single Handler's core exactly the way
// Logger.Log drives the combined tee of every configured handler.
func logThroughHandler(h Handler, level Level, category, message string) {
	zl := zap.New(h.core())
	ce := zl.Named(category).Check(toZapLevel(level), message)
	if ce == nil {
		return
	}
	ce.Write()
}

func TestHandlerDropsEventsTheMatcherRejects(t *testing.T) {
	em := &bufEmitter{}
	h := Handler{
		Matcher:   Matcher{Rules: []Rule{{Level: LevelError}}},
		Formatter: PlainFormatter{},
		Emitter:   em,
	}
	logThroughHandler(h, LevelInfo, "engine", "graph started")
	if em.String() != "" {
		t.Fatalf("expected an info-level event to be dropped by an error-or-above handler, got %q", em.String())
	}
}

func TestHandlerEmitsEventsTheMatcherAdmits(t *testing.T) {
	em := &bufEmitter{}
	h := Handler{
		Matcher:   Matcher{Rules: []Rule{{Level: LevelTrace}}},
		Formatter: PlainFormatter{},
		Emitter:   em,
	}
	logThroughHandler(h, LevelInfo, "engine", "graph started")
	if em.String() == "" {
		t.Fatal("expected the admitted event to be written")
	}
}

func TestNewConsoleHandlerAdmitsAtOrAboveMinLevel(t *testing.T) {
	h := NewConsoleHandler(LevelWarn)
	if h.Matcher.Match("anything", LevelInfo) {
		t.Fatal("expected info to be rejected below warn")
	}
	if !h.Matcher.Match("anything", LevelError) {
		t.Fatal("expected error to be admitted above warn")
	}
}

func TestLoggerFansOutToEveryHandler(t *testing.T) {
	a, b := &bufEmitter{}, &bufEmitter{}
	l := New(
		Handler{Matcher: Matcher{Rules: []Rule{{Level: LevelTrace}}}, Formatter: PlainFormatter{}, Emitter: a},
		Handler{Matcher: Matcher{Rules: []Rule{{Level: LevelTrace}}}, Formatter: JSONFormatter{}, Emitter: b},
	)
	l.Log(int(LevelInfo), "engine", "Start", "engine.go", 1, "hello", value.Null)

	if a.String() == "" || b.String() == "" {
		t.Fatalf("expected both handlers to receive the event, got a=%q b=%q", a.String(), b.String())
	}
}

func TestLoggerAddHandlerAffectsSubsequentLogs(t *testing.T) {
	l := New()
	em := &bufEmitter{}
	l.Log(int(LevelInfo), "engine", "Start", "engine.go", 1, "before", value.Null)
	l.AddHandler(Handler{Matcher: Matcher{Rules: []Rule{{Level: LevelTrace}}}, Formatter: PlainFormatter{}, Emitter: em})
	l.Log(int(LevelInfo), "engine", "Start", "engine.go", 1, "after", value.Null)

	if em.String() == "" {
		t.Fatal("expected the handler added after construction to receive later events")
	}
}
