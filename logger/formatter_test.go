package logger

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/ten/value"
)

// sampleEntry mirrors what Logger.Log actually hands a handler's core:
// an Entry carrying category via LoggerName, plus the call-site fields
// Log always attaches alongside whatever Fields map was logged.
func sampleEntry() (zapcore.Entry, []zapcore.Field) {
	ent := zapcore.Entry{
		Level:      toZapLevel(LevelInfo),
		Time:       time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		LoggerName: "engine",
		Message:    "graph started",
	}
	fields := append(zapFieldsFromValue(value.Map().Set("graph_id", value.String("g1"))),
		zap.String("func", "Start"),
		zap.String("file", "engine/engine.go"),
		zap.Int("line", 42),
	)
	return ent, fields
}

func TestPlainFormatterIncludesCoreFields(t *testing.T) {
	ent, fields := sampleEntry()
	buf, err := PlainFormatter{}.zapEncoder().EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"I", "engine", "engine/engine.go:42", "graph started", "graph_id=g1"} {
		if !strings.Contains(out, want) {
			t.Errorf("plain output %q missing %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestPlainFormatterColoredAddsEscapes(t *testing.T) {
	ent, fields := sampleEntry()
	buf, err := PlainFormatter{Colored: true}.zapEncoder().EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI escape sequences when Colored is set")
	}
}

func TestPlainFormatterOmitsEmptyFields(t *testing.T) {
	ent, _ := sampleEntry()
	fields := []zapcore.Field{
		zap.String("func", "Start"),
		zap.String("file", "engine/engine.go"),
		zap.Int("line", 42),
	}
	buf, err := PlainFormatter{}.zapEncoder().EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if strings.Contains(buf.String(), "[") {
		t.Errorf("did not expect a fields bracket when there are no extra fields, got %q", buf.String())
	}
}

func TestZapFieldStringKinds(t *testing.T) {
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.String("hi"), "hi"},
		{value.Bool(true), "true"},
		{value.I32(-7), "-7"},
		{value.U32(7), "7"},
		{value.F64(1.5), "1.5"},
		{value.Null, "null"},
	}
	for _, c := range cases {
		if got := zapFieldString(zapField("x", c.v)); got != c.want {
			t.Errorf("zapFieldString(zapField(%v)) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestZapFieldPreservesInt64Precision(t *testing.T) {
	f := zapField("large_number", value.I64(9223372036854775807))
	if got := zapFieldString(f); got != "9223372036854775807" {
		t.Errorf("zapFieldString = %q, want full i64 precision", got)
	}
}

func TestJSONFormatterRendersOneObjectPerLine(t *testing.T) {
	ent, fields := sampleEntry()
	buf, err := JSONFormatter{}.zapEncoder().EncodeEntry(ent, fields)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected a JSON object, got %q", out)
	}
	if !strings.Contains(out, `"message":"graph started"`) {
		t.Errorf("expected message field in %q", out)
	}
	if !strings.Contains(out, `"category":"engine"`) {
		t.Errorf("expected category field in %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline")
	}
}
