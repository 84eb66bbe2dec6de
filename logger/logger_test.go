package logger

import (
	"strings"
	"testing"

	"github.com/teranos/ten/value"
)

func TestConvenienceWrappersUseTheRightLevel(t *testing.T) {
	em := &bufEmitter{}
	l := New(Handler{
		Matcher:   Matcher{Rules: []Rule{{Level: LevelWarn}}},
		Formatter: PlainFormatter{},
		Emitter:   em,
	})

	l.Info("engine", "should be dropped", value.Null)
	if em.String() != "" {
		t.Fatalf("expected Info to be dropped by a warn-or-above handler, got %q", em.String())
	}

	l.Error("engine", "should pass", value.Null)
	if !strings.Contains(em.String(), "should pass") {
		t.Fatalf("expected Error to pass the warn-or-above handler, got %q", em.String())
	}
}
