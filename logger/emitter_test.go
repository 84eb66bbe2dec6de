package logger

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
)

func TestFileEmitterWritesAppendedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ten.log")
	e, err := NewFileEmitter(path)
	if err != nil {
		t.Fatalf("NewFileEmitter: %v", err)
	}
	ws := e.zapSink()
	if _, err := ws.Write([]byte("line one\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := ws.Write([]byte("line two\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 2 || lines[0] != "line one" || lines[1] != "line two" {
		t.Fatalf("unexpected file contents: %v", lines)
	}
}

func TestFileEmittersOnSamePathShareASink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.log")
	a, err := NewFileEmitter(path)
	if err != nil {
		t.Fatalf("NewFileEmitter a: %v", err)
	}
	b, err := NewFileEmitter(path)
	if err != nil {
		t.Fatalf("NewFileEmitter b: %v", err)
	}
	if a.s != b.s {
		t.Fatal("expected two emitters on the same absolute path to share one sink")
	}
}

func TestConsoleEmitterDoesNotError(t *testing.T) {
	e := NewConsoleEmitter(false)
	if _, err := e.zapSink().Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
}
