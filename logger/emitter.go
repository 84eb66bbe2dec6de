package logger

import (
	"bufio"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"

	"github.com/teranos/ten/errors"
)

// Emitter is the zapcore.WriteSyncer source a Handler's core writes
// through. Implementations must be safe for concurrent use; the shared
// sink registry below additionally serializes writes per sink so two
// handlers pointed at the same path never interleave a partial line.
type Emitter interface {
	zapSink() zapcore.WriteSyncer
}

// sink is a single underlying writer shared by every handler configured
// with the same absolute path (spec §4.5: "the same path shared by
// multiple handlers writes to a single underlying sink... writes are
// serialized per sink"). It implements zapcore.WriteSyncer directly so
// it can sit inside a zapcore.Core without further wrapping.
type sink struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

func (s *sink) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(data)
	if err == nil {
		if bw, ok := s.w.(*bufio.Writer); ok {
			err = bw.Flush()
		}
	}
	return n, err
}

func (s *sink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bw, ok := s.w.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}

// sinkRegistry deduplicates sinks by absolute path, mirroring the
// addon.Registry's mutex-guarded map-of-singletons shape.
type sinkRegistry struct {
	mu    sync.Mutex
	sinks map[string]*sink
}

var sinks = &sinkRegistry{sinks: make(map[string]*sink)}

func (r *sinkRegistry) forPath(path string) (*sink, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sinks[path]; ok {
		return s, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "logger: open %s", path)
	}
	s := &sink{w: bufio.NewWriter(f), c: f}
	r.sinks[path] = s
	return s, nil
}

// ConsoleEmitter writes to the process's stdout or stderr, serialized
// through the shared console sink so concurrent handlers never
// interleave partial lines.
type ConsoleEmitter struct {
	s *sink
}

var (
	stdoutSink = &sink{w: os.Stdout}
	stderrSink = &sink{w: os.Stderr}
)

// NewConsoleEmitter returns an Emitter writing to stdout, or stderr when
// toStderr is true.
func NewConsoleEmitter(toStderr bool) *ConsoleEmitter {
	if toStderr {
		return &ConsoleEmitter{s: stderrSink}
	}
	return &ConsoleEmitter{s: stdoutSink}
}

func (c *ConsoleEmitter) zapSink() zapcore.WriteSyncer { return c.s }

// FileEmitter appends to a file, deduplicated by absolute path against
// every other FileEmitter pointed at the same file.
type FileEmitter struct {
	s *sink
}

func NewFileEmitter(path string) (*FileEmitter, error) {
	s, err := sinks.forPath(path)
	if err != nil {
		return nil, err
	}
	return &FileEmitter{s: s}, nil
}

func (f *FileEmitter) zapSink() zapcore.WriteSyncer { return f.s }

// NetworkEmitter writes to a long-lived TCP connection, reconnecting
// lazily on the next Write after a failure. It implements
// zapcore.WriteSyncer itself rather than going through sink, since its
// connection (not a shared registry entry) is what needs the dedup-free
// reconnect logic.
type NetworkEmitter struct {
	mu      sync.Mutex
	network string
	addr    string
	conn    net.Conn
}

func NewNetworkEmitter(network, addr string) *NetworkEmitter {
	return &NetworkEmitter{network: network, addr: addr}
}

func (n *NetworkEmitter) Write(data []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		conn, err := net.Dial(n.network, n.addr)
		if err != nil {
			return 0, errors.Wrapf(err, "logger: dial %s", n.addr)
		}
		n.conn = conn
	}
	written, err := n.conn.Write(data)
	if err != nil {
		_ = n.conn.Close()
		n.conn = nil
		return written, errors.Wrapf(err, "logger: write %s", n.addr)
	}
	return written, nil
}

// Sync is a no-op: a TCP connection has no separate flush step beyond
// the Write call itself.
func (n *NetworkEmitter) Sync() error { return nil }

func (n *NetworkEmitter) zapSink() zapcore.WriteSyncer { return n }

func (n *NetworkEmitter) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
