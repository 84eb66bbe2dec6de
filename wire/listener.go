package wire

import (
	"net"
	"sync"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/tenenv"
)

// Listener accepts inbound wire connections (spec §6) and demuxes each
// frame through router to the Engine that owns its destination graph.
type Listener struct {
	ln     net.Listener
	router Router
	logger tenenv.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}
	wg    sync.WaitGroup
}

// Listen opens a TCP listener at addr (host:port, no scheme) and begins
// accepting connections in the background.
func Listen(addr string, router Router, lg tenenv.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "wire: listen")
	}
	l := &Listener{ln: ln, router: router, logger: lg, conns: make(map[*Conn]struct{})}
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			return
		}
		c := newConn(nc, l.router, l.logger)
		l.track(c)
	}
}

func (l *Listener) track(c *Conn) {
	l.mu.Lock()
	l.conns[c] = struct{}{}
	l.mu.Unlock()
	go func() {
		<-c.Done()
		l.mu.Lock()
		delete(l.conns, c)
		l.mu.Unlock()
	}()
}

// Addr returns the listener's bound network address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections and closes every connection this
// Listener currently owns.
func (l *Listener) Close() error {
	err := l.ln.Close()
	l.wg.Wait()

	l.mu.Lock()
	conns := make([]*Conn, 0, len(l.conns))
	for c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return err
}
