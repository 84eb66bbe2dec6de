package wire

import (
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/teranos/ten/engine"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/logger"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

// Router resolves a graph id to the Engine that owns it, so an inbound
// frame can be demuxed to the right local graph (spec §2 data flow:
// "wire bytes → App listener → Engine demux (by graph id)"). *app.App
// implements this via its EngineFor method.
type Router interface {
	EngineFor(graphID string) *engine.Engine
}

// Conn is one physical wire connection, full-duplex: an inbound frame
// either resolves a pending local SendCmd or gets routed into a local
// Engine, and either side may write a Message at any time. The same type
// backs both accepted (Listener) and dialed (Dialer) connections.
type Conn struct {
	nc     net.Conn
	router Router
	logger tenenv.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uuid.UUID]chan *msg.CmdResult

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(nc net.Conn, router Router, lg tenenv.Logger) *Conn {
	c := &Conn{
		nc:      nc,
		router:  router,
		logger:  lg,
		pending: make(map[uuid.UUID]chan *msg.CmdResult),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Done closes once this connection's read loop has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		body, err := ReadFrame(c.nc)
		if err != nil {
			return
		}
		m, err := Decode(body)
		if err != nil {
			c.logf("dropping corrupt wire frame: " + err.Error())
			return
		}
		c.handle(m)
	}
}

func (c *Conn) logf(message string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(int(logger.LevelWarn), "ten:runtime", "readLoop", "wire/conn.go", 0, message, value.Null)
}

func (c *Conn) handle(m msg.Message) {
	switch v := m.(type) {
	case *msg.CmdResult:
		c.resolvePending(v)
	case *msg.Cmd:
		c.deliverCmd(v)
	case *msg.Data:
		c.deliverData(v)
	case *msg.AudioFrame:
		c.deliverAudioFrame(v)
	case *msg.VideoFrame:
		c.deliverVideoFrame(v)
	}
}

func (c *Conn) resolvePending(r *msg.CmdResult) {
	c.pendingMu.Lock()
	ch, ok := c.pending[r.CorrelationID()]
	if ok {
		delete(c.pending, r.CorrelationID())
	}
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	ch <- r
	close(ch)
}

func (c *Conn) deliverCmd(cmd *msg.Cmd) {
	dests := cmd.Destinations()
	e := c.engineForDest(dests)
	if e == nil {
		c.writeMessage(cmd.Result(errors.CodeMsgNotConnected, value.Null))
		return
	}
	ch, err := e.RouteCmd(cmd)
	if err != nil {
		c.writeMessage(cmd.Result(errors.GetCode(err), value.Null))
		return
	}
	go func() {
		for r := range ch {
			c.writeMessage(r)
		}
	}()
}

func (c *Conn) deliverData(d *msg.Data) {
	if e := c.engineForDest(d.Destinations()); e != nil {
		_ = e.RouteData(d)
	}
}

func (c *Conn) deliverAudioFrame(f *msg.AudioFrame) {
	if e := c.engineForDest(f.Destinations()); e != nil {
		_ = e.RouteAudioFrame(f)
	}
}

func (c *Conn) deliverVideoFrame(f *msg.VideoFrame) {
	if e := c.engineForDest(f.Destinations()); e != nil {
		_ = e.RouteVideoFrame(f)
	}
}

func (c *Conn) engineForDest(dests []loc.Loc) *engine.Engine {
	if len(dests) == 0 || c.router == nil {
		return nil
	}
	return c.router.EngineFor(dests[0].GraphID)
}

// writeMessage encodes and frames m, writing it out under writeMu so
// concurrent writers (the read loop's reply goroutines, an outbound
// SendCmd) never interleave two frames.
func (c *Conn) writeMessage(m msg.Message) error {
	body, err := Encode(m)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.nc, body)
}

// sendCmd writes cmd and registers a pending slot for its correlated
// CmdResult, used by Dialer's RemoteRouter.SendCmd.
func (c *Conn) sendCmd(cmd *msg.Cmd) (<-chan *msg.CmdResult, error) {
	ch := make(chan *msg.CmdResult, 1)
	c.pendingMu.Lock()
	c.pending[cmd.CorrelationID()] = ch
	c.pendingMu.Unlock()

	if err := c.writeMessage(cmd); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, cmd.CorrelationID())
		c.pendingMu.Unlock()
		return nil, errors.WithCode(err, errors.CodeMsgNotConnected)
	}
	return ch, nil
}

// Close tears the connection down and synthesizes a MsgNotConnected
// CmdResult for every outstanding SendCmd this connection never got an
// answer for (spec §7 category 3 "remote errors").
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		_ = c.nc.Close()
		close(c.done)

		c.pendingMu.Lock()
		pending := c.pending
		c.pending = make(map[uuid.UUID]chan *msg.CmdResult)
		c.pendingMu.Unlock()

		for correlationID, ch := range pending {
			ch <- msg.CmdResultFromWire(uuid.New(), correlationID, "", loc.Loc{}, []loc.Loc{{}}, errors.CodeMsgNotConnected, value.Null)
			close(ch)
		}
	})
}
