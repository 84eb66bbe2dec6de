package wire

import (
	"net"
	"net/url"
	"sync"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
)

// Dialer lazily opens one outbound connection per remote App URI and
// implements engine.RemoteRouter, handing a message destined outside this
// process off to the wire layer (spec §4.2 "Routing").
type Dialer struct {
	router Router
	logger tenenv.Logger

	mu    sync.Mutex
	conns map[string]*Conn
}

// NewDialer builds a Dialer. router is consulted for frames the remote
// peer routes back to a local graph on the same connection; it may be
// nil if this process never accepts inbound traffic on dialed links.
func NewDialer(router Router, lg tenenv.Logger) *Dialer {
	return &Dialer{router: router, logger: lg, conns: make(map[string]*Conn)}
}

// Addr extracts the dialable host:port from an App URI of the form
// "msgpack://host:port/".
func Addr(appURI string) (string, error) {
	u, err := url.Parse(appURI)
	if err != nil || u.Host == "" {
		return "", errors.WithCode(errors.Newf("wire: %q is not a dialable app uri", appURI), errors.CodeInvalidArgument)
	}
	return u.Host, nil
}

func (d *Dialer) connFor(appURI string) (*Conn, error) {
	addr, err := Addr(appURI)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if c, ok := d.conns[addr]; ok && !closed(c) {
		d.mu.Unlock()
		return c, nil
	}
	d.mu.Unlock()

	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.WithCode(errors.Wrap(err, "wire: dial"), errors.CodeMsgNotConnected)
	}
	c := newConn(nc, d.router, d.logger)

	d.mu.Lock()
	d.conns[addr] = c
	d.mu.Unlock()
	return c, nil
}

func closed(c *Conn) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

// SendCmd implements engine.RemoteRouter.
func (d *Dialer) SendCmd(dest loc.Loc, cmd *msg.Cmd) (<-chan *msg.CmdResult, error) {
	c, err := d.connFor(dest.AppURI)
	if err != nil {
		return nil, err
	}
	return c.sendCmd(cmd)
}

// SendData implements engine.RemoteRouter.
func (d *Dialer) SendData(dest loc.Loc, m *msg.Data) error {
	c, err := d.connFor(dest.AppURI)
	if err != nil {
		return err
	}
	return c.writeMessage(m)
}

// SendAudioFrame implements engine.RemoteRouter.
func (d *Dialer) SendAudioFrame(dest loc.Loc, f *msg.AudioFrame) error {
	c, err := d.connFor(dest.AppURI)
	if err != nil {
		return err
	}
	return c.writeMessage(f)
}

// SendVideoFrame implements engine.RemoteRouter.
func (d *Dialer) SendVideoFrame(dest loc.Loc, f *msg.VideoFrame) error {
	c, err := d.connFor(dest.AppURI)
	if err != nil {
		return err
	}
	return c.writeMessage(f)
}

// Close closes every outbound connection this Dialer has opened.
func (d *Dialer) Close() {
	d.mu.Lock()
	conns := make([]*Conn, 0, len(d.conns))
	for _, c := range d.conns {
		conns = append(conns, c)
	}
	d.conns = make(map[string]*Conn)
	d.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
