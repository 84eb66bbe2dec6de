// Package tenenv implements ten_env (spec §4.4): the capability handle
// passed to every lifecycle and message callback. An Env is never shared
// across threads — each extension, extension group, app and engine owns
// exactly one, attached at construction and never reattached.
package tenenv

import (
	"sync"
	"time"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

// AttachTo tags which kind of owner an Env belongs to (spec §4.4).
type AttachTo uint8

const (
	AttachExtension AttachTo = iota
	AttachExtensionGroup
	AttachApp
	AttachEngine
)

func (a AttachTo) String() string {
	switch a {
	case AttachExtension:
		return "extension"
	case AttachExtensionGroup:
		return "extension_group"
	case AttachApp:
		return "app"
	case AttachEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Router delivers messages on behalf of an Env's owner. Implemented by the
// engine; Env holds only this narrow interface to avoid importing engine
// (which itself depends on tenenv for the Env type extensions receive).
type Router interface {
	// RouteCmd sends cmd toward its destinations and returns a channel that
	// receives one CmdResult per destination, closed once all have arrived.
	// Tearing down the owner's thread does not close it or complete the
	// results still outstanding.
	RouteCmd(cmd *msg.Cmd) (<-chan *msg.CmdResult, error)
	RouteData(d *msg.Data) error
	RouteAudioFrame(f *msg.AudioFrame) error
	RouteVideoFrame(f *msg.VideoFrame) error
	// ReturnResult delivers result back to the thread awaiting it on the
	// RouteCmd channel it obtained for the matching Cmd.
	ReturnResult(result *msg.CmdResult) error
	Closed() bool
}

// Logger is the narrow logging surface Env needs; implemented by
// *logger.Logger (spec §4.5).
type Logger interface {
	Log(level int, category, funcName, fileName string, lineNo int, message string, fields value.Value)
}

// Phase names a lifecycle stage whose on_X callback has a matching
// on_X_done acknowledgement (spec §4.3, §4.4).
type Phase uint8

const (
	PhaseConfigure Phase = iota
	PhaseInit
	PhaseStart
	PhaseStop
	PhaseDeinit
)

func (p Phase) String() string {
	switch p {
	case PhaseConfigure:
		return "configure"
	case PhaseInit:
		return "init"
	case PhaseStart:
		return "start"
	case PhaseStop:
		return "stop"
	case PhaseDeinit:
		return "deinit"
	default:
		return "unknown"
	}
}

// Env is ten_env: the single capability handle an extension, group, app or
// engine uses to send messages, manage properties, log, and acknowledge
// lifecycle phases.
type Env struct {
	attach AttachTo
	owner  loc.Loc
	router Router
	logger Logger

	mu    sync.RWMutex
	props value.Value

	gateMu sync.Mutex
	gates  map[Phase]chan struct{}
	fired  map[Phase]bool

	closeMu sync.Mutex
	closed  bool
}

// New builds an Env attached to owner, routing through router and logging
// through lg. lg may be nil, in which case Log is a no-op.
func New(attach AttachTo, owner loc.Loc, router Router, lg Logger) *Env {
	return &Env{
		attach: attach,
		owner:  owner,
		router: router,
		logger: lg,
		props:  value.Map(),
		gates:  make(map[Phase]chan struct{}),
		fired:  make(map[Phase]bool),
	}
}

func (e *Env) AttachType() AttachTo { return e.attach }
func (e *Env) Owner() loc.Loc       { return e.owner }

// --- messaging -------------------------------------------------------

// SendCmd routes cmd and returns the channel its results will arrive on. If
// timeoutMS is positive and no result arrives within that window, the
// channel receives a synthetic CodeTimeout result per pending destination
// (spec §4.3 "Cancellation & timeouts").
func (e *Env) SendCmd(cmd *msg.Cmd, timeoutMS int64) (<-chan *msg.CmdResult, error) {
	if e.isClosed() {
		return nil, errors.WithCode(errors.New("tenenv: send_cmd after close"), errors.CodeTenIsClosed)
	}
	cmd.SetSource(e.owner)
	results, err := e.router.RouteCmd(cmd)
	if err != nil {
		return nil, err
	}
	if timeoutMS <= 0 {
		return results, nil
	}
	return e.withTimeout(cmd, results, timeoutMS), nil
}

func (e *Env) withTimeout(cmd *msg.Cmd, in <-chan *msg.CmdResult, timeoutMS int64) <-chan *msg.CmdResult {
	out := make(chan *msg.CmdResult, len(cmd.Destinations()))
	pending := len(cmd.Destinations())
	go func() {
		defer close(out)
		timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
		defer timer.Stop()
		for pending > 0 {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				out <- r
				pending--
			case <-timer.C:
				for ; pending > 0; pending-- {
					out <- cmd.Result(errors.CodeTimeout, value.Null)
				}
			}
		}
	}()
	return out
}

func (e *Env) SendData(d *msg.Data) error {
	if e.isClosed() {
		return errors.WithCode(errors.New("tenenv: send_data after close"), errors.CodeTenIsClosed)
	}
	d.SetSource(e.owner)
	return e.router.RouteData(d)
}

func (e *Env) SendAudioFrame(f *msg.AudioFrame) error {
	if e.isClosed() {
		return errors.WithCode(errors.New("tenenv: send_audio_frame after close"), errors.CodeTenIsClosed)
	}
	f.SetSource(e.owner)
	return e.router.RouteAudioFrame(f)
}

func (e *Env) SendVideoFrame(f *msg.VideoFrame) error {
	if e.isClosed() {
		return errors.WithCode(errors.New("tenenv: send_video_frame after close"), errors.CodeTenIsClosed)
	}
	f.SetSource(e.owner)
	return e.router.RouteVideoFrame(f)
}

// ReturnResult answers a Cmd this Env's owner received. result must already
// carry the correct correlation id, normally obtained via Cmd.Result.
func (e *Env) ReturnResult(result *msg.CmdResult) error {
	if e.isClosed() {
		return errors.WithCode(errors.New("tenenv: return_result after close"), errors.CodeTenIsClosed)
	}
	result.SetSource(e.owner)
	return e.router.ReturnResult(result)
}

// --- properties --------------------------------------------------------

func (e *Env) GetProperty(key string) (value.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props.Get(key)
}

func (e *Env) SetProperty(key string, v value.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props = e.props.Set(key, v)
}

// InitProperty replaces the whole property map, as on_configure does from a
// graph node's static property block (spec §4.6).
func (e *Env) InitProperty(v value.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v.Kind() != value.KindMap {
		panic("tenenv: InitProperty requires a map Value")
	}
	e.props = v
}

func (e *Env) Properties() value.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props
}

// --- logging -------------------------------------------------------------

func (e *Env) Log(level int, category, funcName, fileName string, lineNo int, message string, fields value.Value) {
	if e.logger == nil {
		return
	}
	e.logger.Log(level, category, funcName, fileName, lineNo, message, fields)
}

// --- lifecycle gates -----------------------------------------------------

// AwaitDone returns a channel that closes once the owner's callback calls
// the matching on_X_done for phase. The owning thread invokes on_X, then
// calls this and blocks on the returned channel; the gate is created by
// whichever of AwaitDone and on_X_done runs first, so an on_X_done made
// inside on_X is not missed (spec §4.3 "the thread refuses to advance
// until on_X_done is called").
func (e *Env) AwaitDone(phase Phase) <-chan struct{} {
	e.gateMu.Lock()
	defer e.gateMu.Unlock()
	ch, ok := e.gates[phase]
	if !ok {
		ch = make(chan struct{})
		e.gates[phase] = ch
	}
	return ch
}

// markDone is shared by the OnXDone family below.
func (e *Env) markDone(phase Phase) error {
	e.gateMu.Lock()
	defer e.gateMu.Unlock()
	if e.fired[phase] {
		return errors.Newf("tenenv: on_%s_done called more than once", phase)
	}
	e.fired[phase] = true
	ch, ok := e.gates[phase]
	if !ok {
		ch = make(chan struct{})
		e.gates[phase] = ch
	}
	close(ch)
	return nil
}

func (e *Env) OnConfigureDone() error { return e.markDone(PhaseConfigure) }
func (e *Env) OnInitDone() error      { return e.markDone(PhaseInit) }
func (e *Env) OnStartDone() error     { return e.markDone(PhaseStart) }
func (e *Env) OnStopDone() error      { return e.markDone(PhaseStop) }
func (e *Env) OnDeinitDone() error    { return e.markDone(PhaseDeinit) }

// --- close -----------------------------------------------------------

func (e *Env) isClosed() bool {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	return e.closed
}

// Close marks the Env closed. Further send_*/return_result calls fail with
// CodeTenIsClosed (spec §7 category 2).
func (e *Env) Close() {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	e.closed = true
}

func (e *Env) Closed() bool { return e.isClosed() }
