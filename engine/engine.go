// Package engine implements the Engine and Extension-Context (spec §4.2):
// the owner of one running graph instance, its start/close sequences, and
// the routing table that forwards messages between extension threads (and,
// via a RemoteRouter, across App boundaries).
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/extthread"
	"github.com/teranos/ten/graph"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

// State is the Engine's lifecycle position (spec §3 "Lifecycles").
type State int32

const (
	StateCreated State = iota
	StateGraphStarting
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateGraphStarting:
		return "graph_starting"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RemoteRouter hands a message destined for another App off to the wire
// layer. Nil means this process has no wire listener/dialer configured;
// any non-local destination then fails with CodeMsgNotConnected.
type RemoteRouter interface {
	SendCmd(dest loc.Loc, cmd *msg.Cmd) (<-chan *msg.CmdResult, error)
	SendData(dest loc.Loc, d *msg.Data) error
	SendAudioFrame(dest loc.Loc, f *msg.AudioFrame) error
	SendVideoFrame(dest loc.Loc, f *msg.VideoFrame) error
}

type pendingCmd struct {
	remaining int
	ch        chan *msg.CmdResult
}

// Engine owns one running graph instance.
type Engine struct {
	ID        string
	Name      string
	AppURI    string
	StartCmd  *msg.Cmd
	addons    *addon.Registry
	logger    tenenv.Logger
	remote    RemoteRouter

	ctx *ExtensionContext
	env *tenenv.Env

	state State32

	dispatchMu sync.RWMutex
	dispatch   map[loc.Key]*extthread.Thread

	pendingMu sync.Mutex
	pending   map[uuid.UUID]*pendingCmd

	done chan struct{}
}

// State32 is a tiny atomic wrapper so Engine.state reads naturally.
type State32 struct{ v atomic.Int32 }

func (s *State32) Load() State      { return State(s.v.Load()) }
func (s *State32) Store(st State)   { s.v.Store(int32(st)) }
func (s *State32) CAS(old, new State) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}

// New creates an Engine for a freshly accepted StartGraph command. The
// caller (App) is responsible for generating id.
func New(id, appURI string, startCmd *msg.Cmd, addons *addon.Registry, logger tenenv.Logger, remote RemoteRouter) *Engine {
	e := &Engine{
		ID:       id,
		AppURI:   appURI,
		StartCmd: startCmd,
		addons:   addons,
		logger:   logger,
		remote:   remote,
		ctx:      newExtensionContext(),
		dispatch: make(map[loc.Key]*extthread.Thread),
		pending:  make(map[uuid.UUID]*pendingCmd),
		done:     make(chan struct{}),
	}
	e.env = tenenv.New(tenenv.AttachEngine, loc.Loc{AppURI: appURI, GraphID: id}, e, logger)
	return e
}

func (e *Engine) State() State     { return e.state.Load() }
func (e *Engine) Env() *tenenv.Env { return e.env }
func (e *Engine) Context() *ExtensionContext { return e.ctx }

// Done closes once the Engine has completed its close sequence's terminal
// step (spec §4.2 "Close sequence").
func (e *Engine) Done() <-chan struct{} { return e.done }

// Start runs the start sequence (spec §4.2). g must already be validated.
func (e *Engine) Start(g *graph.Graph) error {
	e.state.Store(StateGraphStarting)
	e.Name = g.Name

	var localGroups []graph.GroupInfo
	for _, gi := range g.Groups {
		if gi.AppURI == "" || gi.AppURI == e.AppURI {
			localGroups = append(localGroups, gi)
		}
	}

	if len(localGroups) == 0 {
		e.ctx.Install(g)
		e.state.Store(StateRunning)
		return nil
	}

	e.ctx.totalCount.Store(int32(len(localGroups)))

	created := make([]*extthread.Thread, 0, len(localGroups))
	for _, gi := range localGroups {
		var grp extthread.Group
		if gi.AddonName == DefaultExtensionGroupAddon {
			grp = &defaultExtensionGroup{g: g, addons: e.addons, instance: gi.InstanceName}
		} else {
			inst, err := e.addons.Create(addon.KindExtensionGroup, gi.AddonName, gi.InstanceName, value.Map())
			if err != nil {
				return errors.WithCode(
					errors.Newf("engine: unable to find %s", gi.AddonName),
					errors.CodeGeneric,
				)
			}
			ok := false
			grp, ok = inst.(extthread.Group)
			if !ok {
				return errors.WithCode(errors.Newf("engine: addon %q did not produce an extthread.Group", gi.AddonName), errors.CodeGeneric)
			}
		}
		th := extthread.New(g.ID, gi.InstanceName, grp, e, e.logger)
		e.ctx.addThread(gi.InstanceName, th)
		created = append(created, th)

		e.dispatchMu.Lock()
		for _, ei := range g.ExtensionsInGroup(gi.InstanceName) {
			e.dispatch[ei.Loc.Key()] = th
		}
		e.dispatchMu.Unlock()
	}

	e.ctx.Install(g)

	for _, th := range created {
		if err := th.Start(); err != nil {
			return err
		}
	}

	e.state.Store(StateRunning)
	return nil
}

// Close runs the close sequence (spec §4.2).
func (e *Engine) Close() {
	if !e.state.CAS(StateRunning, StateClosing) {
		return
	}

	threads := e.ctx.Threads()
	if len(threads) == 0 {
		e.terminal()
		return
	}

	e.ctx.totalCount.Store(int32(len(threads)))
	e.ctx.closedCount.Store(0)
	for _, th := range threads {
		go func(th *extthread.Thread) {
			th.Stop()
			if e.ctx.closedCount.Add(1) == e.ctx.totalCount.Load() {
				e.terminal()
			}
		}(th)
	}
}

func (e *Engine) terminal() {
	e.env.Close()
	e.state.Store(StateClosed)
	close(e.done)
}

// --- tenenv.Router ---------------------------------------------------

func (e *Engine) Closed() bool { return e.state.Load() == StateClosed }

func (e *Engine) destinationsFor(src loc.Loc, m msg.Message) []loc.Loc {
	if dests := m.Destinations(); len(dests) > 0 {
		return dests
	}
	if e.ctx.Graph == nil {
		return nil
	}
	var out []loc.Loc
	for _, c := range e.ctx.Graph.ConnectionsFrom(src) {
		if c.Matches(m) {
			out = append(out, c.Dest)
		}
	}
	return out
}

func (e *Engine) RouteCmd(cmd *msg.Cmd) (<-chan *msg.CmdResult, error) {
	dests := e.destinationsFor(cmd.Source(), cmd)
	if len(dests) == 0 {
		return nil, errors.WithCode(errors.New("engine: cmd has no resolvable destination"), errors.CodeMsgNotConnected)
	}

	entry := &pendingCmd{remaining: len(dests), ch: make(chan *msg.CmdResult, len(dests))}
	e.pendingMu.Lock()
	e.pending[cmd.CorrelationID()] = entry
	e.pendingMu.Unlock()

	for _, d := range dests {
		e.routeOne(cmd, d)
	}
	return entry.ch, nil
}

func (e *Engine) routeOne(cmd *msg.Cmd, dest loc.Loc) {
	resolved := dest.ResolvedAgainst(loc.Loc{AppURI: e.AppURI, GraphID: e.ID})

	if !resolved.IsLocal(e.AppURI) {
		if e.remote == nil {
			e.deliverResult(cmd.Result(errors.CodeMsgNotConnected, value.Null))
			return
		}
		results, err := e.remote.SendCmd(resolved, cmd)
		if err != nil {
			e.deliverResult(cmd.Result(errors.CodeMsgNotConnected, value.Null))
			return
		}
		go func() {
			for r := range results {
				e.deliverResult(r)
			}
		}()
		return
	}

	e.dispatchMu.RLock()
	th, ok := e.dispatch[resolved.Key()]
	e.dispatchMu.RUnlock()
	if !ok {
		e.deliverResult(cmd.Result(errors.CodeMsgNotConnected, value.Null))
		return
	}
	if err := th.Dispatch(resolved.ExtensionName, cmd); err != nil {
		e.deliverResult(cmd.Result(errors.CodeMsgNotConnected, value.Null))
	}
}

// ReturnResult matches result to its pending Cmd by correlation id and
// forwards it to whoever is awaiting SendCmd's result channel.
func (e *Engine) ReturnResult(result *msg.CmdResult) error {
	e.deliverResult(result)
	return nil
}

func (e *Engine) deliverResult(result *msg.CmdResult) {
	e.pendingMu.Lock()
	entry, ok := e.pending[result.CorrelationID()]
	if !ok {
		e.pendingMu.Unlock()
		return
	}
	entry.remaining--
	done := entry.remaining <= 0
	if done {
		delete(e.pending, result.CorrelationID())
	}
	e.pendingMu.Unlock()

	entry.ch <- result
	if done {
		close(entry.ch)
	}
}

func (e *Engine) RouteData(d *msg.Data) error {
	for _, dest := range e.destinationsFor(d.Source(), d) {
		e.routeFireAndForget(dest, d)
	}
	return nil
}

func (e *Engine) RouteAudioFrame(f *msg.AudioFrame) error {
	for _, dest := range e.destinationsFor(f.Source(), f) {
		e.routeFireAndForget(dest, f)
	}
	return nil
}

func (e *Engine) RouteVideoFrame(f *msg.VideoFrame) error {
	for _, dest := range e.destinationsFor(f.Source(), f) {
		e.routeFireAndForget(dest, f)
	}
	return nil
}

func (e *Engine) routeFireAndForget(dest loc.Loc, m msg.Message) {
	resolved := dest.ResolvedAgainst(loc.Loc{AppURI: e.AppURI, GraphID: e.ID})
	if !resolved.IsLocal(e.AppURI) {
		if e.remote == nil {
			return
		}
		switch v := m.(type) {
		case *msg.Data:
			_ = e.remote.SendData(resolved, v)
		case *msg.AudioFrame:
			_ = e.remote.SendAudioFrame(resolved, v)
		case *msg.VideoFrame:
			_ = e.remote.SendVideoFrame(resolved, v)
		}
		return
	}
	e.dispatchMu.RLock()
	th, ok := e.dispatch[resolved.Key()]
	e.dispatchMu.RUnlock()
	if !ok {
		return
	}
	_ = th.Dispatch(resolved.ExtensionName, m)
}
