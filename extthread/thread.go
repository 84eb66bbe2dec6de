package extthread

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/logger"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

// State is the thread's own lifecycle position, distinct from the
// per-callback Phase gates each Env tracks.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const inboxCapacity = 256

// stopTimeout bounds how long Stop waits for the dispatch loop to drain
// before returning, mirroring the teacher's WorkerPool.Stop timeout.
const stopTimeout = 30 * time.Second

type envelope struct {
	dest string // target extension instance name
	m    msg.Message
}

// Thread is the Extension Thread (spec §4.3): one cooperative goroutine
// serially dispatching inbound messages to the extensions of a single
// extension group.
type Thread struct {
	graphID   string
	groupName string
	router    tenenv.Router
	logger    tenenv.Logger

	group    Group
	groupEnv *tenenv.Env

	mu         sync.RWMutex
	order      []string
	extensions map[string]Extension
	envs       map[string]*tenenv.Env

	inbox  chan envelope
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state atomic.Int32

	timerMu     sync.Mutex
	timers      map[uint64]*time.Timer
	nextTimerID uint64

	// queueFullLog throttles the inbox-backpressure warning so a sender
	// stuck behind a full inbox doesn't spam one log line per message.
	queueFullLog rate.Sometimes
}

// queueFullLogInterval bounds the backpressure warning to at most once per
// second per thread, regardless of how many callers are blocked on a full
// inbox at once.
const queueFullLogInterval = time.Second

// New builds a Thread for the named extension group within graphID. group
// supplies the extensions it hosts via CreateExtensions.
func New(graphID, groupName string, group Group, router tenenv.Router, logger tenenv.Logger) *Thread {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Thread{
		graphID:    graphID,
		groupName:  groupName,
		router:     router,
		logger:     logger,
		group:      group,
		extensions: make(map[string]Extension),
		envs:       make(map[string]*tenenv.Env),
		inbox:      make(chan envelope, inboxCapacity),
		ctx:        ctx,
		cancel:     cancel,
		timers:     make(map[uint64]*time.Timer),
	}
	t.queueFullLog.Interval = queueFullLogInterval
	t.groupEnv = tenenv.New(tenenv.AttachExtensionGroup, loc.Loc{GraphID: graphID, ExtensionName: groupName}, router, logger)
	return t
}

func (t *Thread) State() State { return State(t.state.Load()) }

// ExtensionNames returns the instance names this thread hosts, in the order
// CreateExtensions returned them.
func (t *Thread) ExtensionNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...)
}

// Env returns the Env owned by the named extension, or nil if this thread
// doesn't host it.
func (t *Thread) Env(extName string) *tenenv.Env {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.envs[extName]
}

// Start runs the group and extension configure/init/start lifecycle
// synchronously, in the graph's declared node order, then begins the
// dispatch loop. It blocks until every on_X_done has fired or the gate
// never fires (caller should pass a bounded context upstream in that case).
func (t *Thread) Start() error {
	if !t.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return errors.Newf("extthread: thread %s already started", t.groupName)
	}

	t.group.OnConfigure(t.groupEnv)
	<-t.groupEnv.AwaitDone(tenenv.PhaseConfigure)
	t.group.OnInit(t.groupEnv)
	<-t.groupEnv.AwaitDone(tenenv.PhaseInit)

	names, exts := t.group.CreateExtensions()
	t.mu.Lock()
	t.order = names
	for i, name := range names {
		t.extensions[name] = exts[i]
		t.envs[name] = tenenv.New(tenenv.AttachExtension, loc.Loc{GraphID: t.graphID, ExtensionName: name}, t.router, t.logger)
	}
	t.mu.Unlock()

	for _, name := range names {
		ext := t.extensions[name]
		env := t.envs[name]
		ext.OnConfigure(env)
		<-env.AwaitDone(tenenv.PhaseConfigure)
		ext.OnInit(env)
		<-env.AwaitDone(tenenv.PhaseInit)
		ext.OnStart(env)
		<-env.AwaitDone(tenenv.PhaseStart)
	}

	t.wg.Add(1)
	go t.run()
	return nil
}

func (t *Thread) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ctx.Done():
			return
		case env := <-t.inbox:
			t.dispatch(env)
		}
	}
}

func (t *Thread) dispatch(env envelope) {
	t.mu.RLock()
	ext, ok := t.extensions[env.dest]
	extEnv := t.envs[env.dest]
	t.mu.RUnlock()
	if !ok {
		return
	}
	switch m := env.m.(type) {
	case *msg.Cmd:
		ext.OnCmd(extEnv, m)
	case *msg.Data:
		ext.OnData(extEnv, m)
	case *msg.AudioFrame:
		ext.OnAudioFrame(extEnv, m)
	case *msg.VideoFrame:
		ext.OnVideoFrame(extEnv, m)
	}
}

// Dispatch enqueues m for delivery to the named extension. Returns
// CodeTenIsClosed if the thread has begun stopping, and blocks (applying
// backpressure to the sender) if the inbox is full.
func (t *Thread) Dispatch(extName string, m msg.Message) error {
	if t.State() != StateRunning {
		return errors.WithCode(errors.Newf("extthread: thread %s is not running", t.groupName), errors.CodeTenIsClosed)
	}

	env := envelope{dest: extName, m: m}
	select {
	case t.inbox <- env:
		return nil
	default:
	}

	t.queueFullLog.Do(func() {
		if t.logger != nil {
			t.logger.Log(int(logger.LevelWarn), "ten:runtime", "Dispatch", "extthread/thread.go", 0,
				"extension thread inbox full, applying backpressure", value.Null)
		}
	})

	select {
	case t.inbox <- env:
		return nil
	case <-t.ctx.Done():
		return errors.WithCode(errors.New("extthread: thread closed while enqueuing"), errors.CodeTenIsClosed)
	}
}

// StartTimer schedules a ten:timer Cmd to be delivered to extName after
// delay, returning the timer id the extension can later cancel.
func (t *Thread) StartTimer(extName string, delay time.Duration) uint64 {
	t.timerMu.Lock()
	id := t.nextTimerID
	t.nextTimerID++
	timer := time.AfterFunc(delay, func() {
		t.timerMu.Lock()
		delete(t.timers, id)
		t.timerMu.Unlock()
		cmd := msg.NewTimerCmd(id, loc.Loc{GraphID: t.graphID, ExtensionName: extName})
		_ = t.Dispatch(extName, cmd)
	})
	t.timers[id] = timer
	t.timerMu.Unlock()
	return id
}

// CancelTimer stops a pending timer before it fires. Returns false if the
// timer already fired or doesn't exist.
func (t *Thread) CancelTimer(id uint64) bool {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	timer, ok := t.timers[id]
	if !ok {
		return false
	}
	delete(t.timers, id)
	return timer.Stop()
}

// Stop runs on_stop/on_deinit for every hosted extension and the group in
// reverse of start order, then tears down the dispatch loop. Mirrors the
// teacher's WorkerPool.Stop: cancel, wait with a generous timeout, and
// return even if the loop hasn't fully drained.
func (t *Thread) Stop() {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}

	t.mu.RLock()
	order := append([]string(nil), t.order...)
	t.mu.RUnlock()

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		ext := t.extensions[name]
		env := t.envs[name]
		ext.OnStop(env)
		<-env.AwaitDone(tenenv.PhaseStop)
	}
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		ext := t.extensions[name]
		env := t.envs[name]
		ext.OnDeinit(env)
		<-env.AwaitDone(tenenv.PhaseDeinit)
		env.Close()
	}
	t.group.OnDeinit(t.groupEnv)
	<-t.groupEnv.AwaitDone(tenenv.PhaseDeinit)
	t.groupEnv.Close()

	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
	}
	t.state.Store(int32(StateClosed))
}
