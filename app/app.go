package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/engine"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/logger"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/startgraph"
	"github.com/teranos/ten/value"
	"github.com/teranos/ten/wire"
)

// App is the process-wide root (spec §4.1): it loads configuration,
// owns the addon registry, accepts StartGraph commands to create
// per-graph Engines, and shuts the process down on close(). There is
// exactly one App per process by convention; the process-wide list of
// live Apps is globalApps, strictly for diagnostics (spec §9).
type App struct {
	id     string
	uri    string
	addons *addon.Registry
	logger *logger.Logger
	remote engine.RemoteRouter

	mu      sync.RWMutex
	engines map[string]*engine.Engine

	dialer   *wire.Dialer
	listener *wire.Listener

	closeOnce sync.Once
	done      chan struct{}
}

// New constructs an App, registering it with the diagnostics registry.
// addons is the addon registry to consult when Engines create groups
// and extensions; remote is the cross-App message hand-off (nil is
// valid — every destination is then assumed local).
func New(addons *addon.Registry, lg *logger.Logger, remote engine.RemoteRouter) *App {
	a := &App{
		id:      uuid.NewString(),
		addons:  addons,
		logger:  lg,
		remote:  remote,
		engines: make(map[string]*engine.Engine),
		done:    make(chan struct{}),
	}
	globalApps.add(a)
	return a
}

// ID is the App's diagnostic identity (not the wire URI).
func (a *App) ID() string { return a.id }

// URI returns the App's listen URI, set by Configure.
func (a *App) URI() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.uri
}

// Configure parses the property_json document at path and installs the
// resulting logger handlers (spec §4.1 "configure"). Fails with
// CodeInvalidJSON on a schema error.
func (a *App) Configure(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return a.applyConfig(cfg)
}

// Listen opens the wire listener at the App's configured URI (spec §4.1
// "open the wire listener") and installs a Dialer as this App's remote
// router if one wasn't supplied at construction. Kept separate from
// Configure so the CLI can distinguish a config error (exit 2) from a
// listener bind error (exit 3, spec §6).
func (a *App) Listen() error {
	addr, err := wire.Addr(a.URI())
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.remote == nil {
		a.dialer = wire.NewDialer(a, a.logger)
		a.remote = a.dialer
	}
	a.mu.Unlock()

	ln, err := wire.Listen(addr, a, a.logger)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	return nil
}

// EngineFor implements wire.Router, resolving a graph id to its owning
// Engine for the wire listener's inbound demux.
func (a *App) EngineFor(graphID string) *engine.Engine {
	return a.engineFor(graphID)
}

func (a *App) applyConfig(cfg *Config) error {
	a.mu.Lock()
	a.uri = cfg.URI
	a.mu.Unlock()

	for _, hc := range cfg.Log.Handlers {
		h, err := buildHandler(hc)
		if err != nil {
			return err
		}
		a.logger.AddHandler(h)
	}

	for _, pg := range cfg.PredefinedGraphs {
		result, err := a.startPredefinedGraph(pg)
		if err != nil {
			return err
		}
		if result.Status != errors.CodeOK {
			detail, _ := result.Detail()
			text, _ := detail.String()
			return errors.WithCode(errors.Newf("app: predefined graph %q failed to start: %s", pg.GraphName, text), result.Status)
		}
	}
	return nil
}

func buildHandler(hc HandlerConfig) (logger.Handler, error) {
	rules := make([]logger.Rule, 0, len(hc.Matchers))
	for _, rc := range hc.Matchers {
		level, err := logger.ParseLevel(orDefault(rc.Level, "trace"))
		if err != nil {
			return logger.Handler{}, err
		}
		rules = append(rules, logger.Rule{Category: rc.Category, Level: level})
	}
	if len(rules) == 0 {
		rules = []logger.Rule{{Level: logger.LevelTrace}}
	}

	var f logger.Formatter
	switch hc.Formatter.Kind {
	case "json":
		f = logger.JSONFormatter{}
	default:
		f = logger.PlainFormatter{Colored: hc.Formatter.Colored}
	}

	var e logger.Emitter
	var err error
	switch hc.Emitter.Kind {
	case "file":
		e, err = logger.NewFileEmitter(hc.Emitter.Path)
	case "network":
		e = logger.NewNetworkEmitter(hc.Emitter.Network, hc.Emitter.Addr)
	default:
		e = logger.NewConsoleEmitter(hc.Emitter.Stderr)
	}
	if err != nil {
		return logger.Handler{}, err
	}

	return logger.Handler{Matcher: logger.Matcher{Rules: rules}, Formatter: f, Emitter: e}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (a *App) startPredefinedGraph(pg PredefinedGraph) (*msg.CmdResult, error) {
	return a.AcceptCmd(BuildStartGraphCmd(pg))
}

// BuildStartGraphCmd converts a config-sourced PredefinedGraph entry into
// the StartGraph command its nodes/connections describe. Exported so
// tooling (the CLI's "validate" subcommand) can parse a graph through
// startgraph.Parse without an App or addon registry to run it against.
func BuildStartGraphCmd(pg PredefinedGraph) *msg.Cmd {
	nodes := make([]value.Value, 0, len(pg.Nodes))
	for _, n := range pg.Nodes {
		nodes = append(nodes, valueFromAny(n))
	}
	conns := make([]value.Value, 0, len(pg.Connections))
	for _, c := range pg.Connections {
		conns = append(conns, valueFromAny(c))
	}
	props := value.Map().Set("nodes", value.Array(nodes...)).Set("connections", value.Array(conns...))
	if pg.GraphName != "" {
		props = props.Set("graph_name", value.String(pg.GraphName))
	}
	return msg.NewStartGraphCmd(props, loc.Loc{ExtensionName: "app"})
}

// valueFromAny converts the untyped map[string]interface{}/[]interface{}
// shape mapstructure/viper produce from a JSON document into the
// runtime's tagged Value type. Unlike Value's own JSON codec (which
// round-trips an already-tagged envelope), this treats every JSON number
// as an f64 and every JSON object key order as unspecified, which is
// exactly what the standard decoder already gave us.
func valueFromAny(a interface{}) value.Value {
	switch v := a.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(v)
	case string:
		return value.String(v)
	case float64:
		return value.F64(v)
	case int:
		return value.I64(int64(v))
	case []interface{}:
		items := make([]value.Value, 0, len(v))
		for _, item := range v {
			items = append(items, valueFromAny(item))
		}
		return value.Array(items...)
	case map[string]interface{}:
		out := value.Map()
		for k, val := range v {
			out = out.Set(k, valueFromAny(val))
		}
		return out
	default:
		return value.Null
	}
}

// AcceptCmd routes an incoming command. A StartGraph destined for a
// graph id that doesn't exist yet creates a new Engine (spec §4.2);
// every other command is routed to the owning Engine by graph id.
func (a *App) AcceptCmd(cmd *msg.Cmd) (*msg.CmdResult, error) {
	if cmd.Name() == msg.NameCloseApp {
		a.Close()
		return cmd.Result(errors.CodeOK, value.Null), nil
	}

	if cmd.Name() == msg.NameStartGraph {
		return a.acceptStartGraph(cmd)
	}

	dests := cmd.Destinations()
	if len(dests) == 0 {
		return cmd.Result(errors.CodeMsgNotConnected, value.String("no destination")), nil
	}
	e := a.engineFor(dests[0].GraphID)
	if e == nil {
		return cmd.Result(errors.CodeMsgNotConnected, value.String("unknown graph "+dests[0].GraphID)), nil
	}
	ch, err := e.RouteCmd(cmd)
	if err != nil {
		return cmd.Result(errors.GetCode(err), value.String(err.Error())), nil
	}
	result := <-ch
	return result, nil
}

func (a *App) acceptStartGraph(cmd *msg.Cmd) (*msg.CmdResult, error) {
	graphID := newGraphID()
	g, err := startgraph.Parse(cmd, a.URI(), graphID)
	if err != nil {
		return cmd.Result(errors.GetCode(err), value.String(err.Error())), nil
	}

	e := engine.New(graphID, a.URI(), cmd, a.addons, a.logger, a.remote)
	if err := e.Start(g); err != nil {
		return cmd.Result(errors.GetCode(err), value.String(err.Error())), nil
	}

	a.mu.Lock()
	a.engines[graphID] = e
	a.mu.Unlock()

	return cmd.Result(errors.CodeOK, value.String(graphID)), nil
}

// newGraphID mints a time-ordered graph id. UUIDv7 embeds a millisecond
// timestamp in its high bits, giving the ULID-like monotonic ordering
// spec §4.2 asks for without a separate counter.
func newGraphID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (a *App) engineFor(graphID string) *engine.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engines[graphID]
}

// Engines returns a snapshot of every currently running Engine, keyed by
// graph id. The wire listener demuxes inbound frames through EngineFor.
func (a *App) Engines() map[string]*engine.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]*engine.Engine, len(a.engines))
	for k, v := range a.engines {
		out[k] = v
	}
	return out
}

// Run blocks until Close is called or ctx is cancelled, then tears down
// every running Engine and returns. It returns a process exit status:
// 0 on clean shutdown, 1 if ctx was cancelled without an explicit close.
func (a *App) Run(ctx context.Context) int {
	select {
	case <-a.done:
	case <-ctx.Done():
	}
	a.teardown()
	select {
	case <-a.done:
		return 0
	default:
		return 1
	}
}

// Close requests shutdown; idempotent (spec §4.1).
func (a *App) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
	})
}

// teardownTimeout bounds how long teardown waits for an Engine's close
// sequence to finish. Engine.Close fans out one extthread.Stop per
// extension thread, run concurrently; extthread's own 30s stop timeout
// bounds only the drain of each thread's dispatch loop, while the waits
// for on_stop_done and on_deinit_done have no bound of their own.
const teardownTimeout = 35 * time.Second

func (a *App) teardown() {
	a.mu.Lock()
	engines := make([]*engine.Engine, 0, len(a.engines))
	for _, e := range a.engines {
		engines = append(engines, e)
	}
	a.engines = make(map[string]*engine.Engine)
	a.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range engines {
		e.Close()
		wg.Add(1)
		go func(e *engine.Engine) {
			defer wg.Done()
			select {
			case <-e.Done():
			case <-time.After(teardownTimeout):
			}
		}(e)
	}
	wg.Wait()

	a.mu.Lock()
	listener, dialer := a.listener, a.dialer
	a.listener, a.dialer = nil, nil
	a.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}
	if dialer != nil {
		dialer.Close()
	}

	globalApps.remove(a)
}
