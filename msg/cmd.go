package msg

import (
	"github.com/google/uuid"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/value"
)

// Cmd is a command message. Every Cmd carries a 128-bit correlation id used
// to match CmdResults back to their originator (spec §3, §4.3 "Ordering
// guarantees").
type Cmd struct {
	Envelope
	correlationID uuid.UUID
	// TimeoutMS is a caller-supplied timeout in milliseconds; zero means no
	// timeout. tenenv.Env.SendCmd does not read this field: the timeout it
	// enforces is its own timeoutMS argument (spec §4.3 "Cancellation &
	// timeouts").
	TimeoutMS int64
}

// NewCmd creates a command named name addressed to dests. The correlation
// id is generated fresh; use it to match returned CmdResults.
func NewCmd(name string, dests ...loc.Loc) *Cmd {
	return &Cmd{
		Envelope:      newEnvelope(name, dests),
		correlationID: uuid.New(),
	}
}

func (c *Cmd) Kind() Kind              { return KindCmd }
func (c *Cmd) CorrelationID() uuid.UUID { return c.correlationID }

// Result builds the CmdResult that answers this Cmd, addressed back to the
// Cmd's source. Extensions call ten_env.ReturnResult with the value this
// returns rather than constructing a CmdResult by hand, so the correlation
// id and destination are never mismatched.
func (c *Cmd) Result(status errors.Code, detail value.Value) *CmdResult {
	r := &CmdResult{
		Envelope:      newEnvelope(c.Name()+"_result", []loc.Loc{c.Source()}),
		correlationID: c.correlationID,
		Status:        status,
	}
	if !detail.IsNull() {
		r.SetProperty("detail", detail)
	}
	return r
}

// CmdResult answers a Cmd. A Cmd with N destinations produces N CmdResults,
// each delivered to the Cmd's originating thread (spec §8).
type CmdResult struct {
	Envelope
	correlationID uuid.UUID
	Status        errors.Code
}

func (r *CmdResult) Kind() Kind              { return KindCmdResult }
func (r *CmdResult) CorrelationID() uuid.UUID { return r.correlationID }

// Detail returns the result's diagnostic detail Value, if any was set.
func (r *CmdResult) Detail() (value.Value, bool) {
	return r.Properties().Get("detail")
}

// Built-in command names (spec §3, §4.6).
const (
	NameStartGraph = "ten:start_graph"
	NameStopGraph  = "ten:stop_graph"
	NameCloseApp   = "ten:close_app"
	NameTimer      = "ten:timer"
)

// NewStartGraphCmd builds the built-in StartGraph command. props must be
// the graph description object described in spec §4.6.
func NewStartGraphCmd(props value.Value, dests ...loc.Loc) *Cmd {
	c := NewCmd(NameStartGraph, dests...)
	c.SetProperties(props)
	return c
}

// NewStopGraphCmd builds the built-in StopGraph command targeting graphID.
func NewStopGraphCmd(graphID string, dests ...loc.Loc) *Cmd {
	c := NewCmd(NameStopGraph, dests...)
	c.SetProperty("graph_id", value.String(graphID))
	return c
}

// NewCloseAppCmd builds the built-in CloseApp command.
func NewCloseAppCmd(dests ...loc.Loc) *Cmd {
	return NewCmd(NameCloseApp, dests...)
}

// NewTimerCmd builds the built-in Timer command that fires after the given
// extension-thread-local timer id elapses.
func NewTimerCmd(timerID uint64, dests ...loc.Loc) *Cmd {
	c := NewCmd(NameTimer, dests...)
	c.SetProperty("timer_id", value.U64(timerID))
	return c
}
