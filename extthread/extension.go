// Package extthread implements the Extension Thread (spec §4.3): a
// cooperative, single-goroutine-per-thread scheduler hosting one extension
// group's extensions, dispatching messages from its inbox strictly
// serially. Grounded on the teacher's WorkerPool (pulse/async/worker.go) —
// context cancellation, a WaitGroup, and a graceful, timeout-bounded Stop.
package extthread

import (
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

// Extension is the callback surface spec §3/§4.3 describes: every Extension
// must live on exactly one thread for its whole life, and every on_X call
// the thread makes is followed by the extension calling env's matching
// on_X_done exactly once before the thread advances.
type Extension interface {
	OnConfigure(env *tenenv.Env)
	OnInit(env *tenenv.Env)
	OnStart(env *tenenv.Env)
	OnStop(env *tenenv.Env)
	OnDeinit(env *tenenv.Env)
	OnCmd(env *tenenv.Env, cmd *msg.Cmd)
	OnData(env *tenenv.Env, data *msg.Data)
	OnAudioFrame(env *tenenv.Env, frame *msg.AudioFrame)
	OnVideoFrame(env *tenenv.Env, frame *msg.VideoFrame)
}

// BaseExtension no-ops every callback so concrete extensions only need to
// embed it and override the handful they care about.
type BaseExtension struct{}

func (BaseExtension) OnConfigure(env *tenenv.Env) { env.OnConfigureDone() }
func (BaseExtension) OnInit(env *tenenv.Env)      { env.OnInitDone() }
func (BaseExtension) OnStart(env *tenenv.Env)     { env.OnStartDone() }
func (BaseExtension) OnStop(env *tenenv.Env)      { env.OnStopDone() }
func (BaseExtension) OnDeinit(env *tenenv.Env)    { env.OnDeinitDone() }
func (BaseExtension) OnCmd(env *tenenv.Env, cmd *msg.Cmd) {
	env.ReturnResult(cmd.Result(errors.CodeGeneric, value.Null))
}
func (BaseExtension) OnData(env *tenenv.Env, data *msg.Data)             {}
func (BaseExtension) OnAudioFrame(env *tenenv.Env, frame *msg.AudioFrame) {}
func (BaseExtension) OnVideoFrame(env *tenenv.Env, frame *msg.VideoFrame) {}

// Group is an extension group: the unit of scheduling policy ownership
// (spec §3 "Extension Group"). The default group schedules every extension
// it hosts onto a single cooperative Thread.
type Group interface {
	OnConfigure(env *tenenv.Env)
	OnInit(env *tenenv.Env)
	OnDeinit(env *tenenv.Env)
	// CreateExtensions returns the extensions this group hosts, keyed by
	// instance name, in the order the graph's node list declared them.
	CreateExtensions() (names []string, extensions []Extension)
}

// BaseGroup provides no-op Configure/Init/Deinit for the common case where
// a group delegates straight to CreateExtensions with no group-level state.
type BaseGroup struct{}

func (BaseGroup) OnConfigure(env *tenenv.Env) { env.OnConfigureDone() }
func (BaseGroup) OnInit(env *tenenv.Env)      { env.OnInitDone() }
func (BaseGroup) OnDeinit(env *tenenv.Env)    { env.OnDeinitDone() }
