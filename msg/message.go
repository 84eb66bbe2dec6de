// Package msg implements the runtime's Message model (spec §3): the sum of
// Cmd, CmdResult, Data, AudioFrame and VideoFrame, plus the built-in command
// subtypes StartGraph, StopGraph, CloseApp and Timer.
package msg

import (
	"github.com/google/uuid"

	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/value"
)

// Kind tags which sum member a Message is.
type Kind uint8

const (
	KindCmd Kind = iota
	KindCmdResult
	KindData
	KindAudioFrame
	KindVideoFrame
)

func (k Kind) String() string {
	switch k {
	case KindCmd:
		return "cmd"
	case KindCmdResult:
		return "cmd_result"
	case KindData:
		return "data"
	case KindAudioFrame:
		return "audio_frame"
	case KindVideoFrame:
		return "video_frame"
	default:
		return "unknown"
	}
}

// Message is implemented by every sum member. A Message is owned by
// whoever holds it: sending it (ten_env.send_*) transfers ownership, and
// the sender must not touch it again afterward.
type Message interface {
	Kind() Kind
	Name() string
	Source() loc.Loc
	Destinations() []loc.Loc
	Properties() value.Value
	// ID is the message's own integrity-marker identity, carried as the
	// wire header's msg_id.
	ID() uuid.UUID
}

// Envelope carries the fields common to every Message kind.
type Envelope struct {
	id     uuid.UUID
	name   string
	src    loc.Loc
	dests  []loc.Loc
	props  value.Value
}

func newEnvelope(name string, dests []loc.Loc) Envelope {
	if len(dests) == 0 {
		panic("msg: a Message must carry at least one destination Loc")
	}
	return Envelope{
		id:    uuid.New(),
		name:  name,
		dests: append([]loc.Loc(nil), dests...),
		props: value.Map(),
	}
}

func (e Envelope) ID() uuid.UUID             { return e.id }
func (e Envelope) Name() string              { return e.name }
func (e Envelope) Source() loc.Loc           { return e.src }
func (e Envelope) Destinations() []loc.Loc   { return append([]loc.Loc(nil), e.dests...) }
func (e Envelope) Properties() value.Value   { return e.props }

// SetSource fixes the envelope's source Loc. Called by the extension thread
// when dispatching a message it owns, never by extension code directly.
func (e *Envelope) SetSource(l loc.Loc) { e.src = l }

// SetProperty sets a single property path at the top level of the property
// map, cloning the incoming value.
func (e *Envelope) SetProperty(key string, v value.Value) {
	e.props = e.props.Set(key, v)
}

// SetProperties replaces the entire property map. v must be a map Value.
func (e *Envelope) SetProperties(v value.Value) {
	if v.Kind() != value.KindMap {
		panic("msg: SetProperties requires a map Value")
	}
	e.props = v
}
