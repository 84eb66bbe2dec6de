package msg

import (
	"github.com/google/uuid"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/value"
)

// newEnvelopeFromWire reconstructs an Envelope carrying exactly the id,
// source, destinations and properties decoded off a wire frame, rather
// than minting a fresh id the way newEnvelope does for locally-originated
// messages. Used only by the wire transport's decoder.
func newEnvelopeFromWire(id uuid.UUID, name string, src loc.Loc, dests []loc.Loc, props value.Value) Envelope {
	if len(dests) == 0 {
		panic("msg: a Message must carry at least one destination Loc")
	}
	if props.IsNull() {
		props = value.Map()
	}
	return Envelope{
		id:    id,
		name:  name,
		src:   src,
		dests: append([]loc.Loc(nil), dests...),
		props: props,
	}
}

// CmdFromWire reconstructs a Cmd decoded off a wire frame (spec §6),
// preserving its msg_id and correlation_id rather than generating new ones
// the way NewCmd does for a locally-originated command.
func CmdFromWire(id, correlationID uuid.UUID, name string, src loc.Loc, dests []loc.Loc, props value.Value) *Cmd {
	return &Cmd{
		Envelope:      newEnvelopeFromWire(id, name, src, dests, props),
		correlationID: correlationID,
	}
}

// CmdResultFromWire reconstructs a CmdResult decoded off a wire frame,
// preserving its msg_id, correlation_id and status code.
func CmdResultFromWire(id, correlationID uuid.UUID, name string, src loc.Loc, dests []loc.Loc, status errors.Code, props value.Value) *CmdResult {
	return &CmdResult{
		Envelope:      newEnvelopeFromWire(id, name, src, dests, props),
		correlationID: correlationID,
		Status:        status,
	}
}

// DataFromWire reconstructs a Data message decoded off a wire frame. The
// property Value carries the payload; wire-format Data has no separate
// byte buffer distinct from its properties, so Buf is left empty.
func DataFromWire(id uuid.UUID, name string, src loc.Loc, dests []loc.Loc, props value.Value) *Data {
	return &Data{Envelope: newEnvelopeFromWire(id, name, src, dests, props)}
}

// AudioFrameFromWire reconstructs an AudioFrame decoded off a wire frame.
func AudioFrameFromWire(id uuid.UUID, name string, src loc.Loc, dests []loc.Loc, props value.Value) *AudioFrame {
	return &AudioFrame{Envelope: newEnvelopeFromWire(id, name, src, dests, props)}
}

// VideoFrameFromWire reconstructs a VideoFrame decoded off a wire frame.
func VideoFrameFromWire(id uuid.UUID, name string, src loc.Loc, dests []loc.Loc, props value.Value) *VideoFrame {
	return &VideoFrame{Envelope: newEnvelopeFromWire(id, name, src, dests, props)}
}
