package wire

import (
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

// kind_tag values (spec §6).
const (
	KindTagCmd        uint8 = 1
	KindTagCmdResult  uint8 = 2
	KindTagData       uint8 = 3
	KindTagAudioFrame uint8 = 4
	KindTagVideoFrame uint8 = 5
)

// locWire is the wire shape of a Loc; a map, not an array, since the spec
// only constrains the frame body's 3-tuple shape, not Loc's encoding.
type locWire struct {
	App   string `msgpack:"app"`
	Graph string `msgpack:"graph"`
	Ext   string `msgpack:"ext"`
}

func locToWire(l loc.Loc) locWire {
	return locWire{App: l.AppURI, Graph: l.GraphID, Ext: l.ExtensionName}
}

func wireToLoc(w locWire) loc.Loc {
	return loc.Loc{AppURI: w.App, GraphID: w.Graph, ExtensionName: w.Ext}
}

func locsToWire(ls []loc.Loc) []locWire {
	out := make([]locWire, len(ls))
	for i, l := range ls {
		out[i] = locToWire(l)
	}
	return out
}

func wireToLocs(ws []locWire) []loc.Loc {
	out := make([]loc.Loc, len(ws))
	for i, w := range ws {
		out[i] = wireToLoc(w)
	}
	return out
}

// frameHeader is the wire frame's header map (spec §6: "name, src,
// dests[], correlation_id?, status_code?, msg_id").
type frameHeader struct {
	Name          string    `msgpack:"name"`
	Src           locWire   `msgpack:"src"`
	Dests         []locWire `msgpack:"dests"`
	CorrelationID []byte    `msgpack:"correlation_id,omitempty"`
	StatusCode    *uint8    `msgpack:"status_code,omitempty"`
	MsgID         []byte    `msgpack:"msg_id"`
}

// frameBody is the wire frame's body: a 3-tuple [kind_tag, header,
// payload] (spec §6). as_array forces array rather than map encoding so
// the on-wire shape matches the spec literally.
type frameBody struct {
	_msgpack struct{} `msgpack:",as_array"`
	Kind     uint8
	Header   frameHeader
	Payload  []byte
}

func idBytes(id uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	return b
}

func idFromBytes(b []byte) (uuid.UUID, error) {
	if len(b) == 0 {
		return uuid.UUID{}, nil
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.UUID{}, errors.Wrap(err, "wire: decode id")
	}
	return id, nil
}

// Encode renders m as one wire frame body (spec §6), ready for WriteFrame.
// The payload is m's property Value's own canonical msgpack encoding
// (value.Value.MarshalBinary), nested as a byte string in the 3-tuple.
func Encode(m msg.Message) ([]byte, error) {
	payload, err := m.Properties().MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "wire: encode payload")
	}

	h := frameHeader{
		Name:  m.Name(),
		Src:   locToWire(m.Source()),
		Dests: locsToWire(m.Destinations()),
		MsgID: idBytes(m.ID()),
	}

	var kind uint8
	switch v := m.(type) {
	case *msg.Cmd:
		kind = KindTagCmd
		h.CorrelationID = idBytes(v.CorrelationID())
	case *msg.CmdResult:
		kind = KindTagCmdResult
		h.CorrelationID = idBytes(v.CorrelationID())
		sc := uint8(v.Status)
		h.StatusCode = &sc
	case *msg.Data:
		kind = KindTagData
	case *msg.AudioFrame:
		kind = KindTagAudioFrame
	case *msg.VideoFrame:
		kind = KindTagVideoFrame
	default:
		return nil, errors.WithCode(errors.Newf("wire: unsupported message type %T", m), errors.CodeInvalidArgument)
	}

	b, err := msgpack.Marshal(&frameBody{Kind: kind, Header: h, Payload: payload})
	if err != nil {
		return nil, errors.Wrap(err, "wire: encode frame")
	}
	return b, nil
}

// Decode parses a frame body produced by Encode back into the original
// Message kind, reconstructing its msg_id/correlation_id/status rather
// than minting fresh ones (spec §6).
func Decode(data []byte) (msg.Message, error) {
	var body frameBody
	if err := msgpack.Unmarshal(data, &body); err != nil {
		return nil, errors.Wrap(err, "wire: decode frame")
	}

	var props value.Value
	if err := props.UnmarshalBinary(body.Payload); err != nil {
		return nil, errors.Wrap(err, "wire: decode payload")
	}

	id, err := idFromBytes(body.Header.MsgID)
	if err != nil {
		return nil, err
	}
	src := wireToLoc(body.Header.Src)
	dests := wireToLocs(body.Header.Dests)
	if len(dests) == 0 {
		return nil, errors.WithCode(errors.New("wire: frame header carries no destinations"), errors.CodeInvalidArgument)
	}

	switch body.Kind {
	case KindTagCmd:
		cid, err := idFromBytes(body.Header.CorrelationID)
		if err != nil {
			return nil, err
		}
		return msg.CmdFromWire(id, cid, body.Header.Name, src, dests, props), nil
	case KindTagCmdResult:
		cid, err := idFromBytes(body.Header.CorrelationID)
		if err != nil {
			return nil, err
		}
		status := errors.CodeGeneric
		if body.Header.StatusCode != nil {
			status = errors.Code(*body.Header.StatusCode)
		}
		return msg.CmdResultFromWire(id, cid, body.Header.Name, src, dests, status, props), nil
	case KindTagData:
		return msg.DataFromWire(id, body.Header.Name, src, dests, props), nil
	case KindTagAudioFrame:
		return msg.AudioFrameFromWire(id, body.Header.Name, src, dests, props), nil
	case KindTagVideoFrame:
		return msg.VideoFrameFromWire(id, body.Header.Name, src, dests, props), nil
	default:
		return nil, errors.WithCode(errors.Newf("wire: unknown kind_tag %d", body.Kind), errors.CodeInvalidArgument)
	}
}
