// Package wire implements the msgpack-over-TCP transport (spec §6): a
// length-prefixed frame codec, a Listener that demuxes inbound frames to
// local Engines by graph id, and a Dialer that implements
// engine.RemoteRouter for outbound cross-App message hand-off.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/teranos/ten/errors"
)

// maxFrameBytes bounds a frame's declared length so a corrupt or hostile
// length prefix can't make ReadFrame allocate without limit.
const maxFrameBytes = 64 << 20

// ReadFrame reads one length-prefixed frame body: a big-endian uint32
// byte count followed by exactly that many bytes of msgpack body (spec
// §6). Read errors, including io.EOF on a clean peer close, are returned
// unwrapped so callers can distinguish "connection closed" from a
// genuine decode failure.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return nil, errors.WithCode(errors.Newf("wire: frame length %d exceeds limit", n), errors.CodeInvalidArgument)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body as one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
