package msg

import "github.com/teranos/ten/loc"

// Data is a fire-and-forget message carrying an arbitrary property payload.
type Data struct {
	Envelope
	Buf []byte
}

func NewData(name string, buf []byte, dests ...loc.Loc) *Data {
	return &Data{Envelope: newEnvelope(name, dests), Buf: append([]byte(nil), buf...)}
}

func (d *Data) Kind() Kind { return KindData }

// AudioFrame is a fire-and-forget audio payload message.
type AudioFrame struct {
	Envelope
	SampleRate    uint32
	Channels      uint8
	BytesPerSample uint8
	PCM           []byte
}

func NewAudioFrame(name string, pcm []byte, dests ...loc.Loc) *AudioFrame {
	return &AudioFrame{Envelope: newEnvelope(name, dests), PCM: append([]byte(nil), pcm...)}
}

func (f *AudioFrame) Kind() Kind { return KindAudioFrame }

// VideoFrame is a fire-and-forget video payload message.
type VideoFrame struct {
	Envelope
	Width, Height uint32
	PixelFormat   string
	Pixels        []byte
}

func NewVideoFrame(name string, pixels []byte, dests ...loc.Loc) *VideoFrame {
	return &VideoFrame{Envelope: newEnvelope(name, dests), Pixels: append([]byte(nil), pixels...)}
}

func (f *VideoFrame) Kind() Kind { return KindVideoFrame }
