package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

func TestEncodeDecodeCmdRoundTrip(t *testing.T) {
	dest := loc.Loc{AppURI: "msgpack://b/", GraphID: "g1", ExtensionName: "ext1"}
	props := value.Map().Set("foo", value.String("bar")).Set("n", value.I64(42))
	cmd := msg.NewCmd("do_thing", dest)
	cmd.SetProperties(props)

	body, err := Encode(cmd)
	require.NoError(t, err)

	decoded, err := Decode(body)
	require.NoError(t, err)

	got, ok := decoded.(*msg.Cmd)
	require.True(t, ok)
	assert.Equal(t, cmd.ID(), got.ID())
	assert.Equal(t, cmd.CorrelationID(), got.CorrelationID())
	assert.Equal(t, cmd.Name(), got.Name())
	assert.Equal(t, cmd.Destinations(), got.Destinations())
	gotFoo, _ := got.Properties().Get("foo")
	fooStr, _ := gotFoo.String()
	assert.Equal(t, "bar", fooStr)
}

func TestEncodeDecodeCmdResultRoundTrip(t *testing.T) {
	client := loc.Loc{ExtensionName: "client"}
	cmd := msg.NewCmd("ping", client)
	result := cmd.Result(errors.CodeMsgNotConnected, value.String("nope"))

	body, err := Encode(result)
	require.NoError(t, err)

	decoded, err := Decode(body)
	require.NoError(t, err)

	got, ok := decoded.(*msg.CmdResult)
	require.True(t, ok)
	assert.Equal(t, result.CorrelationID(), got.CorrelationID())
	assert.Equal(t, errors.CodeMsgNotConnected, got.Status)
	detail, ok := got.Detail()
	require.True(t, ok)
	s, _ := detail.String()
	assert.Equal(t, "nope", s)
}

func TestEncodeDecodeDataAudioVideo(t *testing.T) {
	dest := loc.Loc{ExtensionName: "sink"}

	d := msg.NewData("chunk", []byte("payload"), dest)
	body, err := Encode(d)
	require.NoError(t, err)
	decodedData, err := Decode(body)
	require.NoError(t, err)
	_, ok := decodedData.(*msg.Data)
	assert.True(t, ok)

	af := msg.NewAudioFrame("pcm", []byte{1, 2, 3}, dest)
	body, err = Encode(af)
	require.NoError(t, err)
	decodedAudio, err := Decode(body)
	require.NoError(t, err)
	_, ok = decodedAudio.(*msg.AudioFrame)
	assert.True(t, ok)

	vf := msg.NewVideoFrame("frame", []byte{4, 5, 6}, dest)
	body, err = Encode(vf)
	require.NoError(t, err)
	decodedVideo, err := Decode(body)
	require.NoError(t, err)
	_, ok = decodedVideo.(*msg.VideoFrame)
	assert.True(t, ok)
}

func TestDecodeRejectsFrameWithNoDestinations(t *testing.T) {
	payload, err := value.Null.MarshalBinary()
	require.NoError(t, err)
	h := frameHeader{Name: "x", MsgID: idBytes(uuid.New())}
	body, err := msgpack.Marshal(&frameBody{Kind: KindTagData, Header: h, Payload: payload})
	require.NoError(t, err)

	_, err = Decode(body)
	assert.Error(t, err)
}
