package msg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/value"
)

func TestNewEnvelopeRequiresDestination(t *testing.T) {
	assert.Panics(t, func() {
		NewCmd("hello_world")
	})
}

func TestCmdResultCarriesCorrelationID(t *testing.T) {
	dest := loc.Loc{ExtensionName: "ext1"}
	cmd := NewCmd("hello_world", dest)

	result := cmd.Result(errors.CodeOK, value.String("hello world, too"))

	assert.Equal(t, cmd.CorrelationID(), result.CorrelationID())
	assert.Equal(t, errors.CodeOK, result.Status)

	detail, ok := result.Detail()
	require.True(t, ok)
	s, _ := detail.String()
	assert.Equal(t, "hello world, too", s)
}

func TestResultIsAddressedBackToSource(t *testing.T) {
	src := loc.Loc{ExtensionName: "ext2"}
	cmd := NewCmd("ping", loc.Loc{ExtensionName: "ext1"})
	cmd.SetSource(src)

	result := cmd.Result(errors.CodeOK, value.Null)
	assert.Equal(t, []loc.Loc{src}, result.Destinations())
}

func TestBuiltinCommandConstructors(t *testing.T) {
	dest := loc.Loc{ExtensionName: "app"}

	sg := NewStartGraphCmd(value.Map().Set("nodes", value.Array()), dest)
	assert.Equal(t, NameStartGraph, sg.Name())

	stop := NewStopGraphCmd("g1", dest)
	assert.Equal(t, NameStopGraph, stop.Name())
	gid, _ := stop.Properties().Get("graph_id")
	s, _ := gid.String()
	assert.Equal(t, "g1", s)

	closeApp := NewCloseAppCmd(dest)
	assert.Equal(t, NameCloseApp, closeApp.Name())

	timer := NewTimerCmd(7, dest)
	assert.Equal(t, NameTimer, timer.Name())
}

func TestMessageKindsImplementInterface(t *testing.T) {
	dest := loc.Loc{ExtensionName: "ext1"}
	var messages = []Message{
		NewCmd("x", dest),
		NewData("d", nil, dest),
		NewAudioFrame("a", nil, dest),
		NewVideoFrame("v", nil, dest),
	}
	kinds := map[Kind]bool{}
	for _, m := range messages {
		kinds[m.Kind()] = true
	}
	assert.Len(t, kinds, 4)
}
