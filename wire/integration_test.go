package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/engine"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/extthread"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/startgraph"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

type helloExtension struct {
	extthread.BaseExtension
}

func (helloExtension) OnCmd(env *tenenv.Env, cmd *msg.Cmd) {
	env.ReturnResult(cmd.Result(errors.CodeOK, value.String("hello world, too")))
}

func newHelloRegistry() *addon.Registry {
	r := addon.NewRegistry()
	r.Register(addon.KindExtension, "test_extension", func(instanceName string, props value.Value) (interface{}, error) {
		return &helloExtension{}, nil
	})
	return r
}

type singleEngineRouter struct {
	graphID string
	e       *engine.Engine
}

func (r *singleEngineRouter) EngineFor(graphID string) *engine.Engine {
	if graphID != r.graphID {
		return nil
	}
	return r.e
}

// TestCmdRoundTripsOverLoopbackTCP exercises the full wire path end to
// end: a Dialer on one side sends a Cmd, the Listener on the other side
// demuxes it to a local Engine by graph id, the Engine dispatches it to
// the extension thread, and the CmdResult travels back over the same
// connection to the Dialer's pending channel.
func TestCmdRoundTripsOverLoopbackTCP(t *testing.T) {
	router := &singleEngineRouter{graphID: "g1"}
	ln, err := Listen("127.0.0.1:0", router, nil)
	require.NoError(t, err)
	defer ln.Close()

	serverURI := "msgpack://" + ln.Addr().String() + "/"

	nodes := value.Array(value.Map().
		Set("type", value.String("extension")).
		Set("name", value.String("test_extension")).
		Set("addon", value.String("test_extension")))
	startCmd := msg.NewStartGraphCmd(value.Map().Set("nodes", nodes), loc.Loc{ExtensionName: "app"})
	g, err := startgraph.Parse(startCmd, serverURI, "g1")
	require.NoError(t, err)

	e := engine.New("g1", serverURI, startCmd, newHelloRegistry(), nil, nil)
	require.NoError(t, e.Start(g))
	defer e.Close()
	router.e = e

	dialer := NewDialer(nil, nil)
	defer dialer.Close()

	dest := loc.Loc{AppURI: serverURI, GraphID: "g1", ExtensionName: "test_extension"}
	cmd := msg.NewCmd("ping", dest)

	ch, err := dialer.SendCmd(dest, cmd)
	require.NoError(t, err)

	select {
	case result := <-ch:
		assert.Equal(t, errors.CodeOK, result.Status)
		detail, ok := result.Detail()
		require.True(t, ok)
		s, _ := detail.String()
		assert.Equal(t, "hello world, too", s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cmd result over the wire")
	}
}

// TestSendCmdToUnroutableGraphGetsMsgNotConnected exercises the inbound
// side's fallback: a graph id the Listener's Router doesn't recognize
// still gets an answer, not a hung connection.
func TestSendCmdToUnroutableGraphGetsMsgNotConnected(t *testing.T) {
	ln, err := Listen("127.0.0.1:0", &singleEngineRouter{graphID: "known"}, nil)
	require.NoError(t, err)
	defer ln.Close()

	dialer := NewDialer(nil, nil)
	defer dialer.Close()

	dest := loc.Loc{AppURI: "msgpack://" + ln.Addr().String() + "/", GraphID: "unknown-graph", ExtensionName: "x"}
	cmd := msg.NewCmd("ping", dest)

	ch, err := dialer.SendCmd(dest, cmd)
	require.NoError(t, err)

	select {
	case result := <-ch:
		assert.Equal(t, errors.CodeMsgNotConnected, result.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cmd result over the wire")
	}
}
