package tenenv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

type fakeRouter struct {
	cmds    []*msg.Cmd
	results chan *msg.CmdResult
	closed  bool
}

func (r *fakeRouter) RouteCmd(cmd *msg.Cmd) (<-chan *msg.CmdResult, error) {
	r.cmds = append(r.cmds, cmd)
	return r.results, nil
}
func (r *fakeRouter) RouteData(d *msg.Data) error               { return nil }
func (r *fakeRouter) RouteAudioFrame(f *msg.AudioFrame) error   { return nil }
func (r *fakeRouter) RouteVideoFrame(f *msg.VideoFrame) error   { return nil }
func (r *fakeRouter) ReturnResult(result *msg.CmdResult) error  { return nil }
func (r *fakeRouter) Closed() bool                              { return r.closed }

func TestSendCmdSetsSourceAndRoutes(t *testing.T) {
	router := &fakeRouter{results: make(chan *msg.CmdResult, 1)}
	owner := loc.Loc{ExtensionName: "ext1"}
	env := New(AttachExtension, owner, router, nil)

	cmd := msg.NewCmd("ping", loc.Loc{ExtensionName: "ext2"})
	_, err := env.SendCmd(cmd, 0)
	require.NoError(t, err)
	require.Len(t, router.cmds, 1)
	assert.Equal(t, owner, router.cmds[0].Source())
}

func TestSendCmdTimeoutSynthesizesResult(t *testing.T) {
	router := &fakeRouter{results: make(chan *msg.CmdResult)}
	env := New(AttachExtension, loc.Loc{ExtensionName: "ext1"}, router, nil)

	cmd := msg.NewCmd("ping", loc.Loc{ExtensionName: "ext2"})
	results, err := env.SendCmd(cmd, 10)
	require.NoError(t, err)

	select {
	case r := <-results:
		assert.Equal(t, errors.CodeTimeout, r.Status)
	case <-time.After(time.Second):
		t.Fatal("expected a synthetic timeout result")
	}
}

func TestOperationsFailAfterClose(t *testing.T) {
	router := &fakeRouter{results: make(chan *msg.CmdResult, 1)}
	env := New(AttachExtension, loc.Loc{ExtensionName: "ext1"}, router, nil)
	env.Close()

	_, err := env.SendCmd(msg.NewCmd("ping", loc.Loc{ExtensionName: "ext2"}), 0)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTenIsClosed, errors.GetCode(err))
}

func TestLifecycleGateUnblocksOnDone(t *testing.T) {
	env := New(AttachExtension, loc.Loc{}, &fakeRouter{}, nil)

	done := env.AwaitDone(PhaseConfigure)
	fired := make(chan struct{})
	go func() {
		<-done
		close(fired)
	}()

	select {
	case <-fired:
		t.Fatal("gate fired before OnConfigureDone")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, env.OnConfigureDone())
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("gate never fired after OnConfigureDone")
	}
}

func TestDoneCalledTwiceIsAnError(t *testing.T) {
	env := New(AttachExtension, loc.Loc{}, &fakeRouter{}, nil)
	require.NoError(t, env.OnConfigureDone())
	assert.Error(t, env.OnConfigureDone())
}

func TestPropertyRoundTrip(t *testing.T) {
	env := New(AttachExtension, loc.Loc{}, &fakeRouter{}, nil)
	env.SetProperty("name", value.String("ext1"))

	v, ok := env.GetProperty("name")
	require.True(t, ok)
	s, _ := v.String()
	assert.Equal(t, "ext1", s)
}
