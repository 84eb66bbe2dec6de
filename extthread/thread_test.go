package extthread

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

type nopRouter struct{}

func (nopRouter) RouteCmd(cmd *msg.Cmd) (<-chan *msg.CmdResult, error) { return nil, nil }
func (nopRouter) RouteData(d *msg.Data) error                         { return nil }
func (nopRouter) RouteAudioFrame(f *msg.AudioFrame) error             { return nil }
func (nopRouter) RouteVideoFrame(f *msg.VideoFrame) error             { return nil }
func (nopRouter) ReturnResult(result *msg.CmdResult) error            { return nil }
func (nopRouter) Closed() bool                                        { return false }

type recordingExtension struct {
	BaseExtension
	cmds chan *msg.Cmd
}

func (e *recordingExtension) OnCmd(env *tenenv.Env, cmd *msg.Cmd) {
	e.cmds <- cmd
}

type singleExtensionGroup struct {
	BaseGroup
	name string
	ext  *recordingExtension
}

func (g *singleExtensionGroup) CreateExtensions() ([]string, []Extension) {
	return []string{g.name}, []Extension{g.ext}
}

func TestThreadLifecycleAndDispatch(t *testing.T) {
	ext := &recordingExtension{cmds: make(chan *msg.Cmd, 1)}
	group := &singleExtensionGroup{name: "ext1", ext: ext}
	th := New("g1", "default", group, nopRouter{}, nil)

	require.NoError(t, th.Start())
	assert.Equal(t, StateRunning, th.State())
	assert.Equal(t, []string{"ext1"}, th.ExtensionNames())

	cmd := msg.NewCmd("ping", loc.Loc{GraphID: "g1", ExtensionName: "ext1"})
	require.NoError(t, th.Dispatch("ext1", cmd))

	select {
	case got := <-ext.cmds:
		assert.Equal(t, cmd.ID(), got.ID())
	case <-time.After(time.Second):
		t.Fatal("extension never received dispatched cmd")
	}

	th.Stop()
	assert.Equal(t, StateClosed, th.State())
	assert.True(t, th.Env("ext1").Closed())
}

func TestDispatchAfterStopFails(t *testing.T) {
	ext := &recordingExtension{cmds: make(chan *msg.Cmd, 1)}
	group := &singleExtensionGroup{name: "ext1", ext: ext}
	th := New("g1", "default", group, nopRouter{}, nil)
	require.NoError(t, th.Start())
	th.Stop()

	err := th.Dispatch("ext1", msg.NewCmd("ping", loc.Loc{ExtensionName: "ext1"}))
	assert.Error(t, err)
}

func TestTimerFiresAndDeliversCmd(t *testing.T) {
	ext := &recordingExtension{cmds: make(chan *msg.Cmd, 1)}
	group := &singleExtensionGroup{name: "ext1", ext: ext}
	th := New("g1", "default", group, nopRouter{}, nil)
	require.NoError(t, th.Start())
	defer th.Stop()

	th.StartTimer("ext1", 10*time.Millisecond)

	select {
	case got := <-ext.cmds:
		assert.Equal(t, msg.NameTimer, got.Name())
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Log(level int, category, funcName, fileName string, lineNo int, message string, fields value.Value) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, message)
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

type blockingExtension struct {
	BaseExtension
	release chan struct{}
}

func (e *blockingExtension) OnCmd(env *tenenv.Env, cmd *msg.Cmd) {
	<-e.release
}

func TestDispatchLogsBackpressureWhenInboxFull(t *testing.T) {
	ext := &blockingExtension{release: make(chan struct{})}
	lg := &recordingLogger{}
	g := &blockingSingleExtensionGroup{name: "ext1", ext: ext}
	th := New("g1", "default", g, nopRouter{}, lg)
	require.NoError(t, th.Start())

	// First dispatch is picked up by run() immediately and blocks inside
	// OnCmd, leaving the inbox empty to refill.
	require.NoError(t, th.Dispatch("ext1", msg.NewCmd("ping", loc.Loc{ExtensionName: "ext1"})))
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < inboxCapacity; i++ {
		require.NoError(t, th.Dispatch("ext1", msg.NewCmd("ping", loc.Loc{ExtensionName: "ext1"})))
	}

	done := make(chan struct{})
	go func() {
		_ = th.Dispatch("ext1", msg.NewCmd("ping", loc.Loc{ExtensionName: "ext1"}))
		close(done)
	}()

	require.Eventually(t, func() bool { return lg.count() > 0 }, time.Second, time.Millisecond, "expected a backpressure warning once the inbox filled")

	close(ext.release)
	<-done
}

type blockingSingleExtensionGroup struct {
	BaseGroup
	name string
	ext  *blockingExtension
}

func (g *blockingSingleExtensionGroup) CreateExtensions() ([]string, []Extension) {
	return []string{g.name}, []Extension{g.ext}
}

func TestCancelTimerPreventsDelivery(t *testing.T) {
	ext := &recordingExtension{cmds: make(chan *msg.Cmd, 1)}
	group := &singleExtensionGroup{name: "ext1", ext: ext}
	th := New("g1", "default", group, nopRouter{}, nil)
	require.NoError(t, th.Start())
	defer th.Stop()

	id := th.StartTimer("ext1", 50*time.Millisecond)
	assert.True(t, th.CancelTimer(id))

	select {
	case <-ext.cmds:
		t.Fatal("cancelled timer should not have fired")
	case <-time.After(100 * time.Millisecond):
	}
}
