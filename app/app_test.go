package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/extthread"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/logger"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/tenenv"
	"github.com/teranos/ten/value"
)

type helloExtension struct {
	extthread.BaseExtension
}

func (helloExtension) OnCmd(env *tenenv.Env, cmd *msg.Cmd) {
	env.ReturnResult(cmd.Result(errors.CodeOK, value.String("hello world, too")))
}

func testRegistry() *addon.Registry {
	r := addon.NewRegistry()
	r.Register(addon.KindExtension, "test_extension", func(instanceName string, props value.Value) (interface{}, error) {
		return &helloExtension{}, nil
	})
	return r
}

// slowDeinitExtension takes a moment to deinit, so a test can tell whether
// its caller actually waited for on_deinit_done or returned early.
type slowDeinitExtension struct {
	extthread.BaseExtension
	deinitDone *atomic.Bool
}

func (e *slowDeinitExtension) OnDeinit(env *tenenv.Env) {
	time.Sleep(20 * time.Millisecond)
	e.deinitDone.Store(true)
	env.OnDeinitDone()
}

func TestAppRegistersAndUnregistersWithDiagnostics(t *testing.T) {
	a := New(testRegistry(), logger.New(), nil)
	ids := Snapshot()
	assert.Contains(t, ids, a.ID())

	a.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Equal(t, 0, a.Run(ctx))
	assert.NotContains(t, Snapshot(), a.ID())
}

func TestAcceptCmdStartsGraphAndRoutesToExtension(t *testing.T) {
	a := New(testRegistry(), logger.New(), nil)
	defer a.Close()

	node := value.Map().
		Set("type", value.String("extension")).
		Set("name", value.String("test_extension")).
		Set("addon", value.String("test_extension"))
	props := value.Map().Set("nodes", value.Array(node))
	start := msg.NewStartGraphCmd(props, loc.Loc{ExtensionName: "client"})

	result, err := a.AcceptCmd(start)
	require.NoError(t, err)
	require.Equal(t, errors.CodeOK, result.Status)

	graphID, ok := result.Detail()
	require.True(t, ok)
	gid, _ := graphID.String()
	require.NotEmpty(t, gid)

	engines := a.Engines()
	require.Contains(t, engines, gid)
}

func TestAcceptCmdCloseAppShutsDown(t *testing.T) {
	a := New(testRegistry(), logger.New(), nil)

	result, err := a.AcceptCmd(msg.NewCloseAppCmd(loc.Loc{ExtensionName: "client"}))
	require.NoError(t, err)
	assert.Equal(t, errors.CodeOK, result.Status)

	select {
	case <-a.done:
	case <-time.After(time.Second):
		t.Fatal("expected Close to be requested")
	}
}

func TestApplyConfigStartsPredefinedGraphs(t *testing.T) {
	a := New(testRegistry(), logger.New(), nil)
	defer a.Close()

	cfg := &Config{
		URI: "msgpack://local/",
		PredefinedGraphs: []PredefinedGraph{
			{
				GraphName: "g1",
				Nodes: []interface{}{
					map[string]interface{}{
						"type":  "extension",
						"name":  "test_extension",
						"addon": "test_extension",
					},
				},
			},
		},
	}
	require.NoError(t, a.applyConfig(cfg))
	assert.Len(t, a.Engines(), 1)
}

// TestRunWaitsForExtensionDeinitBeforeReturning guards spec §8 Testable
// Scenario 3: the process must not exit before every running extension's
// on_deinit_done has fired. Engine.Close only starts that shutdown; Run
// must block on it, not just on Close being requested.
func TestRunWaitsForExtensionDeinitBeforeReturning(t *testing.T) {
	var deinitDone atomic.Bool
	r := addon.NewRegistry()
	r.Register(addon.KindExtension, "slow_deinit_extension", func(instanceName string, props value.Value) (interface{}, error) {
		return &slowDeinitExtension{deinitDone: &deinitDone}, nil
	})

	a := New(r, logger.New(), nil)

	node := value.Map().
		Set("type", value.String("extension")).
		Set("name", value.String("ext1")).
		Set("addon", value.String("slow_deinit_extension"))
	props := value.Map().Set("nodes", value.Array(node))
	start := msg.NewStartGraphCmd(props, loc.Loc{ExtensionName: "client"})
	_, err := a.AcceptCmd(start)
	require.NoError(t, err)

	result, err := a.AcceptCmd(msg.NewCloseAppCmd(loc.Loc{ExtensionName: "client"}))
	require.NoError(t, err)
	assert.Equal(t, errors.CodeOK, result.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code := a.Run(ctx)

	assert.Equal(t, 0, code)
	assert.True(t, deinitDone.Load(), "Run returned before on_deinit_done fired")
}
