package engine

import (
	"sync/atomic"

	"github.com/teranos/ten/extthread"
	"github.com/teranos/ten/graph"
)

// ExtensionContext holds one running graph's resources (spec §3
// "Extension-Context", §4.2): the accepted graph description, its active
// extension threads keyed by group instance name, and three counters:
// closedCount and totalCount, which the close protocol uses to know when
// every thread has reported back, and readyCount, which nothing
// increments.
type ExtensionContext struct {
	Graph   *graph.Graph
	threads map[string]*extthread.Thread

	readyCount  atomic.Int32
	closedCount atomic.Int32
	totalCount  atomic.Int32
}

func newExtensionContext() *ExtensionContext {
	return &ExtensionContext{threads: make(map[string]*extthread.Thread)}
}

// Install takes ownership of g's info lists, as step 2/5 of the start
// sequence describe.
func (c *ExtensionContext) Install(g *graph.Graph) {
	c.Graph = g
}

func (c *ExtensionContext) addThread(groupInstanceName string, t *extthread.Thread) {
	c.threads[groupInstanceName] = t
}

// Threads returns every extension thread this context owns.
func (c *ExtensionContext) Threads() map[string]*extthread.Thread {
	return c.threads
}

func (c *ExtensionContext) ReadyCount() int32  { return c.readyCount.Load() }
func (c *ExtensionContext) ClosedCount() int32 { return c.closedCount.Load() }
func (c *ExtensionContext) TotalCount() int32  { return c.totalCount.Load() }
