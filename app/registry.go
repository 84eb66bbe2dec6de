package app

import "sync"

// diagnosticsRegistry is the typed replacement for the original runtime's
// process-wide g_apps list (spec §4.1, §9 "Global mutable state"):
// Apps are added on construction and removed when Run's teardown
// finishes, the list exists
// strictly to support diagnostic tooling, and all access goes through a
// mutex rather than a bare global.
type diagnosticsRegistry struct {
	mu   sync.Mutex
	apps map[string]*App
}

var globalApps = &diagnosticsRegistry{apps: make(map[string]*App)}

func (r *diagnosticsRegistry) add(a *App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[a.id] = a
}

func (r *diagnosticsRegistry) remove(a *App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.apps, a.id)
}

// Snapshot returns the ids of every currently live App in the process,
// for diagnostic tooling.
func Snapshot() []string {
	globalApps.mu.Lock()
	defer globalApps.mu.Unlock()
	ids := make([]string, 0, len(globalApps.apps))
	for id := range globalApps.apps {
		ids = append(ids, id)
	}
	return ids
}
