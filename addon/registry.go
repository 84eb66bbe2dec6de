// Package addon implements the runtime's Addon host (spec §3 "Addon",
// §4 component 3): named, dynamically-registered factories for extensions,
// extension groups and addon loaders. Grounded on the teacher's
// HandlerRegistry pattern (pulse/async/handler.go) — a mutex-guarded map
// keyed by name, panicking on duplicate registration.
package addon

import (
	"fmt"
	"sync"

	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/value"
)

// Kind distinguishes the three families of addon a Registry can hold. Names
// are unique per Kind, not globally — an extension and an extension_group
// may share a name without conflict.
type Kind uint8

const (
	KindExtension Kind = iota
	KindExtensionGroup
	KindAddonLoader
)

func (k Kind) String() string {
	switch k {
	case KindExtension:
		return "extension"
	case KindExtensionGroup:
		return "extension_group"
	case KindAddonLoader:
		return "addon_loader"
	default:
		return "unknown"
	}
}

// Factory creates one instance of the named addon. instanceName is the
// extension/group instance name assigned by the graph, distinct from the
// addon name the factory is registered under. props carries the instance's
// static property block from the graph node description (spec §4.6). The
// concrete return type depends on kind: KindExtension factories return an
// extthread.Extension, KindExtensionGroup factories return an
// extthread.Group, KindAddonLoader factories return a loader-specific type.
// The registry itself does not import those packages; callers
// type-assert the returned instance.
type Factory func(instanceName string, props value.Value) (interface{}, error)

type registryKey struct {
	kind Kind
	name string
}

// Registry is a thread-safe addon host. A host outlives every instance it
// produces: closing an instance never unregisters its factory (spec §3
// "Addon").
type Registry struct {
	mu        sync.RWMutex
	factories map[registryKey]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[registryKey]Factory)}
}

// Register adds factory under (kind, name). Panics if a factory is already
// registered for that pair — a programmer error, mirroring the teacher's
// HandlerRegistry.Register.
func (r *Registry) Register(kind Kind, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{kind, name}
	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("addon: %s %q already registered", kind, name))
	}
	r.factories[key] = factory
}

// Has reports whether a factory is registered for (kind, name).
func (r *Registry) Has(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[registryKey{kind, name}]
	return exists
}

// Names returns every name registered under kind, in no particular order.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for key := range r.factories {
		if key.kind == kind {
			names = append(names, key.name)
		}
	}
	return names
}

// Create instantiates the addon registered under (kind, name). Returns a
// CodeAddonNotFound error if nothing is registered there (spec §8 scenario
// 6, "missing addon").
func (r *Registry) Create(kind Kind, name, instanceName string, props value.Value) (interface{}, error) {
	r.mu.RLock()
	factory, ok := r.factories[registryKey{kind, name}]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithCode(
			errors.Newf("addon: no %s registered with name %q", kind, name),
			errors.CodeAddonNotFound,
		)
	}
	return factory(instanceName, props)
}
