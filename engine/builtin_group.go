package engine

import (
	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/extthread"
	"github.com/teranos/ten/graph"
)

// DefaultExtensionGroupAddon names the runtime's built-in extension_group
// (spec §4.6): it hosts every extension the StartGraph command scheduled
// into it, in graph node declaration order. It is constructed directly by
// the Engine rather than through the addon registry, since unlike an
// ordinary addon it needs the graph being started, which doesn't exist yet
// when addons are registered.
const DefaultExtensionGroupAddon = "default_extension_group"

// defaultExtensionGroup implements extthread.Group by reading the graph's
// extension info for its instance and creating each extension through the
// addon registry.
type defaultExtensionGroup struct {
	extthread.BaseGroup
	g        *graph.Graph
	addons   *addon.Registry
	instance string
}

func (d *defaultExtensionGroup) CreateExtensions() ([]string, []extthread.Extension) {
	infos := d.g.ExtensionsInGroup(d.instance)
	names := make([]string, 0, len(infos))
	exts := make([]extthread.Extension, 0, len(infos))
	for _, ei := range infos {
		inst, err := d.addons.Create(addon.KindExtension, ei.AddonName, ei.Loc.ExtensionName, ei.Properties)
		if err != nil {
			// The extension is left out of the group, so no message
			// reaches it; no on_init failure is reported for an
			// unresolvable extension addon (spec only requires this for
			// group addons during Start, §4.2 "Failure semantics").
			continue
		}
		ext, ok := inst.(extthread.Extension)
		if !ok {
			continue
		}
		names = append(names, ei.Loc.ExtensionName)
		exts = append(exts, ext)
	}
	return names, exts
}
