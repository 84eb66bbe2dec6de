// Package graph implements the runtime's Graph model (spec §3 "Graph"): a
// parsed description of extension groups, extensions and the connections
// wiring them together, plus the invariants every accepted graph must
// satisfy before StartGraph is allowed to proceed.
package graph

import (
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

// GroupInfo is one extension-group-info record: an addon-created group
// instance, identified within its (app_uri, graph_id).
type GroupInfo struct {
	AppURI       string
	GraphID      string
	AddonName    string
	InstanceName string
}

// ExtensionInfo is one extension-info record: an addon-created extension
// instance, bound to the group instance that schedules it, with its static
// property block from the graph's node description.
type ExtensionInfo struct {
	Loc               loc.Loc
	AddonName         string
	GroupInstanceName string
	Properties        value.Value
}

// Connection wires a source Loc to a destination Loc, optionally narrowed
// by message kind and/or name. A nil KindFilter or empty NameFilter means
// "any".
type Connection struct {
	Source     loc.Loc
	Dest       loc.Loc
	KindFilter *msg.Kind
	NameFilter string
}

// Matches reports whether m would be forwarded by this connection.
func (c Connection) Matches(m msg.Message) bool {
	if c.KindFilter != nil && *c.KindFilter != m.Kind() {
		return false
	}
	if c.NameFilter != "" && c.NameFilter != m.Name() {
		return false
	}
	return true
}

// Graph is a fully parsed StartGraph description (spec §3).
type Graph struct {
	ID          string
	Name        string
	AppURI      string
	Singleton   bool
	Groups      []GroupInfo
	Extensions  []ExtensionInfo
	Connections []Connection
}

// GroupByName returns the group instance named name, if any.
func (g *Graph) GroupByName(name string) (GroupInfo, bool) {
	for _, gi := range g.Groups {
		if gi.InstanceName == name {
			return gi, true
		}
	}
	return GroupInfo{}, false
}

// ExtensionByName returns the extension instance named name, if any.
func (g *Graph) ExtensionByName(name string) (ExtensionInfo, bool) {
	for _, ei := range g.Extensions {
		if ei.Loc.ExtensionName == name {
			return ei, true
		}
	}
	return ExtensionInfo{}, false
}

// ExtensionsInGroup returns the extensions scheduled onto the named group,
// in declaration order.
func (g *Graph) ExtensionsInGroup(groupName string) []ExtensionInfo {
	var out []ExtensionInfo
	for _, ei := range g.Extensions {
		if ei.GroupInstanceName == groupName {
			out = append(out, ei)
		}
	}
	return out
}

// ConnectionsFrom returns every connection whose source Loc matches src.
func (g *Graph) ConnectionsFrom(src loc.Loc) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.Source == src {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the structural invariants of an accepted graph: every
// extension names a group of this graph, every group carries this graph's
// id, and every connection endpoint local to g.AppURI names an extension
// of this graph. It does not compare a group's app URI with its
// extensions' app URIs, and it does not check endpoints on other apps.
func (g *Graph) Validate() error {
	for _, ei := range g.Extensions {
		if _, ok := g.GroupByName(ei.GroupInstanceName); !ok {
			return errors.WithCode(
				errors.Newf("graph: extension %q references unknown group %q", ei.Loc.ExtensionName, ei.GroupInstanceName),
				errors.CodeInvalidArgument,
			)
		}
	}
	for _, gi := range g.Groups {
		if gi.GraphID != g.ID {
			return errors.WithCode(
				errors.Newf("graph: group %q belongs to graph %q, not %q", gi.InstanceName, gi.GraphID, g.ID),
				errors.CodeInvalidArgument,
			)
		}
	}
	for _, c := range g.Connections {
		if c.Source.IsLocal(g.AppURI) {
			if _, ok := g.ExtensionByName(c.Source.ExtensionName); !ok {
				return errors.WithCode(
					errors.Newf("graph: connection source %q names no extension in this graph", c.Source.ExtensionName),
					errors.CodeInvalidArgument,
				)
			}
		}
		if c.Dest.IsLocal(g.AppURI) {
			if _, ok := g.ExtensionByName(c.Dest.ExtensionName); !ok {
				return errors.WithCode(
					errors.Newf("graph: connection dest %q names no extension in this graph", c.Dest.ExtensionName),
					errors.CodeInvalidArgument,
				)
			}
		}
	}
	return nil
}
