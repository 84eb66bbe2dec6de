// Package startgraph implements the Start-Graph protocol (spec §4.6):
// parsing a StartGraph command's property Value into a graph.Graph,
// materializing the implicit default_extension_group for extensions that
// don't name one.
package startgraph

import (
	"github.com/teranos/ten/errors"
	"github.com/teranos/ten/graph"
	"github.com/teranos/ten/loc"
	"github.com/teranos/ten/msg"
	"github.com/teranos/ten/value"
)

// DefaultExtensionGroupAddon is the built-in addon name implicit groups are
// created from.
const DefaultExtensionGroupAddon = "default_extension_group"

// NodeDesc describes one graph node as carried in StartGraph's property.
type NodeDesc struct {
	Type            string // "extension" | "extension_group"
	Name            string
	Addon           string
	ExtensionGroup  string // only meaningful for type == "extension"
	AppURI          string
	Property        value.Value
}

// ConnDesc describes one connection as carried in StartGraph's property.
type ConnDesc struct {
	Source     loc.Loc
	Dest       loc.Loc
	MsgKind    *msg.Kind
	MsgName    string
}

// Parse builds a graph.Graph from cmd's property Value, assigning it
// graphID and binding it to appURI. cmd must be the accepted StartGraph
// command (spec §4.2 step 2).
func Parse(cmd *msg.Cmd, appURI, graphID string) (*graph.Graph, error) {
	if cmd.Name() != msg.NameStartGraph {
		return nil, errors.WithCode(errors.Newf("startgraph: %q is not a StartGraph command", cmd.Name()), errors.CodeInvalidArgument)
	}
	props := cmd.Properties()

	nodesVal, ok := props.Get("nodes")
	if !ok || nodesVal.Kind() != value.KindArray {
		return nil, errors.WithCode(errors.New("startgraph: missing or invalid \"nodes\""), errors.CodeInvalidJSON)
	}
	nodeVals, _ := nodesVal.Array()

	nodes := make([]NodeDesc, 0, len(nodeVals))
	for _, nv := range nodeVals {
		nd, err := parseNodeDesc(nv)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, nd)
	}

	var conns []ConnDesc
	if connsVal, ok := props.Get("connections"); ok && connsVal.Kind() == value.KindArray {
		connVals, _ := connsVal.Array()
		for _, cv := range connVals {
			cd, err := parseConnDesc(cv)
			if err != nil {
				return nil, err
			}
			conns = append(conns, cd)
		}
	}

	g := &graph.Graph{ID: graphID, AppURI: appURI}
	if name, ok := props.Get("graph_name"); ok {
		g.Name, _ = name.String()
	}
	if singleton, ok := props.Get("singleton"); ok {
		g.Singleton, _ = singleton.Bool()
	}

	materializeImplicitGroups(g, nodes)

	for _, n := range nodes {
		switch n.Type {
		case "extension_group":
			g.Groups = append(g.Groups, graph.GroupInfo{
				AppURI: appURI, GraphID: graphID, AddonName: n.Addon, InstanceName: n.Name,
			})
		case "extension":
			g.Extensions = append(g.Extensions, graph.ExtensionInfo{
				Loc:               loc.Loc{AppURI: appURI, GraphID: graphID, ExtensionName: n.Name},
				AddonName:         n.Addon,
				GroupInstanceName: n.ExtensionGroup,
				Properties:        n.Property,
			})
		default:
			return nil, errors.WithCode(errors.Newf("startgraph: unknown node type %q", n.Type), errors.CodeInvalidArgument)
		}
	}

	for _, c := range conns {
		g.Connections = append(g.Connections, graph.Connection{
			Source:     c.Source.ResolvedAgainst(loc.Loc{AppURI: appURI, GraphID: graphID}),
			Dest:       c.Dest.ResolvedAgainst(loc.Loc{AppURI: appURI, GraphID: graphID}),
			KindFilter: c.MsgKind,
			NameFilter: c.MsgName,
		})
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// materializeImplicitGroups rewrites extension nodes with no named
// extension_group onto a per-graph "default_extension_group" instance
// (spec §4.6), adding that implicit group node to the graph.
func materializeImplicitGroups(g *graph.Graph, nodes []NodeDesc) {
	const implicitName = "default_extension_group"
	needsImplicit := false
	for i := range nodes {
		if nodes[i].Type == "extension" && nodes[i].ExtensionGroup == "" {
			nodes[i].ExtensionGroup = implicitName
			needsImplicit = true
		}
	}
	if !needsImplicit {
		return
	}
	for _, n := range nodes {
		if n.Type == "extension_group" && n.Name == implicitName {
			return
		}
	}
	g.Groups = append(g.Groups, graph.GroupInfo{
		AppURI: g.AppURI, GraphID: g.ID, AddonName: DefaultExtensionGroupAddon, InstanceName: implicitName,
	})
}

func parseNodeDesc(v value.Value) (NodeDesc, error) {
	var n NodeDesc
	if v.Kind() != value.KindMap {
		return n, errors.WithCode(errors.New("startgraph: node description must be a map"), errors.CodeInvalidJSON)
	}
	typeVal, ok := v.Get("type")
	if !ok {
		return n, errors.WithCode(errors.New("startgraph: node missing \"type\""), errors.CodeInvalidArgument)
	}
	n.Type, _ = typeVal.String()

	nameVal, ok := v.Get("name")
	if !ok {
		return n, errors.WithCode(errors.New("startgraph: node missing \"name\""), errors.CodeInvalidArgument)
	}
	n.Name, _ = nameVal.String()

	addonVal, ok := v.Get("addon")
	if !ok {
		return n, errors.WithCode(errors.Newf("startgraph: node %q missing \"addon\"", n.Name), errors.CodeInvalidArgument)
	}
	n.Addon, _ = addonVal.String()

	if eg, ok := v.Get("extension_group"); ok {
		n.ExtensionGroup, _ = eg.String()
	}
	if app, ok := v.Get("app"); ok {
		n.AppURI, _ = app.String()
	}
	if prop, ok := v.Get("property"); ok {
		n.Property = prop
	} else {
		n.Property = value.Map()
	}
	return n, nil
}

func parseConnDesc(v value.Value) (ConnDesc, error) {
	var c ConnDesc
	if v.Kind() != value.KindMap {
		return c, errors.WithCode(errors.New("startgraph: connection description must be a map"), errors.CodeInvalidJSON)
	}
	srcVal, ok := v.Get("source")
	if !ok {
		return c, errors.WithCode(errors.New("startgraph: connection missing \"source\""), errors.CodeInvalidArgument)
	}
	src, err := parseLoc(srcVal)
	if err != nil {
		return c, err
	}
	c.Source = src

	destVal, ok := v.Get("dest")
	if !ok {
		return c, errors.WithCode(errors.New("startgraph: connection missing \"dest\""), errors.CodeInvalidArgument)
	}
	dest, err := parseLoc(destVal)
	if err != nil {
		return c, err
	}
	c.Dest = dest

	if kindVal, ok := v.Get("msg_kind"); ok {
		s, _ := kindVal.String()
		kind, err := parseKind(s)
		if err != nil {
			return c, err
		}
		c.MsgKind = &kind
	}
	if nameVal, ok := v.Get("msg_name"); ok {
		c.MsgName, _ = nameVal.String()
	}
	return c, nil
}

func parseLoc(v value.Value) (loc.Loc, error) {
	if v.Kind() != value.KindMap {
		return loc.Empty, errors.WithCode(errors.New("startgraph: Loc must be a map"), errors.CodeInvalidJSON)
	}
	var l loc.Loc
	if a, ok := v.Get("app_uri"); ok {
		l.AppURI, _ = a.String()
	}
	if g, ok := v.Get("graph_id"); ok {
		l.GraphID, _ = g.String()
	}
	if e, ok := v.Get("extension_name"); ok {
		l.ExtensionName, _ = e.String()
	}
	return l, nil
}

func parseKind(s string) (msg.Kind, error) {
	switch s {
	case "cmd":
		return msg.KindCmd, nil
	case "cmd_result":
		return msg.KindCmdResult, nil
	case "data":
		return msg.KindData, nil
	case "audio_frame":
		return msg.KindAudioFrame, nil
	case "video_frame":
		return msg.KindVideoFrame, nil
	default:
		return 0, errors.WithCode(errors.Newf("startgraph: unknown msg_kind %q", s), errors.CodeInvalidArgument)
	}
}
