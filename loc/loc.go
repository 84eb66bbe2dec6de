// Package loc implements the runtime's address type: the (app_uri,
// graph_id, extension_name) triple used to name every message endpoint
// (spec §3 Location).
package loc

import "fmt"

// Loc addresses an endpoint. Any field may be empty, meaning "current" —
// resolved relative to whichever component is interpreting the Loc (the
// sending extension's own app/graph/name). Loc is value-typed and hashable;
// equality is string-exact, never path-normalized.
type Loc struct {
	AppURI        string
	GraphID       string
	ExtensionName string
}

// Empty is the all-current Loc, used as a zero value.
var Empty = Loc{}

// IsLocal reports whether the Loc names an endpoint inside this process'
// own app (an empty AppURI or one matching appURI).
func (l Loc) IsLocal(appURI string) bool {
	return l.AppURI == "" || l.AppURI == appURI
}

// ResolvedAgainst fills in any empty field from base, leaving l's own
// non-empty fields untouched. Used to resolve "current app" / "current
// graph" references on message source/destination locations.
func (l Loc) ResolvedAgainst(base Loc) Loc {
	out := l
	if out.AppURI == "" {
		out.AppURI = base.AppURI
	}
	if out.GraphID == "" {
		out.GraphID = base.GraphID
	}
	if out.ExtensionName == "" {
		out.ExtensionName = base.ExtensionName
	}
	return out
}

func (l Loc) String() string {
	return fmt.Sprintf("%s/%s/%s", l.AppURI, l.GraphID, l.ExtensionName)
}

// Key returns a map-friendly key as used by the engine's routing table
// and extension-context dispatch table (graph_id, extension_name).
type Key struct {
	GraphID       string
	ExtensionName string
}

func (l Loc) Key() Key {
	return Key{GraphID: l.GraphID, ExtensionName: l.ExtensionName}
}
