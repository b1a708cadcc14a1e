package session

import (
	"strings"

	"github.com/gitune/twitter-list-scroller/internal/surface"
)

// homePath is the only surface where list tabs exist.
const homePath = "/home"

// Detector resolves the currently active list name, if any. It re-queries
// the surface on every call, so a replaced or detached tab bar is handled
// by construction.
type Detector struct {
	surf     surface.Surface
	excluded map[string]struct{}
}

// NewDetector builds a detector. Names in excluded (the algorithmic tabs)
// never yield an active list.
func NewDetector(surf surface.Surface, excluded []string) *Detector {
	set := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		set[Normalize(name)] = struct{}{}
	}
	return &Detector{surf: surf, excluded: set}
}

// Normalize canonicalizes a tab label for equality checks and storage keys.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Current returns the active list name, or "" when off the home surface,
// when no tab bar is present, or when the active tab is excluded.
func (d *Detector) Current() string {
	if d.surf.Path() != homePath {
		return ""
	}
	label, ok := d.surf.ActiveTab()
	if !ok {
		return ""
	}
	name := Normalize(label)
	if name == "" {
		return ""
	}
	if _, skip := d.excluded[name]; skip {
		return ""
	}
	return name
}
