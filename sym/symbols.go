// Package sym defines canonical glyphs for vista view modes and system markers.
// These glyphs are stable across logs, CLI output and the websocket protocol.
package sym

// View-mode glyphs
const (
	Flat       = "▦" // 2d: raw simulation space
	Layered    = "≣" // 2.5d: temporal glass planes
	Spherical  = "◍" // 3d: polar sphere
	Hyperbolic = "⊚" // poincare: unit disk with geodesics
	Spacetime  = "⌇" // spacetime: reward-potential surface (external)
	TDA        = "⌬" // tda: topological persistence (external)
	Pulse      = "꩜" // pulse: activity pulse (external)
)

// System markers
const (
	AM       = "≡" // configuration
	Physics  = "∿" // simulation ticks, parameter edits, settle detection
	Reproj   = "↻" // deferred re-projection
	Dataset  = "⊔" // dataset load/refresh
	Renderer = "⟶" // frames handed to the renderer
)

// modeGlyphs maps mode names to glyphs. Unregistered modes fall back to Flat.
var modeGlyphs = map[string]string{
	"2d":        Flat,
	"2.5d":      Layered,
	"3d":        Spherical,
	"poincare":  Hyperbolic,
	"spacetime": Spacetime,
	"tda":       TDA,
	"pulse":     Pulse,
}

// ForMode returns the glyph for a view mode name
func ForMode(mode string) string {
	if g, ok := modeGlyphs[mode]; ok {
		return g
	}
	return Flat
}

// IsModeGlyph reports whether s is one of the view-mode glyphs
func IsModeGlyph(s string) bool {
	for _, g := range modeGlyphs {
		if g == s {
			return true
		}
	}
	return false
}
