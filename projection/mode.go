package projection

// Mode names a view the engine can display
type Mode string

const (
	ModeFlat       Mode = "2d"
	ModeLayered    Mode = "2.5d"
	ModeSpherical  Mode = "3d"
	ModeHyperbolic Mode = "poincare"

	// Physics-only projections owned by external collaborators
	ModeSpacetime Mode = "spacetime"
	ModeTDA       Mode = "tda"
	ModePulse     Mode = "pulse"
)

func (m Mode) String() string {
	return string(m)
}

// Kind is the closed set of projection shapes. External modes are opaque:
// the engine only knows whether they are static.
type Kind int

const (
	KindFlat Kind = iota
	KindLayered
	KindSpherical
	KindHyperbolic
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindLayered:
		return "layered"
	case KindSpherical:
		return "spherical"
	case KindHyperbolic:
		return "hyperbolic"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// BuiltinModes lists the modes this package projects itself, with their kind
var BuiltinModes = map[Mode]Kind{
	ModeFlat:       KindFlat,
	ModeLayered:    KindLayered,
	ModeSpherical:  KindSpherical,
	ModeHyperbolic: KindHyperbolic,
}

// ExternalModes lists the modes delegated to external projectors
var ExternalModes = []Mode{ModeSpacetime, ModeTDA, ModePulse}
