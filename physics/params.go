package physics

import (
	"github.com/teranos/vista/errors"
)

// Params are the tunable forces. Field names follow the TOML keys of the
// [physics] section and preset files.
type Params struct {
	Repulsion       float64            `mapstructure:"repulsion" toml:"repulsion" json:"repulsion"`
	LinkDistance    float64            `mapstructure:"link_distance" toml:"link_distance" json:"link_distance"`
	LinkDistances   map[string]float64 `mapstructure:"link_distances" toml:"link_distances" json:"link_distances,omitempty"` // Per edge class
	LinkStrength    float64            `mapstructure:"link_strength" toml:"link_strength" json:"link_strength"`
	CenterStrength  float64            `mapstructure:"center_strength" toml:"center_strength" json:"center_strength"`
	RadialTarget    string             `mapstructure:"radial_target" toml:"radial_target" json:"radial_target"`
	RadialStrength  float64            `mapstructure:"radial_strength" toml:"radial_strength" json:"radial_strength"`
	RadialRadius    float64            `mapstructure:"radial_radius" toml:"radial_radius" json:"radial_radius"`
	CollisionRadius float64            `mapstructure:"collision_radius" toml:"collision_radius" json:"collision_radius"`
	AlphaDecay      float64            `mapstructure:"alpha_decay" toml:"alpha_decay" json:"alpha_decay"`
	VelocityDecay   float64            `mapstructure:"velocity_decay" toml:"velocity_decay" json:"velocity_decay"`
	AlphaMin        float64            `mapstructure:"alpha_min" toml:"alpha_min" json:"alpha_min"`
}

// DefaultParams mirror d3-force defaults scaled for memory graphs
func DefaultParams() Params {
	return Params{
		Repulsion:       300,
		LinkDistance:    60,
		LinkStrength:    0.7,
		CenterStrength:  0.05,
		RadialStrength:  0,
		RadialRadius:    400,
		CollisionRadius: 6,
		AlphaDecay:      0.0228, // 1 - 0.001^(1/300)
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
	}
}

// DistanceFor returns the rest length for an edge class
func (p Params) DistanceFor(linkType string) float64 {
	if d, ok := p.LinkDistances[linkType]; ok {
		return d
	}
	return p.LinkDistance
}

// Clone copies the per-class distance map so edits never alias
func (p Params) Clone() Params {
	if p.LinkDistances != nil {
		m := make(map[string]float64, len(p.LinkDistances))
		for k, v := range p.LinkDistances {
			m[k] = v
		}
		p.LinkDistances = m
	}
	return p
}

// Validate checks value ranges
func (p Params) Validate() error {
	if p.LinkDistance <= 0 {
		return errors.NewInvalidConfigError("physics.link_distance must be positive, got %v", p.LinkDistance)
	}
	for class, d := range p.LinkDistances {
		if d <= 0 {
			return errors.NewInvalidConfigError("physics.link_distances.%s must be positive, got %v", class, d)
		}
	}
	if p.CollisionRadius < 0 {
		return errors.NewInvalidConfigError("physics.collision_radius must not be negative, got %v", p.CollisionRadius)
	}
	if p.AlphaDecay <= 0 || p.AlphaDecay >= 1 {
		return errors.NewInvalidConfigError("physics.alpha_decay must be in (0,1), got %v", p.AlphaDecay)
	}
	if p.VelocityDecay < 0 || p.VelocityDecay >= 1 {
		return errors.NewInvalidConfigError("physics.velocity_decay must be in [0,1), got %v", p.VelocityDecay)
	}
	if p.AlphaMin <= 0 {
		return errors.NewInvalidConfigError("physics.alpha_min must be positive, got %v", p.AlphaMin)
	}
	return nil
}

// Update is a partial parameter edit. Nil fields are left unchanged.
type Update struct {
	Repulsion       *float64           `json:"repulsion,omitempty"`
	LinkDistance    *float64           `json:"link_distance,omitempty"`
	LinkDistances   map[string]float64 `json:"link_distances,omitempty"`
	LinkStrength    *float64           `json:"link_strength,omitempty"`
	CenterStrength  *float64           `json:"center_strength,omitempty"`
	RadialTarget    *string            `json:"radial_target,omitempty"`
	RadialStrength  *float64           `json:"radial_strength,omitempty"`
	RadialRadius    *float64           `json:"radial_radius,omitempty"`
	CollisionRadius *float64           `json:"collision_radius,omitempty"`
	AlphaDecay      *float64           `json:"alpha_decay,omitempty"`
	VelocityDecay   *float64           `json:"velocity_decay,omitempty"`
}

// Apply returns p with the update's fields set
func (u Update) Apply(p Params) Params {
	p = p.Clone()
	setFloat(&p.Repulsion, u.Repulsion)
	setFloat(&p.LinkDistance, u.LinkDistance)
	setFloat(&p.LinkStrength, u.LinkStrength)
	setFloat(&p.CenterStrength, u.CenterStrength)
	setFloat(&p.RadialStrength, u.RadialStrength)
	setFloat(&p.RadialRadius, u.RadialRadius)
	setFloat(&p.CollisionRadius, u.CollisionRadius)
	setFloat(&p.AlphaDecay, u.AlphaDecay)
	setFloat(&p.VelocityDecay, u.VelocityDecay)
	if u.RadialTarget != nil {
		p.RadialTarget = *u.RadialTarget
	}
	if len(u.LinkDistances) > 0 {
		if p.LinkDistances == nil {
			p.LinkDistances = make(map[string]float64, len(u.LinkDistances))
		}
		for k, v := range u.LinkDistances {
			p.LinkDistances[k] = v
		}
	}
	return p
}

// ChangesRadialStrength reports whether applying u moves the radial force
func (u Update) ChangesRadialStrength(p Params) bool {
	return (u.RadialStrength != nil && *u.RadialStrength != p.RadialStrength) ||
		(u.RadialTarget != nil && *u.RadialTarget != p.RadialTarget) ||
		(u.RadialRadius != nil && *u.RadialRadius != p.RadialRadius)
}

// IsEmpty reports whether the update changes nothing
func (u Update) IsEmpty() bool {
	return u.Repulsion == nil && u.LinkDistance == nil && len(u.LinkDistances) == 0 &&
		u.LinkStrength == nil && u.CenterStrength == nil && u.RadialTarget == nil &&
		u.RadialStrength == nil && u.RadialRadius == nil && u.CollisionRadius == nil &&
		u.AlphaDecay == nil && u.VelocityDecay == nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Diff returns the update that turns from into to. AlphaMin is not
// editable at runtime and is ignored.
func Diff(from, to Params) Update {
	var u Update
	diffFloat(&u.Repulsion, from.Repulsion, to.Repulsion)
	diffFloat(&u.LinkDistance, from.LinkDistance, to.LinkDistance)
	diffFloat(&u.LinkStrength, from.LinkStrength, to.LinkStrength)
	diffFloat(&u.CenterStrength, from.CenterStrength, to.CenterStrength)
	diffFloat(&u.RadialStrength, from.RadialStrength, to.RadialStrength)
	diffFloat(&u.RadialRadius, from.RadialRadius, to.RadialRadius)
	diffFloat(&u.CollisionRadius, from.CollisionRadius, to.CollisionRadius)
	diffFloat(&u.AlphaDecay, from.AlphaDecay, to.AlphaDecay)
	diffFloat(&u.VelocityDecay, from.VelocityDecay, to.VelocityDecay)
	if from.RadialTarget != to.RadialTarget {
		target := to.RadialTarget
		u.RadialTarget = &target
	}
	for class, d := range to.LinkDistances {
		if old, ok := from.LinkDistances[class]; !ok || old != d {
			if u.LinkDistances == nil {
				u.LinkDistances = make(map[string]float64)
			}
			u.LinkDistances[class] = d
		}
	}
	return u
}

func diffFloat(dst **float64, from, to float64) {
	if from != to {
		v := to
		*dst = &v
	}
}
