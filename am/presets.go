package am

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
)

// preset is one [presets.<name>] table. Unset keys leave the running
// parameter untouched.
type preset struct {
	Repulsion       *float64           `toml:"repulsion"`
	LinkDistance    *float64           `toml:"link_distance"`
	LinkDistances   map[string]float64 `toml:"link_distances"`
	LinkStrength    *float64           `toml:"link_strength"`
	CenterStrength  *float64           `toml:"center_strength"`
	RadialTarget    *string            `toml:"radial_target"`
	RadialStrength  *float64           `toml:"radial_strength"`
	RadialRadius    *float64           `toml:"radial_radius"`
	CollisionRadius *float64           `toml:"collision_radius"`
	AlphaDecay      *float64           `toml:"alpha_decay"`
	VelocityDecay   *float64           `toml:"velocity_decay"`
}

func (p preset) update() physics.Update {
	return physics.Update{
		Repulsion:       p.Repulsion,
		LinkDistance:    p.LinkDistance,
		LinkDistances:   p.LinkDistances,
		LinkStrength:    p.LinkStrength,
		CenterStrength:  p.CenterStrength,
		RadialTarget:    p.RadialTarget,
		RadialStrength:  p.RadialStrength,
		RadialRadius:    p.RadialRadius,
		CollisionRadius: p.CollisionRadius,
		AlphaDecay:      p.AlphaDecay,
		VelocityDecay:   p.VelocityDecay,
	}
}

type presetFile struct {
	Presets map[string]preset `toml:"presets"`
}

// Presets are named physics edits, applied like a set_params message
type Presets map[string]physics.Update

// LoadPresets reads a presets file:
//
//	[presets.tight]
//	repulsion = 120
//	link_distance = 30
//
// Unknown keys are logged and ignored.
func LoadPresets(path string) (Presets, error) {
	var file presetFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "presets %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.Warnw("Ignoring unknown preset keys", logger.FieldPath, path, "keys", keys)
	}

	presets := make(Presets, len(file.Presets))
	for name, p := range file.Presets {
		u := p.update()
		if u.IsEmpty() {
			return nil, errors.NewInvalidConfigError("preset %q sets no parameters", name)
		}
		if err := u.Apply(physics.DefaultParams()).Validate(); err != nil {
			return nil, errors.Wrapf(err, "preset %q", name)
		}
		presets[name] = u
	}
	return presets, nil
}

// FindPresets returns the presets file to use: next to the project
// am.toml, then ~/.vista. Empty when none exists.
func FindPresets() string {
	var candidates []string
	if project := FindProjectConfig(); project != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(project), PresetsFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserDirName, PresetsFileName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Names returns the preset names, sorted
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named preset
func (p Presets) Get(name string) (physics.Update, bool) {
	u, ok := p[name]
	return u, ok
}
