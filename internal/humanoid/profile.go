// internal/humanoid/profile.go
package humanoid

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Profile is a named bundle of behavioral coefficients. Profiles are plain
// values; the built-in presets are data, not specialisations.
type Profile struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	// SpeedMult scales pointer speed. Must be positive.
	SpeedMult float64 `mapstructure:"speed_mult" yaml:"speed_mult" json:"speed_mult"`
	// Precision in (0,1]. Higher values mean less jitter and tighter curves.
	Precision        float64 `mapstructure:"precision" yaml:"precision" json:"precision"`
	HesitationChance float64 `mapstructure:"hesitation_chance" yaml:"hesitation_chance" json:"hesitation_chance"`
	OvershootChance  float64 `mapstructure:"overshoot_chance" yaml:"overshoot_chance" json:"overshoot_chance"`
	CorrectionRate   float64 `mapstructure:"correction_rate" yaml:"correction_rate" json:"correction_rate"`
	// FatigueSensitivity divides the fatigue horizon. Zero disables fatigue.
	FatigueSensitivity float64 `mapstructure:"fatigue_sensitivity" yaml:"fatigue_sensitivity" json:"fatigue_sensitivity"`
	BaseWPM            float64 `mapstructure:"base_wpm" yaml:"base_wpm" json:"base_wpm"`
	BaseErrorRate      float64 `mapstructure:"base_error_rate" yaml:"base_error_rate" json:"base_error_rate"`
}

// DefaultProfileName is selected when a session does not name one.
const DefaultProfileName = "normal"

var presets = []Profile{
	{
		Name: "careful", SpeedMult: 0.8, Precision: 0.9,
		HesitationChance: 0.25, OvershootChance: 0.05, CorrectionRate: 0.95,
		FatigueSensitivity: 0.8, BaseWPM: 45, BaseErrorRate: 0.02,
	},
	{
		Name: "normal", SpeedMult: 1.0, Precision: 0.7,
		HesitationChance: 0.15, OvershootChance: 0.15, CorrectionRate: 0.8,
		FatigueSensitivity: 1.0, BaseWPM: 60, BaseErrorRate: 0.04,
	},
	{
		Name: "fast", SpeedMult: 1.3, Precision: 0.55,
		HesitationChance: 0.08, OvershootChance: 0.25, CorrectionRate: 0.7,
		FatigueSensitivity: 1.1, BaseWPM: 85, BaseErrorRate: 0.06,
	},
	{
		Name: "erratic", SpeedMult: 1.1, Precision: 0.35,
		HesitationChance: 0.3, OvershootChance: 0.35, CorrectionRate: 0.6,
		FatigueSensitivity: 1.4, BaseWPM: 55, BaseErrorRate: 0.09,
	},
	{
		Name: "gaming", SpeedMult: 1.6, Precision: 0.6,
		HesitationChance: 0.03, OvershootChance: 0.3, CorrectionRate: 0.75,
		FatigueSensitivity: 0.7, BaseWPM: 75, BaseErrorRate: 0.05,
	},
}

// Presets returns a copy of the built-in profiles.
func Presets() []Profile {
	out := make([]Profile, len(presets))
	copy(out, presets)
	return out
}

// Validate checks every coefficient against its domain.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ConfigurationError{Field: "name", Err: errors.New("must not be empty")}
	}
	field := func(name string) string { return fmt.Sprintf("profile %q %s", p.Name, name) }

	if p.SpeedMult <= 0 {
		return &ConfigurationError{Field: field("speed_mult"), Err: errors.New("must be positive")}
	}
	if p.Precision <= 0 || p.Precision > 1 {
		return &ConfigurationError{Field: field("precision"), Err: errors.New("must be in (0, 1]")}
	}
	probabilities := []struct {
		name string
		v    float64
	}{
		{"hesitation_chance", p.HesitationChance},
		{"overshoot_chance", p.OvershootChance},
		{"correction_rate", p.CorrectionRate},
		{"base_error_rate", p.BaseErrorRate},
	}
	for _, c := range probabilities {
		if c.v < 0 || c.v > 1 {
			return &ConfigurationError{Field: field(c.name), Err: errors.New("must be between 0.0 and 1.0")}
		}
	}
	if p.FatigueSensitivity < 0 {
		return &ConfigurationError{Field: field("fatigue_sensitivity"), Err: errors.New("must not be negative")}
	}
	if p.BaseWPM <= 0 {
		return &ConfigurationError{Field: field("base_wpm"), Err: errors.New("must be positive")}
	}
	return nil
}

// ProfileRegistry maps profile names to coefficient bundles.
type ProfileRegistry struct {
	profiles map[string]Profile
}

// NewProfileRegistry returns a registry holding the presets plus any custom
// profiles. A custom profile with a preset's name replaces the preset.
func NewProfileRegistry(custom ...Profile) (*ProfileRegistry, error) {
	r := &ProfileRegistry{profiles: make(map[string]Profile, len(presets)+len(custom))}
	for _, p := range presets {
		r.profiles[normalizeProfileName(p.Name)] = p
	}
	for _, p := range custom {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds p.
func (r *ProfileRegistry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Name = normalizeProfileName(p.Name)
	r.profiles[p.Name] = p
	return nil
}

// Lookup returns the named profile. Names are case-insensitive.
func (r *ProfileRegistry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[normalizeProfileName(name)]
	if !ok {
		return Profile{}, &ConfigurationError{
			Field: "profile",
			Err:   fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(r.Names(), ", ")),
		}
	}
	return p, nil
}

// Names returns the registered profile names in sorted order.
func (r *ProfileRegistry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns all registered profiles sorted by name.
func (r *ProfileRegistry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, name := range r.Names() {
		out = append(out, r.profiles[name])
	}
	return out
}

func normalizeProfileName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
