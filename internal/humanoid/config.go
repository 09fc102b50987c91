// internal/humanoid/config.go
package humanoid

import (
	"errors"
	"time"
)

// ClickConfig tunes the press/hold/release composition and the thin
// scroll and drag compositions built on it.
type ClickConfig struct {
	PreClickPauseChance  float64
	PreClickPauseMin     time.Duration
	PreClickPauseMax     time.Duration
	HoldMin              time.Duration
	HoldMax              time.Duration
	PostClickPauseChance float64
	PostClickPauseMin    time.Duration
	PostClickPauseMax    time.Duration
	DoubleClickGapMin    time.Duration
	DoubleClickGapMax    time.Duration
	DragGrabPauseMin     time.Duration
	DragGrabPauseMax     time.Duration

	// ScrollStep is the wheel delta of one notch.
	ScrollStep        float64
	ScrollNotchMin    time.Duration
	ScrollNotchMax    time.Duration
	ScrollPauseChance float64
}

// DefaultClickConfig returns the standard click timings.
func DefaultClickConfig() ClickConfig {
	return ClickConfig{
		PreClickPauseChance:  0.3,
		PreClickPauseMin:     50 * time.Millisecond,
		PreClickPauseMax:     250 * time.Millisecond,
		HoldMin:              40 * time.Millisecond,
		HoldMax:              150 * time.Millisecond,
		PostClickPauseChance: 0.2,
		PostClickPauseMin:    80 * time.Millisecond,
		PostClickPauseMax:    300 * time.Millisecond,
		DoubleClickGapMin:    170 * time.Millisecond,
		DoubleClickGapMax:    280 * time.Millisecond,
		DragGrabPauseMin:     80 * time.Millisecond,
		DragGrabPauseMax:     200 * time.Millisecond,
		ScrollStep:           100,
		ScrollNotchMin:       30 * time.Millisecond,
		ScrollNotchMax:       120 * time.Millisecond,
		ScrollPauseChance:    0.1,
	}
}

// Validate checks the click timings.
func (c ClickConfig) Validate() error {
	invalid := func(field, msg string) error {
		return &ConfigurationError{Field: "click." + field, Err: errors.New(msg)}
	}
	ranges := []struct {
		name     string
		min, max time.Duration
	}{
		{"pre_click_pause", c.PreClickPauseMin, c.PreClickPauseMax},
		{"hold", c.HoldMin, c.HoldMax},
		{"post_click_pause", c.PostClickPauseMin, c.PostClickPauseMax},
		{"double_click_gap", c.DoubleClickGapMin, c.DoubleClickGapMax},
		{"drag_grab_pause", c.DragGrabPauseMin, c.DragGrabPauseMax},
		{"scroll_notch", c.ScrollNotchMin, c.ScrollNotchMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			return invalid(r.name, "max must be >= min >= 0")
		}
	}
	for name, p := range map[string]float64{
		"pre_click_pause_chance":  c.PreClickPauseChance,
		"post_click_pause_chance": c.PostClickPauseChance,
		"scroll_pause_chance":     c.ScrollPauseChance,
	} {
		if p < 0 || p > 1 {
			return invalid(name, "must be between 0.0 and 1.0")
		}
	}
	if c.ScrollStep <= 0 {
		return invalid("scroll_step", "must be positive")
	}
	return nil
}

// Config holds everything a session needs besides its sink.
type Config struct {
	// ProfileName selects a registered profile. Ignored when Profile is set.
	ProfileName string
	// Profile, when non-nil, is used directly without the registry.
	Profile *Profile
	// Registry defaults to the presets.
	Registry *ProfileRegistry
	// Seed makes the session reproducible. Zero seeds from the clock.
	Seed int64
	// Clock defaults to time.Now.
	Clock func() time.Time
	// SessionStart defaults to the clock's current time.
	SessionStart time.Time

	State      StateConfig
	Trajectory TrajectoryConfig
	Typing     TypingConfig
	Click      ClickConfig
}

// DefaultConfig returns a session configuration using the normal profile.
func DefaultConfig() Config {
	return Config{
		ProfileName: DefaultProfileName,
		State:       DefaultStateConfig(),
		Trajectory:  DefaultTrajectoryConfig(),
		Typing:      DefaultTypingConfig(),
		Click:       DefaultClickConfig(),
	}
}

// resolveProfile picks the session profile. Unknown names fail instead of
// falling back to a default.
func (c Config) resolveProfile() (Profile, *ProfileRegistry, error) {
	reg := c.Registry
	if reg == nil {
		var err error
		if reg, err = NewProfileRegistry(); err != nil {
			return Profile{}, nil, err
		}
	}
	if c.Profile != nil {
		if err := c.Profile.Validate(); err != nil {
			return Profile{}, nil, err
		}
		return *c.Profile, reg, nil
	}
	name := c.ProfileName
	if name == "" {
		name = DefaultProfileName
	}
	p, err := reg.Lookup(name)
	return p, reg, err
}
