// internal/humanoid/state.go
package humanoid

import (
	"errors"
	"time"
)

// ActionType categorizes a completed interaction in the session history.
type ActionType string

const (
	ActionTypeMove   ActionType = "MOVE"
	ActionTypeClick  ActionType = "CLICK"
	ActionTypeDrag   ActionType = "DRAG"
	ActionTypeType   ActionType = "TYPE"
	ActionTypeScroll ActionType = "SCROLL"
	ActionTypeHover  ActionType = "HOVER"
)

// HistoryEntry is one completed action. Typing has no position.
type HistoryEntry struct {
	Kind        ActionType `json:"kind"`
	Position    Vector2D   `json:"position"`
	HasPosition bool       `json:"has_position"`
	At          time.Time  `json:"at"`
}

// StateConfig holds the session-level parameters of the behavior model.
type StateConfig struct {
	// HistorySize is the ring capacity K used by momentum lookups.
	HistorySize int
	// FatigueCap is the ceiling of the fatigue level.
	FatigueCap float64
	// FatigueHorizon is the elapsed time at which a profile with sensitivity 1
	// would reach fatigue 1.0 if it were not capped.
	FatigueHorizon time.Duration
}

// DefaultStateConfig returns the standard session parameters.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		HistorySize:    10,
		FatigueCap:     0.3,
		FatigueHorizon: 4 * time.Hour,
	}
}

// Validate checks the session parameters.
func (c StateConfig) Validate() error {
	if c.HistorySize < 2 {
		return &ConfigurationError{Field: "history_size", Err: errors.New("must be at least 2")}
	}
	if c.FatigueCap < 0 || c.FatigueCap > 1 {
		return &ConfigurationError{Field: "fatigue_cap", Err: errors.New("must be between 0.0 and 1.0")}
	}
	if c.FatigueHorizon <= 0 {
		return &ConfigurationError{Field: "fatigue_horizon", Err: errors.New("must be a positive duration")}
	}
	return nil
}

const (
	momentumBonus   = 1.2
	momentumPenalty = 0.8
	// Cosine thresholds separating continuation, neutral and reversal.
	momentumContinueCos = 0.5
	momentumReverseCos  = -0.5
)

// BehaviorState is the per-session mutable record shared by both generators:
// the active profile, fatigue derived from elapsed session time, and a bounded
// history of recent actions. It is owned by one session and is not safe for
// concurrent use; callers serialize intents.
type BehaviorState struct {
	cfg          StateConfig
	registry     *ProfileRegistry
	profile      Profile
	sessionStart time.Time
	now          func() time.Time

	history []HistoryEntry
	// fatigueFloor is the highest fatigue reported so far.
	fatigueFloor float64
}

// StateOption customises a BehaviorState at construction.
type StateOption func(*BehaviorState)

// WithClock injects the time source. Tests use it to step time explicitly.
func WithClock(now func() time.Time) StateOption {
	return func(s *BehaviorState) { s.now = now }
}

// WithSessionStart overrides the session start time. Moving it into the past
// starts the session already fatigued.
func WithSessionStart(t time.Time) StateOption {
	return func(s *BehaviorState) { s.sessionStart = t }
}

// WithRegistry sets the registry consulted by SelectProfile.
func WithRegistry(r *ProfileRegistry) StateOption {
	return func(s *BehaviorState) { s.registry = r }
}

// NewBehaviorState creates the state for a new session.
func NewBehaviorState(profile Profile, cfg StateConfig, opts ...StateOption) (*BehaviorState, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &BehaviorState{
		cfg:     cfg,
		profile: profile,
		now:     time.Now,
		history: make([]HistoryEntry, 0, cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessionStart.IsZero() {
		s.sessionStart = s.now()
	}
	if s.registry == nil {
		// Presets always validate.
		s.registry, _ = NewProfileRegistry()
	}
	return s, nil
}

// Profile returns the active profile.
func (s *BehaviorState) Profile() Profile { return s.profile }

// SessionStart returns when the session began.
func (s *BehaviorState) SessionStart() time.Time { return s.sessionStart }

// Now reads the session clock.
func (s *BehaviorState) Now() time.Time { return s.now() }

// SelectProfile activates a registered profile by name.
func (s *BehaviorState) SelectProfile(name string) (Profile, error) {
	p, err := s.registry.Lookup(name)
	if err != nil {
		return Profile{}, err
	}
	s.profile = p
	return p, nil
}

// UseProfile activates a custom profile that bypasses the registry.
func (s *BehaviorState) UseProfile(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.profile = p
	return nil
}

// FatigueAt returns min(cap, elapsed/horizon) for the active profile at t.
// The horizon shrinks as the profile's fatigue sensitivity grows.
func (s *BehaviorState) FatigueAt(t time.Time) float64 {
	elapsed := t.Sub(s.sessionStart)
	if elapsed <= 0 || s.profile.FatigueSensitivity <= 0 {
		return 0
	}
	horizon := float64(s.cfg.FatigueHorizon) / s.profile.FatigueSensitivity
	return clamp(float64(elapsed)/horizon, 0, s.cfg.FatigueCap)
}

// CurrentFatigue returns the fatigue level now. It never decreases within a
// session, even across a profile change or a clock step backwards.
func (s *BehaviorState) CurrentFatigue() float64 {
	f := s.FatigueAt(s.now())
	if f < s.fatigueFloor {
		return s.fatigueFloor
	}
	s.fatigueFloor = f
	return f
}

// FatigueCap returns the configured ceiling.
func (s *BehaviorState) FatigueCap() float64 { return s.cfg.FatigueCap }

// MomentumBias returns a speed multiplier comparing direction with the recent
// movement direction: >1 when the motion continues, <1 on a sharp reversal,
// and 1.0 when there is not enough positioned history to tell.
func (s *BehaviorState) MomentumBias(direction Vector2D) float64 {
	var recent Vector2D
	var prev *HistoryEntry
	segments := 0
	for i := range s.history {
		e := &s.history[i]
		if !e.HasPosition {
			continue
		}
		if prev != nil {
			seg := e.Position.Sub(prev.Position).Normalize()
			// Newer segments weigh more.
			recent = recent.Add(seg.Mul(float64(segments + 1)))
			segments++
		}
		prev = e
	}
	if segments == 0 {
		return 1.0
	}

	cos := recent.CosineTo(direction)
	switch {
	case cos >= momentumContinueCos:
		return momentumBonus
	case cos <= momentumReverseCos:
		return momentumPenalty
	default:
		return 1.0
	}
}

// Record appends an entry, evicting the oldest once capacity is reached.
// A zero timestamp is filled from the session clock.
func (s *BehaviorState) Record(e HistoryEntry) {
	if e.At.IsZero() {
		e.At = s.now()
	}
	if len(s.history) == s.cfg.HistorySize {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, e)
}

// recordAt is the shorthand used by the generators.
func (s *BehaviorState) recordAt(kind ActionType, pos *Vector2D) {
	e := HistoryEntry{Kind: kind}
	if pos != nil {
		e.Position = *pos
		e.HasPosition = true
	}
	s.Record(e)
}

// History returns a copy of the history, oldest first.
func (s *BehaviorState) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}
