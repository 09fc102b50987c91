// internal/humanoid/typing.go
package humanoid

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// KeyActionKind tags the variants of KeyAction.
type KeyActionKind string

const (
	KeyLiteral   KeyActionKind = "literal"
	KeyBackspace KeyActionKind = "backspace"
	KeyPause     KeyActionKind = "pause"
	KeyPaste     KeyActionKind = "paste"
)

// KeyAction is one unit of keyboard work. Delay is the wait before it is
// performed. Only the fields of its Kind are meaningful: Char for literals,
// Count for backspaces and Text for pastes.
type KeyAction struct {
	Kind  KeyActionKind `json:"kind"`
	Char  rune          `json:"char,omitempty"`
	Count int           `json:"count,omitempty"`
	Text  string        `json:"text,omitempty"`
	Delay time.Duration `json:"delay"`
}

// Literal types a single character.
func Literal(r rune, delay time.Duration) KeyAction {
	return KeyAction{Kind: KeyLiteral, Char: r, Delay: delay}
}

// Backspace erases count characters.
func Backspace(count int, delay time.Duration) KeyAction {
	return KeyAction{Kind: KeyBackspace, Count: count, Delay: delay}
}

// PauseOnly waits without typing.
func PauseOnly(delay time.Duration) KeyAction {
	return KeyAction{Kind: KeyPause, Delay: delay}
}

// CopyPaste inserts text in one action.
func CopyPaste(text string, delay time.Duration) KeyAction {
	return KeyAction{Kind: KeyPaste, Text: text, Delay: delay}
}

func (a KeyAction) String() string {
	switch a.Kind {
	case KeyLiteral:
		return fmt.Sprintf("literal(%q,%s)", a.Char, a.Delay)
	case KeyBackspace:
		return fmt.Sprintf("backspace(%d,%s)", a.Count, a.Delay)
	case KeyPaste:
		return fmt.Sprintf("paste(%q,%s)", a.Text, a.Delay)
	default:
		return fmt.Sprintf("pause(%s)", a.Delay)
	}
}

// ErrorKind is the shape of an injected typing mistake.
type ErrorKind string

const (
	ErrorSubstitution  ErrorKind = "substitution"
	ErrorInsertion     ErrorKind = "insertion"
	ErrorDeletion      ErrorKind = "deletion"
	ErrorTransposition ErrorKind = "transposition"
)

var errorKinds = [...]ErrorKind{ErrorSubstitution, ErrorInsertion, ErrorDeletion, ErrorTransposition}

// ErrorRecord describes one injected mistake while a plan is being built.
type ErrorRecord struct {
	Position  int
	Kind      ErrorKind
	Corrected bool
}

// PlanStats summarises a plan.
type PlanStats struct {
	Chars                  int `json:"chars"`
	Errors                 int `json:"errors"`
	Corrected              int `json:"corrected"`
	Pastes                 int `json:"pastes"`
	Pauses                 int `json:"pauses"`
	SpontaneousCorrections int `json:"spontaneous_corrections"`
}

// TypingPlan is the ordered key work for one text payload.
type TypingPlan struct {
	Actions []KeyAction `json:"actions"`
	Content ContentKind `json:"content"`
	Stats   PlanStats   `json:"stats"`
}

// Result replays the plan against an empty buffer, applying backspaces.
func (p TypingPlan) Result() string {
	buf := make([]rune, 0, p.Stats.Chars)
	for _, a := range p.Actions {
		switch a.Kind {
		case KeyLiteral:
			buf = append(buf, a.Char)
		case KeyBackspace:
			n := a.Count
			if n > len(buf) {
				n = len(buf)
			}
			buf = buf[:len(buf)-n]
		case KeyPaste:
			buf = append(buf, []rune(a.Text)...)
		}
	}
	return string(buf)
}

// Duration sums the declared delays.
func (p TypingPlan) Duration() time.Duration {
	var total time.Duration
	for _, a := range p.Actions {
		total += a.Delay
	}
	return total
}

// WPM is the effective words per minute of the plan, counting five
// characters of intended text as a word.
func (p TypingPlan) WPM() float64 {
	minutes := p.Duration().Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(p.Stats.Chars) / 5 / minutes
}

// TypingConfig tunes the keyboard model.
type TypingConfig struct {
	// SpeedMultiplier scales the profile WPM.
	SpeedMultiplier float64
	DelayVariance   float64
	MinKeyDelay     time.Duration
	// FatigueSlowdown reduces WPM by (1 - fatigue*FatigueSlowdown).
	FatigueSlowdown float64
	// FatigueAttenuation is k in the difficulty attenuation (1 - fatigue*k).
	FatigueAttenuation float64

	UppercaseFactor     float64
	SymbolFactor        float64
	DigitPunctFactor    float64
	AwkwardBigramFactor float64
	CommonBigramFactor  float64

	SimulateErrors     bool
	HardCharErrorBoost float64
	FatigueErrorGain   float64
	CorrectionPauseMin time.Duration
	CorrectionPauseMax time.Duration

	ThinkingPauses    bool
	RandomPauseChance float64

	SpontaneousChance       float64
	SpontaneousMinClean     int
	SpontaneousMaxBackspace int

	AllowPaste         bool
	PasteChance        float64
	PasteChanceBoosted float64
	PasteDelay         time.Duration
	RepeatMinLen       int
	TechnicalMinLen    int
}

// DefaultTypingConfig returns the standard keyboard model.
func DefaultTypingConfig() TypingConfig {
	return TypingConfig{
		SpeedMultiplier:         1.0,
		DelayVariance:           0.3,
		MinKeyDelay:             20 * time.Millisecond,
		FatigueSlowdown:         0.5,
		FatigueAttenuation:      0.5,
		UppercaseFactor:         1.3,
		SymbolFactor:            1.8,
		DigitPunctFactor:        1.2,
		AwkwardBigramFactor:     1.4,
		CommonBigramFactor:      0.8,
		SimulateErrors:          true,
		HardCharErrorBoost:      1.5,
		FatigueErrorGain:        2.0,
		CorrectionPauseMin:      150 * time.Millisecond,
		CorrectionPauseMax:      450 * time.Millisecond,
		ThinkingPauses:          true,
		RandomPauseChance:       0.03,
		SpontaneousChance:       0.04,
		SpontaneousMinClean:     8,
		SpontaneousMaxBackspace: 5,
		AllowPaste:              true,
		PasteChance:             0.3,
		PasteChanceBoosted:      0.4,
		PasteDelay:              150 * time.Millisecond,
		RepeatMinLen:            4,
		TechnicalMinLen:         6,
	}
}

// Validate checks the keyboard model parameters.
func (c TypingConfig) Validate() error {
	invalid := func(field, msg string) error {
		return &ConfigurationError{Field: "typing." + field, Err: errors.New(msg)}
	}
	switch {
	case c.SpeedMultiplier <= 0:
		return invalid("speed_multiplier", "must be positive")
	case c.DelayVariance < 0 || c.DelayVariance >= 1:
		return invalid("delay_variance", "must be in [0, 1)")
	case c.MinKeyDelay <= 0:
		return invalid("min_key_delay", "must be a positive duration")
	case c.FatigueSlowdown < 0 || c.FatigueSlowdown >= 1:
		return invalid("fatigue_slowdown", "must be in [0, 1)")
	case c.FatigueAttenuation < 0 || c.FatigueAttenuation > 1:
		return invalid("fatigue_attenuation", "must be between 0.0 and 1.0")
	case c.UppercaseFactor <= 0 || c.SymbolFactor <= 0 || c.DigitPunctFactor <= 0 ||
		c.AwkwardBigramFactor <= 0 || c.CommonBigramFactor <= 0:
		return invalid("factors", "difficulty factors must be positive")
	case c.HardCharErrorBoost < 0 || c.FatigueErrorGain < 0:
		return invalid("error_boost", "must not be negative")
	case c.CorrectionPauseMin < 0 || c.CorrectionPauseMax < c.CorrectionPauseMin:
		return invalid("correction_pause_max", "must be >= correction_pause_min >= 0")
	case c.RandomPauseChance < 0 || c.RandomPauseChance > 1:
		return invalid("random_pause_chance", "must be between 0.0 and 1.0")
	case c.SpontaneousChance < 0 || c.SpontaneousChance > 1:
		return invalid("spontaneous_chance", "must be between 0.0 and 1.0")
	case c.SpontaneousMinClean < 2 || c.SpontaneousMaxBackspace < 2:
		return invalid("spontaneous_max_backspace", "spontaneous corrections need at least 2 characters")
	case c.PasteChance < 0 || c.PasteChance > 1 || c.PasteChanceBoosted < 0 || c.PasteChanceBoosted > 1:
		return invalid("paste_chance", "must be between 0.0 and 1.0")
	case c.PasteDelay < 0:
		return invalid("paste_delay", "must not be negative")
	case c.RepeatMinLen < 1 || c.TechnicalMinLen < 1:
		return invalid("repeat_min_len", "token lengths must be positive")
	}
	return nil
}

// TypingGenerator turns literal text into a TypingPlan with human rhythm,
// mistakes and corrections. It never sleeps.
type TypingGenerator struct {
	cfg TypingConfig
	rng *rand.Rand
}

// NewTypingGenerator creates a generator drawing all randomness from rng.
func NewTypingGenerator(cfg TypingConfig, rng *rand.Rand) (*TypingGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, &ConfigurationError{Field: "rng", Err: errors.New("random source is required")}
	}
	return &TypingGenerator{cfg: cfg, rng: rng}, nil
}

// Generate builds the plan for text. hint overrides content classification
// unless it is ContentAuto. Empty text fails with ErrEmptyInput. On success
// the typing action is recorded in state.
func (g *TypingGenerator) Generate(state *BehaviorState, text string, hint ContentKind) (TypingPlan, error) {
	if text == "" {
		return TypingPlan{}, ErrEmptyInput
	}
	kind := hint
	if kind == ContentAuto {
		kind = ClassifyContent(text)
	}
	factors, ok := factorsByKind[kind]
	if !ok {
		return TypingPlan{}, &ConfigurationError{Field: "context_hint", Err: fmt.Errorf("unknown content kind %q", kind)}
	}

	b := g.newBuilder(state.Profile(), state.CurrentFatigue(), factors, []rune(text))
	b.run()

	state.recordAt(ActionTypeType, nil)
	return TypingPlan{Actions: b.actions, Content: kind, Stats: b.stats}, nil
}

// planBuilder holds the state of one Generate call.
type planBuilder struct {
	g       *TypingGenerator
	cfg     TypingConfig
	rng     *rand.Rand
	profile Profile
	fatigue float64

	runes []rune
	pos   int

	// charSeconds is the unperturbed per-character delay.
	charSeconds float64
	errorRate   float64
	pasteChance float64

	actions []KeyAction
	stats   PlanStats
	prev    rune
	// clean counts characters typed since the last error, paste or correction.
	clean int
}

func (g *TypingGenerator) newBuilder(profile Profile, fatigue float64, f contentFactors, runes []rune) *planBuilder {
	wpm := profile.BaseWPM * g.cfg.SpeedMultiplier * f.wpm * (1 - fatigue*g.cfg.FatigueSlowdown)
	paste := g.cfg.PasteChance
	if f.pasteBoost {
		paste = g.cfg.PasteChanceBoosted
	}
	return &planBuilder{
		g:           g,
		cfg:         g.cfg,
		rng:         g.rng,
		profile:     profile,
		fatigue:     fatigue,
		runes:       runes,
		charSeconds: 60 / (wpm * 5),
		errorRate:   profile.BaseErrorRate * f.errorRate * (1 + fatigue*g.cfg.FatigueErrorGain),
		pasteChance: clampProbability(paste),
		actions:     make([]KeyAction, 0, len(runes)+len(runes)/4),
		stats:       PlanStats{Chars: len(runes)},
	}
}

func (b *planBuilder) run() {
	for b.pos < len(b.runes) {
		if b.cfg.AllowPaste {
			if n := pasteCandidate(b.runes, b.pos, b.cfg.RepeatMinLen, b.cfg.TechnicalMinLen); n > 0 && chance(b.rng, b.pasteChance) {
				b.paste(n)
				continue
			}
		}

		r := b.runes[b.pos]
		if b.cfg.SimulateErrors && chance(b.rng, b.errorProbability(r)) {
			kind := errorKinds[b.rng.Intn(len(errorKinds))]
			if consumed, _ := b.applyError(b.pos, kind); consumed > 0 {
				b.pos += consumed
				b.boundary(b.runes[b.pos-1])
				continue
			}
		}

		b.literal(r)
		b.clean++
		b.pos++
		b.boundary(r)
	}
}

// keyDelay is the wait before pressing r after the previously typed key.
func (b *planBuilder) keyDelay(r rune) time.Duration {
	base := b.charSeconds * uniform(b.rng, 1-b.cfg.DelayVariance, 1+b.cfg.DelayVariance)

	m := 1.0
	switch classify(r) {
	case classUpper:
		m *= b.attenuate(b.cfg.UppercaseFactor)
	case classDigitPunct:
		m *= b.attenuate(b.cfg.DigitPunctFactor)
	case classSymbol:
		m *= b.attenuate(b.cfg.SymbolFactor)
	}
	if b.prev != 0 {
		bg := bigram(b.prev, r)
		if awkwardBigrams[bg] {
			m *= b.attenuate(b.cfg.AwkwardBigramFactor)
		} else if commonBigrams[bg] {
			m *= b.attenuate(b.cfg.CommonBigramFactor)
		}
	}
	return floorDuration(secondsToDuration(base*m), b.cfg.MinKeyDelay)
}

// attenuate pulls a difficulty multiplier toward 1 as fatigue grows.
func (b *planBuilder) attenuate(m float64) float64 {
	return 1 + (m-1)*(1-b.fatigue*b.cfg.FatigueAttenuation)
}

func (b *planBuilder) errorProbability(r rune) float64 {
	p := b.errorRate
	if c := classify(r); c == classUpper || c == classSymbol {
		p *= b.cfg.HardCharErrorBoost
	}
	return clampProbability(p)
}

func (b *planBuilder) literal(r rune) {
	b.actions = append(b.actions, Literal(r, b.keyDelay(r)))
	b.prev = r
}

func (b *planBuilder) paste(n int) {
	text := string(b.runes[b.pos : b.pos+n])
	b.actions = append(b.actions, CopyPaste(text, b.cfg.PasteDelay))
	b.stats.Pastes++
	b.pos += n
	b.prev = b.runes[b.pos-1]
	b.clean = 0
}

// correct emits the noticing pause, n backspaces and the retyped suffix.
func (b *planBuilder) correct(n int, retype []rune) {
	b.actions = append(b.actions, PauseOnly(uniformDuration(b.rng, b.cfg.CorrectionPauseMin, b.cfg.CorrectionPauseMax)))
	if n > 0 {
		b.actions = append(b.actions, Backspace(n, floorDuration(secondsToDuration(b.charSeconds*0.8), b.cfg.MinKeyDelay)))
	}
	for _, r := range retype {
		b.literal(r)
	}
}

// applyError injects a mistake of the given kind at i and returns how many
// intended characters it consumed. Zero means the kind does not apply to this
// character and it should be typed normally.
func (b *planBuilder) applyError(i int, kind ErrorKind) (int, ErrorRecord) {
	r := b.runes[i]
	hasNext := i+1 < len(b.runes)
	if kind == ErrorTransposition && !hasNext {
		kind = ErrorSubstitution
	}
	rec := ErrorRecord{Position: i, Kind: kind}
	consumed := 1

	switch kind {
	case ErrorSubstitution:
		wrong, ok := neighborKey(b.rng, r)
		if !ok {
			return 0, rec
		}
		b.literal(wrong)
		if rec.Corrected = chance(b.rng, b.profile.CorrectionRate); rec.Corrected {
			b.correct(1, []rune{r})
		}

	case ErrorInsertion:
		extra, ok := neighborKey(b.rng, r)
		if !ok && b.prev != 0 {
			extra, ok = neighborKey(b.rng, b.prev)
		}
		if !ok {
			return 0, rec
		}
		b.literal(extra)
		b.literal(r)
		if rec.Corrected = chance(b.rng, b.profile.CorrectionRate); rec.Corrected {
			b.correct(2, []rune{r})
		}

	case ErrorDeletion:
		rec.Corrected = chance(b.rng, b.profile.CorrectionRate)
		if !hasNext {
			// Noticed before anything else was typed.
			if rec.Corrected {
				b.correct(0, []rune{r})
			}
			break
		}
		next := b.runes[i+1]
		b.literal(next)
		consumed = 2
		if rec.Corrected {
			b.correct(1, []rune{r, next})
		}

	case ErrorTransposition:
		next := b.runes[i+1]
		b.literal(next)
		b.literal(r)
		consumed = 2
		if rec.Corrected = chance(b.rng, b.profile.CorrectionRate); rec.Corrected {
			b.correct(2, []rune{r, next})
		}
	}

	b.stats.Errors++
	if rec.Corrected {
		b.stats.Corrected++
	}
	b.clean = 0
	return consumed, rec
}

// boundary runs after r was typed: thinking pauses at sentence ends and
// occasionally between words, plus the odd spontaneous correction.
func (b *planBuilder) boundary(r rune) {
	atEnd := b.pos >= len(b.runes)
	switch {
	case r == '\n' || (strings.ContainsRune(".!?", r) && (atEnd || isSpaceRune(b.runes[b.pos]))):
		if b.cfg.ThinkingPauses && !atEnd {
			b.think()
		}
	case r == ' ':
		if b.clean >= b.cfg.SpontaneousMinClean && chance(b.rng, b.cfg.SpontaneousChance) {
			b.spontaneous()
		} else if b.cfg.ThinkingPauses && chance(b.rng, b.cfg.RandomPauseChance) {
			b.think()
		}
	}
}

// think appends a pause from the quick/medium/long mixture.
func (b *planBuilder) think() {
	b.actions = append(b.actions, PauseOnly(thinkingPause(b.rng)))
	b.stats.Pauses++
}

func thinkingPause(rng *rand.Rand) time.Duration {
	x := rng.Float64()
	switch {
	case x < 0.6:
		return secondsToDuration(uniform(rng, 0.2, 0.8))
	case x < 0.9:
		return secondsToDuration(uniform(rng, 0.8, 2.0))
	default:
		return secondsToDuration(uniform(rng, 2.0, 5.0))
	}
}

// spontaneous erases and retypes a clean tail that had nothing wrong with it.
func (b *planBuilder) spontaneous() {
	limit := b.cfg.SpontaneousMaxBackspace
	if b.clean < limit {
		limit = b.clean
	}
	n := 2 + b.rng.Intn(limit-1)
	tail := append([]rune(nil), b.runes[b.pos-n:b.pos]...)
	b.correct(n, tail)
	b.stats.SpontaneousCorrections++
	b.clean = 0
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
