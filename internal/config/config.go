// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/mimic/internal/humanoid"
)

// Interface defines the contract for accessing application configuration.
// Commands depend on it so tests can hand them a prepared config.
type Interface interface {
	Logger() LoggerConfig
	Session() SessionConfig
	Trajectory() TrajectoryConfig
	Typing() TypingConfig
	Click() ClickConfig
	Profiles() []humanoid.Profile
	Sink() SinkConfig
	Browser() BrowserConfig

	// Setters used when one loaded config fans out into several sessions.
	SetSessionProfile(name string)
	SetSessionSeed(seed int64)
	SetSinkKind(kind string)
	SetSinkTraceFile(path string)

	// HumanoidSettings builds the session configuration.
	HumanoidSettings() (humanoid.Config, error)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	SessionCfg    SessionConfig      `mapstructure:"session" yaml:"session"`
	TrajectoryCfg TrajectoryConfig   `mapstructure:"trajectory" yaml:"trajectory"`
	TypingCfg     TypingConfig       `mapstructure:"typing" yaml:"typing"`
	ClickCfg      ClickConfig        `mapstructure:"click" yaml:"click"`
	ProfilesCfg   []humanoid.Profile `mapstructure:"profiles" yaml:"profiles"`
	SinkCfg       SinkConfig         `mapstructure:"sink" yaml:"sink"`
	BrowserCfg    BrowserConfig      `mapstructure:"browser" yaml:"browser"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Session() SessionConfig       { return c.SessionCfg }
func (c *Config) Trajectory() TrajectoryConfig { return c.TrajectoryCfg }
func (c *Config) Typing() TypingConfig         { return c.TypingCfg }
func (c *Config) Click() ClickConfig           { return c.ClickCfg }
func (c *Config) Profiles() []humanoid.Profile { return c.ProfilesCfg }
func (c *Config) Sink() SinkConfig             { return c.SinkCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetSessionProfile(name string) { c.SessionCfg.Profile = name }
func (c *Config) SetSessionSeed(seed int64)     { c.SessionCfg.Seed = seed }
func (c *Config) SetSinkKind(kind string)       { c.SinkCfg.Kind = kind }
func (c *Config) SetSinkTraceFile(path string)  { c.SinkCfg.TraceFile = path }

// LoggerConfig holds the logging settings.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// SessionConfig selects who the simulated user is.
type SessionConfig struct {
	Profile string `mapstructure:"profile" yaml:"profile"`
	// Seed makes runs reproducible. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// FatigueOffset backdates the session start so it begins already tired.
	FatigueOffset  time.Duration `mapstructure:"fatigue_offset" yaml:"fatigue_offset"`
	HistorySize    int           `mapstructure:"history_size" yaml:"history_size"`
	FatigueCap     float64       `mapstructure:"fatigue_cap" yaml:"fatigue_cap"`
	FatigueHorizon time.Duration `mapstructure:"fatigue_horizon" yaml:"fatigue_horizon"`
}

// TrajectoryConfig mirrors humanoid.TrajectoryConfig.
type TrajectoryConfig struct {
	BaseInterval         time.Duration `mapstructure:"base_interval" yaml:"base_interval"`
	MinDelay             time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxStep              float64       `mapstructure:"max_step" yaml:"max_step"`
	ShortMoveDistance    float64       `mapstructure:"short_move_distance" yaml:"short_move_distance"`
	LongMoveDistance     float64       `mapstructure:"long_move_distance" yaml:"long_move_distance"`
	ShortMoveSpeed       float64       `mapstructure:"short_move_speed" yaml:"short_move_speed"`
	LongMoveSpeed        float64       `mapstructure:"long_move_speed" yaml:"long_move_speed"`
	SpeedNoise           float64       `mapstructure:"speed_noise" yaml:"speed_noise"`
	FatigueDamping       float64       `mapstructure:"fatigue_damping" yaml:"fatigue_damping"`
	PerlinSpeedAmplitude float64       `mapstructure:"perlin_speed_amplitude" yaml:"perlin_speed_amplitude"`
	CurveIntensityShort  float64       `mapstructure:"curve_intensity_short" yaml:"curve_intensity_short"`
	CurveIntensityLong   float64       `mapstructure:"curve_intensity_long" yaml:"curve_intensity_long"`
	JitterMin            float64       `mapstructure:"jitter_min" yaml:"jitter_min"`
	JitterMax            float64       `mapstructure:"jitter_max" yaml:"jitter_max"`
	JitterRamp           float64       `mapstructure:"jitter_ramp" yaml:"jitter_ramp"`
	OvershootMinDistance float64       `mapstructure:"overshoot_min_distance" yaml:"overshoot_min_distance"`
	OvershootMin         float64       `mapstructure:"overshoot_min" yaml:"overshoot_min"`
	OvershootMax         float64       `mapstructure:"overshoot_max" yaml:"overshoot_max"`
	OvershootPauseMin    time.Duration `mapstructure:"overshoot_pause_min" yaml:"overshoot_pause_min"`
	OvershootPauseMax    time.Duration `mapstructure:"overshoot_pause_max" yaml:"overshoot_pause_max"`
	HesitationMin        time.Duration `mapstructure:"hesitation_min" yaml:"hesitation_min"`
	HesitationMax        time.Duration `mapstructure:"hesitation_max" yaml:"hesitation_max"`
}

// TypingConfig mirrors humanoid.TypingConfig.
type TypingConfig struct {
	SpeedMultiplier         float64       `mapstructure:"speed_multiplier" yaml:"speed_multiplier"`
	DelayVariance           float64       `mapstructure:"delay_variance" yaml:"delay_variance"`
	MinKeyDelay             time.Duration `mapstructure:"min_key_delay" yaml:"min_key_delay"`
	FatigueSlowdown         float64       `mapstructure:"fatigue_slowdown" yaml:"fatigue_slowdown"`
	FatigueAttenuation      float64       `mapstructure:"fatigue_attenuation" yaml:"fatigue_attenuation"`
	UppercaseFactor         float64       `mapstructure:"uppercase_factor" yaml:"uppercase_factor"`
	SymbolFactor            float64       `mapstructure:"symbol_factor" yaml:"symbol_factor"`
	DigitPunctFactor        float64       `mapstructure:"digit_punct_factor" yaml:"digit_punct_factor"`
	AwkwardBigramFactor     float64       `mapstructure:"awkward_bigram_factor" yaml:"awkward_bigram_factor"`
	CommonBigramFactor      float64       `mapstructure:"common_bigram_factor" yaml:"common_bigram_factor"`
	SimulateErrors          bool          `mapstructure:"simulate_errors" yaml:"simulate_errors"`
	HardCharErrorBoost      float64       `mapstructure:"hard_char_error_boost" yaml:"hard_char_error_boost"`
	FatigueErrorGain        float64       `mapstructure:"fatigue_error_gain" yaml:"fatigue_error_gain"`
	CorrectionPauseMin      time.Duration `mapstructure:"correction_pause_min" yaml:"correction_pause_min"`
	CorrectionPauseMax      time.Duration `mapstructure:"correction_pause_max" yaml:"correction_pause_max"`
	ThinkingPauses          bool          `mapstructure:"thinking_pauses" yaml:"thinking_pauses"`
	RandomPauseChance       float64       `mapstructure:"random_pause_chance" yaml:"random_pause_chance"`
	SpontaneousChance       float64       `mapstructure:"spontaneous_chance" yaml:"spontaneous_chance"`
	SpontaneousMinClean     int           `mapstructure:"spontaneous_min_clean" yaml:"spontaneous_min_clean"`
	SpontaneousMaxBackspace int           `mapstructure:"spontaneous_max_backspace" yaml:"spontaneous_max_backspace"`
	AllowPaste              bool          `mapstructure:"allow_paste" yaml:"allow_paste"`
	PasteChance             float64       `mapstructure:"paste_chance" yaml:"paste_chance"`
	PasteChanceBoosted      float64       `mapstructure:"paste_chance_boosted" yaml:"paste_chance_boosted"`
	PasteDelay              time.Duration `mapstructure:"paste_delay" yaml:"paste_delay"`
	RepeatMinLen            int           `mapstructure:"repeat_min_len" yaml:"repeat_min_len"`
	TechnicalMinLen         int           `mapstructure:"technical_min_len" yaml:"technical_min_len"`
}

// ClickConfig mirrors humanoid.ClickConfig.
type ClickConfig struct {
	PreClickPauseChance  float64       `mapstructure:"pre_click_pause_chance" yaml:"pre_click_pause_chance"`
	PreClickPauseMin     time.Duration `mapstructure:"pre_click_pause_min" yaml:"pre_click_pause_min"`
	PreClickPauseMax     time.Duration `mapstructure:"pre_click_pause_max" yaml:"pre_click_pause_max"`
	HoldMin              time.Duration `mapstructure:"hold_min" yaml:"hold_min"`
	HoldMax              time.Duration `mapstructure:"hold_max" yaml:"hold_max"`
	PostClickPauseChance float64       `mapstructure:"post_click_pause_chance" yaml:"post_click_pause_chance"`
	PostClickPauseMin    time.Duration `mapstructure:"post_click_pause_min" yaml:"post_click_pause_min"`
	PostClickPauseMax    time.Duration `mapstructure:"post_click_pause_max" yaml:"post_click_pause_max"`
	DoubleClickGapMin    time.Duration `mapstructure:"double_click_gap_min" yaml:"double_click_gap_min"`
	DoubleClickGapMax    time.Duration `mapstructure:"double_click_gap_max" yaml:"double_click_gap_max"`
	DragGrabPauseMin     time.Duration `mapstructure:"drag_grab_pause_min" yaml:"drag_grab_pause_min"`
	DragGrabPauseMax     time.Duration `mapstructure:"drag_grab_pause_max" yaml:"drag_grab_pause_max"`
	ScrollStep           float64       `mapstructure:"scroll_step" yaml:"scroll_step"`
	ScrollNotchMin       time.Duration `mapstructure:"scroll_notch_min" yaml:"scroll_notch_min"`
	ScrollNotchMax       time.Duration `mapstructure:"scroll_notch_max" yaml:"scroll_notch_max"`
	ScrollPauseChance    float64       `mapstructure:"scroll_pause_chance" yaml:"scroll_pause_chance"`
}

// SinkConfig selects where synthesized actions go.
type SinkConfig struct {
	// Kind is "record" (virtual clock, nothing injected) or "cdp" (a Chrome tab).
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Speed divides real-time waits for live sinks. 1.0 is real time.
	Speed           float64 `mapstructure:"speed" yaml:"speed"`
	EventsPerSecond float64 `mapstructure:"events_per_second" yaml:"events_per_second"`
	Burst           int     `mapstructure:"burst" yaml:"burst"`
	// TraceFile, when set, receives a JSONL record of every sink call.
	TraceFile    string `mapstructure:"trace_file" yaml:"trace_file"`
	ScreenWidth  int    `mapstructure:"screen_width" yaml:"screen_width"`
	ScreenHeight int    `mapstructure:"screen_height" yaml:"screen_height"`
}

// Sink kinds.
const (
	SinkRecord = "record"
	SinkCDP    = "cdp"
)

// BrowserConfig holds the settings for the cdp sink.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU      bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	URL             string        `mapstructure:"url" yaml:"url"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
}

// NewDefaultConfig creates a configuration populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default on v. The behavioral defaults are read
// from the humanoid package so the two never drift apart.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "mimic")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Session --
	st := humanoid.DefaultStateConfig()
	v.SetDefault("session.profile", humanoid.DefaultProfileName)
	v.SetDefault("session.seed", 0)
	v.SetDefault("session.fatigue_offset", "0s")
	v.SetDefault("session.history_size", st.HistorySize)
	v.SetDefault("session.fatigue_cap", st.FatigueCap)
	v.SetDefault("session.fatigue_horizon", st.FatigueHorizon)

	setHumanoidDefaults(v)

	// -- Profiles --
	v.SetDefault("profiles", []humanoid.Profile{})

	// -- Sink --
	v.SetDefault("sink.kind", SinkRecord)
	v.SetDefault("sink.speed", 1.0)
	v.SetDefault("sink.events_per_second", 0)
	v.SetDefault("sink.burst", 10)
	v.SetDefault("sink.trace_file", "")
	v.SetDefault("sink.screen_width", 1920)
	v.SetDefault("sink.screen_height", 1080)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.url", "about:blank")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.navigate_timeout", "30s")
}

// NewConfigFromViper unmarshals, expands paths and validates.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in file settings.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.LoggerCfg.LogFile, &c.SinkCfg.TraceFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values. Behavioral coefficients
// are checked again, in full, when HumanoidSettings builds the session.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionCfg.Profile) == "" {
		return fmt.Errorf("session.profile must not be empty")
	}
	if c.SessionCfg.FatigueOffset < 0 {
		return fmt.Errorf("session.fatigue_offset must not be negative")
	}
	switch c.SinkCfg.Kind {
	case SinkRecord, SinkCDP:
	default:
		return fmt.Errorf("sink.kind must be one of %q or %q, got %q", SinkRecord, SinkCDP, c.SinkCfg.Kind)
	}
	if c.SinkCfg.Speed <= 0 {
		return fmt.Errorf("sink.speed must be a positive number")
	}
	if c.SinkCfg.EventsPerSecond < 0 {
		return fmt.Errorf("sink.events_per_second must not be negative")
	}
	if c.SinkCfg.Kind == SinkRecord && (c.SinkCfg.ScreenWidth <= 0 || c.SinkCfg.ScreenHeight <= 0) {
		return fmt.Errorf("sink.screen_width and sink.screen_height must be positive integers")
	}
	if c.BrowserCfg.NavigateTimeout < 0 {
		return fmt.Errorf("browser.navigate_timeout must not be negative")
	}
	seen := make(map[string]bool, len(c.ProfilesCfg))
	for i, p := range c.ProfilesCfg {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles[%d] invalid: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if seen[key] {
			return fmt.Errorf("profiles[%d]: duplicate profile name %q", i, p.Name)
		}
		seen[key] = true
	}
	return nil
}

// ScreenBounds is the virtual screen used by the record sink.
func (s SinkConfig) ScreenBounds() humanoid.Bounds {
	return humanoid.Bounds{Width: s.ScreenWidth, Height: s.ScreenHeight}
}
