// File: internal/config/humanoid_config.go
// This file maps the behavioral sections of the configuration (session,
// trajectory, typing, click and custom profiles) onto humanoid.Config.
// Defaults are taken from the humanoid package itself so a config file only
// needs to name what it changes.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/mimic/internal/humanoid"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

func setHumanoidDefaults(v *viper.Viper) {
	// -- Trajectory --
	tr := humanoid.DefaultTrajectoryConfig()
	v.SetDefault("trajectory.base_interval", tr.BaseInterval)
	v.SetDefault("trajectory.min_delay", tr.MinDelay)
	v.SetDefault("trajectory.max_step", tr.MaxStep)
	v.SetDefault("trajectory.short_move_distance", tr.ShortMoveDistance)
	v.SetDefault("trajectory.long_move_distance", tr.LongMoveDistance)
	v.SetDefault("trajectory.short_move_speed", tr.ShortMoveSpeed)
	v.SetDefault("trajectory.long_move_speed", tr.LongMoveSpeed)
	v.SetDefault("trajectory.speed_noise", tr.SpeedNoise)
	v.SetDefault("trajectory.fatigue_damping", tr.FatigueDamping)
	v.SetDefault("trajectory.perlin_speed_amplitude", tr.PerlinSpeedAmplitude)
	v.SetDefault("trajectory.curve_intensity_short", tr.CurveIntensityShort)
	v.SetDefault("trajectory.curve_intensity_long", tr.CurveIntensityLong)
	v.SetDefault("trajectory.jitter_min", tr.JitterMin)
	v.SetDefault("trajectory.jitter_max", tr.JitterMax)
	v.SetDefault("trajectory.jitter_ramp", tr.JitterRamp)
	v.SetDefault("trajectory.overshoot_min_distance", tr.OvershootMinDistance)
	v.SetDefault("trajectory.overshoot_min", tr.OvershootMin)
	v.SetDefault("trajectory.overshoot_max", tr.OvershootMax)
	v.SetDefault("trajectory.overshoot_pause_min", tr.OvershootPauseMin)
	v.SetDefault("trajectory.overshoot_pause_max", tr.OvershootPauseMax)
	v.SetDefault("trajectory.hesitation_min", tr.HesitationMin)
	v.SetDefault("trajectory.hesitation_max", tr.HesitationMax)

	// -- Typing --
	ty := humanoid.DefaultTypingConfig()
	v.SetDefault("typing.speed_multiplier", ty.SpeedMultiplier)
	v.SetDefault("typing.delay_variance", ty.DelayVariance)
	v.SetDefault("typing.min_key_delay", ty.MinKeyDelay)
	v.SetDefault("typing.fatigue_slowdown", ty.FatigueSlowdown)
	v.SetDefault("typing.fatigue_attenuation", ty.FatigueAttenuation)
	v.SetDefault("typing.uppercase_factor", ty.UppercaseFactor)
	v.SetDefault("typing.symbol_factor", ty.SymbolFactor)
	v.SetDefault("typing.digit_punct_factor", ty.DigitPunctFactor)
	v.SetDefault("typing.awkward_bigram_factor", ty.AwkwardBigramFactor)
	v.SetDefault("typing.common_bigram_factor", ty.CommonBigramFactor)
	v.SetDefault("typing.simulate_errors", ty.SimulateErrors)
	v.SetDefault("typing.hard_char_error_boost", ty.HardCharErrorBoost)
	v.SetDefault("typing.fatigue_error_gain", ty.FatigueErrorGain)
	v.SetDefault("typing.correction_pause_min", ty.CorrectionPauseMin)
	v.SetDefault("typing.correction_pause_max", ty.CorrectionPauseMax)
	v.SetDefault("typing.thinking_pauses", ty.ThinkingPauses)
	v.SetDefault("typing.random_pause_chance", ty.RandomPauseChance)
	v.SetDefault("typing.spontaneous_chance", ty.SpontaneousChance)
	v.SetDefault("typing.spontaneous_min_clean", ty.SpontaneousMinClean)
	v.SetDefault("typing.spontaneous_max_backspace", ty.SpontaneousMaxBackspace)
	v.SetDefault("typing.allow_paste", ty.AllowPaste)
	v.SetDefault("typing.paste_chance", ty.PasteChance)
	v.SetDefault("typing.paste_chance_boosted", ty.PasteChanceBoosted)
	v.SetDefault("typing.paste_delay", ty.PasteDelay)
	v.SetDefault("typing.repeat_min_len", ty.RepeatMinLen)
	v.SetDefault("typing.technical_min_len", ty.TechnicalMinLen)

	// -- Click --
	cl := humanoid.DefaultClickConfig()
	v.SetDefault("click.pre_click_pause_chance", cl.PreClickPauseChance)
	v.SetDefault("click.pre_click_pause_min", cl.PreClickPauseMin)
	v.SetDefault("click.pre_click_pause_max", cl.PreClickPauseMax)
	v.SetDefault("click.hold_min", cl.HoldMin)
	v.SetDefault("click.hold_max", cl.HoldMax)
	v.SetDefault("click.post_click_pause_chance", cl.PostClickPauseChance)
	v.SetDefault("click.post_click_pause_min", cl.PostClickPauseMin)
	v.SetDefault("click.post_click_pause_max", cl.PostClickPauseMax)
	v.SetDefault("click.double_click_gap_min", cl.DoubleClickGapMin)
	v.SetDefault("click.double_click_gap_max", cl.DoubleClickGapMax)
	v.SetDefault("click.drag_grab_pause_min", cl.DragGrabPauseMin)
	v.SetDefault("click.drag_grab_pause_max", cl.DragGrabPauseMax)
	v.SetDefault("click.scroll_step", cl.ScrollStep)
	v.SetDefault("click.scroll_notch_min", cl.ScrollNotchMin)
	v.SetDefault("click.scroll_notch_max", cl.ScrollNotchMax)
	v.SetDefault("click.scroll_pause_chance", cl.ScrollPauseChance)
}

// HumanoidSettings builds the session configuration. The custom profiles are
// registered on top of the presets, so an unknown session profile fails here
// rather than falling back to a default.
func (c *Config) HumanoidSettings() (humanoid.Config, error) {
	reg, err := humanoid.NewProfileRegistry(c.ProfilesCfg...)
	if err != nil {
		return humanoid.Config{}, fmt.Errorf("failed to register custom profiles: %w", err)
	}
	if _, err := reg.Lookup(c.SessionCfg.Profile); err != nil {
		return humanoid.Config{}, err
	}

	hc := humanoid.Config{
		ProfileName: c.SessionCfg.Profile,
		Registry:    reg,
		Seed:        c.SessionCfg.Seed,
		State: humanoid.StateConfig{
			HistorySize:    c.SessionCfg.HistorySize,
			FatigueCap:     c.SessionCfg.FatigueCap,
			FatigueHorizon: c.SessionCfg.FatigueHorizon,
		},
		Trajectory: c.TrajectoryCfg.toHumanoid(),
		Typing:     c.TypingCfg.toHumanoid(),
		Click:      c.ClickCfg.toHumanoid(),
	}
	if c.SessionCfg.FatigueOffset > 0 {
		hc.SessionStart = nowFunc().Add(-c.SessionCfg.FatigueOffset)
	}

	for _, check := range []func() error{
		hc.State.Validate,
		hc.Trajectory.Validate,
		hc.Typing.Validate,
		hc.Click.Validate,
	} {
		if err := check(); err != nil {
			return humanoid.Config{}, err
		}
	}
	return hc, nil
}

func (t TrajectoryConfig) toHumanoid() humanoid.TrajectoryConfig {
	return humanoid.TrajectoryConfig{
		BaseInterval:         t.BaseInterval,
		MinDelay:             t.MinDelay,
		MaxStep:              t.MaxStep,
		ShortMoveDistance:    t.ShortMoveDistance,
		LongMoveDistance:     t.LongMoveDistance,
		ShortMoveSpeed:       t.ShortMoveSpeed,
		LongMoveSpeed:        t.LongMoveSpeed,
		SpeedNoise:           t.SpeedNoise,
		FatigueDamping:       t.FatigueDamping,
		PerlinSpeedAmplitude: t.PerlinSpeedAmplitude,
		CurveIntensityShort:  t.CurveIntensityShort,
		CurveIntensityLong:   t.CurveIntensityLong,
		JitterMin:            t.JitterMin,
		JitterMax:            t.JitterMax,
		JitterRamp:           t.JitterRamp,
		OvershootMinDistance: t.OvershootMinDistance,
		OvershootMin:         t.OvershootMin,
		OvershootMax:         t.OvershootMax,
		OvershootPauseMin:    t.OvershootPauseMin,
		OvershootPauseMax:    t.OvershootPauseMax,
		HesitationMin:        t.HesitationMin,
		HesitationMax:        t.HesitationMax,
	}
}

func (t TypingConfig) toHumanoid() humanoid.TypingConfig {
	return humanoid.TypingConfig{
		SpeedMultiplier:         t.SpeedMultiplier,
		DelayVariance:           t.DelayVariance,
		MinKeyDelay:             t.MinKeyDelay,
		FatigueSlowdown:         t.FatigueSlowdown,
		FatigueAttenuation:      t.FatigueAttenuation,
		UppercaseFactor:         t.UppercaseFactor,
		SymbolFactor:            t.SymbolFactor,
		DigitPunctFactor:        t.DigitPunctFactor,
		AwkwardBigramFactor:     t.AwkwardBigramFactor,
		CommonBigramFactor:      t.CommonBigramFactor,
		SimulateErrors:          t.SimulateErrors,
		HardCharErrorBoost:      t.HardCharErrorBoost,
		FatigueErrorGain:        t.FatigueErrorGain,
		CorrectionPauseMin:      t.CorrectionPauseMin,
		CorrectionPauseMax:      t.CorrectionPauseMax,
		ThinkingPauses:          t.ThinkingPauses,
		RandomPauseChance:       t.RandomPauseChance,
		SpontaneousChance:       t.SpontaneousChance,
		SpontaneousMinClean:     t.SpontaneousMinClean,
		SpontaneousMaxBackspace: t.SpontaneousMaxBackspace,
		AllowPaste:              t.AllowPaste,
		PasteChance:             t.PasteChance,
		PasteChanceBoosted:      t.PasteChanceBoosted,
		PasteDelay:              t.PasteDelay,
		RepeatMinLen:            t.RepeatMinLen,
		TechnicalMinLen:         t.TechnicalMinLen,
	}
}

func (c ClickConfig) toHumanoid() humanoid.ClickConfig {
	return humanoid.ClickConfig{
		PreClickPauseChance:  c.PreClickPauseChance,
		PreClickPauseMin:     c.PreClickPauseMin,
		PreClickPauseMax:     c.PreClickPauseMax,
		HoldMin:              c.HoldMin,
		HoldMax:              c.HoldMax,
		PostClickPauseChance: c.PostClickPauseChance,
		PostClickPauseMin:    c.PostClickPauseMin,
		PostClickPauseMax:    c.PostClickPauseMax,
		DoubleClickGapMin:    c.DoubleClickGapMin,
		DoubleClickGapMax:    c.DoubleClickGapMax,
		DragGrabPauseMin:     c.DragGrabPauseMin,
		DragGrabPauseMax:     c.DragGrabPauseMax,
		ScrollStep:           c.ScrollStep,
		ScrollNotchMin:       c.ScrollNotchMin,
		ScrollNotchMax:       c.ScrollNotchMax,
		ScrollPauseChance:    c.ScrollPauseChance,
	}
}
