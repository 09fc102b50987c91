// File: cmd/session.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/humanoid"
	"github.com/xkilldash9x/mimic/internal/sink"
)

// session is one humanoid wired to its sink stack: Trace(Paced(CDP)) for a
// live browser, Trace(Recorder) for a dry run. Either decorator is optional.
type session struct {
	humanoid *humanoid.Humanoid
	sink     humanoid.ActionSink
	recorder *sink.Recorder
	trace    *sink.Trace
	kind     string
	profile  string
	closers  []func() error
}

// sessionOptions let simulate share one trace writer across sessions.
type sessionOptions struct {
	traceWriter io.Writer
	traceID     string
}

// openSession builds the sink stack described by cfg and starts a session on it.
func openSession(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts sessionOptions) (s *session, err error) {
	hc, err := cfg.HumanoidSettings()
	if err != nil {
		return nil, err
	}

	s = &session{kind: cfg.Sink().Kind, profile: cfg.Session().Profile}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	switch s.kind {
	case config.SinkRecord:
		bounds := cfg.Sink().ScreenBounds()
		// Dry runs start with the pointer resting mid-screen.
		s.recorder = sink.NewRecorder(bounds, humanoid.Vector2D{X: float64(bounds.Width / 2), Y: float64(bounds.Height / 2)})
		s.sink = s.recorder
	case config.SinkCDP:
		b := cfg.Browser()
		cdp, closeBrowser, err := sink.LaunchBrowser(ctx, sink.BrowserOptions{
			Headless:        b.Headless,
			DisableGPU:      b.DisableGPU,
			URL:             b.URL,
			Args:            b.Args,
			NavigateTimeout: b.NavigateTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.closers = append(s.closers, func() error { closeBrowser(); return nil })

		paced, err := sink.NewPaced(cdp, sink.PacedOptions{
			Speed:           cfg.Sink().Speed,
			EventsPerSecond: cfg.Sink().EventsPerSecond,
			Burst:           cfg.Sink().Burst,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.sink = paced
	default:
		return nil, fmt.Errorf("unknown sink kind %q", s.kind)
	}

	w := opts.traceWriter
	if w == nil && cfg.Sink().TraceFile != "" {
		f, err := createTraceFile(cfg.Sink().TraceFile)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, f.Close)
		w = f
	}
	if w != nil {
		s.trace = sink.NewTrace(s.sink, w, opts.traceID)
		s.sink = s.trace
	}

	h, err := humanoid.New(ctx, hc, s.sink, logger)
	if err != nil {
		return nil, err
	}
	s.humanoid = h
	logger.Debug("Session opened.",
		zap.String("session_id", h.ID()),
		zap.Int64("seed", h.Seed()),
		zap.String("sink", s.kind),
		zap.Stringer("screen", h.Bounds()))
	return s, nil
}

func createTraceFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	return f, nil
}

// Close releases the browser and trace file, newest first.
func (s *session) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// summary is what every action command reports.
type summary struct {
	Session       string            `json:"session"`
	Profile       string            `json:"profile"`
	Seed          int64             `json:"seed"`
	Sink          string            `json:"sink"`
	Pointer       humanoid.Vector2D `json:"pointer"`
	Fatigue       float64           `json:"fatigue"`
	PointerEvents int               `json:"pointer_events,omitempty"`
	KeyActions    int               `json:"key_actions,omitempty"`
	Text          string            `json:"text,omitempty"`
	VirtualMs     float64           `json:"virtual_ms,omitempty"`
	Typing        *typingSummary    `json:"typing,omitempty"`
	Trace         string            `json:"trace,omitempty"`
}

type typingSummary struct {
	Content humanoid.ContentKind `json:"content"`
	Stats   humanoid.PlanStats   `json:"stats"`
	Planned float64              `json:"planned_ms"`
	WPM     float64              `json:"wpm"`
}

func (s *session) summarize(ctx context.Context, plan *humanoid.TypingPlan) summary {
	out := summary{
		Session: s.humanoid.ID(),
		Profile: s.humanoid.State().Profile().Name,
		Seed:    s.humanoid.Seed(),
		Sink:    s.kind,
		Fatigue: s.humanoid.State().CurrentFatigue(),
	}
	if pos, err := s.sink.PointerPosition(ctx); err == nil {
		out.Pointer = pos
	}
	if s.recorder != nil {
		out.PointerEvents = len(s.recorder.PointerEvents())
		out.KeyActions = len(s.recorder.KeyActions())
		out.Text = s.recorder.Text()
		out.VirtualMs = float64(s.recorder.Elapsed()) / float64(time.Millisecond)
	}
	if plan != nil {
		out.Typing = &typingSummary{
			Content: plan.Content,
			Stats:   plan.Stats,
			Planned: float64(plan.Duration()) / float64(time.Millisecond),
			WPM:     plan.WPM(),
		}
	}
	if s.trace != nil {
		out.Trace = s.trace.Session()
	}
	return out
}

// parsePoint reads an "x y" argument pair.
func parsePoint(xs, ys string) (humanoid.Vector2D, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return humanoid.Vector2D{}, fmt.Errorf("invalid x coordinate %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return humanoid.Vector2D{}, fmt.Errorf("invalid y coordinate %q: %w", ys, err)
	}
	return humanoid.Vector2D{X: x, Y: y}, nil
}
