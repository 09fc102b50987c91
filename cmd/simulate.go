// File: cmd/simulate.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/humanoid"
	"github.com/xkilldash9x/mimic/internal/observability"
)

// simulateOptions describe one batch of dry-run sessions.
type simulateOptions struct {
	Sessions    int
	Concurrency int
	Clicks      int
	Text        string
	Profiles    []string
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run several independent dry-run sessions in parallel",
		Long: `Run N recorded sessions side by side. Each session clicks a series of
random on-screen targets and then types the given text. Sessions never touch a
real device; use the results to compare profiles or check reproducibility.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			results, err := runSimulation(cmd.Context(), cfg, opts, observability.GetLogger())
			if err != nil {
				return err
			}
			return printResult(cmd, results)
		},
	}
	cmd.Flags().IntVarP(&opts.Sessions, "sessions", "n", 4, "number of sessions")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", runtime.NumCPU(), "sessions run at once")
	cmd.Flags().IntVar(&opts.Clicks, "clicks", 5, "random targets clicked per session")
	cmd.Flags().StringVar(&opts.Text, "text", "The quick brown fox jumps over the lazy dog.", "text typed by each session (empty to skip)")
	cmd.Flags().StringSliceVar(&opts.Profiles, "profiles", nil, "profiles assigned round-robin (default: the configured profile)")
	return cmd
}

// runSimulation runs every session on its own Recorder. With a configured
// seed, session i uses seed+i so the whole batch is reproducible.
func runSimulation(ctx context.Context, base *config.Config, opts simulateOptions, logger *zap.Logger) ([]summary, error) {
	if opts.Sessions <= 0 {
		return nil, fmt.Errorf("--sessions must be positive, got %d", opts.Sessions)
	}
	if opts.Clicks < 0 {
		return nil, fmt.Errorf("--clicks must not be negative, got %d", opts.Clicks)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	var traceOut io.Writer
	if path := base.Sink().TraceFile; path != "" {
		f, err := createTraceFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		traceOut = &syncWriter{w: f}
	}

	results := make([]summary, opts.Sessions)
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i := 0; i < opts.Sessions; i++ {
		i := i
		sc := *base
		sc.SetSinkKind(config.SinkRecord)
		sc.SetSinkTraceFile("")
		if base.Session().Seed != 0 {
			sc.SetSessionSeed(base.Session().Seed + int64(i))
		}
		if len(opts.Profiles) > 0 {
			sc.SetSessionProfile(strings.TrimSpace(opts.Profiles[i%len(opts.Profiles)]))
		}

		g.Go(func() error {
			res, err := simulateOne(groupCtx, &sc, opts, traceOut, logger.With(zap.Int("session_index", i)))
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func simulateOne(ctx context.Context, cfg config.Interface, opts simulateOptions, traceOut io.Writer, logger *zap.Logger) (summary, error) {
	s, err := openSession(ctx, cfg, logger, sessionOptions{traceWriter: traceOut})
	if err != nil {
		return summary{}, err
	}
	defer s.Close()

	h := s.humanoid
	bounds := h.Bounds()
	// Targets are drawn from the session seed, so they repeat with it.
	rng := rand.New(rand.NewSource(h.Seed()))
	margin := 0.05

	for c := 0; c < opts.Clicks; c++ {
		target := humanoid.Vector2D{
			X: float64(bounds.Width-1) * (margin + rng.Float64()*(1-2*margin)),
			Y: float64(bounds.Height-1) * (margin + rng.Float64()*(1-2*margin)),
		}.Round()
		if err := h.ClickOn(ctx, target, schemas.ButtonLeft, false); err != nil {
			return summary{}, err
		}
		if c%3 == 2 {
			if err := h.Scroll(ctx, target, schemas.ScrollDown, 1+rng.Intn(4)); err != nil {
				return summary{}, err
			}
		}
	}

	var plan *humanoid.TypingPlan
	if opts.Text != "" {
		p, err := h.Type(ctx, opts.Text, humanoid.ContentAuto)
		if err != nil {
			return summary{}, err
		}
		plan = &p
	}
	return s.summarize(ctx, plan), nil
}

// syncWriter serializes writes from concurrent traces sharing one file.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
