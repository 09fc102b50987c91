// File: cmd/actions.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/humanoid"
	"github.com/xkilldash9x/mimic/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// runIntent opens a session, runs fn against it and prints the summary.
func runIntent(cmd *cobra.Command, name string, fn func(ctx context.Context, s *session) (*humanoid.TypingPlan, error)) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger := observability.GetLogger().With(zap.String("intent", name))

	s, err := openSession(ctx, cfg, logger, sessionOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn("Failed to close session cleanly.", zap.Error(cerr))
		}
	}()

	start := time.Now()
	plan, err := fn(ctx, s)
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	logger.Info("Intent complete.", zap.String("session_id", s.humanoid.ID()), zap.Duration("wall", time.Since(start)))
	return printResult(cmd, s.summarize(ctx, plan))
}

// printResult writes v as indented JSON with --json, otherwise as text.
func printResult(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch r := v.(type) {
	case summary:
		writeSummary(out, r)
	case []summary:
		for i, s := range r {
			if i > 0 {
				fmt.Fprintln(out)
			}
			writeSummary(out, s)
		}
	default:
		fmt.Fprintf(out, "%+v\n", v)
	}
	return nil
}

func writeSummary(w io.Writer, s summary) {
	fmt.Fprintf(w, "session:  %s\n", s.Session)
	fmt.Fprintf(w, "profile:  %s (seed %d)\n", s.Profile, s.Seed)
	fmt.Fprintf(w, "sink:     %s\n", s.Sink)
	fmt.Fprintf(w, "pointer:  %s\n", s.Pointer)
	fmt.Fprintf(w, "fatigue:  %.3f\n", s.Fatigue)
	if s.PointerEvents > 0 || s.KeyActions > 0 {
		fmt.Fprintf(w, "events:   %d pointer, %d key\n", s.PointerEvents, s.KeyActions)
		fmt.Fprintf(w, "duration: %.0fms\n", s.VirtualMs)
	}
	if t := s.Typing; t != nil {
		fmt.Fprintf(w, "typing:   %s, %d chars, %d errors (%d corrected), %d pastes, %d pauses, %d spontaneous\n",
			t.Content, t.Stats.Chars, t.Stats.Errors, t.Stats.Corrected, t.Stats.Pastes, t.Stats.Pauses, t.Stats.SpontaneousCorrections)
		fmt.Fprintf(w, "speed:    %.1f wpm over %.0fms\n", t.WPM, t.Planned)
	}
	if s.Text != "" {
		fmt.Fprintf(w, "text:     %q\n", s.Text)
	}
	if s.Trace != "" {
		fmt.Fprintf(w, "trace:    %s\n", s.Trace)
	}
}

func newMoveCmd() *cobra.Command {
	var steady bool
	cmd := &cobra.Command{
		Use:   "move X Y",
		Short: "Move the pointer to a point along a human-like path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			return runIntent(cmd, "move", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				return nil, s.humanoid.MoveTo(ctx, target, steady)
			})
		},
	}
	cmd.Flags().BoolVar(&steady, "steady", false, "direct path without jitter or overshoot")
	return cmd
}

func newClickCmd() *cobra.Command {
	var (
		button string
		double bool
		steady bool
	)
	cmd := &cobra.Command{
		Use:   "click X Y",
		Short: "Move to a point and click it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			btn, ok := schemas.ParseMouseButton(button)
			if !ok || btn == schemas.ButtonNone {
				return fmt.Errorf("invalid button %q: use left, right or middle", button)
			}
			if double && btn != schemas.ButtonLeft {
				return fmt.Errorf("double click is only supported with the left button")
			}
			return runIntent(cmd, "click", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				if double {
					return nil, s.humanoid.DoubleClick(ctx, target)
				}
				return nil, s.humanoid.ClickOn(ctx, target, btn, steady)
			})
		},
	}
	cmd.Flags().StringVarP(&button, "button", "b", "left", "mouse button: left, right or middle")
	cmd.Flags().BoolVar(&double, "double", false, "double click")
	cmd.Flags().BoolVar(&steady, "steady", false, "direct approach without jitter or overshoot")
	return cmd
}

func newDragCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drag X1 Y1 X2 Y2",
		Short: "Press at one point, drag to another and release",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			target, err := parsePoint(args[2], args[3])
			if err != nil {
				return err
			}
			return runIntent(cmd, "drag", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				return nil, s.humanoid.DragAndDrop(ctx, source, target)
			})
		},
	}
}

func newScrollCmd() *cobra.Command {
	var (
		direction string
		clicks    int
	)
	cmd := &cobra.Command{
		Use:   "scroll X Y",
		Short: "Scroll the wheel a number of notches at a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			dir := schemas.ScrollDirection(strings.ToLower(direction))
			return runIntent(cmd, "scroll", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				return nil, s.humanoid.Scroll(ctx, origin, dir, clicks)
			})
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", string(schemas.ScrollDown), "up, down, left or right")
	cmd.Flags().IntVarP(&clicks, "clicks", "n", 3, "number of wheel notches")
	return cmd
}

func newHoverCmd() *cobra.Command {
	var dwell time.Duration
	cmd := &cobra.Command{
		Use:   "hover X Y",
		Short: "Move to a point and rest there with small idle movements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			return runIntent(cmd, "hover", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				return nil, s.humanoid.Hover(ctx, target, dwell)
			})
		},
	}
	cmd.Flags().DurationVar(&dwell, "dwell", time.Second, "how long to rest on the target")
	return cmd
}

func newTypeCmd() *cobra.Command {
	var (
		hint string
		file string
	)
	cmd := &cobra.Command{
		Use:   "type [TEXT...]",
		Short: "Type text with human timing, mistakes and corrections",
		Long: `Type text into whatever has focus. The words are joined with single spaces;
use --file to type a file verbatim, or "-" to read standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := humanoid.ParseContentKind(hint)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args, file)
			if err != nil {
				return err
			}
			return runIntent(cmd, "type", func(ctx context.Context, s *session) (*humanoid.TypingPlan, error) {
				plan, err := s.humanoid.Type(ctx, text, kind)
				if err != nil {
					return nil, err
				}
				return &plan, nil
			})
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "auto", "content kind: auto, plain, code, email, formal or repetitive")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the text from a file (- for stdin)")
	return cmd
}

func readText(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(b), nil
	case len(args) == 0:
		return "", fmt.Errorf("nothing to type: pass TEXT or --file")
	}
	return strings.Join(args, " "), nil
}
