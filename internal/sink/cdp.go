// internal/sink/cdp.go
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/humanoid"
)

// Default per-call budgets for browser round trips.
const (
	pointerTimeout = 10 * time.Second
	keyTimeout     = 10 * time.Second
	metricsTimeout = 5 * time.Second
)

// CDP is an ActionSink that drives a Chrome tab over the DevTools protocol.
// It performs no waiting of its own: wrap it in Paced to honour the declared
// delays in real time. CDP has no way to read the OS pointer, so the position
// is tracked from the events this sink dispatched.
type CDP struct {
	// browserCtx is the chromedp tab context every action runs against.
	browserCtx context.Context
	logger     *zap.Logger
	runActions func(ctx context.Context, actions ...chromedp.Action) error

	mu       sync.Mutex
	position humanoid.Vector2D
}

var _ humanoid.ActionSink = (*CDP)(nil)

// NewCDP creates a sink for the tab bound to browserCtx, a context produced
// by chromedp.NewContext.
func NewCDP(browserCtx context.Context, logger *zap.Logger) *CDP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CDP{
		browserCtx: browserCtx,
		logger:     logger.Named("cdp"),
		runActions: chromedp.Run,
	}
}

// run executes actions against the tab under a per-call timeout. The caller's
// ctx can abort the call; the tab context itself is never cancelled here.
func (c *CDP) run(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(c.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := c.runActions(opCtx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(opCtx.Err(), context.DeadlineExceeded):
		c.logger.Debug("CDP call timed out.", zap.String("op", op), zap.Duration("timeout", timeout))
		return fmt.Errorf("cdp %s timed out after %v: %w", op, timeout, opCtx.Err())
	default:
		return fmt.Errorf("cdp %s failed: %w", op, err)
	}
}

// EmitPointer dispatches a single mouse event.
func (c *CDP) EmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.run(ctx, "dispatch mouse event", pointerTimeout, mouseParams(data)); err != nil {
		return err
	}
	c.mu.Lock()
	c.position = humanoid.Vector2D{X: data.X, Y: data.Y}
	c.mu.Unlock()
	return nil
}

// mouseParams builds the protocol call for one event.
func mouseParams(data schemas.MouseEventData) *input.DispatchMouseEventParams {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithButton(input.MouseButton(data.Button)).
		WithButtons(data.Buttons).
		WithClickCount(int64(data.ClickCount))

	// Wheel deltas are only meaningful on mouseWheel events.
	if data.Type == schemas.MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}
	return p
}

// EmitKey types a literal, a backspace run or a pasted span.
func (c *CDP) EmitKey(ctx context.Context, action humanoid.KeyAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a, err := keyActions(action)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	return c.run(ctx, "key "+string(action.Kind), keyTimeout, a)
}

// keyActions maps a KeyAction onto chromedp actions. Pauses map to nothing.
func keyActions(action humanoid.KeyAction) (chromedp.Action, error) {
	switch action.Kind {
	case humanoid.KeyLiteral:
		return chromedp.KeyEvent(string(action.Char)), nil
	case humanoid.KeyBackspace:
		if action.Count <= 0 {
			return nil, fmt.Errorf("backspace count must be positive, got %d", action.Count)
		}
		return chromedp.KeyEvent(strings.Repeat(kb.Backspace, action.Count)), nil
	case humanoid.KeyPaste:
		// A paste lands as one insertion, not as keystrokes.
		return input.InsertText(action.Text), nil
	case humanoid.KeyPause:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown key action kind %q", action.Kind)
}

// Wait only honours cancellation. Real-time pacing is Paced's job.
func (c *CDP) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// ScreenBounds reports the CSS visual viewport of the tab.
func (c *CDP) ScreenBounds(ctx context.Context) (humanoid.Bounds, error) {
	var bounds humanoid.Bounds
	err := c.run(ctx, "layout metrics", metricsTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, _, cssVisualViewport, _, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		if cssVisualViewport == nil {
			return errors.New("no visual viewport reported")
		}
		bounds = humanoid.Bounds{
			Width:  int(cssVisualViewport.ClientWidth),
			Height: int(cssVisualViewport.ClientHeight),
		}
		return nil
	}))
	if err != nil {
		return humanoid.Bounds{}, err
	}
	return bounds, nil
}

// PointerPosition returns the last position this sink dispatched.
func (c *CDP) PointerPosition(context.Context) (humanoid.Vector2D, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, nil
}

// BrowserOptions configure LaunchBrowser.
type BrowserOptions struct {
	Headless   bool
	DisableGPU bool
	URL        string
	Width      int
	Height     int
	// Args are extra Chrome flags, either "name" or "name=value".
	Args []string
	// NavigateTimeout bounds the initial page load.
	NavigateTimeout time.Duration
}

// execOptions turns BrowserOptions into allocator options.
func execOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.DisableGPU {
		out = append(out, chromedp.DisableGPU)
	}
	if opts.Width > 0 && opts.Height > 0 {
		out = append(out, chromedp.WindowSize(opts.Width, opts.Height))
	}
	for _, arg := range opts.Args {
		arg = strings.TrimLeft(arg, "-")
		if arg == "" {
			continue
		}
		if key, value, ok := strings.Cut(arg, "="); ok {
			out = append(out, chromedp.Flag(key, value))
			continue
		}
		out = append(out, chromedp.Flag(arg, true))
	}
	return out
}

// LaunchBrowser starts Chrome, opens opts.URL and returns a sink for the tab.
// The returned function closes the browser.
func LaunchBrowser(ctx context.Context, opts BrowserOptions, logger *zap.Logger) (*CDP, func(), error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	closeFn := func() {
		tabCancel()
		allocCancel()
	}

	url := opts.URL
	if url == "" {
		url = "about:blank"
	}
	timeout := opts.NavigateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := NewCDP(tabCtx, logger)
	// The first Run starts the browser, so it must use the tab context itself.
	if err := chromedp.Run(tabCtx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if err := c.run(ctx, "navigate", timeout, chromedp.Navigate(url)); err != nil {
		closeFn()
		return nil, nil, err
	}
	c.logger.Info("Browser ready.", zap.String("url", url), zap.Bool("headless", opts.Headless))
	return c, closeFn, nil
}
