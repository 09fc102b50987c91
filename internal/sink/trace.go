// internal/sink/trace.go
package sink

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/humanoid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TraceRecord is one line of a JSONL trace.
type TraceRecord struct {
	Session string `json:"session"`
	Seq     int    `json:"seq"`
	// AtMs is the declared session time in milliseconds: the sum of all
	// waits that preceded the record.
	AtMs    float64                 `json:"at_ms"`
	Kind    string                  `json:"kind"`
	Pointer *schemas.MouseEventData `json:"pointer,omitempty"`
	Key     *traceKey               `json:"key,omitempty"`
	WaitMs  float64                 `json:"wait_ms,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// traceKey is the wire form of a key action. Runes are written as strings so
// the trace stays readable.
type traceKey struct {
	Kind  humanoid.KeyActionKind `json:"kind"`
	Char  string                 `json:"char,omitempty"`
	Count int                    `json:"count,omitempty"`
	Text  string                 `json:"text,omitempty"`
}

const (
	TraceKindPointer = "pointer"
	TraceKindKey     = "key"
	TraceKindWait    = "wait"
)

// Trace decorates a sink and writes every call to w as JSON lines before
// forwarding it. Calls the inner sink rejects are still traced, with the error.
type Trace struct {
	inner   humanoid.ActionSink
	session string

	mu  sync.Mutex
	enc *jsoniter.Encoder
	seq int
	at  time.Duration
}

var _ humanoid.ActionSink = (*Trace)(nil)

// NewTrace wraps inner. An empty session gets a fresh UUID.
func NewTrace(inner humanoid.ActionSink, w io.Writer, session string) *Trace {
	if session == "" {
		session = uuid.New().String()
	}
	return &Trace{inner: inner, session: session, enc: json.NewEncoder(w)}
}

// Session returns the identifier stamped on every record.
func (t *Trace) Session() string { return t.session }

func (t *Trace) EmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	err := t.inner.EmitPointer(ctx, data)
	ev := data
	if werr := t.write(TraceRecord{Kind: TraceKindPointer, Pointer: &ev}, err); werr != nil && err == nil {
		return werr
	}
	return err
}

func (t *Trace) EmitKey(ctx context.Context, action humanoid.KeyAction) error {
	err := t.inner.EmitKey(ctx, action)
	k := &traceKey{Kind: action.Kind, Count: action.Count, Text: action.Text}
	if action.Kind == humanoid.KeyLiteral {
		k.Char = string(action.Char)
	}
	if werr := t.write(TraceRecord{Kind: TraceKindKey, Key: k}, err); werr != nil && err == nil {
		return werr
	}
	return err
}

func (t *Trace) Wait(ctx context.Context, d time.Duration) error {
	err := t.inner.Wait(ctx, d)
	if werr := t.write(TraceRecord{Kind: TraceKindWait, WaitMs: millis(d)}, err); werr != nil && err == nil {
		return werr
	}
	if err == nil {
		t.mu.Lock()
		t.at += d
		t.mu.Unlock()
	}
	return err
}

func (t *Trace) ScreenBounds(ctx context.Context) (humanoid.Bounds, error) {
	return t.inner.ScreenBounds(ctx)
}

func (t *Trace) PointerPosition(ctx context.Context) (humanoid.Vector2D, error) {
	return t.inner.PointerPosition(ctx)
}

func (t *Trace) write(rec TraceRecord, callErr error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	rec.Session = t.session
	rec.Seq = t.seq
	rec.AtMs = millis(t.at)
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if err := t.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write trace record %d: %w", rec.Seq, err)
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ReadTrace decodes a JSONL trace written by Trace.
func ReadTrace(r io.Reader) ([]TraceRecord, error) {
	dec := json.NewDecoder(r)
	var out []TraceRecord
	for dec.More() {
		var rec TraceRecord
		if err := dec.Decode(&rec); err != nil {
			return out, fmt.Errorf("failed to decode trace record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
