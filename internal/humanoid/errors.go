// internal/humanoid/errors.go
package humanoid

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProfile is returned when a profile name is not registered.
	ErrUnknownProfile = errors.New("humanoid: unknown profile")
	// ErrInvalidBounds is returned when a target lies outside the screen.
	ErrInvalidBounds = errors.New("humanoid: target outside screen bounds")
	// ErrEmptyInput is returned by TypeText and the typing generator for empty text.
	ErrEmptyInput = errors.New("humanoid: empty input text")
)

// ConfigurationError reports an unusable profile or coefficient. It is raised
// at selection time and never replaced by a silent default.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("humanoid: configuration error: %v", e.Err)
	}
	return fmt.Sprintf("humanoid: configuration error in %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// BoundsError reports a primary target that falls outside the screen.
type BoundsError struct {
	Target Vector2D
	Bounds Bounds
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v: %s not within %s", ErrInvalidBounds, e.Target, e.Bounds)
}

func (e *BoundsError) Unwrap() error { return ErrInvalidBounds }

// SinkError wraps a failure reported by the ActionSink mid-emission.
// The intent that produced it is abandoned; callers may retry the whole intent.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("humanoid: sink %s failed: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
