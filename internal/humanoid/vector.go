// internal/humanoid/vector.go
package humanoid

import (
	"fmt"
	"math"
)

// Vector2D represents a point or vector in a 2D Cartesian coordinate system.
// Points are real valued while a path is being generated and are only rounded
// to integral device units when they are emitted.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add performs vector addition, returning a new Vector2D `v + other`.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub performs vector subtraction, returning a new Vector2D `v - other`.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul performs scalar multiplication, returning a new Vector2D `v * scalar`.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot calculates the dot product of `v` and `other`.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Mag calculates the Euclidean length of the vector.
func (v Vector2D) Mag() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns a unit vector with the same direction as `v`.
// The zero vector normalizes to itself.
func (v Vector2D) Normalize() Vector2D {
	mag := v.Mag()
	if mag < 1e-9 {
		return Vector2D{}
	}
	return v.Mul(1.0 / mag)
}

// Dist calculates the Euclidean distance between `v` and `other`.
func (v Vector2D) Dist(other Vector2D) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Perp returns the vector rotated 90 degrees counter-clockwise.
func (v Vector2D) Perp() Vector2D {
	return Vector2D{X: -v.Y, Y: v.X}
}

// Rotate returns the vector rotated by theta radians.
func (v Vector2D) Rotate(theta float64) Vector2D {
	sin, cos := math.Sincos(theta)
	return Vector2D{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// Lerp interpolates linearly between `v` (t=0) and `other` (t=1).
func (v Vector2D) Lerp(other Vector2D, t float64) Vector2D {
	return Vector2D{X: v.X + (other.X-v.X)*t, Y: v.Y + (other.Y-v.Y)*t}
}

// Round snaps both components to the nearest integer.
func (v Vector2D) Round() Vector2D {
	return Vector2D{X: math.Round(v.X), Y: math.Round(v.Y)}
}

// CosineTo returns the cosine of the angle between `v` and `other`, or 0 when
// either vector has no direction.
func (v Vector2D) CosineTo(other Vector2D) float64 {
	a, b := v.Mag(), other.Mag()
	if a < 1e-9 || b < 1e-9 {
		return 0
	}
	return v.Dot(other) / (a * b)
}

func (v Vector2D) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", v.X, v.Y)
}

// Bounds describes the addressable screen area in device units.
// Valid coordinates are [0, Width-1] x [0, Height-1].
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate reports whether the bounds describe a non-empty screen.
func (b Bounds) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: screen %dx%d has no addressable area", ErrInvalidBounds, b.Width, b.Height)
	}
	return nil
}

// Contains reports whether p lies on the screen.
func (b Bounds) Contains(p Vector2D) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= float64(b.Width-1) && p.Y <= float64(b.Height-1)
}

// Clamp pulls p onto the screen.
func (b Bounds) Clamp(p Vector2D) Vector2D {
	return Vector2D{
		X: clamp(p.X, 0, float64(b.Width-1)),
		Y: clamp(p.Y, 0, float64(b.Height-1)),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}
