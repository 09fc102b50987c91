// internal/humanoid/vector_test.go
package humanoid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector2D_Operations(t *testing.T) {
	v1 := Vector2D{X: 3, Y: 4}
	v2 := Vector2D{X: 1, Y: 2}

	t.Run("Add", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 4, Y: 6}, v1.Add(v2))
	})

	t.Run("Sub", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 2, Y: 2}, v1.Sub(v2))
	})

	t.Run("Mul", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 6, Y: 8}, v1.Mul(2.0))
	})

	t.Run("Dot", func(t *testing.T) {
		// 3*1 + 4*2 = 11
		assert.Equal(t, 11.0, v1.Dot(v2))
	})

	t.Run("Mag", func(t *testing.T) {
		assert.Equal(t, 5.0, v1.Mag())
	})

	t.Run("Dist", func(t *testing.T) {
		assert.InDelta(t, math.Sqrt(8.0), v1.Dist(v2), 1e-9)
	})

	t.Run("Perp", func(t *testing.T) {
		p := v1.Perp()
		assert.Equal(t, 0.0, p.Dot(v1))
		assert.Equal(t, Vector2D{X: -4, Y: 3}, p)
	})

	t.Run("Rotate", func(t *testing.T) {
		r := Vector2D{X: 1, Y: 0}.Rotate(math.Pi / 2)
		assert.InDelta(t, 0.0, r.X, 1e-9)
		assert.InDelta(t, 1.0, r.Y, 1e-9)
	})

	t.Run("Lerp", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 2, Y: 3}, v1.Lerp(v2, 0.5))
	})

	t.Run("Round", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 3, Y: -2}, Vector2D{X: 2.6, Y: -2.4}.Round())
	})
}

func TestVector2D_Normalize(t *testing.T) {
	t.Run("Standard", func(t *testing.T) {
		norm := Vector2D{X: 3, Y: 4}.Normalize()
		assert.InDelta(t, 1.0, norm.Mag(), 1e-9)
		assert.InDelta(t, 0.6, norm.X, 1e-9)
		assert.InDelta(t, 0.8, norm.Y, 1e-9)
	})

	t.Run("ZeroVector", func(t *testing.T) {
		assert.Equal(t, Vector2D{}, Vector2D{}.Normalize())
	})
}

func TestVector2D_CosineTo(t *testing.T) {
	right := Vector2D{X: 1, Y: 0}
	assert.InDelta(t, 1.0, right.CosineTo(Vector2D{X: 10, Y: 0}), 1e-9)
	assert.InDelta(t, -1.0, right.CosineTo(Vector2D{X: -3, Y: 0}), 1e-9)
	assert.InDelta(t, 0.0, right.CosineTo(Vector2D{X: 0, Y: 2}), 1e-9)
	assert.Equal(t, 0.0, right.CosineTo(Vector2D{}), "zero vector has no direction")
}

func TestBounds(t *testing.T) {
	b := Bounds{Width: 1920, Height: 1080}

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, b.Validate())
		err := Bounds{Width: 0, Height: 10}.Validate()
		assert.True(t, errors.Is(err, ErrInvalidBounds))
	})

	t.Run("Contains", func(t *testing.T) {
		assert.True(t, b.Contains(Vector2D{X: 0, Y: 0}))
		assert.True(t, b.Contains(Vector2D{X: 1919, Y: 1079}))
		assert.False(t, b.Contains(Vector2D{X: 1920, Y: 0}))
		assert.False(t, b.Contains(Vector2D{X: 10, Y: -1}))
	})

	t.Run("Clamp", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 0, Y: 1079}, b.Clamp(Vector2D{X: -5, Y: 5000}))
		assert.Equal(t, Vector2D{X: 12.5, Y: 7}, b.Clamp(Vector2D{X: 12.5, Y: 7}))
	})
}
