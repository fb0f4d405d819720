package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoise_DeterministicPerSeed(t *testing.T) {
	a := NewNoise(1234)
	b := NewNoise(1234)
	c := NewNoise(4321)

	differs := false
	for i := 0; i < 50; i++ {
		x, z := float64(i)*0.37, float64(i)*-0.91
		assert.Equal(t, a.Noise2D(x, z), b.Noise2D(x, z))
		if a.Noise2D(x, z) != c.Noise2D(x, z) {
			differs = true
		}
	}
	assert.True(t, differs, "разные сиды должны давать разный шум")
	assert.Equal(t, int64(1234), a.Seed())
}

func TestNoise_Range(t *testing.T) {
	n := NewNoise(7)
	for i := -100; i < 100; i++ {
		v := n.Noise2D(float64(i)*0.13, float64(i)*0.29)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
