package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct {
		a, b, div, mod int
	}{
		{0, 32, 0, 0},
		{31, 32, 0, 31},
		{32, 32, 1, 0},
		{-1, 32, -1, 31},
		{-32, 32, -1, 0},
		{-33, 32, -2, 31},
	}

	for _, c := range cases {
		assert.Equal(t, c.div, FloorDiv(c.a, c.b), "FloorDiv(%d,%d)", c.a, c.b)
		assert.Equal(t, c.mod, Mod(c.a, c.b), "Mod(%d,%d)", c.a, c.b)
	}
}

func TestChunkAndLocalRoundTrip(t *testing.T) {
	for _, p := range []Vec3{{0, 0, 0}, {-1, 40, -65}, {100, -3, 7}} {
		chunk := p.ToChunkCoords(32)
		local := p.LocalInChunk(32)
		assert.Equal(t, p, chunk.Scale(32).Add(local), "координаты %v должны восстанавливаться", p)
	}
}

func TestVec3Helpers(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}

	assert.Equal(t, 25, a.DistanceSq(b))
	assert.Equal(t, Vec3{X: -3, Y: -4, Z: 0}, a.Sub(b))
	assert.Equal(t, a, a.Sub(b).Add(b))
	assert.Equal(t, 2, a.Axis(1))
	assert.Panics(t, func() { a.Axis(3) })
}
