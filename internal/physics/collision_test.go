package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/vec"
)

// flatGround твёрдые все блоки с y <= 0, верхняя поверхность на y = 1
func flatGround(p vec.Vec3) bool { return p.Y <= 0 }

func noGround(vec.Vec3) bool { return false }

const dt = float32(1.0 / 60)

func TestStep_GroundedBodyStaysOnSurface(t *testing.T) {
	body := NewBody(mgl32.Vec3{0.2, 1, 0.2}, mgl32.Vec3{0.6, 1.8, 0.6})
	body.Velocity = mgl32.Vec3{0, -5, 0}
	params := DefaultParams()

	body.Step(flatGround, params, dt)
	assert.Equal(t, float32(0), body.Velocity[1], "вертикальная скорость обнуляется на опоре")
	assert.Equal(t, float32(1), body.Position[1])

	for i := 0; i < 120; i++ {
		body.Step(flatGround, params, dt)
		require.Equal(t, float32(1), body.Position[1], "тело не должно проваливаться, шаг %d", i)
	}
	assert.True(t, body.OnGround(flatGround))
}

func TestStep_FreeFall(t *testing.T) {
	body := NewBody(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 1, 1})
	params := DefaultParams()

	body.Step(noGround, params, dt)
	assert.Less(t, body.Velocity[1], float32(0))
	assert.Less(t, body.Position[1], float32(10))
	assert.False(t, body.OnGround(noGround))
}

func TestStep_FallsOntoGround(t *testing.T) {
	body := NewBody(mgl32.Vec3{0.5, 3, 0.5}, mgl32.Vec3{0.6, 1.8, 0.6})
	params := DefaultParams()

	for i := 0; i < 300; i++ {
		body.Step(flatGround, params, dt)
	}
	assert.Equal(t, float32(1), body.Position[1])
	assert.Equal(t, float32(0), body.Velocity[1])
}

func TestStep_WallStopsPositiveMotion(t *testing.T) {
	wall := func(p vec.Vec3) bool { return p.Y <= 0 || p.X == 3 }
	body := NewBody(mgl32.Vec3{1, 1, 0.2}, mgl32.Vec3{0.6, 1.8, 0.6})
	body.Velocity = mgl32.Vec3{30, 0, 0}
	params := Params{Damping: mgl32.Vec3{1, 1, 1}}

	for i := 0; i < 30; i++ {
		body.Step(wall, params, dt)
	}
	assert.InDelta(t, 3-0.6, body.Position[0], 1e-5, "тело прижимается к стене вплотную")
	assert.Equal(t, float32(0), body.Velocity[0])
}

func TestStep_WallStopsNegativeMotion(t *testing.T) {
	wall := func(p vec.Vec3) bool { return p.Z == -2 }
	body := NewBody(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1})
	body.Velocity = mgl32.Vec3{0, 0, -30}
	params := Params{Damping: mgl32.Vec3{1, 1, 1}}

	for i := 0; i < 30; i++ {
		body.Step(wall, params, dt)
	}
	assert.Equal(t, float32(-1), body.Position[2])
	assert.Equal(t, float32(0), body.Velocity[2])
}

func TestDamping_FramerateIndependent(t *testing.T) {
	params := Params{Damping: mgl32.Vec3{0.9, 0.99, 0.9}}

	a := NewBody(mgl32.Vec3{0, 100, 0}, mgl32.Vec3{1, 1, 1})
	a.Velocity = mgl32.Vec3{10, 0, 0}
	a.Step(noGround, params, 0.02)

	b := NewBody(mgl32.Vec3{0, 100, 0}, mgl32.Vec3{1, 1, 1})
	b.Velocity = mgl32.Vec3{10, 0, 0}
	b.Step(noGround, params, 0.01)
	b.Step(noGround, params, 0.01)

	assert.InDelta(t, a.Velocity[0], b.Velocity[0], 1e-4)
}

func TestCells(t *testing.T) {
	body := NewBody(mgl32.Vec3{0.5, 1, 0.5}, mgl32.Vec3{0.6, 1.8, 0.6})

	cells := body.Cells()
	assert.ElementsMatch(t, []vec.Vec3{
		{X: 0, Y: 1, Z: 0}, {X: 0, Y: 2, Z: 0},
		{X: 1, Y: 1, Z: 0}, {X: 1, Y: 2, Z: 0},
		{X: 0, Y: 1, Z: 1}, {X: 0, Y: 2, Z: 1},
		{X: 1, Y: 1, Z: 1}, {X: 1, Y: 2, Z: 1},
	}, cells)

	assert.Empty(t, body.Touching(flatGround))
}
