package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

func groundSolid(p vec.Vec3) bool { return p.Y <= 0 }

func TestRaycast_HitsGroundFromAbove(t *testing.T) {
	hit, ok := Raycast(mgl32.Vec3{0.5, 5.5, 0.5}, mgl32.Vec3{0, -1, 0}, 10, groundSolid)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 0}, hit.Block)
	assert.Equal(t, vec.Vec3{Y: 1}, hit.Normal)
}

func TestRaycast_WallAlongX(t *testing.T) {
	wall := func(p vec.Vec3) bool { return p.X == 3 }

	hit, ok := Raycast(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 10, wall)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 3}, hit.Block)
	assert.Equal(t, vec.Vec3{X: -1}, hit.Normal)

	hit, ok = Raycast(mgl32.Vec3{5.5, 0.5, 0.5}, mgl32.Vec3{-1, 0, 0}, 10, wall)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 1}, hit.Normal)
}

func TestRaycast_OriginInsideSolid(t *testing.T) {
	hit, ok := Raycast(mgl32.Vec3{0.5, -0.5, 0.5}, mgl32.Vec3{0, 1, 0}, 10, groundSolid)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: -1, Z: 0}, hit.Block)
	assert.Equal(t, vec.Zero, hit.Normal)
}

func TestRaycast_MaxDistance(t *testing.T) {
	_, ok := Raycast(mgl32.Vec3{0.5, 20.5, 0.5}, mgl32.Vec3{0, -1, 0}, 5, groundSolid)
	assert.False(t, ok)

	_, ok = Raycast(mgl32.Vec3{0.5, 20.5, 0.5}, mgl32.Vec3{0, 1, 0}, 100, groundSolid)
	assert.False(t, ok, "вверх твёрдых блоков нет")
}

func TestRaycast_ZeroDirection(t *testing.T) {
	_, ok := Raycast(mgl32.Vec3{0.5, 5.5, 0.5}, mgl32.Vec3{}, 10, groundSolid)
	assert.False(t, ok)
}

func TestRaycast_Diagonal(t *testing.T) {
	dir := mgl32.Vec3{1, -1, 0}.Normalize()
	hit, ok := Raycast(mgl32.Vec3{0.5, 3.5, 0.5}, dir, 20, groundSolid)
	require.True(t, ok)
	assert.Equal(t, 0, hit.Block.Y)
	assert.Equal(t, vec.Vec3{Y: 1}, hit.Normal)
}

func TestWorld_RaycastPlacementRoundTrip(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(3), config.StreamingConfig{LoadDistance: 2})
	tw.EnsureChunk(vec.Zero)
	tw.EnsureChunk(vec.Vec3{Y: -1})

	origin := mgl32.Vec3{5.5, 10.5, 5.5}
	down := mgl32.Vec3{0, -1, 0}

	hit, ok := tw.Raycast(origin, down, 20)
	require.True(t, ok)
	require.Equal(t, vec.Vec3{X: 5, Y: 0, Z: 5}, hit.Block)
	require.Equal(t, vec.Vec3{Y: 1}, hit.Normal)

	require.True(t, tw.PlaceBlock(hit, block.CobblestoneBlockID))

	again, ok := tw.Raycast(origin, down, 20)
	require.True(t, ok)
	assert.Equal(t, hit.Block.Add(hit.Normal), again.Block, "поставленный блок виден сразу")
	assert.Equal(t, vec.Vec3{Y: 1}, again.Normal)
	assert.Equal(t, 1, tw.Changes().Len())

	require.True(t, tw.BreakBlock(again))
	assert.Equal(t, 0, tw.Changes().Len(), "возврат к сгенерированному значению убирает правку")

	final, ok := tw.Raycast(origin, down, 20)
	require.True(t, ok)
	assert.Equal(t, hit.Block, final.Block)
}

func TestWorld_RaycastPassesUnloadedSpace(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(3), config.StreamingConfig{LoadDistance: 2})

	_, ok := tw.Raycast(mgl32.Vec3{5.5, 10.5, 5.5}, mgl32.Vec3{0, -1, 0}, 50)
	assert.False(t, ok, "незагруженные чанки проходимы")
}
