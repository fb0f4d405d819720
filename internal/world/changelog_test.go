package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

func TestChangeLog_OverwriteKeepsPosition(t *testing.T) {
	l := NewChangeLog()
	a := vec.Vec3{X: 1}
	b := vec.Vec3{X: 2}

	require.True(t, l.Record(a, block.StoneBlockID, block.AirBlockID))
	require.True(t, l.Record(b, block.DirtBlockID, block.AirBlockID))
	require.True(t, l.Record(a, block.SandBlockID, block.AirBlockID))

	assert.Equal(t, []BlockChange{
		{Pos: a, ID: block.SandBlockID},
		{Pos: b, ID: block.DirtBlockID},
	}, l.Changes())
	assert.Equal(t, uint64(3), l.Revision())

	assert.False(t, l.Record(a, block.SandBlockID, block.AirBlockID), "повтор того же значения ничего не меняет")
	assert.Equal(t, uint64(3), l.Revision())
}

func TestChangeLog_RevertToGeneratedDeletes(t *testing.T) {
	l := NewChangeLog()
	p := vec.Vec3{X: -1, Y: 4, Z: 40}

	assert.False(t, l.Record(p, block.StoneBlockID, block.StoneBlockID), "совпадает с генератором")
	assert.Equal(t, 0, l.Len())

	l.Record(p, block.AirBlockID, block.StoneBlockID)
	id, ok := l.Get(p)
	require.True(t, ok)
	assert.Equal(t, block.AirBlockID, id)
	assert.Len(t, l.ChunkChanges(vec.Vec3{X: -1, Y: 0, Z: 1}), 1)

	assert.True(t, l.Record(p, block.StoneBlockID, block.StoneBlockID))
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.ChunkChanges(vec.Vec3{X: -1, Y: 0, Z: 1}))
}

func TestChangeLog_SnapshotIsImmutable(t *testing.T) {
	l := NewChangeLog()
	p := vec.Vec3{X: 3, Y: 3, Z: 3}
	l.Record(p, block.StoneBlockID, block.AirBlockID)

	s := l.Snapshot()
	assert.Same(t, s, l.Snapshot(), "без изменений снимок переиспользуется")

	l.Record(p, block.DirtBlockID, block.AirBlockID)
	l.Record(vec.Vec3{X: 100}, block.DirtBlockID, block.AirBlockID)

	id, ok := s.Get(p)
	require.True(t, ok)
	assert.Equal(t, block.StoneBlockID, id)
	assert.Len(t, s.ForChunk(vec.Zero), 1)
	_, ok = s.Get(vec.Vec3{X: 100})
	assert.False(t, ok)

	s2 := l.Snapshot()
	assert.NotSame(t, s, s2)
	assert.Greater(t, s2.Revision(), s.Revision())
}

func TestChangeLog_Digest(t *testing.T) {
	a, b := NewChangeLog(), NewChangeLog()
	p1, p2 := vec.Vec3{X: 1}, vec.Vec3{Y: -7}

	a.Record(p1, block.StoneBlockID, block.AirBlockID)
	a.Record(p2, block.SandBlockID, block.AirBlockID)
	b.Record(p1, block.StoneBlockID, block.AirBlockID)
	b.Record(p2, block.SandBlockID, block.AirBlockID)
	assert.Equal(t, a.Digest(), b.Digest())

	c := NewChangeLog()
	c.Record(p2, block.SandBlockID, block.AirBlockID)
	c.Record(p1, block.StoneBlockID, block.AirBlockID)
	assert.NotEqual(t, a.Digest(), c.Digest(), "порядок правок входит в дайджест")
}

func TestChangeLog_Clear(t *testing.T) {
	l := NewChangeLog()
	l.Record(vec.Vec3{X: 1}, block.StoneBlockID, block.AirBlockID)
	rev := l.Revision()

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Changes())
	assert.Greater(t, l.Revision(), rev)
}
