package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

func TestWorld_SetBlockOnUnloadedChunkIsRefused(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})

	assert.False(t, tw.SetBlockWorld(vec.Vec3{X: 5, Y: 1, Z: 5}, block.StoneBlockID))
	assert.Equal(t, 0, tw.Changes().Len())
	assert.False(t, tw.IsSolidWorld(vec.Vec3{X: 5, Y: 0, Z: 5}), "незагруженный чанк проходим")
}

func TestWorld_BlockAtFallsBackToLogAndGenerator(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	p := vec.Vec3{X: 40, Y: 3, Z: -2}

	assert.Equal(t, block.StoneBlockID, tw.BlockAt(vec.Vec3{X: 40, Y: 0, Z: -2}))
	assert.Equal(t, block.AirBlockID, tw.BlockAt(p))

	tw.ApplyChange(BlockChange{Pos: p, ID: block.RedWoolBlockID})
	assert.Equal(t, block.RedWoolBlockID, tw.BlockAt(p), "правка видна до загрузки чанка")

	c := tw.EnsureChunk(p.ToChunkCoords(ChunkSize))
	l := p.LocalInChunk(ChunkSize)
	assert.Equal(t, block.RedWoolBlockID, c.Block(l.X, l.Y, l.Z), "чанк получает правку при построении")
	assert.True(t, tw.IsSolidWorld(p))
}

func TestWorld_BoundaryEditRemeshesNeighbor(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	origin := tw.EnsureChunk(vec.Zero)
	right := tw.EnsureChunk(vec.Vec3{X: 1})
	far := tw.EnsureChunk(vec.Vec3{X: -1})

	require.Equal(t, 1, tw.renderer.attaches[right.Coord])
	before := origin.Mesh().QuadCount()

	require.True(t, tw.SetBlockWorld(vec.Vec3{X: ChunkSize - 1, Y: 1, Z: 5}, block.StoneBlockID))

	assert.Equal(t, 2, tw.renderer.attaches[origin.Coord])
	assert.Equal(t, 2, tw.renderer.attaches[right.Coord], "сосед по грани X перестроен")
	assert.Equal(t, 1, tw.renderer.attaches[far.Coord], "дальний сосед не тронут")

	// Новый блок: 4 боковые и верхняя грани видимы, верх земли под ним скрыт,
	// грань +X смотрит в воздух соседнего чанка
	assert.Equal(t, before+5-1, origin.Mesh().QuadCount())
	assert.Len(t, tw.renderer.live, 3, "старые дескрипторы освобождены")
}

func TestWorld_ApplyChangeInUnloadedChunkRemeshesLoadedNeighbor(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	origin := tw.EnsureChunk(vec.Zero)
	before := origin.Mesh().QuadCount()

	// Чанк (1,0,0) не загружен; его блок на границе с origin становится воздухом
	tw.ApplyChange(BlockChange{Pos: vec.Vec3{X: ChunkSize, Y: 0, Z: 5}, ID: block.AirBlockID})
	tw.EnsureChunk(vec.Vec3{X: 1})

	assert.Equal(t, 2, tw.renderer.attaches[origin.Coord])
	assert.Equal(t, before+1, origin.Mesh().QuadCount(), "открылась грань +X блока (31,0,5)")
	assert.Equal(t, BuildMesh(origin, tw.BlockAt, DefaultAtlas).QuadCount(), origin.Mesh().QuadCount())

	// Правка в глубине незагруженного чанка соседей не трогает
	tw.ApplyChange(BlockChange{Pos: vec.Vec3{X: 70, Y: 0, Z: 5}, ID: block.AirBlockID})
	assert.Equal(t, 2, tw.renderer.attaches[origin.Coord])
}

func TestWorld_DiggingIntoBuriedChunk(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	tw.EnsureChunk(vec.Zero)
	buried := tw.EnsureChunk(vec.Vec3{Y: -1})

	require.False(t, buried.IsEmpty())
	require.True(t, buried.NoGeometry())
	_, attached := buried.Handle()
	assert.False(t, attached, "чанк без граней рендеру не передаётся")

	require.True(t, tw.SetBlockWorld(vec.Vec3{X: 5, Y: 0, Z: 5}, block.AirBlockID))

	assert.False(t, buried.NoGeometry())
	assert.Equal(t, 1, buried.Mesh().QuadCount(), "открылась верхняя грань блока под ямой")
	_, attached = buried.Handle()
	assert.True(t, attached)
}

func TestWorld_PlaceBlockRespectsOccupants(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	tw.EnsureChunk(vec.Zero)

	hit := RayHit{Block: vec.Vec3{X: 2, Y: 0, Z: 2}, Normal: vec.Vec3{Y: 1}}
	player := occupantCells{{X: 2, Y: 1, Z: 2}, {X: 2, Y: 2, Z: 2}}

	assert.False(t, tw.PlaceBlock(hit, block.StoneBlockID, player), "нельзя ставить блок в игрока")
	assert.False(t, tw.PlaceBlock(RayHit{Block: hit.Block}, block.StoneBlockID), "луч изнутри блока")
	assert.False(t, tw.PlaceBlock(hit, block.BlockID(200)), "незарегистрированный блок")
	assert.True(t, tw.PlaceBlock(hit, block.StoneBlockID))
	assert.False(t, tw.PlaceBlock(RayHit{Block: vec.Vec3{X: 2, Y: 0, Z: 2}, Normal: vec.Vec3{Y: 1}}, block.DirtBlockID), "ячейка уже занята")
}

func TestWorld_EditCountsMetric(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	tw.EnsureChunk(vec.Zero)

	tw.SetBlockWorld(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)
	tw.SetBlockWorld(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID) // без изменений
	tw.SetBlockWorld(vec.Vec3{X: 1, Y: 1, Z: 1}, block.AirBlockID)

	assert.Equal(t, 2.0, tw.counter(t, "blockworld_block_edits_total"))
}

func TestWorld_RestoreReplaysChanges(t *testing.T) {
	tw := newTestWorld(t, flatGenerator(1), config.StreamingConfig{LoadDistance: 2})
	oldID := tw.ID
	tw.EnsureChunk(vec.Zero)
	tw.SetBlockWorld(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)
	epoch := tw.Scheduler().Epoch()

	changes := []BlockChange{
		{Pos: vec.Vec3{X: 4, Y: 2, Z: 4}, ID: block.MossBlockID},
		{Pos: vec.Vec3{X: 4, Y: 0, Z: 4}, ID: block.AirBlockID},
	}
	tw.Restore(flatGenerator(2), changes)

	assert.NotEqual(t, oldID, tw.ID)
	assert.Equal(t, int64(2), tw.Seed())
	assert.Equal(t, epoch+1, tw.Scheduler().Epoch())
	assert.Equal(t, 0, tw.Grid().Len())
	assert.Equal(t, changes, tw.Changes().Changes())
	assert.Empty(t, tw.renderer.live, "ресурсы старых чанков освобождены")

	c := tw.EnsureChunk(vec.Zero)
	assert.Equal(t, block.MossBlockID, c.Block(4, 2, 4))
	assert.Equal(t, block.AirBlockID, c.Block(4, 0, 4))
	assert.Equal(t, block.AirBlockID, c.Block(1, 1, 1), "правки старого мира забыты")
}
