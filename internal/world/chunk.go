package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/terrain"
)

// ChunkSize длина ребра чанка в блоках
const ChunkSize = 32

const chunkVolume = ChunkSize * ChunkSize * ChunkSize

// Chunk кубический участок мира ChunkSize³.
// Чанк не хранит ссылок на сетку: соседние блоки передаются в вызовы, которым они нужны.
type Chunk struct {
	Coord vec.Vec3 // Координаты чанка в пространстве чанков

	blocks []uint8 // x*S*S + y*S + z; nil, пока чанк пустой
	empty  bool    // Все блоки воздух
	mesh   *Mesh

	handle   RenderHandle
	attached bool
}

// NewChunk создаёт пустой (полностью воздушный) чанк
func NewChunk(coord vec.Vec3) *Chunk {
	return &Chunk{
		Coord: coord,
		empty: true,
		mesh:  &Mesh{},
	}
}

// generateChunk создаёт чанк, заполненный генератором
func generateChunk(coord vec.Vec3, gen *terrain.Generator) *Chunk {
	c := NewChunk(coord)
	c.fill(gen)
	return c
}

// fill перезаписывает все блоки значениями генератора
func (c *Chunk) fill(gen *terrain.Generator) {
	origin := c.Origin()
	buf := c.blocks
	if buf == nil {
		buf = make([]uint8, chunkVolume)
	}
	if gen.FillChunk(buf, origin.X, origin.Y, origin.Z, ChunkSize) {
		c.blocks = buf
		c.empty = false
		return
	}
	c.blocks = nil
	c.empty = true
}

func index(x, y, z int) int {
	if uint(x) >= ChunkSize || uint(y) >= ChunkSize || uint(z) >= ChunkSize {
		panic(fmt.Sprintf("world: локальная координата (%d,%d,%d) вне чанка", x, y, z))
	}
	return x*ChunkSize*ChunkSize + y*ChunkSize + z
}

// InBounds проверяет, что локальная координата лежит внутри чанка
func InBounds(x, y, z int) bool {
	return uint(x) < ChunkSize && uint(y) < ChunkSize && uint(z) < ChunkSize
}

// Block возвращает блок по локальным координатам. Выход за границы чанка считается ошибкой программы.
func (c *Chunk) Block(x, y, z int) block.BlockID {
	i := index(x, y, z)
	if c.blocks == nil {
		return block.AirBlockID
	}
	return block.BlockID(c.blocks[i])
}

// SetBlock записывает блок по локальным координатам. Меш не перестраивается.
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	i := index(x, y, z)
	if c.blocks == nil {
		if id == block.AirBlockID {
			return
		}
		c.blocks = make([]uint8, chunkVolume)
	}

	c.blocks[i] = uint8(id)

	if id != block.AirBlockID {
		c.empty = false
		return
	}
	if !c.empty && c.allAir() {
		c.blocks = nil
		c.empty = true
	}
}

func (c *Chunk) allAir() bool {
	for _, b := range c.blocks {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsEmpty сообщает, что в чанке нет ни одного непустого блока
func (c *Chunk) IsEmpty() bool {
	return c.empty
}

// NoGeometry сообщает, что меш чанка не содержит треугольников
func (c *Chunk) NoGeometry() bool {
	return c.mesh == nil || len(c.mesh.Indices) == 0
}

// Mesh возвращает текущий меш. Меш неизменяем после построения.
func (c *Chunk) Mesh() *Mesh {
	return c.mesh
}

func (c *Chunk) setMesh(m *Mesh) {
	if m == nil {
		m = &Mesh{}
	}
	c.mesh = m
}

// Origin мировые координаты блока (0,0,0) чанка
func (c *Chunk) Origin() vec.Vec3 {
	return c.Coord.Scale(ChunkSize)
}

// Translation смещение меша чанка в мировом пространстве для рендера
func (c *Chunk) Translation() mgl32.Vec3 {
	o := c.Origin()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// Handle возвращает дескриптор рендера и признак его наличия
func (c *Chunk) Handle() (RenderHandle, bool) {
	return c.handle, c.attached
}

// applyChanges накладывает правки игрока поверх сгенерированных блоков
func (c *Chunk) applyChanges(changes []BlockChange) {
	origin := c.Origin()
	for _, ch := range changes {
		local := ch.Pos.Sub(origin)
		c.SetBlock(local.X, local.Y, local.Z, ch.ID)
	}
}
