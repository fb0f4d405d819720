package world

import (
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Mesh геометрия видимых граней чанка в локальных координатах.
// Vertices по 3 float на вершину, UVs по 2, Indices по 6 на грань.
type Mesh struct {
	Vertices []float32
	UVs      []float32
	Indices  []uint32
}

// QuadCount количество граней в меше
func (m *Mesh) QuadCount() int {
	return len(m.Indices) / 6
}

// VertexCount количество вершин в меше
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// BlockLookup возвращает блок по мировым координатам.
// Используется мешером для блоков за границей чанка.
type BlockLookup func(pos vec.Vec3) block.BlockID

// faceDef одна грань куба: направление соседа и четыре угла в порядке обхода
type faceDef struct {
	dir     vec.Vec3
	corners [4][3]int
}

// Порядок граней: +X, -X, +Y, -Y, +Z, -Z
var faces = [6]faceDef{
	{dir: vec.PosX, corners: [4][3]int{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{dir: vec.NegX, corners: [4][3]int{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}}},
	{dir: vec.PosY, corners: [4][3]int{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
	{dir: vec.NegY, corners: [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{dir: vec.PosZ, corners: [4][3]int{{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}}},
	{dir: vec.NegZ, corners: [4][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
}

// BuildMesh строит меш видимых граней: грань выводится, если блок непустой,
// а соседний по этому направлению блок воздух. Соседи за границей чанка
// запрашиваются через outside. Функция чистая и не меняет чанк.
func BuildMesh(c *Chunk, outside BlockLookup, atlas RegionLookup) *Mesh {
	m := &Mesh{}
	if c.empty {
		return m
	}

	origin := c.Origin()
	neighbor := func(x, y, z int) block.BlockID {
		if InBounds(x, y, z) {
			return block.BlockID(c.blocks[x*ChunkSize*ChunkSize+y*ChunkSize+z])
		}
		if outside == nil {
			return block.AirBlockID
		}
		return outside(vec.Vec3{X: origin.X + x, Y: origin.Y + y, Z: origin.Z + z})
	}

	var offset uint32
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				id := block.BlockID(c.blocks[x*ChunkSize*ChunkSize+y*ChunkSize+z])
				if id == block.AirBlockID {
					continue
				}

				region := atlas.RegionFor(id)
				for i := range faces {
					f := &faces[i]
					if neighbor(x+f.dir.X, y+f.dir.Y, z+f.dir.Z) != block.AirBlockID {
						continue
					}
					m.addFace(f, x, y, z, region, offset)
					offset += 4
				}
			}
		}
	}
	return m
}

func (m *Mesh) addFace(f *faceDef, x, y, z int, r Region, offset uint32) {
	for _, c := range f.corners {
		m.Vertices = append(m.Vertices, float32(x+c[0]), float32(y+c[1]), float32(z+c[2]))
	}

	m.UVs = append(m.UVs,
		r.U0, r.V0,
		r.U0, r.V1,
		r.U1, r.V1,
		r.U1, r.V0,
	)

	m.Indices = append(m.Indices,
		offset, offset+1, offset+2,
		offset, offset+2, offset+3,
	)
}
