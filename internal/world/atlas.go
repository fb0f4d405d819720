package world

import "github.com/annel0/blockworld/internal/world/block"

// Region прямоугольник текстуры в атласе в UV-координатах
type Region struct {
	U0, V0, U1, V1 float32
}

// RegionLookup таблица блок -> регион атласа, которую использует рендер
type RegionLookup interface {
	RegionFor(id block.BlockID) Region
}

// GridAtlas атлас-сетка Cols x Rows одинаковых ячеек.
// Блок с ID k занимает ячейку k-1 построчно.
type GridAtlas struct {
	Cols int
	Rows int
}

// DefaultAtlas атлас 8x8
var DefaultAtlas = GridAtlas{Cols: 8, Rows: 8}

// RegionFor возвращает регион блока. ID за пределами сетки получают первую ячейку.
func (a GridAtlas) RegionFor(id block.BlockID) Region {
	cell := int(id) - 1
	if cell < 0 || cell >= a.Cols*a.Rows {
		cell = 0
	}
	col := cell % a.Cols
	row := cell / a.Cols

	du := 1 / float32(a.Cols)
	dv := 1 / float32(a.Rows)
	return Region{
		U0: float32(col) * du,
		V0: float32(row) * dv,
		U1: float32(col+1) * du,
		V1: float32(row+1) * dv,
	}
}
