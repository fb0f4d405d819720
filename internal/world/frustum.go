package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/vec"
)

// Frustum проверка видимости чанка для планировщика подгрузки
type Frustum interface {
	ChunkVisible(coord vec.Vec3) bool
}

// AllVisible считает видимыми все чанки (нет камеры)
type AllVisible struct{}

func (AllVisible) ChunkVisible(vec.Vec3) bool { return true }

// ViewFrustum пирамида видимости, извлечённая из матрицы projection*view.
// Плоскости направлены внутрь: точка p видима, если dot(n, p) + d >= 0 для всех шести.
type ViewFrustum struct {
	planes [6]mgl32.Vec4
}

// NewViewFrustum строит пирамиду видимости по матрице projection*view
func NewViewFrustum(viewProj mgl32.Mat4) *ViewFrustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	f := &ViewFrustum{}
	f.planes[0] = r3.Add(r0) // левая
	f.planes[1] = r3.Sub(r0) // правая
	f.planes[2] = r3.Add(r1) // нижняя
	f.planes[3] = r3.Sub(r1) // верхняя
	f.planes[4] = r3.Add(r2) // ближняя
	f.planes[5] = r3.Sub(r2) // дальняя

	for i, p := range f.planes {
		n := p.Vec3().Len()
		if n > 0 {
			f.planes[i] = p.Mul(1 / n)
		}
	}
	return f
}

// ChunkVisible проверяет пересечение AABB чанка с пирамидой
func (f *ViewFrustum) ChunkVisible(coord vec.Vec3) bool {
	o := coord.Scale(ChunkSize)
	min := mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
	max := min.Add(mgl32.Vec3{ChunkSize, ChunkSize, ChunkSize})
	return f.BoxVisible(min, max)
}

// BoxVisible тест AABB по «положительной» вершине относительно каждой плоскости
func (f *ViewFrustum) BoxVisible(min, max mgl32.Vec3) bool {
	for _, p := range f.planes {
		pv := min
		if p[0] >= 0 {
			pv[0] = max[0]
		}
		if p[1] >= 0 {
			pv[1] = max[1]
		}
		if p[2] >= 0 {
			pv[2] = max[2]
		}
		if p.Vec3().Dot(pv)+p[3] < 0 {
			return false
		}
	}
	return true
}
