// Package physics разрешает столкновения сущностей-параллелепипедов с блоками мира.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/vec"
)

// SolidFunc сообщает, твёрдый ли блок по мировым координатам.
// Незагруженные чанки должны считаться проходимыми.
type SolidFunc func(pos vec.Vec3) bool

// Params параметры движения
type Params struct {
	Gravity float32    // Ускорение по Y, блоков/с²
	Damping mgl32.Vec3 // Затухание скорости за 1/100 секунды по осям
}

// DefaultParams гравитация -35 и затухание 0.9/0.99/0.9
func DefaultParams() Params {
	return FromConfig(config.Default().Physics)
}

// FromConfig переводит секцию physics конфигурации в Params
func FromConfig(c config.PhysicsConfig) Params {
	return Params{
		Gravity: c.Gravity,
		Damping: mgl32.Vec3{c.DampingX, c.DampingY, c.DampingZ},
	}
}

// Body AABB сущности: Position нижний угол, Size полные размеры
type Body struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3
	Velocity mgl32.Vec3
}

// NewBody создаёт тело в покое
func NewBody(position, size mgl32.Vec3) *Body {
	return &Body{Position: position, Size: size}
}

// Step продвигает тело на dt секунд: гравитация, затухание, затем
// разрешение столкновений по одной оси в порядке X, Y, Z.
// Из-за последовательного разрешения углы обрабатываются с приоритетом оси X.
func (b *Body) Step(solid SolidFunc, p Params, dt float32) {
	b.Velocity[1] += p.Gravity * dt

	k := float64(dt * 100)
	for axis := 0; axis < 3; axis++ {
		b.Velocity[axis] *= float32(math.Pow(float64(p.Damping[axis]), k))
	}

	for axis := 0; axis < 3; axis++ {
		b.Position[axis] += b.Velocity[axis] * dt
		b.resolveAxis(solid, axis)
	}
}

// resolveAxis прижимает тело к ближайшей по направлению движения границе задетых блоков
func (b *Body) resolveAxis(solid SolidFunc, axis int) {
	hits := collide(b.Position, b.Size, solid)
	if len(hits) == 0 {
		return
	}

	v := b.Velocity[axis]
	if v == 0 {
		return
	}

	chosen := hits[0].Axis(axis)
	for _, h := range hits[1:] {
		c := h.Axis(axis)
		if v > 0 && c < chosen || v < 0 && c > chosen {
			chosen = c
		}
	}

	if v > 0 {
		b.Position[axis] = float32(chosen) - b.Size[axis]
	} else {
		b.Position[axis] = float32(chosen) + 1
	}
	b.Velocity[axis] = 0
}

// Touching возвращает твёрдые блоки, пересекающиеся с телом
func (b *Body) Touching(solid SolidFunc) []vec.Vec3 {
	return collide(b.Position, b.Size, solid)
}

// OnGround проверяет опору тонким (0.1) зондом под ногами при нулевой вертикальной скорости
func (b *Body) OnGround(solid SolidFunc) bool {
	if b.Velocity[1] != 0 {
		return false
	}
	probePos := mgl32.Vec3{b.Position[0], b.Position[1] - 0.1, b.Position[2]}
	probeSize := mgl32.Vec3{b.Size[0], 0.1, b.Size[2]}
	return len(collide(probePos, probeSize, solid)) > 0
}

// Cells возвращает все ячейки, которые занимает тело (для запрета установки блока внутрь него)
func (b *Body) Cells() []vec.Vec3 {
	return cells(b.Position, b.Size, func(vec.Vec3) bool { return true })
}

func collide(pos, size mgl32.Vec3, solid SolidFunc) []vec.Vec3 {
	return cells(pos, size, solid)
}

// cells перебирает целочисленные ячейки от floor(min) до ceil(max)-1 включительно
func cells(pos, size mgl32.Vec3, keep func(vec.Vec3) bool) []vec.Vec3 {
	minX, minY, minZ := floor(pos[0]), floor(pos[1]), floor(pos[2])
	maxX := ceil(pos[0]+size[0]) - 1
	maxY := ceil(pos[1]+size[1]) - 1
	maxZ := ceil(pos[2]+size[2]) - 1

	var out []vec.Vec3
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				c := vec.Vec3{X: x, Y: y, Z: z}
				if keep(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func floor(v float32) int { return int(math.Floor(float64(v))) }
func ceil(v float32) int { return int(math.Ceil(float64(v))) }
