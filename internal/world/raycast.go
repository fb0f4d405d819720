package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/vec"
)

// SolidFunc сообщает, твёрдый ли блок по мировым координатам
type SolidFunc func(pos vec.Vec3) bool

// RayHit результат попадания луча
type RayHit struct {
	Block  vec.Vec3 // Координаты блока, в который попал луч
	Normal vec.Vec3 // Нормаль грани входа; нулевая, если луч начался внутри блока
}

// Raycast обходит сетку блоков вдоль луча (алгоритм Amanatides–Woo) и
// возвращает первый твёрдый блок не дальше maxDistance.
// direction не обязан быть нормирован, но расстояние измеряется в его единицах.
func Raycast(origin, direction mgl32.Vec3, maxDistance float32, solid SolidFunc) (RayHit, bool) {
	x := floorInt(origin[0])
	y := floorInt(origin[1])
	z := floorInt(origin[2])

	stepX, stepY, stepZ := sign(direction[0]), sign(direction[1]), sign(direction[2])

	tMaxX := stepTMax(origin[0], direction[0], x, stepX)
	tMaxY := stepTMax(origin[1], direction[1], y, stepY)
	tMaxZ := stepTMax(origin[2], direction[2], z, stepZ)

	tDeltaX := stepTDelta(direction[0], stepX)
	tDeltaY := stepTDelta(direction[1], stepY)
	tDeltaZ := stepTDelta(direction[2], stepZ)

	if solid(vec.Vec3{X: x, Y: y, Z: z}) {
		return RayHit{Block: vec.Vec3{X: x, Y: y, Z: z}}, true
	}

	var t float32
	var normal vec.Vec3
	for t <= maxDistance {
		// При равенстве tMax приоритет у Z, затем у Y
		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			x += stepX
			t = tMaxX
			tMaxX += tDeltaX
			normal = vec.Vec3{X: -stepX}
		case tMaxY < tMaxZ:
			y += stepY
			t = tMaxY
			tMaxY += tDeltaY
			normal = vec.Vec3{Y: -stepY}
		default:
			z += stepZ
			t = tMaxZ
			tMaxZ += tDeltaZ
			normal = vec.Vec3{Z: -stepZ}
		}

		if t > maxDistance {
			break
		}

		if solid(vec.Vec3{X: x, Y: y, Z: z}) {
			return RayHit{Block: vec.Vec3{X: x, Y: y, Z: z}, Normal: normal}, true
		}
	}

	return RayHit{}, false
}

func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}

func sign(v float32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// stepTMax параметрическое расстояние до первой границы ячейки по оси
func stepTMax(origin, dir float32, cell, step int) float32 {
	if step == 0 {
		return float32(math.Inf(1))
	}
	next := float32(cell)
	if step > 0 {
		next = float32(cell + 1)
	}
	return (next - origin) / dir
}

// stepTDelta параметрическая длина одной ячейки по оси
func stepTDelta(dir float32, step int) float32 {
	if step == 0 {
		return float32(math.Inf(1))
	}
	return float32(math.Abs(float64(1 / dir)))
}
