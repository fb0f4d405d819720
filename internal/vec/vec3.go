package vec

import "fmt"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется и для мировых координат блоков, и для координат чанков.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Zero нулевой вектор
var Zero = Vec3{}

// Направления шести граней куба
var (
	PosX = Vec3{X: 1}
	NegX = Vec3{X: -1}
	PosY = Vec3{Y: 1}
	NegY = Vec3{Y: -1}
	PosZ = Vec3{Z: 1}
	NegZ = Vec3{Z: -1}
)

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает каждую компоненту на k
func (v Vec3) Scale(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// DistanceSq возвращает квадрат евклидова расстояния до другого вектора
func (v Vec3) DistanceSq(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// LengthSq возвращает квадрат длины вектора
func (v Vec3) LengthSq() int {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Axis возвращает компоненту по номеру оси (0 = X, 1 = Y, 2 = Z)
func (v Vec3) Axis(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("vec: неверная ось %d", axis))
}

// ToChunkCoords преобразует мировые координаты блока в координаты чанка
// (деление с округлением вниз по каждой оси)
func (v Vec3) ToChunkCoords(size int) Vec3 {
	return Vec3{
		X: FloorDiv(v.X, size),
		Y: FloorDiv(v.Y, size),
		Z: FloorDiv(v.Z, size),
	}
}

// LocalInChunk возвращает локальные координаты блока внутри его чанка
func (v Vec3) LocalInChunk(size int) Vec3 {
	return Vec3{
		X: Mod(v.X, size),
		Y: Mod(v.Y, size),
		Z: Mod(v.Z, size),
	}
}

// String нужен для логов
func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// FloorDiv делит с округлением к минус бесконечности
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod возвращает неотрицательный остаток для положительного b
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
