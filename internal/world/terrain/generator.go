// Package terrain детерминированно генерирует блоки мира по сиду.
package terrain

import (
	"math"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/util"
	"github.com/annel0/blockworld/internal/world/block"
)

// Layer диапазон мировых высот [Min, Max], заполняемый одним типом блока
type Layer struct {
	BlockID block.BlockID
	Min     int
	Max     int
}

// Config параметры генератора. Пересев заменяет структуру целиком.
type Config struct {
	Seed        int64
	Frequency   float64 // Горизонтальная частота шума
	HeightScale int     // Вертикальный масштаб рельефа
	Border      int     // Полоса сглаживания около нулевой высоты
	MPower      float64 // Показатель степени для гор
	VPower      float64 // Показатель степени для долин
	VScale      float64 // Глубина долин относительно гор
	Layers      []Layer
}

// FromConfig переводит секцию generator файла конфигурации в Config
func FromConfig(c config.GeneratorConfig) Config {
	layers := make([]Layer, 0, len(c.Layers))
	for _, l := range c.Layers {
		layers = append(layers, Layer{BlockID: block.BlockID(l.BlockID), Min: l.Min, Max: l.Max})
	}
	return Config{
		Seed:        c.Seed,
		Frequency:   c.Frequency,
		HeightScale: c.HeightScale,
		Border:      c.Border,
		MPower:      c.MPower,
		VPower:      c.VPower,
		VScale:      c.VScale,
		Layers:      layers,
	}
}

// DefaultConfig встроенные параметры генератора с указанным сидом
func DefaultConfig(seed int64) Config {
	cfg := FromConfig(config.DefaultGenerator())
	cfg.Seed = seed
	return cfg
}

// Generator чистая функция (x, y, z) -> BlockID.
// После создания только читается и безопасен для нескольких горутин.
type Generator struct {
	cfg   Config
	noise *util.Noise
}

// NewGenerator создаёт генератор. Слои копируются, чтобы внешние
// изменения конфигурации не влияли на уже созданный мир.
func NewGenerator(cfg Config) *Generator {
	cfg.Layers = append([]Layer(nil), cfg.Layers...)
	return &Generator{
		cfg:   cfg,
		noise: util.NewNoise(cfg.Seed),
	}
}

// Seed возвращает сид генератора
func (g *Generator) Seed() int64 {
	return g.cfg.Seed
}

// SurfaceHeight возвращает мировую Y верхнего твёрдого блока в столбце (x, z)
func (g *Generator) SurfaceHeight(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.cfg.Frequency, float64(z)*g.cfg.Frequency)

	var shaped float64
	if n >= 0.5 {
		shaped = 0.5 + 0.5*math.Pow((n-0.5)*2, g.cfg.MPower)
	} else {
		shaped = 0.5 - g.cfg.VScale*0.5*math.Pow((0.5-n)*2, g.cfg.VPower)
	}

	h := (shaped - 0.5) * float64(g.cfg.HeightScale)

	// Около нуля рельеф прижимается к плоскости
	if b := float64(g.cfg.Border); b > 0 && math.Abs(h) < b {
		h = h * math.Abs(h) / b
	}

	return int(math.Floor(h))
}

// BlockAt возвращает тип блока по мировым координатам
func (g *Generator) BlockAt(x, y, z int) block.BlockID {
	return g.BlockInColumn(y, g.SurfaceHeight(x, z))
}

// BlockInColumn возвращает тип блока на высоте y в столбце с известной высотой поверхности.
// Позволяет считать шум один раз на столбец при заполнении чанка.
func (g *Generator) BlockInColumn(y, surface int) block.BlockID {
	if y > surface {
		return block.AirBlockID
	}
	for _, l := range g.cfg.Layers {
		if y >= l.Min && y <= l.Max {
			return l.BlockID
		}
	}
	return block.AirBlockID
}

// FillChunk заполняет плоский массив size³ блоками чанка с началом в origin.
// Индекс блока: x*size*size + y*size + z. Возвращает true, если в чанке есть хоть один непустой блок.
func (g *Generator) FillChunk(dst []uint8, originX, originY, originZ, size int) bool {
	if len(dst) != size*size*size {
		panic("terrain: неверный размер буфера чанка")
	}

	nonEmpty := false
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			surface := g.SurfaceHeight(originX+x, originZ+z)
			for y := 0; y < size; y++ {
				id := g.BlockInColumn(originY+y, surface)
				dst[x*size*size+y*size+z] = uint8(id)
				if id != block.AirBlockID {
					nonEmpty = true
				}
			}
		}
	}
	return nonEmpty
}
