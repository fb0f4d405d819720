package world

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/terrain"
)

// flatGenerator плоский мир: камень при y <= 0, выше воздух
func flatGenerator(seed int64) *terrain.Generator {
	return terrain.NewGenerator(terrain.Config{
		Seed:      seed,
		Frequency: 0.01,
		MPower:    1,
		VPower:    1,
		Layers:    []terrain.Layer{{BlockID: block.StoneBlockID, Min: -9999, Max: 0}},
	})
}

// airGenerator мир без единого блока
func airGenerator(seed int64) *terrain.Generator {
	return terrain.NewGenerator(terrain.Config{Seed: seed, Frequency: 0.01, MPower: 1, VPower: 1})
}

// recordingRenderer запоминает выданные дескрипторы
type recordingRenderer struct {
	next     RenderHandle
	live     map[RenderHandle]vec.Vec3
	attaches map[vec.Vec3]int
	releases int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		live:     make(map[RenderHandle]vec.Vec3),
		attaches: make(map[vec.Vec3]int),
	}
}

func (r *recordingRenderer) Attach(c *Chunk) RenderHandle {
	r.next++
	r.live[r.next] = c.Coord
	r.attaches[c.Coord]++
	return r.next
}

func (r *recordingRenderer) Release(h RenderHandle) {
	delete(r.live, h)
	r.releases++
}

type testWorld struct {
	*World
	renderer *recordingRenderer
	registry *prometheus.Registry
}

func newTestWorld(t *testing.T, gen *terrain.Generator, streaming config.StreamingConfig) *testWorld {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	r := newRecordingRenderer()
	w := New(gen, Options{
		Streaming: streaming,
		Renderer:  r,
		Metrics:   m,
	})
	t.Cleanup(w.Close)
	return &testWorld{World: w, renderer: r, registry: reg}
}

// counter значение счётчика из реестра по полному имени
func (tw *testWorld) counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := tw.registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			require.NotEmpty(t, f.GetMetric())
			if c := f.GetMetric()[0].GetCounter(); c != nil {
				return c.GetValue()
			}
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

// airLookup все блоки вне чанка воздух
func airLookup(vec.Vec3) block.BlockID { return block.AirBlockID }

// occupantCells простая сущность, занимающая заданные ячейки
type occupantCells []vec.Vec3

func (o occupantCells) Cells() []vec.Vec3 { return o }
