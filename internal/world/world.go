package world

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/terrain"
)

// Options внешние зависимости мира. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	Streaming config.StreamingConfig
	Renderer  Renderer
	Atlas     RegionLookup
	Metrics   *metrics.WorldMetrics
}

// Occupant занимает ячейки мира, в которые нельзя поставить блок (например, игрок)
type Occupant interface {
	Cells() []vec.Vec3
}

// World контекст мира: сетка чанков, генератор, журнал правок и планировщик.
// Все методы, кроме специально оговорённых, вызываются с одного потока-владельца.
type World struct {
	ID uuid.UUID

	grid      *Grid
	gen       *terrain.Generator
	changes   *ChangeLog
	scheduler *Scheduler
	renderer  Renderer
	atlas     RegionLookup
	metrics   *metrics.WorldMetrics
	logger    *logging.Logger
}

// New создаёт мир с указанным генератором
func New(gen *terrain.Generator, opts Options) *World {
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Atlas == nil {
		opts.Atlas = DefaultAtlas
	}

	w := &World{
		ID:       uuid.New(),
		grid:     NewGrid(),
		gen:      gen,
		changes:  NewChangeLog(),
		renderer: opts.Renderer,
		atlas:    opts.Atlas,
		metrics:  opts.Metrics,
		logger:   logging.GetWorldLogger(),
	}
	w.scheduler = newScheduler(w, opts.Streaming)

	w.logger.Info("🌍 Мир %s создан (сид %d)", w.ID, gen.Seed())
	return w
}

// Grid сетка чанков
func (w *World) Grid() *Grid { return w.grid }

// Generator текущий генератор
func (w *World) Generator() *terrain.Generator { return w.gen }

// Changes журнал правок
func (w *World) Changes() *ChangeLog { return w.changes }

// Scheduler планировщик подгрузки
func (w *World) Scheduler() *Scheduler { return w.scheduler }

// Seed сид текущего генератора
func (w *World) Seed() int64 { return w.gen.Seed() }

func (w *World) buildInput() buildInput {
	return buildInput{
		gen:     w.gen,
		changes: w.changes.Snapshot(),
		atlas:   w.atlas,
	}
}

// chunkAt находит загруженный чанк и локальные координаты блока
func (w *World) chunkAt(pos vec.Vec3) (*Chunk, vec.Vec3, bool) {
	c, ok := w.grid.Get(pos.ToChunkCoords(ChunkSize))
	if !ok {
		return nil, vec.Vec3{}, false
	}
	return c, pos.LocalInChunk(ChunkSize), true
}

// BlockAt возвращает блок по мировым координатам: из загруженного чанка,
// иначе правку из журнала, иначе значение генератора.
func (w *World) BlockAt(pos vec.Vec3) block.BlockID {
	if c, l, ok := w.chunkAt(pos); ok {
		return c.Block(l.X, l.Y, l.Z)
	}
	if id, ok := w.changes.Get(pos); ok {
		return id
	}
	return w.gen.BlockAt(pos.X, pos.Y, pos.Z)
}

// IsSolidWorld сообщает, твёрдый ли блок. Незагруженные чанки проходимы.
func (w *World) IsSolidWorld(pos vec.Vec3) bool {
	c, l, ok := w.chunkAt(pos)
	if !ok {
		return false
	}
	return block.IsSolid(c.Block(l.X, l.Y, l.Z))
}

// SetBlockWorld записывает блок в загруженный чанк, фиксирует правку в журнале
// и синхронно перестраивает меш чанка и соседей, чья граница затронута.
// Для незагруженного чанка возвращает false.
func (w *World) SetBlockWorld(pos vec.Vec3, id block.BlockID) bool {
	c, l, ok := w.chunkAt(pos)
	if !ok {
		return false
	}

	if c.Block(l.X, l.Y, l.Z) == id {
		return true
	}

	c.SetBlock(l.X, l.Y, l.Z, id)
	w.changes.Record(pos, id, w.gen.BlockAt(pos.X, pos.Y, pos.Z))
	w.metrics.BlockEdited()

	w.remesh(c)
	w.remeshNeighbors(c.Coord, l)

	w.logger.Trace("Блок %v -> %s", pos, block.NameOf(id))
	return true
}

// remeshNeighbors перестраивает загруженных соседей чанка coord,
// разделяющих грань с блоком в локальной позиции l
func (w *World) remeshNeighbors(coord, l vec.Vec3) {
	for axis := 0; axis < 3; axis++ {
		var dir vec.Vec3
		switch l.Axis(axis) {
		case 0:
			dir = axisDir(axis, -1)
		case ChunkSize - 1:
			dir = axisDir(axis, 1)
		default:
			continue
		}
		if n, ok := w.grid.Get(coord.Add(dir)); ok && !n.IsEmpty() {
			w.remesh(n)
		}
	}
}

func axisDir(axis, sign int) vec.Vec3 {
	switch axis {
	case 0:
		return vec.Vec3{X: sign}
	case 1:
		return vec.Vec3{Y: sign}
	default:
		return vec.Vec3{Z: sign}
	}
}

// remesh перестраивает меш чанка по живым данным мира и передаёт его рендеру
func (w *World) remesh(c *Chunk) {
	c.setMesh(BuildMesh(c, w.BlockAt, w.atlas))
	attachChunk(w.renderer, c)
}

// ApplyChange применяет сохранённую правку: к загруженному чанку через SetBlockWorld,
// иначе в журнал (чанк получит её при построении). Загруженные соседи на границе
// читают незагруженный блок через BlockAt, поэтому их меши перестраиваются.
func (w *World) ApplyChange(ch BlockChange) {
	if w.SetBlockWorld(ch.Pos, ch.ID) {
		return
	}
	if w.changes.Record(ch.Pos, ch.ID, w.gen.BlockAt(ch.Pos.X, ch.Pos.Y, ch.Pos.Z)) {
		w.remeshNeighbors(ch.Pos.ToChunkCoords(ChunkSize), ch.Pos.LocalInChunk(ChunkSize))
	}
}

// Raycast ищет первый твёрдый блок вдоль луча по загруженным чанкам
func (w *World) Raycast(origin, direction mgl32.Vec3, maxDistance float32) (RayHit, bool) {
	return Raycast(origin, direction, maxDistance, w.IsSolidWorld)
}

// PlaceBlock ставит блок на грань, в которую попал луч.
// Отказывает, если луч начался внутри блока, ID не зарегистрирован,
// ячейка занята твёрдым блоком или одним из occupants.
func (w *World) PlaceBlock(hit RayHit, id block.BlockID, occupants ...Occupant) bool {
	if hit.Normal == vec.Zero || !block.IsValidBlockID(id) {
		return false
	}
	target := hit.Block.Add(hit.Normal)
	if !w.CanPlace(target, occupants...) {
		return false
	}
	return w.SetBlockWorld(target, id)
}

// BreakBlock заменяет блок, в который попал луч, воздухом
func (w *World) BreakBlock(hit RayHit) bool {
	return w.SetBlockWorld(hit.Block, block.AirBlockID)
}

// CanPlace проверяет, что ячейка свободна от твёрдых блоков и сущностей
func (w *World) CanPlace(pos vec.Vec3, occupants ...Occupant) bool {
	if w.IsSolidWorld(pos) {
		return false
	}
	for _, o := range occupants {
		for _, cell := range o.Cells() {
			if cell == pos {
				return false
			}
		}
	}
	return true
}

// Update один кадр подгрузки вокруг наблюдателя; не блокируется
func (w *World) Update(ctx context.Context, observer mgl32.Vec3, frustum Frustum) CycleStats {
	return w.scheduler.Cycle(ctx, observer, frustum)
}

// EnsureChunk синхронно строит и добавляет чанк, если его нет (предзагрузка точки появления)
func (w *World) EnsureChunk(coord vec.Vec3) *Chunk {
	if c, ok := w.grid.Get(coord); ok {
		return c
	}

	c := generateChunk(coord, w.gen)
	c.applyChanges(w.changes.ChunkChanges(coord))
	c.setMesh(BuildMesh(c, w.BlockAt, w.atlas))

	if !w.grid.TryAdd(c) {
		existing, _ := w.grid.Get(coord)
		return existing
	}
	attachChunk(w.renderer, c)
	w.metrics.ChunkMerged()
	w.metrics.SetResident(w.grid.Len())
	return c
}

// Reset начинает новый мир: новая эпоха, пустые сетка и журнал, новый генератор.
// Результаты пакета в работе будут отброшены.
func (w *World) Reset(gen *terrain.Generator) {
	w.scheduler.advanceEpoch()

	for _, c := range w.grid.Clear() {
		releaseChunk(w.renderer, c)
	}
	w.changes.Clear()
	w.gen = gen
	w.ID = uuid.New()
	w.metrics.SetResident(0)

	w.logger.Info("🌍 Мир сброшен: %s (сид %d, эпоха %d)", w.ID, gen.Seed(), w.scheduler.Epoch())
}

// Restore сбрасывает мир на генератор сохранения и воспроизводит правки по порядку
func (w *World) Restore(gen *terrain.Generator, changes []BlockChange) {
	w.Reset(gen)
	for _, ch := range changes {
		w.ApplyChange(ch)
	}
	w.logger.Info("📂 Восстановлено правок: %d", len(changes))
}

// Close отменяет фоновую работу и освобождает ресурсы рендера
func (w *World) Close() {
	w.scheduler.stop()
	for _, c := range w.grid.Clear() {
		releaseChunk(w.renderer, c)
	}
	w.metrics.SetResident(0)
}
