package world

import (
	"context"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/terrain"
)

// CycleStats итог одного цикла планировщика
type CycleStats struct {
	Merged   int // Чанков добавлено в сетку
	Evicted  int // Чанков выгружено
	Stale    int // Результатов отброшено (чужая эпоха или координата уже занята)
	Launched int // Координат в запущенном пакете
}

func (s *CycleStats) add(o CycleStats) {
	s.Merged += o.Merged
	s.Evicted += o.Evicted
	s.Stale += o.Stale
	s.Launched += o.Launched
}

// Scheduler решает, какие чанки строить и какие выгружать.
// Одновременно в работе не больше одного фонового пакета. Сеткой владеет
// поток, вызывающий Cycle: воркер строит чанки, не читая сетку.
type Scheduler struct {
	w *World

	loadDistance   int
	unloadDistance int
	batchSize      int
	workers        int

	offsets []vec.Vec3
	epoch   uint64
	pending *batch

	tracer trace.Tracer
	logger *logging.Logger
}

// batch фоновый пакет чанков
type batch struct {
	epoch    uint64
	revision uint64 // Ревизия журнала правок на момент запуска
	coords   []vec.Vec3
	cancel   context.CancelFunc
	done     chan batchResult
}

type batchResult struct {
	chunks  []*Chunk
	err     error
	elapsed time.Duration
}

// buildInput всё, что нужно воркеру; захватывается на потоке-владельце при запуске пакета
type buildInput struct {
	gen     *terrain.Generator
	changes *ChangeSnapshot
	atlas   RegionLookup
}

// lookup блок за границей строящегося чанка: правка из снимка или генератор
func (in buildInput) lookup(pos vec.Vec3) block.BlockID {
	if id, ok := in.changes.Get(pos); ok {
		return id
	}
	return in.gen.BlockAt(pos.X, pos.Y, pos.Z)
}

func (in buildInput) build(coord vec.Vec3) *Chunk {
	c := generateChunk(coord, in.gen)
	c.applyChanges(in.changes.ForChunk(coord))
	c.setMesh(BuildMesh(c, in.lookup, in.atlas))
	return c
}

func newScheduler(w *World, cfg config.StreamingConfig) *Scheduler {
	def := config.Default().Streaming
	if cfg.LoadDistance <= 0 {
		cfg.LoadDistance = def.LoadDistance
	}
	if cfg.UnloadDistance <= cfg.LoadDistance {
		cfg.UnloadDistance = cfg.LoadDistance + (def.UnloadDistance - def.LoadDistance)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return &Scheduler{
		w:              w,
		loadDistance:   cfg.LoadDistance,
		unloadDistance: cfg.UnloadDistance,
		batchSize:      cfg.BatchSize,
		workers:        cfg.Workers,
		offsets:        PriorityOffsets(cfg.LoadDistance),
		tracer:         observability.Tracer(),
		logger:         logging.GetStreamLogger(),
	}
}

// PriorityOffsets возвращает смещения с длиной строго меньше loadDistance,
// отсортированные по возрастанию квадрата расстояния. Внутри одного расстояния
// порядок обхода dx, dy, dz сохраняется.
func PriorityOffsets(loadDistance int) []vec.Vec3 {
	l := loadDistance
	maxD2 := 3 * l * l
	buckets := make([][]vec.Vec3, maxD2+1)

	for dx := -l; dx <= l; dx++ {
		for dy := -l; dy <= l; dy++ {
			for dz := -l; dz <= l; dz++ {
				d2 := dx*dx + dy*dy + dz*dz
				if d2 >= l*l {
					continue
				}
				buckets[d2] = append(buckets[d2], vec.Vec3{X: dx, Y: dy, Z: dz})
			}
		}
	}

	out := make([]vec.Vec3, 0, (2*l+1)*(2*l+1)*(2*l+1))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// Offsets общий список приоритетов (только для чтения)
func (s *Scheduler) Offsets() []vec.Vec3 {
	return s.offsets
}

// Epoch текущая эпоха мира
func (s *Scheduler) Epoch() uint64 {
	return s.epoch
}

// Pending сообщает, есть ли пакет в работе
func (s *Scheduler) Pending() bool {
	return s.pending != nil
}

// ObserverChunk координаты чанка, в котором находится наблюдатель
func ObserverChunk(observer mgl32.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: floorInt(observer[0] / ChunkSize),
		Y: floorInt(observer[1] / ChunkSize),
		Z: floorInt(observer[2] / ChunkSize),
	}
}

// Cycle один неблокирующий шаг: забрать готовый пакет, выгрузить дальние чанки,
// запустить следующий пакет. ctx ограничивает жизнь фоновых пакетов и должен
// жить дольше одного кадра.
func (s *Scheduler) Cycle(ctx context.Context, observer mgl32.Vec3, frustum Frustum) CycleStats {
	var stats CycleStats

	if s.pending != nil {
		select {
		case res := <-s.pending.done:
			stats.add(s.finish(s.pending, res))
			s.pending = nil
		default:
		}
	}

	stats.Evicted = s.evict(observer)

	if s.pending == nil {
		if coords := s.selectBatch(observer, frustum); len(coords) > 0 {
			s.launch(ctx, coords)
			stats.Launched = len(coords)
		}
	}

	s.w.metrics.SetResident(s.w.grid.Len())
	return stats
}

// Drain блокирующе дожидается пакета в работе и сливает его.
// Для экранов загрузки и тестов; в игровом цикле не используется.
func (s *Scheduler) Drain(ctx context.Context) (CycleStats, error) {
	if s.pending == nil {
		return CycleStats{}, nil
	}

	select {
	case res := <-s.pending.done:
		stats := s.finish(s.pending, res)
		s.pending = nil
		s.w.metrics.SetResident(s.w.grid.Len())
		return stats, nil
	case <-ctx.Done():
		return CycleStats{}, ctx.Err()
	}
}

// selectBatch обходит смещения от ближних к дальним и набирает до batchSize отсутствующих видимых чанков
func (s *Scheduler) selectBatch(observer mgl32.Vec3, frustum Frustum) []vec.Vec3 {
	if frustum == nil {
		frustum = AllVisible{}
	}
	center := ObserverChunk(observer)

	coords := make([]vec.Vec3, 0, s.batchSize)
	for _, off := range s.offsets {
		key := center.Add(off)
		if s.w.grid.Has(key) {
			continue
		}
		if !frustum.ChunkVisible(key) {
			continue
		}
		coords = append(coords, key)
		if len(coords) >= s.batchSize {
			break
		}
	}
	return coords
}

// launch запускает построение пакета в фоне
func (s *Scheduler) launch(ctx context.Context, coords []vec.Vec3) {
	in := s.w.buildInput()
	bctx, cancel := context.WithCancel(ctx)

	b := &batch{
		epoch:    s.epoch,
		revision: in.changes.Revision(),
		coords:   coords,
		cancel:   cancel,
		done:     make(chan batchResult, 1),
	}
	s.pending = b

	s.logger.Trace("Запуск пакета из %d чанков (эпоха %d)", len(coords), b.epoch)

	go func() {
		defer cancel()
		start := time.Now()

		spanCtx, span := s.tracer.Start(bctx, "stream.build_batch",
			trace.WithAttributes(
				attribute.Int("batch.size", len(coords)),
				attribute.Int64("batch.epoch", int64(b.epoch)),
			))
		chunks, err := buildBatch(spanCtx, coords, in, s.workers)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		b.done <- batchResult{chunks: chunks, err: err, elapsed: time.Since(start)}
	}()
}

// buildBatch строит чанки пакета параллельно; порядок завершения не важен
func buildBatch(ctx context.Context, coords []vec.Vec3, in buildInput, workers int) ([]*Chunk, error) {
	out := make([]*Chunk, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, coord := range coords {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = in.build(coord)
			return nil
		})
	}
	err := g.Wait()
	return out, err
}

// finish сливает результат пакета в сетку на потоке-владельце
func (s *Scheduler) finish(b *batch, res batchResult) CycleStats {
	var stats CycleStats

	built := 0
	for _, c := range res.chunks {
		if c != nil {
			built++
		}
	}
	s.w.metrics.ChunksGenerated(built)
	s.w.metrics.ObserveBatch(res.elapsed)

	if b.epoch != s.epoch {
		stats.Stale = built
		s.w.metrics.StaleDropped(built)
		s.logger.Debug("Отброшен пакет устаревшей эпохи %d (текущая %d), чанков: %d", b.epoch, s.epoch, built)
		return stats
	}
	if res.err != nil {
		s.logger.Error("Ошибка построения пакета: %v", res.err)
		return stats
	}

	revisionChanged := s.w.changes.Revision() != b.revision

	for _, c := range res.chunks {
		if c == nil {
			continue
		}
		if s.w.grid.Has(c.Coord) {
			stats.Stale++
			s.w.metrics.StaleDropped(1)
			continue
		}

		// Правки, сделанные пока пакет строился, в снимок не попали
		if revisionChanged {
			c.fill(s.w.gen)
			c.applyChanges(s.w.changes.ChunkChanges(c.Coord))
			c.setMesh(BuildMesh(c, s.w.BlockAt, s.w.atlas))
		}

		if !s.w.grid.TryAdd(c) {
			stats.Stale++
			s.w.metrics.StaleDropped(1)
			continue
		}
		attachChunk(s.w.renderer, c)
		s.w.metrics.ChunkMerged()
		stats.Merged++
	}

	s.logger.Trace("Пакет слит: %d чанков за %v", stats.Merged, res.elapsed)
	return stats
}

// evict выгружает чанки дальше unloadDistance от наблюдателя (в пространстве чанков)
func (s *Scheduler) evict(observer mgl32.Vec3) int {
	// Расстояние в целых координатах чанков, как у смещений подгрузки:
	// подгруженный неподвижным наблюдателем чанк никогда не выгружается
	center := ObserverChunk(observer)
	limit := s.unloadDistance * s.unloadDistance

	evicted := 0
	for _, coord := range s.w.grid.Coords() {
		if coord.DistanceSq(center) <= limit {
			continue
		}
		if c, ok := s.w.grid.Remove(coord); ok {
			releaseChunk(s.w.renderer, c)
			s.w.metrics.ChunkEvicted()
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("Выгружено чанков: %d", evicted)
	}
	return evicted
}

// advanceEpoch помечает пакет в работе устаревшим и отменяет его.
// Сам пакет остаётся в pending, чтобы его результат был отброшен при сливе.
func (s *Scheduler) advanceEpoch() {
	s.epoch++
	if s.pending != nil {
		s.pending.cancel()
	}
}

// stop отменяет пакет в работе и забывает о нём
func (s *Scheduler) stop() {
	if s.pending != nil {
		s.pending.cancel()
		s.pending = nil
	}
}
