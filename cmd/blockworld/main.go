package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/terrain"
)

const frameRate = 60

func main() {
	configPath := flag.String("config", "", "путь к YAML/JSON конфигурации (или ENV BLOCKWORLD_CONFIG)")
	dataPath := flag.String("data", "", "каталог сохранения (перекрывает storage.dataPath)")
	frames := flag.Int("frames", 0, "количество кадров; 0 = до сигнала завершения")
	load := flag.Bool("load", false, "загрузить сохранённый мир при старте")
	save := flag.Bool("save", false, "сохранить мир при завершении")
	speed := flag.Float64("speed", 8, "скорость наблюдателя, блоков в секунду")
	flag.Parse()

	if err := logging.InitDefaultLogger("blockworld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, problems := config.Load(*configPath)
	for _, p := range problems {
		logging.Warn("⚠️ %v", p)
	}
	if *dataPath != "" {
		cfg.Storage.DataPath = *dataPath
	}

	logging.Info("🎮 Запуск blockworld: сид %d, радиус подгрузки %d, выгрузки %d",
		cfg.Generator.Seed, cfg.Streaming.LoadDistance, cfg.Streaming.UnloadDistance)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === МЕТРИКИ ===
	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("❌ Ошибка регистрации метрик: %v", err)
	}
	if cfg.Metrics.Addr != "" {
		srv := metrics.StartHTTP(cfg.Metrics.Addr, prometheus.DefaultGatherer)
		logging.Info("📊 Метрики: http://localhost%s/metrics", cfg.Metrics.Addr)
		defer srv.Close()
	}

	// === ХРАНИЛИЩЕ ===
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия хранилища: %v", err)
		}
	}()

	// === МИР ===
	w := world.New(terrain.NewGenerator(terrain.FromConfig(cfg.Generator)), world.Options{
		Streaming: cfg.Streaming,
		Metrics:   m,
	})
	defer w.Close()

	if *load {
		state, err := store.Load(ctx)
		switch {
		case errors.Is(err, storage.ErrNoSavedState):
			logging.Info("Сохранения нет, используется сид %d", w.Seed())
		case err != nil:
			logging.Error("❌ Ошибка загрузки мира: %v", err)
		default:
			genCfg := terrain.FromConfig(cfg.Generator)
			genCfg.Seed = state.Seed
			w.Restore(terrain.NewGenerator(genCfg), state.Changes)
			logging.Info("📂 Мир восстановлен: сид %d, дайджест правок %016x", w.Seed(), w.Changes().Digest())
		}
	}

	spawn := spawnPoint(w)
	body := physics.NewBody(spawn, mgl32.Vec3{0.6, 1.8, 0.6})
	params := physics.FromConfig(cfg.Physics)

	logging.Info("✅ Мир %s готов, точка появления %v", w.ID, spawn)

	run(ctx, w, body, params, *frames, float32(*speed))

	if *save {
		if err := store.Save(context.Background(), w.Seed(), w.Changes().Changes()); err != nil {
			logging.Error("❌ Ошибка сохранения мира: %v", err)
		} else {
			logging.Info("💾 Дайджест правок %016x", w.Changes().Digest())
		}
	}

	logging.Info("👋 blockworld остановлен")
}

// spawnPoint синхронно подгружает столбец чанков над поверхностью в начале координат
func spawnPoint(w *world.World) mgl32.Vec3 {
	surface := w.Generator().SurfaceHeight(0, 0)
	top := vec.Vec3{Y: surface}.ToChunkCoords(world.ChunkSize)
	for dy := -1; dy <= 1; dy++ {
		w.EnsureChunk(top.Add(vec.Vec3{Y: dy}))
	}
	return mgl32.Vec3{0.2, float32(surface + 2), 0.2}
}

// run кадровый цикл: наблюдатель идёт по +X, тело падает под гравитацией,
// раз в секунду наблюдатель ставит блок туда, куда смотрит
func run(ctx context.Context, w *world.World, body *physics.Body, params physics.Params, frames int, speed float32) {
	const dt = float32(1) / frameRate
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 1000)
	forward := mgl32.Vec3{1, -0.3, 0}.Normalize()

	var total world.CycleStats
	for frame := 0; frames == 0 || frame < frames; frame++ {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения")
			return
		case <-ticker.C:
		}

		body.Velocity[0] = speed
		body.Step(w.IsSolidWorld, params, dt)

		eye := body.Position.Add(mgl32.Vec3{0.3, 1.6, 0.3})
		view := mgl32.LookAtV(eye, eye.Add(forward), mgl32.Vec3{0, 1, 0})
		frustum := world.NewViewFrustum(proj.Mul4(view))

		stats := w.Update(ctx, eye, frustum)
		total.Merged += stats.Merged
		total.Evicted += stats.Evicted
		total.Stale += stats.Stale
		total.Launched += stats.Launched

		if frame%frameRate == frameRate-1 {
			if hit, ok := w.Raycast(eye, forward, 8); ok {
				w.PlaceBlock(hit, block.CobblestoneBlockID, body)
			}
			logging.Debug("Кадр %d: позиция %v, на земле %v, чанков %d, загружено %d, выгружено %d",
				frame+1, body.Position, body.OnGround(w.IsSolidWorld), w.Grid().Len(), total.Merged, total.Evicted)
		}
	}
}
