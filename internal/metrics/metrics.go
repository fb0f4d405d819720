// Package metrics содержит Prometheus-метрики подгрузки чанков и правок мира.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/blockworld/internal/logging"
)

const namespace = "blockworld"

// WorldMetrics набор счётчиков мира. Все методы безопасны для nil-получателя,
// поэтому мир без метрик просто передаёт nil.
type WorldMetrics struct {
	generated    prometheus.Counter
	merged       prometheus.Counter
	evicted      prometheus.Counter
	staleDropped prometheus.Counter
	resident     prometheus.Gauge
	batchBuild   prometheus.Histogram
	blockEdits   prometheus.Counter
}

// New создаёт метрики и регистрирует их в reg.
// Если reg == nil, метрики работают, но нигде не публикуются.
func New(reg prometheus.Registerer) (*WorldMetrics, error) {
	m := &WorldMetrics{
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Чанков, построенных фоновым воркером.",
		}),
		merged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_merged_total",
			Help:      "Чанков, добавленных в сетку мира.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Чанков, выгруженных по расстоянию.",
		}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_stale_dropped_total",
			Help:      "Чанков из устаревших пакетов (другая эпоха или уже загружены).",
		}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_chunks",
			Help:      "Текущее число чанков в сетке.",
		}),
		batchBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_build_seconds",
			Help:      "Время построения одного пакета чанков.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		blockEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_edits_total",
			Help:      "Успешных изменений блоков.",
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *WorldMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.generated, m.merged, m.evicted, m.staleDropped, m.resident, m.batchBuild, m.blockEdits}
}

// ChunksGenerated учитывает чанки, построенные фоновым пакетом
func (m *WorldMetrics) ChunksGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generated.Add(float64(n))
}

// ChunkMerged учитывает чанк, добавленный в сетку
func (m *WorldMetrics) ChunkMerged() {
	if m == nil {
		return
	}
	m.merged.Inc()
}

// ChunkEvicted учитывает выгруженный чанк
func (m *WorldMetrics) ChunkEvicted() {
	if m == nil {
		return
	}
	m.evicted.Inc()
}

// StaleDropped учитывает отброшенные результаты пакета
func (m *WorldMetrics) StaleDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.staleDropped.Add(float64(n))
}

// SetResident выставляет число чанков в сетке
func (m *WorldMetrics) SetResident(n int) {
	if m == nil {
		return
	}
	m.resident.Set(float64(n))
}

// ObserveBatch записывает длительность построения пакета
func (m *WorldMetrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batchBuild.Observe(d.Seconds())
}

// BlockEdited учитывает правку блока
func (m *WorldMetrics) BlockEdited() {
	if m == nil {
		return
	}
	m.blockEdits.Inc()
}

// StartHTTP запускает HTTP-эндпоинт /metrics на указанном адресе (например, ":2112").
// Метод неблокирующий: сервер стартует в отдельной горутине. Остановка через Shutdown.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
