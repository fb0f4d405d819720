package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации.
// Файл может быть в YAML или JSON (JSON является подмножеством YAML).
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Streaming StreamingConfig `yaml:"streaming"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LayerConfig описывает диапазон высот, заполняемый одним типом блока
type LayerConfig struct {
	BlockID int `yaml:"blockId"`
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
}

// GeneratorConfig параметры генератора ландшафта
type GeneratorConfig struct {
	Seed        int64         `yaml:"seed"`        // -1 = случайный сид при загрузке
	Frequency   float64       `yaml:"frequency"`   // Горизонтальная частота шума
	HeightScale int           `yaml:"heightScale"` // Вертикальный масштаб
	Border      int           `yaml:"border"`      // Полоса сглаживания около нуля
	MPower      float64       `yaml:"mPower"`      // Показатель степени для гор
	VPower      float64       `yaml:"vPower"`      // Показатель степени для долин
	VScale      float64       `yaml:"vScale"`      // Глубина долин относительно гор
	Layers      []LayerConfig `yaml:"layers"`
}

// StreamingConfig параметры подгрузки чанков
type StreamingConfig struct {
	LoadDistance   int `yaml:"loadDistance"`   // Радиус подгрузки в чанках
	UnloadDistance int `yaml:"unloadDistance"` // Радиус выгрузки, должен быть больше LoadDistance
	BatchSize      int `yaml:"batchSize"`      // Чанков за один фоновый пакет
	Workers        int `yaml:"workers"`        // 0 = по числу CPU
}

// PhysicsConfig параметры движения сущностей
type PhysicsConfig struct {
	Gravity  float32 `yaml:"gravity"`
	DampingX float32 `yaml:"dampingX"`
	DampingY float32 `yaml:"dampingY"`
	DampingZ float32 `yaml:"dampingZ"`
}

// StorageConfig параметры сохранения мира
type StorageConfig struct {
	DataPath string `yaml:"dataPath"`
	Backend  string `yaml:"backend"` // "file" или "badger"
	Compress bool   `yaml:"compress"`
}

// MetricsConfig параметры Prometheus
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Пустая строка отключает HTTP-эндпоинт
}

// TelemetryConfig параметры OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// Значения по умолчанию
const (
	RandomSeed = -1

	DefaultLoadDistance   = 24
	DefaultUnloadDistance = 32
	DefaultBatchSize      = 2

	BackendFile   = "file"
	BackendBadger = "badger"
)

// ConfigError сообщает о некорректном или отсутствующем поле.
// Такая ошибка никогда не фатальна: поле заменяется значением по умолчанию.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: поле %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var errInvalidValue = errors.New("некорректное значение, используется значение по умолчанию")

// DefaultGenerator возвращает встроенные параметры генератора
func DefaultGenerator() GeneratorConfig {
	return GeneratorConfig{
		Seed:        RandomSeed,
		Frequency:   0.0003,
		HeightScale: 512,
		Border:      8,
		MPower:      3,
		VPower:      3,
		VScale:      0.25,
		Layers: []LayerConfig{
			{BlockID: 4, Min: -9999, Max: -20},
			{BlockID: 3, Min: -21, Max: 50},
			{BlockID: 2, Min: 51, Max: 120},
			{BlockID: 5, Min: 121, Max: 9999},
		},
	}
}

// Default возвращает полную конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Generator: DefaultGenerator(),
		Streaming: StreamingConfig{
			LoadDistance:   DefaultLoadDistance,
			UnloadDistance: DefaultUnloadDistance,
			BatchSize:      DefaultBatchSize,
		},
		Physics: PhysicsConfig{
			Gravity:  -35,
			DampingX: 0.9,
			DampingY: 0.99,
			DampingZ: 0.9,
		},
		Storage: StorageConfig{
			DataPath: "saves/world",
			Backend:  BackendFile,
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "blockworld",
		},
	}
}

// Load читает YAML/JSON файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV BLOCKWORLD_CONFIG.
//
// Возвращаемый конфиг никогда не nil. Ошибки (отсутствующий файл,
// синтаксис, некорректные поля) собираются в []error из *ConfigError
// и предназначены только для логирования.
func Load(path string) (*Config, []error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BLOCKWORLD_CONFIG")
	}
	if path == "" {
		cfg.Generator.Seed = resolveSeed(cfg.Generator.Seed)
		return cfg, nil // конфиг не задан, используем дефолты
	}

	var problems []error

	data, err := os.ReadFile(path)
	if err != nil {
		cfg.Generator.Seed = resolveSeed(cfg.Generator.Seed)
		return cfg, []error{&ConfigError{Err: fmt.Errorf("чтение %s: %w", path, err)}}
	}

	parsed := Default()
	if err := decode(data, parsed); err != nil {
		problems = append(problems, &ConfigError{Err: fmt.Errorf("разбор %s: %w", path, err)})
		parsed = Default()
	}

	problems = append(problems, parsed.normalize()...)
	parsed.Generator.Seed = resolveSeed(parsed.Generator.Seed)

	return parsed, problems
}

// decode поддерживает два формата: полный конфиг с секциями и
// "плоский" файл генератора (worldgen.json), где seed/layers лежат в корне.
func decode(data []byte, cfg *Config) error {
	var probe map[string]interface{}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}

	_, hasSection := probe["generator"]
	_, flatSeed := probe["seed"]
	_, flatLayers := probe["layers"]
	if !hasSection && (flatSeed || flatLayers) {
		return yaml.Unmarshal(data, &cfg.Generator)
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize заменяет некорректные поля значениями по умолчанию
func (c *Config) normalize() []error {
	var problems []error
	def := Default()

	invalid := func(field string) {
		problems = append(problems, &ConfigError{Field: field, Err: errInvalidValue})
	}

	g := &c.Generator
	if g.Frequency <= 0 {
		invalid("generator.frequency")
		g.Frequency = def.Generator.Frequency
	}
	if g.HeightScale < 0 {
		invalid("generator.heightScale")
		g.HeightScale = def.Generator.HeightScale
	}
	if g.Border < 0 {
		invalid("generator.border")
		g.Border = def.Generator.Border
	}
	if g.MPower <= 0 {
		invalid("generator.mPower")
		g.MPower = def.Generator.MPower
	}
	if g.VPower <= 0 {
		invalid("generator.vPower")
		g.VPower = def.Generator.VPower
	}
	if g.VScale < 0 {
		invalid("generator.vScale")
		g.VScale = def.Generator.VScale
	}
	for i, l := range g.Layers {
		if l.BlockID < 0 || l.BlockID > 255 || l.Min > l.Max {
			invalid("generator.layers[" + strconv.Itoa(i) + "]")
			g.Layers = def.Generator.Layers
			break
		}
	}

	s := &c.Streaming
	if s.LoadDistance <= 0 {
		invalid("streaming.loadDistance")
		s.LoadDistance = def.Streaming.LoadDistance
	}
	if s.UnloadDistance <= s.LoadDistance {
		invalid("streaming.unloadDistance")
		s.UnloadDistance = s.LoadDistance + (def.Streaming.UnloadDistance - def.Streaming.LoadDistance)
	}
	if s.BatchSize <= 0 {
		invalid("streaming.batchSize")
		s.BatchSize = def.Streaming.BatchSize
	}
	if s.Workers < 0 {
		invalid("streaming.workers")
		s.Workers = 0
	}

	p := &c.Physics
	dampings := []struct {
		field string
		value *float32
		def   float32
	}{
		{"physics.dampingX", &p.DampingX, def.Physics.DampingX},
		{"physics.dampingY", &p.DampingY, def.Physics.DampingY},
		{"physics.dampingZ", &p.DampingZ, def.Physics.DampingZ},
	}
	for _, d := range dampings {
		if *d.value <= 0 || *d.value > 1 {
			invalid(d.field)
			*d.value = d.def
		}
	}

	switch c.Storage.Backend {
	case BackendFile, BackendBadger:
	default:
		invalid("storage.backend")
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.DataPath == "" {
		invalid("storage.dataPath")
		c.Storage.DataPath = def.Storage.DataPath
	}

	return problems
}

// resolveSeed заменяет -1 случайным сидом в диапазоне [0, 65536)
func resolveSeed(seed int64) int64 {
	if seed == RandomSeed {
		return rand.Int63n(65536)
	}
	return seed
}
