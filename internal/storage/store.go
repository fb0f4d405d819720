// Package storage сохраняет мир в виде сида и журнала правок.
// Ландшафт не сохраняется: он восстанавливается генератором по сиду.
package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

var (
	// ErrNoSavedState сохранения нет: мир стартует со свежим сидом
	ErrNoSavedState = errors.New("storage: нет сохранённого мира")
	// ErrCorruptRecord файл правок обрезан или повреждён
	ErrCorruptRecord = errors.New("storage: повреждённая запись правки")
	// ErrSeedRange сид не помещается в int32 формата сохранения
	ErrSeedRange = errors.New("storage: сид вне диапазона int32")
)

// RecordSize размер одной записи правки: x, y, z (int32 LE) и ID блока (uint8)
const RecordSize = 13

// SavedState содержимое сохранения
type SavedState struct {
	Seed    int64
	Changes []world.BlockChange
}

// Store хранилище сохранений
type Store interface {
	// Save заменяет сохранение целиком
	Save(ctx context.Context, seed int64, changes []world.BlockChange) error
	// Load возвращает ErrNoSavedState, если сохранения нет
	Load(ctx context.Context) (*SavedState, error)
	Close() error
}

// Open открывает хранилище по секции storage конфигурации
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return NewBadgerStore(cfg.DataPath)
	case config.BackendFile, "":
		return NewFileStore(cfg.DataPath, cfg.Compress), nil
	default:
		return nil, fmt.Errorf("storage: неизвестный backend %q", cfg.Backend)
	}
}

func checkSeed(seed int64) error {
	if seed < math.MinInt32 || seed > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrSeedRange, seed)
	}
	return nil
}

func encodeSeed(seed int64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(int32(seed)))
	return buf
}

func decodeSeed(data []byte) (int64, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: длина сида %d байт", ErrCorruptRecord, len(data))
	}
	return int64(int32(binary.LittleEndian.Uint32(data))), nil
}

func encodeDigest(changes []world.BlockChange) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, world.DigestChanges(changes))
	return buf
}

// verifyDigest сверяет сохранённый дайджест с прочитанными правками
func verifyDigest(stored []byte, changes []world.BlockChange) error {
	if len(stored) != 8 {
		return fmt.Errorf("%w: длина дайджеста %d байт", ErrCorruptRecord, len(stored))
	}
	want := binary.LittleEndian.Uint64(stored)
	if got := world.DigestChanges(changes); got != want {
		return fmt.Errorf("%w: дайджест %016x, ожидался %016x", ErrCorruptRecord, got, want)
	}
	return nil
}

func putRecord(dst []byte, ch world.BlockChange) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(int32(ch.Pos.X)))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(int32(ch.Pos.Y)))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(int32(ch.Pos.Z)))
	dst[12] = uint8(ch.ID)
}

func readRecord(src []byte) world.BlockChange {
	return world.BlockChange{
		Pos: vec.Vec3{
			X: int(int32(binary.LittleEndian.Uint32(src[0:4]))),
			Y: int(int32(binary.LittleEndian.Uint32(src[4:8]))),
			Z: int(int32(binary.LittleEndian.Uint32(src[8:12]))),
		},
		ID: block.BlockID(src[12]),
	}
}

// encodeChanges упаковывает правки подряд идущими 13-байтовыми записями
func encodeChanges(changes []world.BlockChange) []byte {
	buf := make([]byte, len(changes)*RecordSize)
	for i, ch := range changes {
		putRecord(buf[i*RecordSize:], ch)
	}
	return buf
}

// decodeChanges разбирает записи; хвост короче записи считается повреждением
func decodeChanges(data []byte) ([]world.BlockChange, error) {
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d лишних байт в конце", ErrCorruptRecord, len(data)%RecordSize)
	}
	out := make([]world.BlockChange, 0, len(data)/RecordSize)
	for off := 0; off < len(data); off += RecordSize {
		out = append(out, readRecord(data[off:off+RecordSize]))
	}
	return out, nil
}
