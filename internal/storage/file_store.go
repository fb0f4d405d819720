package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/world"
)

// Имена файлов сохранения
const (
	SeedFileName    = "seed.dat"
	ChangesFileName = "changes.dat"
	DigestFileName  = "changes.sum"
)

// zstdMagic начало zstd-кадра; по нему Load узнаёт сжатый файл правок
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// FileStore сохранение в каталоге: seed.dat (int32 LE), changes.dat
// (записи по 13 байт, опционально сжатые zstd) и changes.sum (xxhash правок, uint64 LE)
type FileStore struct {
	dir      string
	compress bool
	logger   *logging.Logger
}

// NewFileStore создаёт файловое хранилище в каталоге dir
func NewFileStore(dir string, compress bool) *FileStore {
	return &FileStore{
		dir:      dir,
		compress: compress,
		logger:   logging.GetStorageLogger(),
	}
}

// Save атомарно перезаписывает файлы; сид пишется последним
func (s *FileStore) Save(ctx context.Context, seed int64, changes []world.BlockChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSeed(seed); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %s: %w", s.dir, err)
	}

	data := encodeChanges(changes)
	if s.compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}

	if err := writeAtomic(filepath.Join(s.dir, ChangesFileName), data); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(s.dir, DigestFileName), encodeDigest(changes)); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(s.dir, SeedFileName), encodeSeed(seed)); err != nil {
		return err
	}

	s.logger.Info("💾 Мир сохранён в %s: сид %d, правок %d", s.dir, seed, len(changes))
	return nil
}

// Load читает сид и правки. Отсутствие файла сида означает ErrNoSavedState,
// отсутствие файла правок означает мир без правок. Если есть changes.sum,
// правки сверяются с ним.
func (s *FileStore) Load(ctx context.Context) (*SavedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seedData, err := os.ReadFile(filepath.Join(s.dir, SeedFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("чтение сида: %w", err)
	}
	seed, err := decodeSeed(seedData)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ChangesFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &SavedState{Seed: seed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение правок: %w", err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		data, err = dec.DecodeAll(data, nil)
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
	}

	changes, err := decodeChanges(data)
	if err != nil {
		return nil, err
	}

	sum, err := os.ReadFile(filepath.Join(s.dir, DigestFileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("чтение дайджеста: %w", err)
	default:
		if err := verifyDigest(sum, changes); err != nil {
			return nil, err
		}
	}

	s.logger.Info("📂 Загружен мир из %s: сид %d, правок %d", s.dir, seed, len(changes))
	return &SavedState{Seed: seed, Changes: changes}, nil
}

// Close ничего не держит открытым
func (s *FileStore) Close() error {
	return nil
}

// writeAtomic пишет во временный файл и переименовывает его поверх целевого
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("замена %s: %w", path, err)
	}
	return nil
}
