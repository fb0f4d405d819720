package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/world"
)

// Ключи BadgerDB
var (
	seedKey      = []byte("meta:seed")
	digestKey    = []byte("meta:digest")
	changePrefix = []byte("change:")
)

var errNotReady = errors.New("хранилище закрыто")

// BadgerStore хранит сид и правки в BadgerDB.
// Правка лежит под ключом change:<порядковый номер, 8 байт BE>,
// поэтому обход по префиксу возвращает их в порядке сохранения.
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

// NewBadgerStore открывает (или создаёт) базу в каталоге dataPath
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dataPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openBadger(opts, dataPath)
}

// NewInMemoryBadgerStore база без диска, для тестов
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, "")
}

func openBadger(opts badger.Options, path string) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BadgerStore{
		db:      db,
		dbPath:  path,
		isReady: true,
		logger:  logging.GetStorageLogger(),
	}, nil
}

// Close закрывает базу
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	return s.db.Close()
}

func changeKey(seq uint64) []byte {
	key := make([]byte, len(changePrefix)+8)
	copy(key, changePrefix)
	binary.BigEndian.PutUint64(key[len(changePrefix):], seq)
	return key
}

// Save перезаписывает сохранение. Записи с номерами за концом нового
// журнала удаляются, остальные перезаписываются.
func (s *BadgerStore) Save(ctx context.Context, seed int64, changes []world.BlockChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSeed(seed); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return errNotReady
	}

	stale, err := s.staleKeys(uint64(len(changes)))
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
		}
	}

	record := make([]byte, RecordSize)
	for i, ch := range changes {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		putRecord(record, ch)
		if err := wb.Set(changeKey(uint64(i)), append([]byte(nil), record...)); err != nil {
			return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
		}
	}
	if err := wb.Set(digestKey, encodeDigest(changes)); err != nil {
		return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
	}
	if err := wb.Set(seedKey, encodeSeed(seed)); err != nil {
		return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
	}

	s.logger.Info("💾 Мир сохранён в BadgerDB: сид %d, правок %d", seed, len(changes))
	return nil
}

// staleKeys собирает ключи правок с номером >= keep
func (s *BadgerStore) staleKeys(keep uint64) ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(changeKey(keep)); it.ValidForPrefix(changePrefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return keys, nil
}

// Load читает сид и правки в порядке сохранения
func (s *BadgerStore) Load(ctx context.Context) (*SavedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, errNotReady
	}

	state := &SavedState{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seedKey)
		if err == badger.ErrKeyNotFound {
			return ErrNoSavedState
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
		}

		var seedErr error
		if err := item.Value(func(val []byte) error {
			state.Seed, seedErr = decodeSeed(val)
			return nil
		}); err != nil {
			return fmt.Errorf("ошибка чтения значения: %w", err)
		}
		if seedErr != nil {
			return seedErr
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(changePrefix); it.ValidForPrefix(changePrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				if len(val) != RecordSize {
					return fmt.Errorf("%w: ключ %x, %d байт", ErrCorruptRecord, it.Item().Key(), len(val))
				}
				state.Changes = append(state.Changes, readRecord(val))
				return nil
			})
			if err != nil {
				return err
			}
		}

		item, err = txn.Get(digestKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
		}
		return item.Value(func(val []byte) error {
			return verifyDigest(val, state.Changes)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("📂 Загружен мир из BadgerDB: сид %d, правок %d", state.Seed, len(state.Changes))
	return state, nil
}
