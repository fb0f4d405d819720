package world

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// BlockChange правка игрока: блок по мировым координатам, отличный от сгенерированного
type BlockChange struct {
	Pos vec.Vec3
	ID  block.BlockID
}

type changeEntry struct {
	id  block.BlockID
	seq uint64 // Порядок первой вставки координаты
}

// ChangeLog упорядоченный по вставке журнал правок с ключом по мировой координате.
// Повторная запись по той же координате перезаписывает значение, сохраняя позицию.
// Это единственное сохраняемое состояние мира: всё остальное восстанавливается из сида.
type ChangeLog struct {
	mu       sync.RWMutex
	entries  map[vec.Vec3]changeEntry
	byChunk  map[vec.Vec3]map[vec.Vec3]struct{}
	nextSeq  uint64
	revision uint64

	snapshot *ChangeSnapshot // Кэш последнего снимка для текущей ревизии
}

// NewChangeLog создаёт пустой журнал
func NewChangeLog() *ChangeLog {
	return &ChangeLog{
		entries: make(map[vec.Vec3]changeEntry),
		byChunk: make(map[vec.Vec3]map[vec.Vec3]struct{}),
	}
}

// Record фиксирует результат правки. Если новый блок совпадает со сгенерированным,
// координата удаляется из журнала. Возвращает true, если журнал изменился.
func (l *ChangeLog) Record(pos vec.Vec3, id, generated block.BlockID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, exists := l.entries[pos]
	if id == generated {
		if !exists {
			return false
		}
		delete(l.entries, pos)
		chunk := pos.ToChunkCoords(ChunkSize)
		delete(l.byChunk[chunk], pos)
		if len(l.byChunk[chunk]) == 0 {
			delete(l.byChunk, chunk)
		}
		l.bump()
		return true
	}

	if exists {
		if cur.id == id {
			return false
		}
		cur.id = id
		l.entries[pos] = cur
		l.bump()
		return true
	}

	l.entries[pos] = changeEntry{id: id, seq: l.nextSeq}
	l.nextSeq++
	chunk := pos.ToChunkCoords(ChunkSize)
	set, ok := l.byChunk[chunk]
	if !ok {
		set = make(map[vec.Vec3]struct{})
		l.byChunk[chunk] = set
	}
	set[pos] = struct{}{}
	l.bump()
	return true
}

func (l *ChangeLog) bump() {
	l.revision++
	l.snapshot = nil
}

// Get возвращает записанный блок по координате
func (l *ChangeLog) Get(pos vec.Vec3) (block.BlockID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[pos]
	return e.id, ok
}

// Len количество записей
func (l *ChangeLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Revision счётчик изменений журнала
func (l *ChangeLog) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Changes возвращает все правки в порядке первой вставки
func (l *ChangeLog) Changes() []BlockChange {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orderedLocked()
}

func (l *ChangeLog) orderedLocked() []BlockChange {
	type seqChange struct {
		seq uint64
		BlockChange
	}
	tmp := make([]seqChange, 0, len(l.entries))
	for pos, e := range l.entries {
		tmp = append(tmp, seqChange{seq: e.seq, BlockChange: BlockChange{Pos: pos, ID: e.id}})
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].seq < tmp[j].seq })

	out := make([]BlockChange, len(tmp))
	for i, c := range tmp {
		out[i] = c.BlockChange
	}
	return out
}

// ChunkChanges возвращает правки внутри одного чанка (порядок не важен: координаты уникальны)
func (l *ChangeLog) ChunkChanges(coord vec.Vec3) []BlockChange {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chunkChangesLocked(coord)
}

func (l *ChangeLog) chunkChangesLocked(coord vec.Vec3) []BlockChange {
	set := l.byChunk[coord]
	if len(set) == 0 {
		return nil
	}
	out := make([]BlockChange, 0, len(set))
	for pos := range set {
		out = append(out, BlockChange{Pos: pos, ID: l.entries[pos].id})
	}
	return out
}

// Clear очищает журнал (новый мир)
func (l *ChangeLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[vec.Vec3]changeEntry)
	l.byChunk = make(map[vec.Vec3]map[vec.Vec3]struct{})
	l.nextSeq = 0
	l.bump()
}

// Digest хэш xxhash от упорядоченных записей в формате файла правок.
// Совпадение дайджестов означает идентичный набор и порядок правок.
func (l *ChangeLog) Digest() uint64 {
	l.mu.RLock()
	changes := l.orderedLocked()
	l.mu.RUnlock()
	return DigestChanges(changes)
}

// DigestChanges хэш списка правок в том же формате, что и ChangeLog.Digest.
// Хранилища записывают его рядом с правками и сверяют при загрузке.
func DigestChanges(changes []BlockChange) uint64 {
	d := xxhash.New()
	var rec [13]byte
	for _, c := range changes {
		binary.LittleEndian.PutUint32(rec[0:4], uint32(int32(c.Pos.X)))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(int32(c.Pos.Y)))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(int32(c.Pos.Z)))
		rec[12] = uint8(c.ID)
		_, _ = d.Write(rec[:])
	}
	return d.Sum64()
}

// Snapshot возвращает неизменяемую копию журнала для фонового воркера
func (l *ChangeLog) Snapshot() *ChangeSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.snapshot != nil {
		return l.snapshot
	}

	s := &ChangeSnapshot{
		revision: l.revision,
		blocks:   make(map[vec.Vec3]block.BlockID, len(l.entries)),
		byChunk:  make(map[vec.Vec3][]BlockChange, len(l.byChunk)),
	}
	for pos, e := range l.entries {
		s.blocks[pos] = e.id
	}
	for coord := range l.byChunk {
		s.byChunk[coord] = l.chunkChangesLocked(coord)
	}
	l.snapshot = s
	return s
}

// ChangeSnapshot неизменяемый снимок журнала; безопасен для чтения из любых горутин
type ChangeSnapshot struct {
	revision uint64
	blocks   map[vec.Vec3]block.BlockID
	byChunk  map[vec.Vec3][]BlockChange
}

// Revision ревизия журнала на момент снимка
func (s *ChangeSnapshot) Revision() uint64 { return s.revision }

// Get возвращает правку по координате
func (s *ChangeSnapshot) Get(pos vec.Vec3) (block.BlockID, bool) {
	id, ok := s.blocks[pos]
	return id, ok
}

// ForChunk правки внутри чанка
func (s *ChangeSnapshot) ForChunk(coord vec.Vec3) []BlockChange {
	return s.byChunk[coord]
}
