package block

import "sync"

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]BlockBehavior)
)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registryMu.Lock()
	registry[id] = behavior
	registryMu.Unlock()
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	registryMu.RLock()
	behavior, exists := registry[id]
	registryMu.RUnlock()
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// NameOf возвращает имя блока или "unknown"
func NameOf(id BlockID) string {
	if b, ok := Get(id); ok {
		return b.Name()
	}
	return "unknown"
}

// BlockID представляет идентификатор блока. Хранится в чанке одним байтом.
type BlockID uint8

// Константы ID блоков. Порядок совпадает с ячейками атласа текстур.
const (
	AirBlockID         BlockID = iota // 0
	RedWoolBlockID                    // 1
	DirtBlockID                       // 2
	MossBlockID                       // 3
	SandBlockID                       // 4
	StoneBlockID                      // 5
	CobblestoneBlockID                // 6
)

// IsSolid сообщает, твёрдый ли блок. Незарегистрированные ненулевые ID считаются твёрдыми.
func IsSolid(id BlockID) bool {
	if id == AirBlockID {
		return false
	}
	if b, ok := Get(id); ok {
		return b.IsSolid()
	}
	return true
}
