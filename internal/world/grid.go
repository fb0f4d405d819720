package world

import (
	"sync"

	"github.com/annel0/blockworld/internal/vec"
)

// Grid разреженная карта координата чанка -> чанк.
// Координата присутствует только для полностью построенного чанка.
// Изменяет сетку поток-владелец мира; чтения безопасны из любых горутин.
type Grid struct {
	mu     sync.RWMutex
	chunks map[vec.Vec3]*Chunk
}

// NewGrid создаёт пустую сетку
func NewGrid() *Grid {
	return &Grid{chunks: make(map[vec.Vec3]*Chunk)}
}

// Get возвращает чанк по координатам
func (g *Grid) Get(coord vec.Vec3) (*Chunk, bool) {
	g.mu.RLock()
	c, ok := g.chunks[coord]
	g.mu.RUnlock()
	return c, ok
}

// Has проверяет наличие чанка
func (g *Grid) Has(coord vec.Vec3) bool {
	_, ok := g.Get(coord)
	return ok
}

// TryAdd добавляет чанк, только если координата ещё свободна
func (g *Grid) TryAdd(c *Chunk) bool {
	g.mu.RLock()
	_, exists := g.chunks[c.Coord]
	g.mu.RUnlock()
	if exists {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Проверяем еще раз на случай гонки
	if _, exists := g.chunks[c.Coord]; exists {
		return false
	}
	g.chunks[c.Coord] = c
	return true
}

// Remove удаляет чанк и возвращает его
func (g *Grid) Remove(coord vec.Vec3) (*Chunk, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.chunks[coord]
	if ok {
		delete(g.chunks, coord)
	}
	return c, ok
}

// Len количество чанков
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.chunks)
}

// Coords возвращает снимок координат всех чанков (порядок не определён)
func (g *Grid) Coords() []vec.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]vec.Vec3, 0, len(g.chunks))
	for coord := range g.chunks {
		out = append(out, coord)
	}
	return out
}

// Chunks возвращает снимок всех чанков (порядок не определён)
func (g *Grid) Chunks() []*Chunk {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Chunk, 0, len(g.chunks))
	for _, c := range g.chunks {
		out = append(out, c)
	}
	return out
}

// Clear удаляет все чанки и возвращает их
func (g *Grid) Clear() []*Chunk {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Chunk, 0, len(g.chunks))
	for _, c := range g.chunks {
		out = append(out, c)
	}
	g.chunks = make(map[vec.Vec3]*Chunk)
	return out
}
