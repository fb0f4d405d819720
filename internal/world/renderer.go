package world

// RenderHandle непрозрачный дескриптор ресурсов рендера (GPU-буферы) одного чанка
type RenderHandle uint64

// Renderer внешний получатель геометрии чанков.
// Attach вызывается на потоке-владельце после добавления чанка в сетку или перестройки меша,
// Release до удаления чанка или замены его меша.
type Renderer interface {
	Attach(c *Chunk) RenderHandle
	Release(h RenderHandle)
}

// NopRenderer рендер, который ничего не делает (headless режим, тесты)
type NopRenderer struct{}

func (NopRenderer) Attach(*Chunk) RenderHandle { return 0 }
func (NopRenderer) Release(RenderHandle) {}

// attachChunk отдаёт рендеру меш чанка, освобождая предыдущий дескриптор.
// Чанки без геометрии рендеру не передаются.
func attachChunk(r Renderer, c *Chunk) {
	releaseChunk(r, c)
	if c.NoGeometry() {
		return
	}
	c.handle = r.Attach(c)
	c.attached = true
}

// releaseChunk освобождает ресурсы рендера чанка, если они есть
func releaseChunk(r Renderer, c *Chunk) {
	if !c.attached {
		return
	}
	r.Release(c.handle)
	c.handle = 0
	c.attached = false
}
