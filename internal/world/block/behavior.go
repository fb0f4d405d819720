package block

// BlockBehavior описывает свойства типа блока
type BlockBehavior interface {
	ID() BlockID
	Name() string
	// IsSolid сообщает, участвует ли блок в коллизиях и лучах
	IsSolid() bool
}

// simpleBlock статичный блок без собственной логики
type simpleBlock struct {
	id    BlockID
	name  string
	solid bool
}

func (b *simpleBlock) ID() BlockID { return b.id }
func (b *simpleBlock) Name() string { return b.name }
func (b *simpleBlock) IsSolid() bool { return b.solid }

// Регистрируем все типы блоков при импорте пакета
func init() {
	Register(AirBlockID, &simpleBlock{id: AirBlockID, name: "air"})
	Register(RedWoolBlockID, &simpleBlock{id: RedWoolBlockID, name: "red_wool", solid: true})
	Register(DirtBlockID, &simpleBlock{id: DirtBlockID, name: "dirt", solid: true})
	Register(MossBlockID, &simpleBlock{id: MossBlockID, name: "moss_block", solid: true})
	Register(SandBlockID, &simpleBlock{id: SandBlockID, name: "sand", solid: true})
	Register(StoneBlockID, &simpleBlock{id: StoneBlockID, name: "stone", solid: true})
	Register(CobblestoneBlockID, &simpleBlock{id: CobblestoneBlockID, name: "cobblestone", solid: true})
}
