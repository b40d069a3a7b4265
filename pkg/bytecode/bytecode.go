package bytecode

// Bytecode is the in-memory form of one compiled June unit: a sequence of
// operations plus the shared data table every operand is resolved through.
//
// This collapses the C++ original's split between an in-memory
// representation (OpData union over raw pointers) and a separate on-disk
// "FileCompatibleOp"/dataIndex representation (see SPEC_FULL.md, Supplemented
// Features) — Go has no raw-pointer union to hydrate/dehydrate, so one
// struct serves both purposes.
type Bytecode struct {
	Ops  []Op
	Data *DataTable
}

// New constructs an empty Bytecode with a fresh data table.
func New() *Bytecode {
	return &Bytecode{Data: NewDataTable()}
}

// Append appends an operation and returns its index.
func (b *Bytecode) Append(srcId uint64, op Opcode, dataIdx uint64) uint64 {
	idx := uint64(len(b.Ops))
	b.Ops = append(b.Ops, Op{SrcId: srcId, Idx: idx, Op: op, DataIdx: dataIdx})
	return idx
}

// Len returns the number of operations.
func (b *Bytecode) Len() int { return len(b.Ops) }

// At returns the operation at idx.
func (b *Bytecode) At(idx uint64) (Op, bool) {
	if idx >= uint64(len(b.Ops)) {
		return Op{}, false
	}
	return b.Ops[idx], true
}

// PatchData rewrites the dataIdx of the operation at idx, used by the
// compiler's backpatching pass for forward jump targets.
func (b *Bytecode) PatchData(idx uint64, dataIdx uint64) bool {
	if idx >= uint64(len(b.Ops)) {
		return false
	}
	b.Ops[idx].DataIdx = dataIdx
	return true
}
