package vm

import "github.com/kristofer/june/pkg/vars"

// failBlock is one deque of raised values, opened by PushJump and closed by
// PopJump (spec.md §3 "Fail stack").
type failBlock struct {
	target     uint64
	bindName   string
	hasBind    bool
	raised     []*vars.Value
}

// FailStack is the vector of active fail blocks. A State has one, shared by
// nested Exec calls; each Exec records its depth on entry.
type FailStack struct {
	blocks []*failBlock
}

// NewFailStack constructs an empty fail stack.
func NewFailStack() *FailStack {
	return &FailStack{}
}

// Push begins a new fail block targeting the given jump target.
func (f *FailStack) Push(target uint64) {
	f.blocks = append(f.blocks, &failBlock{target: target})
}

// BindName annotates the most recently pushed block with a binding name
// (the PushJumpNamed opcode).
func (f *FailStack) BindName(name string) {
	if len(f.blocks) == 0 {
		return
	}
	top := f.blocks[len(f.blocks)-1]
	top.bindName = name
	top.hasBind = true
}

// Pop ends the most recently pushed fail block, dereferencing any raised
// values nobody claimed.
func (f *FailStack) Pop() {
	if len(f.blocks) == 0 {
		return
	}
	top := f.blocks[len(f.blocks)-1]
	for _, v := range top.raised {
		v.Deref()
	}
	f.blocks = f.blocks[:len(f.blocks)-1]
}

// Active reports whether any fail block is currently open.
func (f *FailStack) Active() bool {
	return len(f.blocks) > 0
}

// Len returns the number of currently open fail blocks.
func (f *FailStack) Len() int {
	return len(f.blocks)
}

// Raise pushes value onto the innermost block's deque and reports the
// block's jump target and optional bind name, so the executor can rewind
// and bind in one step (spec.md §4.8 "Fail handling").
func (f *FailStack) Raise(value *vars.Value) (target uint64, bindName string, hasBind bool, ok bool) {
	if len(f.blocks) == 0 {
		return 0, "", false, false
	}
	top := f.blocks[len(f.blocks)-1]
	top.raised = append(top.raised, value)
	return top.target, top.bindName, top.hasBind, true
}
