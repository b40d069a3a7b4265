// Package bytecode defines June's on-disk and in-memory bytecode format:
// the opcode set, the operation record, the data-interning table, and the
// binary codec between them.
//
// An Operation never carries its operand inline. Every operand — a jump
// target, a loop-mark count, a MakeFunc parameter spec, an identifier name —
// is resolved through the same data-interning table that holds ordinary
// constants (spec.md §3/§4.3 deliberately unify these: "dataIdx points into
// the bytecode's data-interning table"). This keeps Operation a fixed-size,
// four-field record and keeps the binary format uniform: one encoder for
// "data", one for "ops", no per-opcode operand shape to special-case in the
// codec.
package bytecode

// Opcode is a June bytecode instruction.
type Opcode uint16

// The full June opcode set (spec.md §4.3).
const (
	// OpLoad pushes a constant from the data table, or resolves an
	// identifier from the environment/globals and pushes it.
	OpLoad Opcode = iota
	// OpPop drops the top of the operand stack.
	OpPop
	// OpCreate pops the name (string), optionally a context value, and the
	// initializer; binds into the current scope, into a context's
	// attributes, or registers a type-function.
	OpCreate
	// OpStore pops value and target; requires same type; target is
	// overwritten via Set and re-pushed.
	OpStore
	// OpJump jumps unconditionally to the instruction index held by its
	// data entry.
	OpJump
	// OpJumpTrue jumps if the top of stack is true; does not pop when it
	// jumps.
	OpJumpTrue
	// OpJumpFalse jumps if the top of stack is false; does not pop when it
	// jumps.
	OpJumpFalse
	// OpJumpTruePop is OpJumpTrue but always pops.
	OpJumpTruePop
	// OpJumpFalsePop is OpJumpFalse but always pops.
	OpJumpFalsePop
	// OpJumpNil jumps and pops iff the top of stack is Nil; otherwise a
	// no-op.
	OpJumpNil
	// OpBlkA adds n lexical scopes to the current function-frame.
	OpBlkA
	// OpBlkR removes n lexical scopes from the current function-frame.
	OpBlkR
	// OpBodyMarker declares that the next OpMakeFunc consumes the body span
	// [cur+1, end); the dispatcher skips straight to end.
	OpBodyMarker
	// OpMakeFunc builds a Func value from the preceding OpBodyMarker's span.
	OpMakeFunc
	// OpCall invokes a callable with popped arguments.
	OpCall
	// OpCallMember invokes a callable found on a receiver's attributes or
	// type-function table, popping the method name and receiver first.
	OpCallMember
	// OpAttr pops a receiver and pushes its attribute or type-method.
	OpAttr
	// OpReturn returns from the current call.
	OpReturn
	// OpPushLoop marks a loop scope in the current function-frame.
	OpPushLoop
	// OpPopLoop unwinds a loop scope in the current function-frame.
	OpPopLoop
	// OpContinue restores scope depth to the loop mark then jumps.
	OpContinue
	// OpBreak restores scope depth to the loop mark then jumps out.
	OpBreak
	// OpPushJump begins a fail block; errors raised below it, if its target
	// is reached, may be bound to a name.
	OpPushJump
	// OpPushJumpNamed annotates the last OpPushJump with a binding name.
	OpPushJumpNamed
	// OpPopJump ends a fail block.
	OpPopJump

	opCount
)

var opcodeNames = [opCount]string{
	OpLoad:          "Load",
	OpPop:           "Pop",
	OpCreate:        "Create",
	OpStore:         "Store",
	OpJump:          "Jump",
	OpJumpTrue:      "JumpTrue",
	OpJumpFalse:     "JumpFalse",
	OpJumpTruePop:   "JumpTruePop",
	OpJumpFalsePop:  "JumpFalsePop",
	OpJumpNil:       "JumpNil",
	OpBlkA:          "BlkA",
	OpBlkR:          "BlkR",
	OpBodyMarker:    "BodyMarker",
	OpMakeFunc:      "MakeFunc",
	OpCall:          "Call",
	OpCallMember:    "CallMember",
	OpAttr:          "Attr",
	OpReturn:        "Return",
	OpPushLoop:      "PushLoop",
	OpPopLoop:       "PopLoop",
	OpContinue:      "Continue",
	OpBreak:         "Break",
	OpPushJump:      "PushJump",
	OpPushJumpNamed: "PushJumpNamed",
	OpPopJump:       "PopJump",
}

// String renders an opcode for disassembly and diagnostics.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// Valid reports whether op is a recognized opcode.
func (op Opcode) Valid() bool {
	return op < opCount
}

// Op is a single bytecode instruction: {srcId, idx, op, dataIdx} per
// spec.md §3. srcId/idx identify the source file and instruction position
// for diagnostics; dataIdx resolves every operand through the shared data
// table, including targets, counts, and spec strings that other bytecode
// designs would store inline.
type Op struct {
	SrcId   uint64
	Idx     uint64
	Op      Opcode
	DataIdx uint64
}
