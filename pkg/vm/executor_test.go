package vm

import (
	"testing"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/kristofer/june/pkg/srcfile"
	"github.com/kristofer/june/pkg/vars"
	"github.com/stretchr/testify/require"
)

func addNative(_ any, call *vars.CallData) (*vars.Value, bool) {
	if len(call.Args) != 2 || call.Args[0].Kind != vars.KindInt || call.Args[1].Kind != vars.KindInt {
		return nil, false
	}
	return vars.IntValue(call.Args[0].IntVal+call.Args[1].IntVal, 0, 0), true
}

func newTestState(t *testing.T) (*State, uint64) {
	t.Helper()
	s := New(t.TempDir()+"/june", nil)
	srcId := s.NextSrcId()
	sf := &srcfile.SrcFile{Id: srcId, Path: "test.june"}
	s.AllSrcs["test.june"] = sf
	return s, srcId
}

// callSpec packs the Call-opcode data entry this port uses in place of the
// ambiguous "spec string" from the source material (see DESIGN.md):
// bit 0 is the unpack flag, the remaining bits are the argument count.
func callSpec(argCount int, unpack bool) bytecode.Datum {
	v := uint64(argCount) << 1
	if unpack {
		v |= 1
	}
	return bytecode.SizeDatum(v)
}

func TestArithmeticRoundTrip(t *testing.T) {
	s, srcId := newTestState(t)
	plus := &vars.Func{Native: addNative}
	s.Globals["+"] = vars.FuncValue(plus, srcId, 0)

	bc := bytecode.New()
	two := bc.Data.Insert(bytecode.IntDatum(2))
	three := bc.Data.Insert(bytecode.IntDatum(3))
	plusName := bc.Data.Insert(bytecode.IdentDatum("+"))
	callData := bc.Data.Insert(callSpec(2, false))
	hasValue := bc.Data.Insert(bytecode.BoolDatum(true))

	bc.Append(srcId, bytecode.OpLoad, plusName)
	bc.Append(srcId, bytecode.OpLoad, two)
	bc.Append(srcId, bytecode.OpLoad, three)
	bc.Append(srcId, bytecode.OpCall, callData)
	bc.Append(srcId, bytecode.OpReturn, hasValue)

	sf, _ := s.AllSrcsById(srcId)
	_ = sf
	for _, f := range s.AllSrcs {
		f.Bytecode = bc
	}

	ex := NewExecutor(s)
	result, err := ex.Exec(srcId, bc, 0, 0)
	require.NoError(t, err)
	require.Equal(t, vars.KindInt, result.Kind)
	require.Equal(t, int64(5), result.IntVal)
}

func TestHelloWorldCallsNativePrint(t *testing.T) {
	s, srcId := newTestState(t)

	var captured string
	printFn := &vars.Func{Native: func(_ any, call *vars.CallData) (*vars.Value, bool) {
		if len(call.Args) != 1 {
			return nil, false
		}
		captured = call.Args[0].StrVal
		return s.Nil, true
	}}
	s.Globals["print"] = vars.FuncValue(printFn, srcId, 0)

	bc := bytecode.New()
	printName := bc.Data.Insert(bytecode.IdentDatum("print"))
	greeting := bc.Data.Insert(bytecode.StringDatum("Hello, World!"))
	callData := bc.Data.Insert(callSpec(1, false))

	bc.Append(srcId, bytecode.OpLoad, printName)
	bc.Append(srcId, bytecode.OpLoad, greeting)
	bc.Append(srcId, bytecode.OpCall, callData)
	bc.Append(srcId, bytecode.OpPop, bc.Data.Insert(bytecode.NilDatum))

	for _, f := range s.AllSrcs {
		f.Bytecode = bc
	}

	ex := NewExecutor(s)
	_, err := ex.Exec(srcId, bc, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", captured)
}

func TestFailureCaptureBindsRaisedValue(t *testing.T) {
	s, srcId := newTestState(t)

	raiseFn := &vars.Func{Native: func(state any, call *vars.CallData) (*vars.Value, bool) {
		state.(*State).PendingRaise = call.Args[0]
		return nil, false // signals failure per the native ABI
	}}
	s.Globals["raise"] = vars.FuncValue(raiseFn, srcId, 0)

	bc := bytecode.New()
	// PushJump T; PushJumpNamed "e"; Load raise; Load "x"; Call(1 arg)
	// T: BlkA 1 (commits the stashed "e"); Load e; Return
	pushJumpTarget := bc.Data.Insert(bytecode.SizeDatum(0)) // patched below
	raiseName := bc.Data.Insert(bytecode.IdentDatum("raise"))
	xStr := bc.Data.Insert(bytecode.StringDatum("x"))
	callData := bc.Data.Insert(callSpec(1, false))
	bindName := bc.Data.Insert(bytecode.StringDatum("e"))
	oneBlock := bc.Data.Insert(bytecode.SizeDatum(1))
	eIdent := bc.Data.Insert(bytecode.IdentDatum("e"))
	hasValue := bc.Data.Insert(bytecode.BoolDatum(true))

	pushJumpIdx := bc.Append(srcId, bytecode.OpPushJump, pushJumpTarget)
	bc.Append(srcId, bytecode.OpPushJumpNamed, bindName)
	bc.Append(srcId, bytecode.OpLoad, raiseName)
	bc.Append(srcId, bytecode.OpLoad, xStr)
	bc.Append(srcId, bytecode.OpCall, callData)
	target := bc.Append(srcId, bytecode.OpBlkA, oneBlock)
	bc.Append(srcId, bytecode.OpLoad, eIdent)
	bc.Append(srcId, bytecode.OpReturn, hasValue)

	bc.PatchData(pushJumpIdx, bc.Data.Insert(bytecode.SizeDatum(target)))

	for _, f := range s.AllSrcs {
		f.Bytecode = bc
	}

	ex := NewExecutor(s)
	result, err := ex.Exec(srcId, bc, 0, 0)
	require.NoError(t, err)
	require.Equal(t, vars.KindString, result.Kind)
	require.Equal(t, "x", result.StrVal)
}
