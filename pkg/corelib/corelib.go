// Package corelib implements June.Core: the minimal set of native
// functions every June program needs to do anything observable (printing,
// arithmetic, string conversion, raising). The C++ original treats the rest
// of its standard library as a family of individually dlopen'd native
// extensions, explicitly out of this engine's scope (spec.md §1); corelib
// exists to exercise the native-module ABI end to end (spec.md §6) with one
// concrete, always-available module rather than to reimplement that
// standard library.
//
// Unlike a real native extension, corelib is linked into the June binary
// rather than dlopen'd from a separate shared object — Init registers its
// functions directly on a State, matching the effect june_init has once a
// dynamic module is loaded, without requiring a prebuilt .so on disk for
// the common case of running the interpreter standalone.
package corelib

import (
	"fmt"
	"strconv"

	"github.com/kristofer/june/pkg/vars"
	"github.com/kristofer/june/pkg/vm"
)

// Init registers June.Core's functions as both globals (for bare calls like
// `print(...)`) and type-functions (for method-style calls like `5.toStr`).
// It mirrors the native-module ABI's june_init(state, srcId, idx) -> bool
// signature (spec.md §6), returning false if June.Core is already
// registered on state (its "print" global exists).
func Init(state *vm.State, srcId, idx uint64) bool {
	if _, ok := state.Globals["print"]; ok {
		return false
	}
	register(state, srcId, "print", &vars.Func{Native: printFn})
	register(state, srcId, "raise", &vars.Func{Native: raiseFn})
	register(state, srcId, "import", &vars.Func{Native: importFn})

	register(state, srcId, "+", arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	register(state, srcId, "-", arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	register(state, srcId, "*", arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	register(state, srcId, "/", arith(func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a / b
	}, func(a, b float64) float64 { return a / b }))

	intToStr := &vars.Func{Native: func(_ any, call *vars.CallData) (*vars.Value, bool) {
		if len(call.Args) != 1 || call.Args[0].Kind != vars.KindInt {
			return nil, false
		}
		return vars.StringValue(strconv.FormatInt(call.Args[0].IntVal, 10), srcId, idx), true
	}}
	state.TypeFns.Register(uint64(vars.KindInt), "toStr", intToStr)

	floatToStr := &vars.Func{Native: func(_ any, call *vars.CallData) (*vars.Value, bool) {
		if len(call.Args) != 1 || call.Args[0].Kind != vars.KindFloat {
			return nil, false
		}
		return vars.StringValue(strconv.FormatFloat(call.Args[0].FloatVal, 'g', -1, 64), srcId, idx), true
	}}
	state.TypeFns.Register(uint64(vars.KindFloat), "toStr", floatToStr)

	boolToStr := &vars.Func{Native: func(_ any, call *vars.CallData) (*vars.Value, bool) {
		if len(call.Args) != 1 || call.Args[0].Kind != vars.KindBool {
			return nil, false
		}
		if call.Args[0].BoolVal {
			return vars.StringValue("true", srcId, idx), true
		}
		return vars.StringValue("false", srcId, idx), true
	}}
	state.TypeFns.Register(uint64(vars.KindBool), "toStr", boolToStr)

	return true
}

func register(state *vm.State, srcId uint64, name string, fn *vars.Func) {
	state.Globals[name] = vars.FuncValue(fn, srcId, 0)
}

func printFn(_ any, call *vars.CallData) (*vars.Value, bool) {
	for _, a := range call.Args {
		if a.Kind == vars.KindString {
			fmt.Println(a.StrVal)
		} else {
			fmt.Println(a.Kind)
		}
	}
	return nil, true
}

func raiseFn(state any, call *vars.CallData) (*vars.Value, bool) {
	s := state.(*vm.State)
	if len(call.Args) > 0 {
		s.PendingRaise = call.Args[0]
	}
	return nil, false
}

// importFn exposes State.Exec.LoadJuneModule to June code as a callable
// (spec.md §4.6): `m = import("A.B")` loads and runs A.B's top-level
// bytecode at most once per process, then returns a Source value exposing
// A.B's bindings as attributes (`m.someName`), matching the dotted
// member-access pattern the loader's resolution order describes. No
// compiler is wired in by default (spec.md §1), so importing source text
// rather than an already compiled ".junec"/bytecode module fails with a
// clear diagnostic.
func importFn(state any, call *vars.CallData) (*vars.Value, bool) {
	s := state.(*vm.State)
	if len(call.Args) != 1 || call.Args[0].Kind != vars.KindString {
		return nil, false
	}
	source, err := s.Exec.LoadJuneModule(call.Args[0].StrVal, ".", nil)
	if err != nil {
		s.PendingRaise = vars.StringValue(err.Error(), 0, 0)
		return nil, false
	}
	return source, true
}

func arith(intOp func(a, b int64) int64, floatOp func(a, b float64) float64) *vars.Func {
	return &vars.Func{Native: func(_ any, call *vars.CallData) (*vars.Value, bool) {
		if len(call.Args) != 2 {
			return nil, false
		}
		a, b := call.Args[0], call.Args[1]
		switch {
		case a.Kind == vars.KindInt && b.Kind == vars.KindInt:
			return vars.IntValue(intOp(a.IntVal, b.IntVal), 0, 0), true
		case a.Kind == vars.KindFloat && b.Kind == vars.KindFloat:
			return vars.FloatValue(floatOp(a.FloatVal, b.FloatVal), 0, 0), true
		default:
			return nil, false
		}
	}}
}
