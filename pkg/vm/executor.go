package vm

import (
	"fmt"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/kristofer/june/pkg/env"
	"github.com/kristofer/june/pkg/srcfile"
	"github.com/kristofer/june/pkg/vars"
	"github.com/kristofer/june/pkg/vmerr"
)

// Executor walks one source's bytecode against a State, implementing every
// opcode in spec.md §4.3/§4.8. It also implements vars.Invoker, so Value's
// toString/toBool/call resolution policies can invoke Funcs without pkg/vars
// importing pkg/vm.
type Executor struct {
	State *State
}

// NewExecutor builds an Executor bound to state.
func NewExecutor(state *State) *Executor {
	ex := &Executor{State: state}
	state.Exec = ex
	return ex
}

// pendingBody records the body span opened by the most recent OpBodyMarker,
// consumed by the next OpMakeFunc (spec.md §4.3).
type pendingBody struct {
	begin, end uint64
	set        bool
}

// Exec runs bc's operations over [begin, end), returning the value left by
// Return (or Nil if the range runs off the end without one). srcId
// identifies bc's owning SrcFile for diagnostics and environment lookup.
func (e *Executor) Exec(srcId uint64, bc *bytecode.Bytecode, begin, end uint64) (*vars.Value, error) {
	s := e.State

	s.ExecStackCount++
	defer func() { s.ExecStackCount-- }()
	if s.ExecStackCount > s.ExecStackMax {
		if !s.overflowLatched {
			s.overflowLatched = true
			return nil, vmerr.Exec(srcId, begin, "exceeded call stack size")
		}
		return nil, vmerr.Exec(srcId, begin, "")
	}
	defer func() {
		if s.ExecStackCount <= s.ExecStackMax {
			s.overflowLatched = false
		}
	}()

	var pending pendingBody
	ip := begin
	if end == 0 {
		end = uint64(bc.Len())
	}

	// failBase records fail-stack depth at this call's entry, so OpReturn
	// only rejects fail blocks opened by this call, not ones still open in
	// an enclosing caller further down the shared FailStack (spec.md §4.8:
	// "no active fail blocks" is scoped per function body, not globally).
	failBase := s.FailStack.Len()

	for ip < end {
		if s.ExitCalled {
			return s.Nil, nil
		}

		op, ok := bc.At(ip)
		if !ok {
			return nil, vmerr.Exec(srcId, ip, "instruction index out of range")
		}

		s.opsDispatched++
		nextIp := ip + 1
		result, jumpTo, err := e.step(srcId, bc, op, &pending, ip, failBase)
		if err != nil {
			target, bindName, hasBind, handled := s.FailStack.Raise(raisedValue(err))
			if handled && !s.ExitCalled {
				if hasBind {
					env := s.envFor(srcId)
					env.Stash(bindName, raisedValue(err))
				}
				s.FailStack.Pop()
				nextIp = target
			} else {
				return nil, err
			}
		} else if jumpTo != nil {
			nextIp = *jumpTo
		}

		if result != nil {
			return result, nil
		}
		ip = nextIp
	}

	return s.Nil, nil
}

// step executes one operation, returning a non-nil result if the operation
// was Return, a non-nil jumpTo if control flow should continue at a
// specific index rather than ip+1, or an error if the operation raised.
func (e *Executor) step(srcId uint64, bc *bytecode.Bytecode, op bytecode.Op, pending *pendingBody, ip uint64, failBase int) (*vars.Value, *uint64, error) {
	s := e.State
	environment := s.envFor(srcId)

	datum, _ := bc.Data.At(op.DataIdx)

	switch op.Op {
	case bytecode.OpLoad:
		return nil, nil, e.execLoad(srcId, environment, datum)

	case bytecode.OpPop:
		s.Pop()
		return nil, nil, nil

	case bytecode.OpCreate:
		return nil, nil, e.execCreate(srcId, environment, datum)

	case bytecode.OpStore:
		return nil, nil, e.execStore(srcId, ip)

	case bytecode.OpJump:
		target := datum.Size
		return nil, &target, nil

	case bytecode.OpJumpTrue, bytecode.OpJumpFalse:
		top, ok := s.Top()
		if !ok {
			return nil, nil, vmerr.Exec(srcId, ip, "jump on empty stack")
		}
		match := top.Kind == vars.KindBool && top.BoolVal == (op.Op == bytecode.OpJumpTrue)
		if match {
			target := datum.Size
			return nil, &target, nil
		}
		s.Pop()
		return nil, nil, nil

	case bytecode.OpJumpTruePop, bytecode.OpJumpFalsePop:
		top, ok := s.Pop()
		if !ok {
			return nil, nil, vmerr.Exec(srcId, ip, "jump on empty stack")
		}
		match := top.Kind == vars.KindBool && top.BoolVal == (op.Op == bytecode.OpJumpTruePop)
		if match {
			target := datum.Size
			return nil, &target, nil
		}
		return nil, nil, nil

	case bytecode.OpJumpNil:
		top, ok := s.Top()
		if ok && top.Kind == vars.KindNil {
			s.Pop()
			target := datum.Size
			return nil, &target, nil
		}
		return nil, nil, nil

	case bytecode.OpBlkA:
		environment.IncTop(int(datum.Size))
		return nil, nil, nil

	case bytecode.OpBlkR:
		environment.DecTop(int(datum.Size))
		return nil, nil, nil

	case bytecode.OpBodyMarker:
		pending.begin = ip + 1
		pending.end = datum.Size
		pending.set = true
		target := datum.Size
		return nil, &target, nil

	case bytecode.OpMakeFunc:
		return nil, nil, e.execMakeFunc(srcId, pending, datum)

	case bytecode.OpCall:
		return nil, nil, e.execCall(srcId, environment, datum, false)

	case bytecode.OpCallMember:
		return nil, nil, e.execCall(srcId, environment, datum, true)

	case bytecode.OpAttr:
		return nil, nil, e.execAttr(srcId, ip, datum)

	case bytecode.OpReturn:
		if s.FailStack.Len() > failBase {
			return nil, nil, vmerr.Exec(srcId, ip, "return with active fail block")
		}
		var result *vars.Value
		if datum.Bool {
			v, ok := s.Pop()
			if !ok {
				return nil, nil, vmerr.Exec(srcId, ip, "return with empty stack")
			}
			result = v
		} else {
			result = s.Nil
		}
		environment.PopFn()
		return result, nil, nil

	case bytecode.OpPushLoop:
		environment.PushLoop()
		return nil, nil, nil

	case bytecode.OpPopLoop:
		environment.PopLoop()
		return nil, nil, nil

	case bytecode.OpContinue:
		environment.LoopContinue()
		target := datum.Size
		return nil, &target, nil

	case bytecode.OpBreak:
		environment.PopLoop()
		target := datum.Size
		return nil, &target, nil

	case bytecode.OpPushJump:
		s.FailStack.Push(datum.Size)
		return nil, nil, nil

	case bytecode.OpPushJumpNamed:
		s.FailStack.BindName(datum.Str)
		return nil, nil, nil

	case bytecode.OpPopJump:
		s.FailStack.Pop()
		return nil, nil, nil

	default:
		return nil, nil, vmerr.Exec(srcId, ip, "unrecognized opcode %d", op.Op)
	}
}

func (e *Executor) execLoad(srcId uint64, environment *env.Environment, d bytecode.Datum) error {
	s := e.State
	switch d.Type {
	case bytecode.DataIdent:
		if v, ok := environment.Get(d.Str); ok {
			s.Push(v)
			return nil
		}
		if v, ok := s.Globals[d.Str]; ok {
			s.Push(v)
			return nil
		}
		return vmerr.Exec(srcId, 0, "undefined identifier %q", d.Str)
	case bytecode.DataInt:
		s.Push(vars.IntValue(d.Int, srcId, 0))
	case bytecode.DataString:
		s.Push(vars.StringValue(d.Str, srcId, 0))
	case bytecode.DataFloat:
		f, err := d.Float()
		if err != nil {
			return vmerr.Exec(srcId, 0, "corrupt float constant: %v", err)
		}
		s.Push(vars.FloatValue(f, srcId, 0))
	case bytecode.DataBool:
		s.Push(vars.BoolValue(d.Bool, srcId, 0))
	case bytecode.DataNil:
		s.Push(s.Nil)
	default:
		return vmerr.Exec(srcId, 0, "Load: unsupported data type %s", d.Type)
	}
	return nil
}

// execCreate implements spec.md §4.3/§4.8's Create policy. The data entry
// is a Bool recording whether a context value sits below the initializer on
// the stack — this is this port's resolution of an ambiguous stack shape in
// the source spec (see DESIGN.md).
func (e *Executor) execCreate(srcId uint64, environment *env.Environment, d bytecode.Datum) error {
	s := e.State
	init, ok := s.PopNoDeref()
	if !ok {
		return vmerr.Exec(srcId, 0, "Create: missing initializer")
	}
	var ctx *vars.Value
	if d.Bool {
		c, ok := s.PopNoDeref()
		if !ok {
			return vmerr.Exec(srcId, 0, "Create: missing context")
		}
		ctx = c
		defer ctx.Deref() // stack's reference; ctx is already owned by its binding site
	}
	name, ok := s.Pop()
	if !ok {
		return vmerr.Exec(srcId, 0, "Create: missing name")
	}
	if name.Kind != vars.KindString {
		return vmerr.Exec(srcId, 0, "Create: name must be a string")
	}

	switch {
	case ctx == nil:
		if init.Flags&vars.LoadAsRef != 0 {
			environment.Add(name.StrVal, init, false)
		} else if init.Refcount() == 1 {
			environment.Add(name.StrVal, init, false)
		} else {
			environment.Add(name.StrVal, init.Clone(srcId, 0), false)
			init.Deref()
		}
	case ctx.Kind == vars.KindTypeId:
		if init.Kind != vars.KindFunc {
			return vmerr.Exec(srcId, 0, "Create: only callables may be registered as type functions")
		}
		s.TypeFns.Register(ctx.TypeVal, name.StrVal, init.FuncVal)
		init.Deref()
	case ctx.Flags&vars.AttrBased != 0 || ctx.Kind == vars.KindAny:
		ctx.AttrSet(name.StrVal, init)
	case init.Flags&vars.Callable != 0:
		ctx.AttrSet(name.StrVal, init)
	default:
		return vmerr.Exec(srcId, 0, "Create: cannot bind %q on a non-attribute-based %s", name.StrVal, ctx.Kind)
	}
	return nil
}

func (e *Executor) execStore(srcId uint64, ip uint64) error {
	s := e.State
	value, ok := s.Pop()
	if !ok {
		return vmerr.Exec(srcId, ip, "Store: missing value")
	}
	target, ok := s.PopNoDeref()
	if !ok {
		return vmerr.Exec(srcId, ip, "Store: missing target")
	}
	if target.Kind != value.Kind {
		return vmerr.Exec(srcId, ip, "Store: type mismatch (%s into %s)", value.Kind, target.Kind)
	}
	if err := target.Set(value); err != nil {
		return vmerr.Exec(srcId, ip, "%v", err)
	}
	s.Push(target)
	target.Deref() // undo the extra ref Push just added on top of PopNoDeref's handoff
	return nil
}

// execMakeFunc pops the declared parameter names (and, when bit 0 of the
// spec is set, the variadic name above them) and builds a Func spanning the
// body marked by the preceding BodyMarker.
func (e *Executor) execMakeFunc(srcId uint64, pending *pendingBody, d bytecode.Datum) error {
	s := e.State
	if !pending.set {
		return vmerr.Exec(srcId, 0, "MakeFunc without a preceding BodyMarker")
	}
	paramCount := int(d.Size >> 1)
	hasVariadic := d.Size&1 != 0

	var variadic string
	if hasVariadic {
		v, ok := s.Pop()
		if !ok || v.Kind != vars.KindString {
			return vmerr.Exec(srcId, 0, "MakeFunc: missing variadic parameter name")
		}
		variadic = v.StrVal
	}
	params := make([]string, paramCount)
	for i := paramCount - 1; i >= 0; i-- {
		v, ok := s.Pop()
		if !ok || v.Kind != vars.KindString {
			return vmerr.Exec(srcId, 0, "MakeFunc: missing parameter name")
		}
		params[i] = v.StrVal
	}

	fn := Func2Bytecode(srcId, pending.begin, pending.end, params, variadic)
	val := vars.FuncValue(&fn, srcId, 0)
	s.Push(val)
	pending.set = false
	return nil
}

// Func2Bytecode builds the pkg/vars.Func record for a bytecode-backed
// function span.
func Func2Bytecode(srcId, begin, end uint64, params []string, variadic string) vars.Func {
	return vars.Func{SrcId: srcId, Begin: begin, End: end, Params: params, Variadic: variadic}
}

func (e *Executor) execAttr(srcId uint64, ip uint64, d bytecode.Datum) error {
	s := e.State
	recv, ok := s.Pop()
	if !ok {
		return vmerr.Exec(srcId, ip, "Attr: missing receiver")
	}
	if attr, ok := recv.AttrGet(d.Str); ok {
		s.Push(attr)
		return nil
	}
	if fn, ok := s.TypeFns.Lookup(recv.TypeFnId(), d.Str); ok {
		s.Push(vars.FuncValue(fn, srcId, ip))
		return nil
	}
	return vmerr.Exec(srcId, ip, "no attribute or method %q on %s", d.Str, recv.Kind)
}

func (e *Executor) execCall(srcId uint64, environment *env.Environment, d bytecode.Datum, member bool) error {
	s := e.State
	unpack := d.Size&1 != 0
	argCount := int(d.Size >> 1)

	args, ok := s.PopN(argCount)
	if !ok {
		return vmerr.Exec(srcId, 0, "Call: missing %d argument(s)", argCount)
	}

	if unpack && len(args) > 0 {
		last := args[len(args)-1]
		if last.Kind != vars.KindVec {
			return vmerr.Exec(srcId, 0, "Call: unpack requested but last argument is not a Vec")
		}
		args = append(args[:len(args)-1], last.VecVal...)
	}

	var callee *vars.Value
	var self *vars.Value
	if member {
		nameVal, ok := s.Pop()
		if !ok || nameVal.Kind != vars.KindString {
			return vmerr.Exec(srcId, 0, "CallMember: missing method name")
		}
		recv, ok := s.Pop()
		if !ok {
			return vmerr.Exec(srcId, 0, "CallMember: missing receiver")
		}
		self = recv
		args = append([]*vars.Value{recv}, args...)

		if attr, ok := recv.AttrGet(nameVal.StrVal); ok && attr.Kind == vars.KindFunc {
			callee = attr
		} else if fn, ok := s.TypeFns.Lookup(recv.TypeFnId(), nameVal.StrVal); ok {
			callee = vars.FuncValue(fn, srcId, 0)
		} else {
			return vmerr.Exec(srcId, 0, "%s has no method %q", recv.Kind, nameVal.StrVal)
		}
	} else {
		c, ok := s.Pop()
		if !ok {
			return vmerr.Exec(srcId, 0, "Call: missing callee")
		}
		callee = c
	}

	result, err := callee.Call(e, args)
	if err != nil {
		if re, ok := err.(*raisedError); ok {
			return re
		}
		return vmerr.Exec(srcId, 0, "%v", err)
	}
	if result != nil && result.Kind != vars.KindNil {
		s.Push(result)
	}
	_ = self
	return nil
}

// Invoke implements vars.Invoker: runs fn with args, dispatching to a
// native Go callback or recursing into Exec over fn's bytecode span.
func (e *Executor) Invoke(fn *vars.Func, self *vars.Value, args []*vars.Value) (*vars.Value, error) {
	if fn.Native != nil {
		callArgs := args
		if self != nil {
			callArgs = append([]*vars.Value{self}, args...)
		}
		result, ok := fn.Native(e.State, &vars.CallData{Args: callArgs})
		if !ok {
			if e.State.PendingRaise != nil {
				raised := e.State.PendingRaise
				e.State.PendingRaise = nil
				return nil, Raise(raised)
			}
			return nil, Raise(vars.StringValue("Unknown failure", 0, 0))
		}
		return result, nil
	}

	sf, ok := e.State.AllSrcsById(fn.SrcId)
	if !ok {
		return nil, fmt.Errorf("function body references unloaded source %d", fn.SrcId)
	}
	environment := e.State.envFor(fn.SrcId)
	environment.PushFn()
	for i, p := range fn.Params {
		if i < len(args) {
			environment.Stash(p, args[i].Iref())
		}
	}
	if fn.Variadic != "" {
		rest := []*vars.Value{}
		if len(args) > len(fn.Params) {
			rest = args[len(fn.Params):]
		}
		environment.Stash(fn.Variadic, vars.VecValue(rest, true, fn.SrcId, 0))
	}
	result, err := e.Exec(fn.SrcId, sf.Bytecode, fn.Begin, fn.End)
	if err != nil {
		environment.Unstash()
		return nil, err
	}
	return result, nil
}

// Resolve implements vars.Invoker: looks a name up in the type-function
// table, falling back to "All".
func (e *Executor) Resolve(typeId uint64, name string) (*vars.Func, bool) {
	return e.State.TypeFns.Lookup(typeId, name)
}

func (s *State) envFor(srcId uint64) *env.Environment {
	e, ok := s.Envs[srcId]
	if !ok {
		e = env.New()
		s.Envs[srcId] = e
	}
	return e
}

// AllSrcsById finds a loaded SrcFile by its source id, scanning AllSrcs
// (keyed by path) since callers generally only have the numeric id, not the
// path, once bytecode has been linked.
func (s *State) AllSrcsById(srcId uint64) (*srcfile.SrcFile, bool) {
	for _, sf := range s.AllSrcs {
		if sf.Id == srcId {
			return sf, true
		}
	}
	return nil, false
}

func raisedValue(err error) *vars.Value {
	if rv, ok := err.(*raisedError); ok {
		return rv.value
	}
	return vars.StringValue(err.Error(), 0, 0)
}

// raisedError wraps a vars.Value raised by running June code (as opposed to
// a VM-internal *vmerr.Error), letting it travel through Go's error
// interface until the fail-stack handling in Exec unwraps it.
type raisedError struct {
	value *vars.Value
}

func (r *raisedError) Error() string {
	if r.value.Kind == vars.KindString {
		return r.value.StrVal
	}
	return "raised value"
}

// Raise constructs an error carrying a June value, for native functions
// implementing the "raise" builtin.
func Raise(v *vars.Value) error {
	return &raisedError{value: v}
}
