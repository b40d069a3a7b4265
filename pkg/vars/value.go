// Package vars implements June's polymorphic value model: a closed set of
// value variants, each carrying a type identity, creation origin, reference
// count, and a small set of info flags, per spec.md §3/§4.2.
//
// The C++ original represents values as an open class hierarchy rooted at
// VarBase, with each variant a separate heap-allocated subclass. Go has no
// cheap open-inheritance equivalent that keeps single-allocation values, so
// Value is instead a single closed tagged union (a Kind tag plus one field
// per payload shape) — the same trade the teacher's own vm.go makes by
// boxing every runtime value as interface{} over a handful of concrete Go
// types. Closing the union over a Kind enum buys exhaustive switch coverage
// at the cost of a few unused fields per Value; that trade reads better in
// a typed, GC'd language than reproducing the subclass hierarchy would.
package vars

import "fmt"

// Kind tags a Value's variant (spec.md §3).
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVec
	KindFunc
	KindSource
	KindTypeId
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindVec:
		return "Vec"
	case KindFunc:
		return "Func"
	case KindSource:
		return "Source"
	case KindTypeId:
		return "TypeId"
	case KindAny:
		return "Any"
	default:
		return "Unknown"
	}
}

// Flag is a bit in a Value's info-flags set (spec.md §3).
type Flag uint8

const (
	// Callable marks a value resolvable by Call without falling back to
	// an "apply" method lookup.
	Callable Flag = 1 << iota
	// AttrBased marks a value whose attrGet/attrSet/attrExists operate on
	// a real attribute map rather than variant-specific overrides.
	AttrBased
	// LoadAsRef marks a value the executor must move, not copy, on bind.
	LoadAsRef
	// VecRefs marks a Vec whose elements are shared references rather
	// than owned copies (affects Clone).
	VecRefs
	// SourceOwner marks a Source value that owns (rather than views) its
	// SrcFile and Environment.
	SourceOwner
)

// Origin records where a Value was created, for diagnostics.
type Origin struct {
	SrcId uint64
	Idx   uint64
}

// Value is one runtime June object: a closed tagged union over Kind, a
// refcount, info flags, and an optional attribute map.
type Value struct {
	Kind   Kind
	Origin Origin
	Flags  Flag

	refcount uint64

	BoolVal  bool
	IntVal   int64
	FloatVal float64
	StrVal   string

	VecVal  []*Value
	FuncVal *Func
	SrcVal  *SourceVal
	TypeVal uint64 // type-id handle for KindTypeId
	AnyVal  *Value // dynamic inner value for KindAny
	AnyType uint64 // dynamic inner type-id for KindAny

	// typeFnId, when non-zero, is the type-id this value's methods
	// dispatch through — distinct from Kind for values that share one
	// method table across several source types (spec.md §4.2).
	typeFnId uint64

	attrs map[string]*Value
}

// Func is a callable value: either a native host function or a bytecode
// body span, per spec.md §3.
type Func struct {
	Native   NativeFn
	SrcId    uint64
	Begin    uint64
	End      uint64
	Params   []string
	Variadic string // empty if none
}

// NativeFn is the Host-function ABI from spec.md §6: native_fn(state,
// call_data) -> Option<Value>. Declared here as a function type rather than
// an interface so native functions can be ordinary Go closures; the state
// parameter is typed any to avoid an import cycle with pkg/vm, which is the
// only caller that knows the concrete *vm.State type.
type NativeFn func(state any, call *CallData) (*Value, bool)

// CallData mirrors the ABI's call_data record (spec.md §6).
type CallData struct {
	SrcId      uint64
	Idx        uint64
	Args       []*Value
	AssnArgs   []*Value
	AssnArgsMap map[string]*Value
}

// SourceVal backs a KindSource value: a reference to a loaded module's file
// and environment, with an ownership flag (spec.md §3/§4.2).
type SourceVal struct {
	FileId uint64
	Env    any // *env.Environment; typed any to avoid an import cycle
}

// New constructs a Value of the given kind at the given origin, with a
// refcount of 1 as spec.md §3 requires.
func New(kind Kind, srcId, idx uint64) *Value {
	return &Value{Kind: kind, Origin: Origin{SrcId: srcId, Idx: idx}, refcount: 1, typeFnId: uint64(kind)}
}

// NilValue, TrueValue, FalseValue build the State's singleton-style
// literals; callers needing the actual shared singletons should go through
// State rather than constructing fresh ones per spec.md §4.9.
func NilValue(srcId, idx uint64) *Value { return New(KindNil, srcId, idx) }

func BoolValue(b bool, srcId, idx uint64) *Value {
	v := New(KindBool, srcId, idx)
	v.BoolVal = b
	return v
}

func IntValue(n int64, srcId, idx uint64) *Value {
	v := New(KindInt, srcId, idx)
	v.IntVal = n
	return v
}

func FloatValue(f float64, srcId, idx uint64) *Value {
	v := New(KindFloat, srcId, idx)
	v.FloatVal = f
	return v
}

func StringValue(s string, srcId, idx uint64) *Value {
	v := New(KindString, srcId, idx)
	v.StrVal = s
	return v
}

func VecValue(elems []*Value, refs bool, srcId, idx uint64) *Value {
	v := New(KindVec, srcId, idx)
	v.VecVal = elems
	if refs {
		v.Flags |= VecRefs
	}
	return v
}

func FuncValue(f *Func, srcId, idx uint64) *Value {
	v := New(KindFunc, srcId, idx)
	v.FuncVal = f
	v.Flags |= Callable
	return v
}

func TypeIdValue(typeId uint64, srcId, idx uint64) *Value {
	v := New(KindTypeId, srcId, idx)
	v.TypeVal = typeId
	return v
}

// SourceValue wraps a loaded module's file id and environment. owner marks
// the value constructed by the loader itself, which is the one pushed onto
// State.SourceStack and released at teardown; clones handed to importers
// are non-owning views (spec.md §3/§9).
func SourceValue(fileId uint64, env any, owner bool, srcId, idx uint64) *Value {
	v := New(KindSource, srcId, idx)
	v.SrcVal = &SourceVal{FileId: fileId, Env: env}
	if owner {
		v.Flags |= SourceOwner
	}
	return v
}

// Refcount returns the current reference count.
func (v *Value) Refcount() uint64 { return v.refcount }

// TypeFnId returns the type-id this value's methods dispatch through.
func (v *Value) TypeFnId() uint64 { return v.typeFnId }

// SetTypeFnId overrides the dispatch type-id, used when a value shares a
// method table with another source type (spec.md §4.2).
func (v *Value) SetTypeFnId(id uint64) { v.typeFnId = id }

// Iref increments the refcount. Every Iref must be matched by a Deref
// (spec.md §8).
func (v *Value) Iref() *Value {
	v.refcount++
	return v
}

// Deref decrements the refcount and reports whether it reached zero. On
// reaching zero, children reachable through Vec elements or attributes are
// derefed in turn; Go's GC reclaims the backing memory once nothing else
// references it, but the refcount bookkeeping itself must still balance for
// the engine's accounting invariants (spec.md §8) to hold.
func (v *Value) Deref() bool {
	if v.refcount == 0 {
		return true
	}
	v.refcount--
	if v.refcount > 0 {
		return false
	}
	v.destroy()
	return true
}

func (v *Value) destroy() {
	if v.Kind == KindVec {
		for _, e := range v.VecVal {
			if e != nil {
				e.Deref()
			}
		}
	}
	for _, a := range v.attrs {
		a.Deref()
	}
}

// Clone produces a new Value at the given origin per the per-variant clone
// contracts in spec.md §4.2.
func (v *Value) Clone(srcId, idx uint64) *Value {
	switch v.Kind {
	case KindVec:
		if v.Flags&VecRefs != 0 {
			elems := make([]*Value, len(v.VecVal))
			for i, e := range v.VecVal {
				elems[i] = e.Iref()
			}
			out := VecValue(elems, true, srcId, idx)
			return out
		}
		elems := make([]*Value, len(v.VecVal))
		for i, e := range v.VecVal {
			elems[i] = e.Clone(srcId, idx)
		}
		return VecValue(elems, false, srcId, idx)
	case KindSource:
		out := New(KindSource, srcId, idx)
		out.SrcVal = v.SrcVal // shares file+env; non-owning view
		out.Flags = v.Flags &^ SourceOwner
		return out
	case KindFunc:
		// Func bodies are immutable and shared (spec.md §3); cloning
		// returns a new Value pointing at the same Func.
		out := FuncValue(v.FuncVal, srcId, idx)
		return out
	default:
		out := New(v.Kind, srcId, idx)
		out.Flags = v.Flags
		out.typeFnId = v.typeFnId
		out.BoolVal = v.BoolVal
		out.IntVal = v.IntVal
		out.FloatVal = v.FloatVal
		out.StrVal = v.StrVal
		out.TypeVal = v.TypeVal
		if v.AnyVal != nil {
			out.AnyVal = v.AnyVal.Clone(srcId, idx)
			out.AnyType = v.AnyType
		}
		return out
	}
}

// Set performs a type-aware overwrite of v's payload from other. Replacing
// like-typed data keeps v's identity (refcount, attrs) intact. Set does not
// overwrite across variants: when other's Kind differs from v's, it returns
// an error and leaves v unchanged.
func (v *Value) Set(other *Value) error {
	if v.Kind != other.Kind {
		return fmt.Errorf("cannot store %s into %s", other.Kind, v.Kind)
	}
	switch v.Kind {
	case KindBool:
		v.BoolVal = other.BoolVal
	case KindInt:
		v.IntVal = other.IntVal
	case KindFloat:
		v.FloatVal = other.FloatVal
	case KindString:
		v.StrVal = other.StrVal
	case KindVec:
		for _, e := range v.VecVal {
			e.Deref()
		}
		v.VecVal = other.VecVal
		v.Flags = (v.Flags &^ VecRefs) | (other.Flags & VecRefs)
	case KindFunc:
		v.FuncVal = other.FuncVal
	case KindSource:
		v.SrcVal = other.SrcVal
	case KindTypeId:
		v.TypeVal = other.TypeVal
	case KindAny:
		v.AnyVal = other.AnyVal
		v.AnyType = other.AnyType
	}
	return nil
}

// Equal reports per-variant value equality, used by the round-trip law
// clone(v).set(v) == v (spec.md §8).
func (v *Value) Equal(other *Value) bool {
	if other == nil || v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.BoolVal == other.BoolVal
	case KindInt:
		return v.IntVal == other.IntVal
	case KindFloat:
		return v.FloatVal == other.FloatVal
	case KindString:
		return v.StrVal == other.StrVal
	case KindVec:
		if len(v.VecVal) != len(other.VecVal) {
			return false
		}
		for i := range v.VecVal {
			if !v.VecVal[i].Equal(other.VecVal[i]) {
				return false
			}
		}
		return true
	case KindFunc:
		return v.FuncVal == other.FuncVal
	case KindSource:
		return v.SrcVal == other.SrcVal
	case KindTypeId:
		return v.TypeVal == other.TypeVal
	default:
		return v == other
	}
}
