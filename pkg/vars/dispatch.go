package vars

import "fmt"

// Invoker abstracts "run this Func with these arguments and give me back a
// result", implemented by the executor (pkg/vm). Value cannot call a Func
// directly — invocation means running bytecode or a native callback, both
// of which require the executor's machinery — so the resolution policies
// below (ToString, ToBool, Call) take an Invoker rather than reaching into
// pkg/vm themselves, avoiding an import cycle.
type Invoker interface {
	Invoke(fn *Func, self *Value, args []*Value) (*Value, error)
	Resolve(typeId uint64, name string) (*Func, bool)
}

// ToString implements the toString policy from spec.md §4.2: a String
// value returns itself; otherwise "toStr" is resolved via attribute lookup
// (if attribute-bearing) then the type-function table, called, and its
// result asserted to be a string.
func (v *Value) ToString(inv Invoker) (string, error) {
	if v.Kind == KindString {
		return v.StrVal, nil
	}
	fn, self, err := resolveMethod(v, inv, "toStr")
	if err != nil {
		return "", err
	}
	result, err := inv.Invoke(fn, self, nil)
	if err != nil {
		return "", err
	}
	if result == nil || result.Kind != KindString {
		return "", fmt.Errorf("toStr on %s did not return a string", v.Kind)
	}
	return result.StrVal, nil
}

// ToBool implements the toBool policy: same resolution shape as ToString,
// against "toBool", asserting a Bool result.
func (v *Value) ToBool(inv Invoker) (bool, error) {
	if v.Kind == KindBool {
		return v.BoolVal, nil
	}
	fn, self, err := resolveMethod(v, inv, "toBool")
	if err != nil {
		return false, err
	}
	result, err := inv.Invoke(fn, self, nil)
	if err != nil {
		return false, err
	}
	if result == nil || result.Kind != KindBool {
		return false, fmt.Errorf("toBool on %s did not return a bool", v.Kind)
	}
	return result.BoolVal, nil
}

// Call implements the call policy: if v is itself Callable, it is invoked
// directly; otherwise a method named "apply" is resolved and invoked with v
// as self (spec.md §4.2).
func (v *Value) Call(inv Invoker, args []*Value) (*Value, error) {
	if v.Kind == KindFunc && v.Flags&Callable != 0 {
		return inv.Invoke(v.FuncVal, nil, args)
	}
	fn, self, err := resolveMethod(v, inv, "apply")
	if err != nil {
		return nil, err
	}
	return inv.Invoke(fn, self, args)
}

func resolveMethod(v *Value, inv Invoker, name string) (*Func, *Value, error) {
	if v.Flags&AttrBased != 0 {
		if attr, ok := v.attrs[name]; ok && attr.Kind == KindFunc {
			return attr.FuncVal, v, nil
		}
	}
	if fn, ok := inv.Resolve(v.typeFnId, name); ok {
		return fn, v, nil
	}
	return nil, nil, fmt.Errorf("no method %q on %s", name, v.Kind)
}
