package vars

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stubInvoker is a minimal Invoker used to exercise the toString/toBool/call
// resolution policies without pulling in the real executor.
type stubInvoker struct {
	table   *TypeFnTable
	results map[*Func]*Value
}

func (s *stubInvoker) Invoke(fn *Func, self *Value, args []*Value) (*Value, error) {
	return s.results[fn], nil
}

func (s *stubInvoker) Resolve(typeId uint64, name string) (*Func, bool) {
	return s.table.Lookup(typeId, name)
}

func TestToStringOnStringReturnsItself(t *testing.T) {
	v := StringValue("hi", 1, 0)
	s, err := v.ToString(&stubInvoker{table: NewTypeFnTable()})
	require.NoError(t, err)
	require.Equal(t, "hi", s)
}

func TestToStringResolvesToStrViaTypeFnTable(t *testing.T) {
	fn := &Func{}
	table := NewTypeFnTable()
	table.Register(uint64(KindInt), "toStr", fn)
	inv := &stubInvoker{table: table, results: map[*Func]*Value{fn: StringValue("5", 1, 0)}}

	v := IntValue(5, 1, 0)
	s, err := v.ToString(inv)
	require.NoError(t, err)
	require.Equal(t, "5", s)
}

func TestToStringMissingMethodErrors(t *testing.T) {
	v := IntValue(5, 1, 0)
	_, err := v.ToString(&stubInvoker{table: NewTypeFnTable()})
	require.Error(t, err)
}

func TestCallOnCallableInvokesDirectly(t *testing.T) {
	fn := &Func{}
	want := IntValue(42, 1, 0)
	v := FuncValue(fn, 1, 0)
	inv := &stubInvoker{table: NewTypeFnTable(), results: map[*Func]*Value{fn: want}}

	got, err := v.Call(inv, nil)
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestCallOnNonCallableResolvesApply(t *testing.T) {
	fn := &Func{}
	table := NewTypeFnTable()
	table.Register(uint64(KindInt), "apply", fn)
	want := IntValue(1, 1, 0)
	inv := &stubInvoker{table: table, results: map[*Func]*Value{fn: want}}

	v := IntValue(5, 1, 0)
	got, err := v.Call(inv, nil)
	require.NoError(t, err)
	require.Same(t, want, got)
}
