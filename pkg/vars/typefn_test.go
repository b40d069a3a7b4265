package vars

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeFnTableFallsBackToAll(t *testing.T) {
	table := NewTypeFnTable()
	table.RegisterAll("toStr", &Func{})
	fn, ok := table.Lookup(uint64(KindInt), "toStr")
	require.True(t, ok)
	require.NotNil(t, fn)
}

func TestTypeFnTablePrefersOwnType(t *testing.T) {
	table := NewTypeFnTable()
	generic := &Func{}
	specific := &Func{}
	table.RegisterAll("toStr", generic)
	table.Register(uint64(KindInt), "toStr", specific)

	fn, ok := table.Lookup(uint64(KindInt), "toStr")
	require.True(t, ok)
	require.Same(t, specific, fn)

	fn, ok = table.Lookup(uint64(KindString), "toStr")
	require.True(t, ok)
	require.Same(t, generic, fn)
}

func TestTypeFnTableMissReturnsFalse(t *testing.T) {
	table := NewTypeFnTable()
	_, ok := table.Lookup(uint64(KindInt), "nope")
	require.False(t, ok)
}

func TestNamesSortedDeterministically(t *testing.T) {
	table := NewTypeFnTable()
	table.Register(uint64(KindInt), "z", &Func{})
	table.Register(uint64(KindInt), "a", &Func{})
	require.Equal(t, []string{"a", "z"}, table.Names(uint64(KindInt)))
}
