package corelib

import (
	"testing"

	"github.com/kristofer/june/pkg/vars"
	"github.com/kristofer/june/pkg/vm"
	"github.com/stretchr/testify/require"
)

func TestInitRegistersArithmeticAndToStr(t *testing.T) {
	s := vm.New(t.TempDir()+"/june", nil)
	require.True(t, Init(s, 1, 0))

	plus, ok := s.Globals["+"]
	require.True(t, ok)
	require.Equal(t, vars.KindFunc, plus.Kind)

	result, ok := plus.FuncVal.Native(s, &vars.CallData{Args: []*vars.Value{
		vars.IntValue(2, 1, 0), vars.IntValue(3, 1, 0),
	}})
	require.True(t, ok)
	require.Equal(t, int64(5), result.IntVal)

	toStr, ok := s.TypeFns.Lookup(uint64(vars.KindInt), "toStr")
	require.True(t, ok)
	result, ok = toStr.Native(s, &vars.CallData{Args: []*vars.Value{vars.IntValue(42, 1, 0)}})
	require.True(t, ok)
	require.Equal(t, "42", result.StrVal)
}

func TestRaiseSetsPendingRaise(t *testing.T) {
	s := vm.New(t.TempDir()+"/june", nil)
	require.True(t, Init(s, 1, 0))

	raise, ok := s.Globals["raise"]
	require.True(t, ok)

	_, ok = raise.FuncVal.Native(s, &vars.CallData{Args: []*vars.Value{vars.StringValue("boom", 1, 0)}})
	require.False(t, ok)
	require.NotNil(t, s.PendingRaise)
	require.Equal(t, "boom", s.PendingRaise.StrVal)
}
