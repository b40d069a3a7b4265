package env

import (
	"testing"

	"github.com/kristofer/june/pkg/vars"
	"github.com/stretchr/testify/require"
)

func TestAddGetInnermostFrame(t *testing.T) {
	e := New()
	e.Add("x", vars.IntValue(1, 1, 0), false)
	v, ok := e.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.IntVal)
}

func TestAddOverwriteDerefsPrevious(t *testing.T) {
	e := New()
	first := vars.IntValue(1, 1, 0)
	e.Add("x", first, false)
	e.Add("x", vars.IntValue(2, 1, 0), false)
	require.Equal(t, uint64(0), first.Refcount())
}

func TestGetFallsThroughToZeroFrame(t *testing.T) {
	e := New()
	e.AddZero("g", vars.IntValue(9, 1, 0), false)
	v, ok := e.Get("g")
	require.True(t, ok)
	require.Equal(t, int64(9), v.IntVal)
}

func TestIncTopDecTopNesting(t *testing.T) {
	e := New()
	e.Add("outer", vars.IntValue(1, 1, 0), false)
	e.IncTop(1)
	e.Add("inner", vars.IntValue(2, 1, 0), false)

	_, ok := e.Get("inner")
	require.True(t, ok)
	_, ok = e.Get("outer")
	require.True(t, ok)

	e.DecTop(1)
	_, ok = e.Get("inner")
	require.False(t, ok)
	_, ok = e.Get("outer")
	require.True(t, ok)
}

func TestStashCommittedOnIncTop(t *testing.T) {
	e := New()
	e.Stash("arg", vars.IntValue(7, 1, 0))
	e.IncTop(1)
	v, ok := e.Get("arg")
	require.True(t, ok)
	require.Equal(t, int64(7), v.IntVal)
}

func TestUnstashDropsQueuedBindings(t *testing.T) {
	e := New()
	queued := vars.IntValue(7, 1, 0)
	e.Stash("arg", queued)
	e.Unstash()
	e.IncTop(1)
	_, ok := e.Get("arg")
	require.False(t, ok)
	require.Equal(t, uint64(0), queued.Refcount())
}

func TestPushLoopPopLoopUnwindsToMark(t *testing.T) {
	e := New()
	e.PushLoop()
	e.IncTop(2)
	require.Equal(t, 4, e.Depth()) // base(1) + loop(1) + 2
	e.PopLoop()
	require.Equal(t, 2, e.Depth()) // back to the mark: base(1) + loop(1)
}

func TestLoopContinueKeepsMark(t *testing.T) {
	e := New()
	e.PushLoop()
	e.IncTop(1)
	e.LoopContinue()
	require.Equal(t, 2, e.Depth())
	e.PopLoop()
	require.Equal(t, 2, e.Depth())
}

func TestPushFnPopFnIsolatesScopes(t *testing.T) {
	e := New()
	e.Add("x", vars.IntValue(1, 1, 0), false)
	e.PushFn()
	_, ok := e.Get("x")
	require.False(t, ok)
	e.Add("y", vars.IntValue(2, 1, 0), false)
	e.PopFn()
	_, ok = e.Get("y")
	require.False(t, ok)
	v, ok := e.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.IntVal)
}

func TestRemoveDeletesFromInnermostFrame(t *testing.T) {
	e := New()
	v := vars.IntValue(1, 1, 0)
	e.Add("x", v, false)
	require.True(t, e.Remove("x", true))
	_, ok := e.Get("x")
	require.False(t, ok)
	require.Equal(t, uint64(0), v.Refcount())
}
