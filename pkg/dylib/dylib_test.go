//go:build linux

package dylib

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// These tests exercise the manager against the C library itself, present on
// every Linux host, rather than building a throwaway native extension.

func TestLoadIsIdempotent(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("dlopen semantics tested on linux only")
	}
	m := New()
	defer m.Close()

	ok, err := m.Load("libc.so.6")
	require.NoError(t, err)
	require.True(t, ok)

	tag1, _ := m.Tag("libc.so.6")
	ok, err = m.Load("libc.so.6")
	require.NoError(t, err)
	require.True(t, ok)
	tag2, _ := m.Tag("libc.so.6")
	require.Equal(t, tag1, tag2, "repeated load must not replace the handle")
}

func TestGetResolvesKnownSymbol(t *testing.T) {
	m := New()
	defer m.Close()

	_, err := m.Load("libc.so.6")
	require.NoError(t, err)

	_, ok := m.Get("libc.so.6", "malloc")
	require.True(t, ok)

	_, ok = m.Get("libc.so.6", "not_a_real_symbol_xyz")
	require.False(t, ok)
}

func TestUnloadForgetsHandle(t *testing.T) {
	m := New()
	_, err := m.Load("libc.so.6")
	require.NoError(t, err)
	require.True(t, m.Exists("libc.so.6"))

	m.Unload("libc.so.6")
	require.False(t, m.Exists("libc.so.6"))
}

func TestLoadMissingLibraryErrors(t *testing.T) {
	m := New()
	defer m.Close()
	_, err := m.Load("libNoSuchJuneNativeModule.so")
	require.Error(t, err)
}
