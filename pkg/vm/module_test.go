package vm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/kristofer/june/pkg/vars"
	"github.com/stretchr/testify/require"
)

// writeModuleFile builds a tiny compiled module on disk: a Load/Load/Create
// sequence that binds loaded = 1 in the module's own environment, which the
// test reads back through the returned Source value (spec.md §8 scenario 4).
func writeModuleFile(t *testing.T, dir, name string) string {
	t.Helper()
	bc := bytecode.New()
	markerName := bc.Data.Insert(bytecode.StringDatum("loaded"))
	one := bc.Data.Insert(bytecode.IntDatum(1))
	hasContext := bc.Data.Insert(bytecode.BoolDatum(false))
	bc.Append(0, bytecode.OpLoad, markerName)
	bc.Append(0, bytecode.OpLoad, one)
	bc.Append(0, bytecode.OpCreate, hasContext)

	var buf bytes.Buffer
	require.NoError(t, bytecode.Encode(&buf, bc))
	full := append([]byte{'J', 'U', 'N', 'E'}, buf.Bytes()...)

	path := filepath.Join(dir, name+".june")
	require.NoError(t, os.WriteFile(path, full, 0o644))
	return path
}

func TestLoadJuneModuleRunsTopLevelOnce(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "counter")

	s := New(filepath.Join(dir, "june"), nil)
	s.Resolver.WorkingDir = dir
	ex := NewExecutor(s)

	source, err := ex.LoadJuneModule("./counter", dir, nil)
	require.NoError(t, err)
	require.Equal(t, vars.KindSource, source.Kind)
	require.Len(t, s.AllSrcs, 1)

	loaded, ok := source.AttrGet("loaded")
	require.True(t, ok, "the module's top-level binding must be reachable through the Source's environment")
	require.Equal(t, int64(1), loaded.IntVal)

	again, err := ex.LoadJuneModule("./counter", dir, nil)
	require.NoError(t, err)
	require.Len(t, s.AllSrcs, 1, "reimporting the same module must not add a second entry")
	require.Len(t, s.Envs, 1, "a second run of the module's top level would create a second environment")

	loadedAgain, ok := again.AttrGet("loaded")
	require.True(t, ok)
	require.Equal(t, int64(1), loadedAgain.IntVal, "top-level side effects run exactly once, not once per import")
}

func TestLoadJuneModuleMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "june"), nil)
	s.Resolver.WorkingDir = dir
	ex := NewExecutor(s)

	_, err := ex.LoadJuneModule("./nope", dir, nil)
	require.Error(t, err)
}
