package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDottedFindsFileUnderJunelib(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "junelib", "A", "B")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	file := filepath.Join(dir, "C.june")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := &Resolver{SelfBase: base, WorkingDir: base, Home: "/nonexistent"}
	got, err := r.Resolve("A.B.C", base, false)
	require.NoError(t, err)
	require.Equal(t, file, got)
}

func TestResolveStandardAliasesToJuneStandard(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "junelib", "June", "Standard")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	file := filepath.Join(dir, "Io.june")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := &Resolver{SelfBase: base, WorkingDir: base, Home: "/nonexistent"}
	got, err := r.Resolve("Standard.Io", base, false)
	require.NoError(t, err)
	require.Equal(t, file, got)
}

func TestResolveMissingModuleErrors(t *testing.T) {
	base := t.TempDir()
	r := &Resolver{SelfBase: base, WorkingDir: base, Home: "/nonexistent"}
	_, err := r.Resolve("Nope.Missing", base, false)
	require.Error(t, err)
}

func TestResolveRelativeDotImport(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "sibling.june")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := &Resolver{SelfBase: base, WorkingDir: base, Home: "/nonexistent"}
	got, err := r.Resolve("./sibling.june", base, false)
	require.NoError(t, err)
	require.Equal(t, file, got)
}

func TestLoadCoreConfigMissingFileIsSilent(t *testing.T) {
	base := t.TempDir()
	cfg, err := LoadCoreConfig(base)
	require.NoError(t, err)
	require.Empty(t, cfg.CoreModules)
}

func TestLoadCoreConfigParsesModulesArray(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "core.json"), []byte(`{"coreModules":["June.Core","June.Standard.Io"]}`), 0o644))
	cfg, err := LoadCoreConfig(base)
	require.NoError(t, err)
	require.Equal(t, []string{"June.Core", "June.Standard.Io"}, cfg.CoreModules)
}

func TestLoadCoreConfigEmptyFileIsSilent(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "core.json"), nil, 0o644))
	cfg, err := LoadCoreConfig(base)
	require.NoError(t, err)
	require.Empty(t, cfg.CoreModules)
}
