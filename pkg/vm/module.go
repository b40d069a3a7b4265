package vm

import (
	"os"
	"path/filepath"

	"github.com/kristofer/june/pkg/env"
	"github.com/kristofer/june/pkg/loader"
	"github.com/kristofer/june/pkg/srcfile"
	"github.com/kristofer/june/pkg/vars"
	"github.com/kristofer/june/pkg/vmerr"
)

// LoadJuneModule resolves, loads, and runs a logical June module's top-level
// bytecode, returning a non-owning Source value the caller can bind a name
// to (spec.md §4.6) — the module's own attributes are exposed through its
// Environment (spec.md §3/§4.2 "Source exposes everything in its
// environment"), which is how the dotted `A.B.C` member-access pattern
// reaches a loaded module's top-level bindings.
//
// Reloading an already-loaded module (by resolved absolute path) is a no-op
// that returns a fresh clone of the same owning Source — scenario 4's
// import idempotence: a module's top-level side effects run exactly once
// per process no matter how many importers reference it.
func (ex *Executor) LoadJuneModule(module, currentDir string, compile loader.CompileFunc) (*vars.Value, error) {
	s := ex.State

	path, err := s.Resolver.Resolve(module, currentDir, false)
	if err != nil {
		return nil, vmerr.FileIo("import %q: %v", module, err)
	}
	if owner, ok := s.Sources[path]; ok {
		return owner.Clone(owner.Origin.SrcId, 0), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, vmerr.FileIo("import %q: %v", module, err)
	}
	if len(raw) >= 4 && raw[0] == 'J' && raw[1] == 'U' && raw[2] == 'N' && raw[3] == 'E' {
		// already compiled; fall through to srcfile.Load below
	} else if compile != nil {
		compiled, err := compile(path, raw)
		if err != nil {
			return nil, vmerr.FileIo("import %q: compile failed: %v", module, err)
		}
		raw = append([]byte{'J', 'U', 'N', 'E'}, compiled...)
	} else {
		return nil, vmerr.FileIo("import %q: %s is source text and no compiler is configured", module, path)
	}

	srcId := s.NextSrcId()
	sf, err := srcfile.Load(srcId, filepath.Dir(path), path, raw, false)
	if err != nil {
		return nil, err
	}
	s.AllSrcs[path] = sf

	sourceEnv := env.New()
	s.Envs[srcId] = sourceEnv

	owner := vars.SourceValue(srcId, sourceEnv, true, srcId, 0)
	s.SourceStack = append(s.SourceStack, sf)
	defer func() {
		s.SourceStack = s.SourceStack[:len(s.SourceStack)-1]
	}()

	if sf.Bytecode == nil {
		return nil, vmerr.FileIo("import %q: %s carries no bytecode after compile", module, path)
	}

	if _, err := ex.Exec(srcId, sf.Bytecode, 0, 0); err != nil {
		return nil, vmerr.Exec(srcId, 0, "import %q: %v", module, err)
	}

	s.Sources[path] = owner
	return owner.Clone(srcId, 0), nil
}

// LoadNativeModule resolves a native (.so/.dylib/.dll) module by logical
// name, dlopen's it, invokes its june_init, and records its june_deinit for
// teardown (spec.md §4.6).
func (ex *Executor) LoadNativeModule(module, currentDir string) error {
	s := ex.State

	path, err := s.Resolver.Resolve(module, currentDir, true)
	if err != nil {
		return vmerr.FileIo("load native module %q: %v", module, err)
	}
	if s.Dylib.Exists(path) {
		return nil
	}

	srcId := s.NextSrcId()
	deinit, err := loader.LoadNative(s.Dylib, path, nil, srcId, 0)
	if err != nil {
		return vmerr.FileIo("load native module %q: %v", module, err)
	}
	s.RegisterDeinit(deinit)
	return nil
}
