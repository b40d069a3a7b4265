// Package loader resolves logical June and native module names to files on
// disk and links them into a running State (spec.md §4.6). Compiling source
// text into bytecode is out of scope here — the loader calls back into a
// caller-supplied Compile function, exactly as the original engine treats
// its compiler as an external collaborator invoked through a function
// pointer.
package loader

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kristofer/june/pkg/vmerr"
)

// CompileFunc compiles June source text into encoded bytecode: the bytes
// bytecode.Encode writes, without the JUNE magic, which the caller
// (vm.Executor.LoadJuneModule) prepends before decoding. Supplied by the
// front end; the loader never parses June source itself (spec.md §1).
type CompileFunc func(path string, text []byte) ([]byte, error)

// Resolver implements the module search-path rules of spec.md §4.6.
type Resolver struct {
	SelfBase   string // directory containing the running executable
	WorkingDir string
	Home       string // value of $HOME, for ~ expansion
}

// NewResolver builds a Resolver from the current process's environment.
func NewResolver(selfBase string) *Resolver {
	wd, _ := os.Getwd()
	return &Resolver{SelfBase: selfBase, WorkingDir: wd, Home: os.Getenv("HOME")}
}

// nativeExt returns this platform's native-module extension (spec.md §4.6).
func nativeExt() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

// Resolve maps a logical module reference to a candidate absolute path, in
// the June form, or in the native form when native is true.
//
// currentDir is the importing source's directory, used to resolve "."
// relative imports.
func (r *Resolver) Resolve(module, currentDir string, native bool) (string, error) {
	if strings.HasPrefix(module, "~") {
		expanded := r.Home + strings.TrimPrefix(module, "~")
		return r.resolveLiteralPath(expanded, native)
	}
	if filepath.IsAbs(module) {
		return r.resolveLiteralPath(module, native)
	}
	if module == "." || strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../") {
		return r.resolveLiteralPath(filepath.Join(currentDir, module), native)
	}
	return r.resolveDotted(module, native)
}

func (r *Resolver) resolveDotted(module string, native bool) (string, error) {
	parts := strings.Split(module, ".")
	if len(parts) == 0 {
		return "", vmerr.FileIo("empty module reference")
	}
	if parts[0] == "Standard" {
		parts = append([]string{"June", "Standard"}, parts[1:]...)
	}

	roots := r.searchRoots(native)
	tail := filepath.Join(parts...)
	ext := ".june"
	if native {
		ext = nativeExt()
	}

	for _, root := range roots {
		if path, ok := r.findInDir(root, tail, ext, native, parts[len(parts)-1]); ok {
			return path, nil
		}
	}
	return "", vmerr.FileIo("module %q not found in any search root", module)
}

func (r *Resolver) searchRoots(native bool) []string {
	sub := "junelib"
	if native {
		sub = "lib"
	}
	return []string{
		filepath.Join(r.SelfBase, sub),
		r.WorkingDir,
	}
}

// findInDir looks for tail (with ext, or compiled ext for June) under root,
// falling back to a directory-with-same-named-file resolution.
func (r *Resolver) findInDir(root, tail, ext string, native bool, leaf string) (string, bool) {
	candidates := []string{filepath.Join(root, tail+ext)}
	if !native {
		candidates = append(candidates, filepath.Join(root, tail+".junec"))
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, true
		}
	}
	dir := filepath.Join(root, tail)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		name := leaf + ext
		if native {
			name = "libJune" + leaf + ext
		}
		inner := filepath.Join(dir, name)
		if fileExists(inner) {
			return inner, true
		}
	}
	return "", false
}

func (r *Resolver) resolveLiteralPath(path string, native bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		// try with the platform extension appended
		ext := ".june"
		if native {
			ext = nativeExt()
		}
		if fileExists(path + ext) {
			return path + ext, nil
		}
		return "", vmerr.FileIo("module path %q: %v", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	name := filepath.Base(path)
	ext := ".june"
	if native {
		ext = nativeExt()
		name = "libJune" + name
	}
	inner := filepath.Join(path, name+ext)
	if fileExists(inner) {
		return inner, nil
	}
	return "", vmerr.FileIo("module directory %q has no matching file", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// NativeLibNames returns the two candidate native library basenames for a
// logical module component, tried in order (spec.md §4.6: "trying
// libJune<name> and then lib<name>").
func NativeLibNames(name string) []string {
	ext := nativeExt()
	return []string{"libJune" + name + ext, "lib" + name + ext}
}
