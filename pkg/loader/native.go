package loader

/*
#include <stdint.h>
#include <stdbool.h>

typedef bool (*june_init_fn)(void *state, uint64_t srcId, uint64_t idx);
typedef void (*june_deinit_fn)(void);

static bool call_june_init(void *fn, void *state, uint64_t srcId, uint64_t idx) {
	return ((june_init_fn)fn)(state, srcId, idx);
}

static void call_june_deinit(void *fn) {
	((june_deinit_fn)fn)();
}
*/
import "C"

import (
	"unsafe"

	"github.com/kristofer/june/pkg/dylib"
	"github.com/kristofer/june/pkg/vmerr"
)

// DeinitFn is a linked native module's teardown callback, invoked once at
// VM teardown (spec.md §4.5/§4.6).
type DeinitFn func()

// LoadNative opens path, resolves and invokes its june_init(state, srcId,
// idx) -> bool entry point, and returns a DeinitFn if the module exports
// june_deinit. statePtr is an unsafe.Pointer to the owning *vm.State,
// passed opaquely across the native ABI boundary exactly as the original
// engine passes its State& by reference.
func LoadNative(mgr *dylib.Manager, path string, statePtr unsafe.Pointer, srcId, idx uint64) (DeinitFn, error) {
	ok, err := mgr.Load(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmerr.FileIo("native module %q failed to open", path)
	}

	initSym, ok := mgr.Get(path, "june_init")
	if !ok {
		mgr.Unload(path)
		return nil, vmerr.FileIo("native module %q has no june_init symbol", path)
	}

	success := bool(C.call_june_init(initSym, statePtr, C.uint64_t(srcId), C.uint64_t(idx)))
	if !success {
		mgr.Unload(path)
		return nil, vmerr.FileIo("native module %q: june_init returned false", path)
	}

	var deinit DeinitFn
	if deinitSym, ok := mgr.Get(path, "june_deinit"); ok {
		deinit = func() { C.call_june_deinit(deinitSym) }
	}
	return deinit, nil
}
