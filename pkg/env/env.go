// Package env implements June's per-source variable environment: a stack of
// per-call "function-variable stacks", each a stack of lexical-scope frames,
// plus loop marks and the stash-on-entry mechanism for binding call
// arguments before a function's first block exists (spec.md §3/§4.7).
package env

import "github.com/kristofer/june/pkg/vars"

// Frame is one lexical scope: a name→value map.
type Frame map[string]*vars.Value

// funcEnv is one active call's variable stack: a vector of frames (the top
// is the innermost lexical scope) plus the loop marks recorded within it.
type funcEnv struct {
	frames    []Frame
	loopMarks []int
}

func newFuncEnv() *funcEnv {
	return &funcEnv{frames: []Frame{make(Frame)}}
}

// Environment is the full per-source variable environment: a chain of
// per-function environments stacked by PushFn/PopFn, plus a module-level
// "zero" frame visible to every nested frame when Get misses everywhere
// else (spec.md §4.7).
type Environment struct {
	funcs []*funcEnv
	zero  Frame
	stash Frame
}

// New constructs an environment with one function-variable stack and an
// empty zero frame, matching a freshly loaded source.
func New() *Environment {
	e := &Environment{zero: make(Frame), stash: make(Frame)}
	e.funcs = append(e.funcs, newFuncEnv())
	return e
}

// PushFn begins a new call's variable stack.
func (e *Environment) PushFn() {
	e.funcs = append(e.funcs, newFuncEnv())
}

// PopFn ends the current call's variable stack, dereferencing every value
// left in its frames.
func (e *Environment) PopFn() {
	if len(e.funcs) == 0 {
		return
	}
	top := e.funcs[len(e.funcs)-1]
	for _, f := range top.frames {
		derefFrame(f)
	}
	e.funcs = e.funcs[:len(e.funcs)-1]
}

func (e *Environment) current() *funcEnv {
	return e.funcs[len(e.funcs)-1]
}

// Add writes name into the innermost frame of the current call. If the name
// already exists there, the previous binding is dereferenced first
// (spec.md §4.7). If iref is true, value's refcount is incremented before
// binding (the caller retains its own reference).
func (e *Environment) Add(name string, value *vars.Value, iref bool) {
	frames := e.current().frames
	innermost := frames[len(frames)-1]
	if old, ok := innermost[name]; ok {
		old.Deref()
	}
	if iref {
		value.Iref()
	}
	innermost[name] = value
}

// Get walks frames innermost-to-outermost within the current call, then
// falls through to the module-level zero frame.
func (e *Environment) Get(name string) (*vars.Value, bool) {
	frames := e.current().frames
	for i := len(frames) - 1; i >= 0; i-- {
		if v, ok := frames[i][name]; ok {
			return v, true
		}
	}
	if v, ok := e.zero[name]; ok {
		return v, true
	}
	return nil, false
}

// AddZero binds name at module scope (the zero frame), visible to every
// nested call.
func (e *Environment) AddZero(name string, value *vars.Value, iref bool) {
	if old, ok := e.zero[name]; ok {
		old.Deref()
	}
	if iref {
		value.Iref()
	}
	e.zero[name] = value
}

// Remove deletes name from the innermost frame of the current call that
// contains it. If dref is true, the removed value is dereferenced.
func (e *Environment) Remove(name string, dref bool) bool {
	frames := e.current().frames
	for i := len(frames) - 1; i >= 0; i-- {
		if v, ok := frames[i][name]; ok {
			delete(frames[i], name)
			if dref {
				v.Deref()
			}
			return true
		}
	}
	return false
}

// IncTop pushes n empty frames onto the current call's variable stack. Any
// stashed bindings are committed into the first newly pushed frame and the
// stash is cleared, per the BlkA commit policy in spec.md §4.7.
func (e *Environment) IncTop(n int) {
	cur := e.current()
	for i := 0; i < n; i++ {
		frame := make(Frame)
		if i == 0 {
			for name, v := range e.stash {
				frame[name] = v
			}
			e.stash = make(Frame)
		}
		cur.frames = append(cur.frames, frame)
	}
}

// DecTop pops n frames from the current call's variable stack, dereferencing
// every value left in the discarded frames.
func (e *Environment) DecTop(n int) {
	cur := e.current()
	for i := 0; i < n && len(cur.frames) > 1; i++ {
		top := cur.frames[len(cur.frames)-1]
		derefFrame(top)
		cur.frames = cur.frames[:len(cur.frames)-1]
	}
}

// Depth returns the current call's frame count.
func (e *Environment) Depth() int {
	return len(e.current().frames)
}

// PushLoop records the current depth+1 and pushes one frame, marking the
// start of a loop body's scope.
func (e *Environment) PushLoop() {
	cur := e.current()
	cur.loopMarks = append(cur.loopMarks, e.Depth()+1)
	e.IncTop(1)
}

// PopLoop unwinds back to the most recently recorded loop mark and removes
// the mark.
func (e *Environment) PopLoop() {
	cur := e.current()
	if len(cur.loopMarks) == 0 {
		return
	}
	mark := cur.loopMarks[len(cur.loopMarks)-1]
	cur.loopMarks = cur.loopMarks[:len(cur.loopMarks)-1]
	e.unwindTo(mark)
}

// LoopContinue unwinds back to the most recently recorded loop mark without
// removing it, for a Continue that stays inside the same loop iteration.
func (e *Environment) LoopContinue() {
	cur := e.current()
	if len(cur.loopMarks) == 0 {
		return
	}
	e.unwindTo(cur.loopMarks[len(cur.loopMarks)-1])
}

func (e *Environment) unwindTo(depth int) {
	cur := e.current()
	for len(cur.frames) > depth && len(cur.frames) > 1 {
		top := cur.frames[len(cur.frames)-1]
		derefFrame(top)
		cur.frames = cur.frames[:len(cur.frames)-1]
	}
}

// Stash queues a name→value binding, to be committed into the next frame
// IncTop creates (used to bind call arguments before the callee's first
// block exists, spec.md §4.7).
func (e *Environment) Stash(name string, value *vars.Value) {
	e.stash[name] = value
}

// Unstash drops all queued stash entries, dereferencing them. Used when a
// call fails before its body block starts.
func (e *Environment) Unstash() {
	derefFrame(e.stash)
	e.stash = make(Frame)
}

func derefFrame(f Frame) {
	for _, v := range f {
		v.Deref()
	}
}

// Teardown dereferences every value this environment still holds: the zero
// frame, the stash, and any function-variable stacks left active (a module
// environment's zero frame is never popped by PopFn, so State's teardown
// calls this directly rather than routing through a call boundary).
func (e *Environment) Teardown() {
	derefFrame(e.zero)
	derefFrame(e.stash)
	for _, fe := range e.funcs {
		for _, f := range fe.frames {
			derefFrame(f)
		}
	}
}
