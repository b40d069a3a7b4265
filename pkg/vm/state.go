// Package vm implements the Executor and the State that owns everything a
// running June program touches: globals, the type-function registry, the
// operand/fail/source stacks, the module registry, and the dylib manager
// (spec.md §4.9). It is the engine's entry point, analogous to the
// teacher's own pkg/vm.VM — generalized from a fixed-size Smalltalk-style
// stack machine tied to one bytecode file into a recursively re-entrant
// engine over an arbitrary stack of loaded sources.
package vm

import (
	"os"
	"path/filepath"

	"github.com/kristofer/june/pkg/dylib"
	"github.com/kristofer/june/pkg/env"
	"github.com/kristofer/june/pkg/julog"
	"github.com/kristofer/june/pkg/loader"
	"github.com/kristofer/june/pkg/srcfile"
	"github.com/kristofer/june/pkg/vars"
)

// defaultExecStackMax bounds call recursion depth (spec.md §4.8).
const defaultExecStackMax = 2000

// State owns every piece of mutable VM-wide state (spec.md §4.9).
type State struct {
	Globals  map[string]*vars.Value
	TypeFns  *vars.TypeFnTable
	TypeIds  map[string]uint64 // type-name -> type-id

	SelfBinary string
	SelfBase   string

	Nil   *vars.Value
	True  *vars.Value
	False *vars.Value

	OperandStack []*vars.Value
	FailStack    *FailStack
	SourceStack  []*srcfile.SrcFile

	AllSrcs map[string]*srcfile.SrcFile // absolute path -> SrcFile
	Envs    map[uint64]*env.Environment // srcId -> Environment
	Sources map[string]*vars.Value     // absolute path -> owning Source value
	nextSrc uint64

	Dylib    *dylib.Manager
	Resolver *loader.Resolver
	deinits  []loader.DeinitFn

	SrcArgs *vars.Value

	ExitCalled     bool
	ExitCode       uint64
	ExecStackCount int
	ExecStackMax   int
	overflowLatched bool

	opsDispatched uint64

	// PendingRaise lets a native function (e.g. the Core "raise" builtin)
	// hand the executor the value to raise when it returns failure,
	// instead of every native callback needing its own way to signal a
	// specific raised payload through the bool-only ABI (spec.md §6).
	PendingRaise *vars.Value

	// Exec is the Executor bound to this State, set by NewExecutor. Native
	// functions only ever see State across the ABI boundary (spec.md §6);
	// this back-reference lets one of them (e.g. Core's "import") recurse
	// into bytecode execution for a module's top-level side effects.
	Exec *Executor
}

// New constructs a State, registers the built-in type names, and builds the
// srcArgs Vec from args (spec.md §4.9).
func New(selfBinary string, args []string) *State {
	selfBase := filepath.Dir(selfBinary)

	s := &State{
		Globals:      make(map[string]*vars.Value),
		TypeFns:      vars.NewTypeFnTable(),
		TypeIds:      make(map[string]uint64),
		SelfBinary:   selfBinary,
		SelfBase:     selfBase,
		FailStack:    NewFailStack(),
		AllSrcs:      make(map[string]*srcfile.SrcFile),
		Envs:         make(map[uint64]*env.Environment),
		Sources:      make(map[string]*vars.Value),
		Dylib:        dylib.New(),
		Resolver:     loader.NewResolver(selfBase),
		ExecStackMax: defaultExecStackMax,
	}

	s.registerBuiltinTypes()

	s.Nil = vars.NilValue(0, 0)
	s.True = vars.BoolValue(true, 0, 0)
	s.False = vars.BoolValue(false, 0, 0)

	argVals := make([]*vars.Value, len(args))
	for i, a := range args {
		argVals[i] = vars.StringValue(a, 0, 0)
	}
	s.SrcArgs = vars.VecValue(argVals, false, 0, 0)

	return s
}

func (s *State) registerBuiltinTypes() {
	for _, k := range []vars.Kind{
		vars.KindNil, vars.KindBool, vars.KindInt, vars.KindFloat,
		vars.KindString, vars.KindVec, vars.KindFunc, vars.KindSource,
		vars.KindTypeId, vars.KindAny,
	} {
		s.TypeIds[k.String()] = uint64(k)
	}
}

// NextSrcId returns a fresh, monotonically increasing source identity, used
// to preserve load order across AllSrcs (spec.md §3).
func (s *State) NextSrcId() uint64 {
	s.nextSrc++
	return s.nextSrc
}

// LoadCoreModules loads "June.Core" plus any modules listed in
// <selfBase>/core.json's coreModules array (spec.md §4.6).
func (s *State) LoadCoreModules(loadFn func(*State, string) error) error {
	cfg, err := loader.LoadCoreConfig(s.SelfBase)
	if err != nil {
		julog.L().Warn("core.json unreadable, continuing without it", "error", err)
	}
	modules := append([]string{"June.Core"}, cfg.CoreModules...)
	for _, m := range modules {
		if err := loadFn(s, m); err != nil {
			return err
		}
	}
	return nil
}

// Teardown releases owned references in reverse construction order
// (spec.md §4.9): operand stack, globals, module environments, sources,
// singletons, srcArgs; then native de-init callbacks; then the dylib
// manager. The type-function table holds no refcounted values and is left
// as it is.
func (s *State) Teardown() {
	for _, v := range s.OperandStack {
		v.Deref()
	}
	s.OperandStack = nil

	for _, v := range s.Globals {
		v.Deref()
	}
	s.Globals = nil

	for _, e := range s.Envs {
		e.Teardown()
	}
	s.Envs = nil

	for _, v := range s.Sources {
		v.Deref()
	}
	s.Sources = nil
	s.AllSrcs = nil

	if s.Nil != nil {
		s.Nil.Deref()
	}
	if s.True != nil {
		s.True.Deref()
	}
	if s.False != nil {
		s.False.Deref()
	}

	if s.SrcArgs != nil {
		s.SrcArgs.Deref()
	}

	for i := len(s.deinits) - 1; i >= 0; i-- {
		if s.deinits[i] != nil {
			s.deinits[i]()
		}
	}
	s.deinits = nil

	s.Dylib.Close()
}

// RegisterDeinit records a native module's teardown callback.
func (s *State) RegisterDeinit(fn loader.DeinitFn) {
	if fn != nil {
		s.deinits = append(s.deinits, fn)
	}
}

// Exit records a cancellation request from a native module (spec.md §5).
func (s *State) Exit(code uint64) {
	s.ExitCalled = true
	s.ExitCode = code
}

// workingDirOrDot returns os.Getwd(), falling back to "." on error. Nothing
// in this package calls it.
func workingDirOrDot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
