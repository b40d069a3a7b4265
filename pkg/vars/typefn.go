package vars

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AllTypeId is the fallback type-id every value's method resolution falls
// through to when its own type-id table has no entry for a name (spec.md
// §3 "Type-function table"). Grounded on the C++ original's VarAll, a
// pseudo-variant existing only to anchor this fallback table
// (original_source/include/VM/Vars/Base.hpp).
const AllTypeId uint64 = ^uint64(0)

// TypeFnTable maps type-ids to name→Func tables, plus the "All" fallback.
type TypeFnTable struct {
	byType map[uint64]map[string]*Func
}

// NewTypeFnTable constructs an empty registry, pre-seeding the fallback
// bucket so lookups never need a nil check on the "All" entry.
func NewTypeFnTable() *TypeFnTable {
	t := &TypeFnTable{byType: make(map[uint64]map[string]*Func)}
	t.byType[AllTypeId] = make(map[string]*Func)
	return t
}

// Register adds name→fn to typeId's table, creating the table on first use.
func (t *TypeFnTable) Register(typeId uint64, name string, fn *Func) {
	bucket, ok := t.byType[typeId]
	if !ok {
		bucket = make(map[string]*Func)
		t.byType[typeId] = bucket
	}
	bucket[name] = fn
}

// RegisterAll adds name→fn to the "All" fallback table, inherited by every
// value regardless of type.
func (t *TypeFnTable) RegisterAll(name string, fn *Func) {
	t.Register(AllTypeId, name, fn)
}

// Lookup resolves name against typeId's table, then the "All" fallback.
func (t *TypeFnTable) Lookup(typeId uint64, name string) (*Func, bool) {
	if bucket, ok := t.byType[typeId]; ok {
		if fn, ok := bucket[name]; ok {
			return fn, true
		}
	}
	if fn, ok := t.byType[AllTypeId][name]; ok {
		return fn, true
	}
	return nil, false
}

// Names returns the registered method names for typeId, not including the
// "All" fallback, in a stable sorted order, for output where deterministic
// ordering matters more than allocation cost.
func (t *TypeFnTable) Names(typeId uint64) []string {
	bucket, ok := t.byType[typeId]
	if !ok {
		return nil
	}
	names := maps.Keys(bucket)
	slices.Sort(names)
	return names
}
