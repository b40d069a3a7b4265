package vars

// AttrExists reports whether name resolves as an attribute on v, per the
// policy in spec.md §4.2: defined for every value, but only yields results
// where AttrBased is set or the variant overrides it (Vec, Source).
func (v *Value) AttrExists(name string) bool {
	if v.Flags&AttrBased != 0 {
		_, ok := v.attrs[name]
		if ok {
			return true
		}
	}
	switch v.Kind {
	case KindVec:
		switch name {
		case "size", "refs":
			return true
		default:
			if idx, ok := vecIndex(v, name); ok {
				return idx >= 0 && idx < len(v.VecVal)
			}
		}
	case KindSource:
		_, ok := sourceEnvGet(v, name)
		return ok
	}
	return false
}

// AttrGet resolves name as an attribute on v. ok is false when the value
// has no such attribute.
func (v *Value) AttrGet(name string) (*Value, bool) {
	if v.Flags&AttrBased != 0 {
		if a, ok := v.attrs[name]; ok {
			return a, true
		}
	}
	switch v.Kind {
	case KindVec:
		switch name {
		case "size":
			return IntValue(int64(len(v.VecVal)), v.Origin.SrcId, v.Origin.Idx), true
		case "refs":
			return BoolValue(v.Flags&VecRefs != 0, v.Origin.SrcId, v.Origin.Idx), true
		default:
			if idx, ok := vecIndex(v, name); ok {
				if idx < 0 || idx >= len(v.VecVal) {
					return nil, false
				}
				return v.VecVal[idx], true
			}
		}
	case KindSource:
		return sourceEnvGet(v, name)
	}
	return nil, false
}

// sourceEnvGet resolves name against a Source's bound Environment (spec.md
// §3/§4.2: "Source exposes everything in its environment"). SourceVal.Env
// is typed any to keep pkg/vars free of an import on pkg/env, which already
// imports pkg/vars; the method set check below is a structural (duck-typed)
// match against *env.Environment.Get, not a concrete dependency on it.
func sourceEnvGet(v *Value, name string) (*Value, bool) {
	if v.SrcVal == nil || v.SrcVal.Env == nil {
		return nil, false
	}
	getter, ok := v.SrcVal.Env.(interface{ Get(string) (*Value, bool) })
	if !ok {
		return nil, false
	}
	return getter.Get(name)
}

// AttrSet binds name to value as an attribute on v. It implicitly marks v
// as attribute-bearing on first use, mirroring how Create promotes a bare
// value to an attribute container (spec.md §4.3 Create semantics).
func (v *Value) AttrSet(name string, value *Value) {
	if v.attrs == nil {
		v.attrs = make(map[string]*Value)
	}
	v.Flags |= AttrBased
	if old, ok := v.attrs[name]; ok {
		old.Deref()
	}
	v.attrs[name] = value
}

// vecIndex parses name as a numeric-string index into a Vec, per spec.md
// §4.2's "numeric-string indices" clause.
func vecIndex(v *Value, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
