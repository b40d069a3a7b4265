package bytecode

import (
	"fmt"
	"strconv"

	"github.com/dchest/siphash"
)

// DataType tags a Datum's payload kind (spec.md §3).
type DataType byte

const (
	DataInt DataType = iota
	DataFloat
	DataString
	DataIdent
	DataSize
	DataBool
	DataNil
)

func (t DataType) String() string {
	switch t {
	case DataInt:
		return "Int"
	case DataFloat:
		return "Float"
	case DataString:
		return "String"
	case DataIdent:
		return "Ident"
	case DataSize:
		return "Size"
	case DataBool:
		return "Bool"
	case DataNil:
		return "Nil"
	default:
		return "Unknown"
	}
}

// Datum is one entry in a Bytecode's data-interning table.
//
// Float is stored as a formatted decimal string rather than an 8-byte
// binary value — spec.md §9 flags this as an open question across drafts
// of the source and resolves it in favor of forward compatibility with
// arbitrary-precision float literals; a pure binary float8 is equally
// valid but was not the choice made here.
type Datum struct {
	Type DataType
	Int  int64
	Str  string // used for Float (decimal text), String, Ident
	Size uint64
	Bool bool
}

// IntDatum builds an Int datum.
func IntDatum(v int64) Datum { return Datum{Type: DataInt, Int: v} }

// FloatDatum builds a Float datum, stored as its formatted decimal text.
func FloatDatum(v float64) Datum {
	return Datum{Type: DataFloat, Str: strconv.FormatFloat(v, 'g', -1, 64)}
}

// StringDatum builds a String datum.
func StringDatum(v string) Datum { return Datum{Type: DataString, Str: v} }

// IdentDatum builds an Ident datum.
func IdentDatum(v string) Datum { return Datum{Type: DataIdent, Str: v} }

// SizeDatum builds a Size datum (unsigned 64-bit; jump targets, counts).
func SizeDatum(v uint64) Datum { return Datum{Type: DataSize, Size: v} }

// BoolDatum builds a Bool datum.
func BoolDatum(v bool) Datum { return Datum{Type: DataBool, Bool: v} }

// NilDatum is the single Nil datum value.
var NilDatum = Datum{Type: DataNil}

// Float parses the Float datum's decimal text back into a float64.
func (d Datum) Float() (float64, error) {
	return strconv.ParseFloat(d.Str, 64)
}

func (d Datum) String() string {
	switch d.Type {
	case DataInt:
		return fmt.Sprintf("Int(%d)", d.Int)
	case DataFloat:
		return fmt.Sprintf("Float(%s)", d.Str)
	case DataString:
		return fmt.Sprintf("String(%q)", d.Str)
	case DataIdent:
		return fmt.Sprintf("Ident(%s)", d.Str)
	case DataSize:
		return fmt.Sprintf("Size(%d)", d.Size)
	case DataBool:
		return fmt.Sprintf("Bool(%v)", d.Bool)
	default:
		return "Nil"
	}
}

// siphashKey is the keyed-hash key used to bucket the interning table.
// It only needs to be stable for the lifetime of one DataTable — unlike a
// MAC, nothing here is adversarial — so a fixed key keeps table building
// deterministic and reproducible across runs, which the codec round-trip
// property (spec.md §8) depends on.
var siphashKey0, siphashKey1 uint64 = 0x6a756e655f766d31, 0x62797465636f6465 // "june_vm1", "bytecode"

// hashDatum hashes a Datum's (type, payload) pair with siphash.Hash128,
// grounded on SnellerInc-sneller's vm/interphash.go use of the same keyed
// hash for its own interning/dedup tables.
func hashDatum(d Datum) uint64 {
	var buf []byte
	buf = append(buf, byte(d.Type))
	switch d.Type {
	case DataInt:
		buf = appendUint64(buf, uint64(d.Int))
	case DataFloat, DataString, DataIdent:
		buf = append(buf, d.Str...)
	case DataSize:
		buf = appendUint64(buf, d.Size)
	case DataBool:
		if d.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	lo, hi := siphash.Hash128(siphashKey0, siphashKey1, buf)
	return lo ^ hi
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(56-8*i)))
	}
	return buf
}

// DataTable is the shared, deduplicated constant pool backing one Bytecode.
//
// Insert is idempotent: inserting the same (type, payload) twice returns
// the same index (spec.md §8 "data-table interning is idempotent"). Hash
// collisions are resolved with a straightforward equality check over the
// (small) bucket, so idempotence holds regardless of siphash collisions.
type DataTable struct {
	entries []Datum
	index   map[uint64][]int
}

// NewDataTable constructs an empty data table.
func NewDataTable() *DataTable {
	return &DataTable{index: make(map[uint64][]int)}
}

// Insert interns d, returning its (possibly pre-existing) index.
func (t *DataTable) Insert(d Datum) uint64 {
	h := hashDatum(d)
	for _, idx := range t.index[h] {
		if t.entries[idx] == d {
			return uint64(idx)
		}
	}
	idx := len(t.entries)
	t.entries = append(t.entries, d)
	t.index[h] = append(t.index[h], idx)
	return uint64(idx)
}

// At returns the datum at idx.
func (t *DataTable) At(idx uint64) (Datum, bool) {
	if idx >= uint64(len(t.entries)) {
		return Datum{}, false
	}
	return t.entries[idx], true
}

// Len returns the number of interned entries.
func (t *DataTable) Len() int { return len(t.entries) }

// Entries returns the table's entries in insertion order. The returned
// slice must not be mutated by the caller.
func (t *DataTable) Entries() []Datum { return t.entries }
