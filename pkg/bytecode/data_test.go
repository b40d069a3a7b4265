package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertIsIdempotentForEqualData(t *testing.T) {
	tbl := NewDataTable()
	a := tbl.Insert(StringDatum("hello"))
	b := tbl.Insert(StringDatum("hello"))
	require.Equal(t, a, b)
	require.Equal(t, 1, tbl.Len())
}

func TestInsertDistinguishesDistinctValues(t *testing.T) {
	tbl := NewDataTable()
	a := tbl.Insert(StringDatum("hello"))
	b := tbl.Insert(StringDatum("world"))
	require.NotEqual(t, a, b)
	require.Equal(t, 2, tbl.Len())
}

func TestInsertDistinguishesByType(t *testing.T) {
	tbl := NewDataTable()
	a := tbl.Insert(IdentDatum("x"))
	b := tbl.Insert(StringDatum("x"))
	require.NotEqual(t, a, b)
}

func TestAtRoundTripsEveryDataType(t *testing.T) {
	tbl := NewDataTable()
	idxs := []uint64{
		tbl.Insert(IntDatum(42)),
		tbl.Insert(FloatDatum(3.25)),
		tbl.Insert(StringDatum("s")),
		tbl.Insert(IdentDatum("ident")),
		tbl.Insert(SizeDatum(7)),
		tbl.Insert(BoolDatum(true)),
		tbl.Insert(NilDatum),
	}
	for _, idx := range idxs {
		_, ok := tbl.At(idx)
		require.True(t, ok)
	}

	d, ok := tbl.At(idxs[1])
	require.True(t, ok)
	f, err := d.Float()
	require.NoError(t, err)
	require.Equal(t, 3.25, f)

	_, ok = tbl.At(uint64(len(idxs)))
	require.False(t, ok)
}
