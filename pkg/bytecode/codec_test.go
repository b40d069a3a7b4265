package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSample() *Bytecode {
	bc := New()
	name := bc.Data.Insert(IdentDatum("x"))
	one := bc.Data.Insert(IntDatum(1))
	target := bc.Data.Insert(SizeDatum(2))

	bc.Append(1, OpLoad, one)
	bc.Append(1, OpCreate, name)
	bc.Append(1, OpJump, target)
	bc.Append(1, OpReturn, bc.Data.Insert(NilDatum))
	return bc
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bc := buildSample()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, bc))

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	require.Equal(t, bc.Data.Len(), decoded.Data.Len())
	require.Equal(t, len(bc.Ops), len(decoded.Ops))
	for i, op := range bc.Ops {
		require.Equal(t, op, decoded.Ops[i])
	}
	for i := 0; i < bc.Data.Len(); i++ {
		want, _ := bc.Data.At(uint64(i))
		got, _ := decoded.Data.At(uint64(i))
		require.Equal(t, want, got)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeU64(&buf, 99))
	require.NoError(t, writeU64(&buf, 0))
	require.NoError(t, writeU64(&buf, 0))

	_, err := Decode(&buf)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	bc := buildSample()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, bc))

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := Decode(bytes.NewReader(truncated))
	require.Error(t, err)
}
