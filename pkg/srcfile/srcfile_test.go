package srcfile

import (
	"bytes"
	"testing"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsEmptyFile(t *testing.T) {
	_, err := Load(1, ".", "empty.june", nil, true)
	require.Error(t, err)
}

func TestLoadTextBuildsLineIndex(t *testing.T) {
	sf, err := Load(1, ".", "hello.june", []byte("a := 1\nb := 2\n"), true)
	require.NoError(t, err)
	require.False(t, sf.IsBytecode)

	line, col := sf.LineCol(7) // 'b' at start of line 2
	require.Equal(t, 2, line)
	require.Equal(t, 1, col)
}

func TestLoadBytecodeBranchDetectsMagic(t *testing.T) {
	bc := bytecode.New()
	bc.Append(1, bytecode.OpReturn, bc.Data.Insert(bytecode.NilDatum))

	var buf bytes.Buffer
	buf.Write(Magic[:])
	require.NoError(t, bytecode.Encode(&buf, bc))

	sf, err := Load(1, ".", "hello.junec", buf.Bytes(), true)
	require.NoError(t, err)
	require.True(t, sf.IsBytecode)
	require.Equal(t, 1, sf.Bytecode.Len())
}

func TestEncodeRequiresBytecode(t *testing.T) {
	sf, err := Load(1, ".", "hello.june", []byte("x"), true)
	require.NoError(t, err)
	_, err = sf.Encode()
	require.Error(t, err)
}

func TestDiagnosticRendersCaret(t *testing.T) {
	sf, err := Load(1, ".", "hello.june", []byte("x := 1\n"), true)
	require.NoError(t, err)
	msg := sf.Diagnostic(0, "bad token")
	require.Contains(t, msg, "hello.june:1:1: bad token")
	require.Contains(t, msg, "^")
}

func TestDiagnosticOnBytecodeSkipsCaret(t *testing.T) {
	bc := bytecode.New()
	bc.Append(1, bytecode.OpReturn, bc.Data.Insert(bytecode.NilDatum))
	var buf bytes.Buffer
	buf.Write(Magic[:])
	require.NoError(t, bytecode.Encode(&buf, bc))

	sf, err := Load(1, ".", "hello.junec", buf.Bytes(), true)
	require.NoError(t, err)
	msg := sf.Diagnostic(0, "bad op")
	require.NotContains(t, msg, "^")
}
