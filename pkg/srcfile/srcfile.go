// Package srcfile implements the per-file identity, raw content, and
// diagnostic rendering for a loaded June module (spec.md §3/§4.4). Turning
// source text into bytecode is the compiler's job, explicitly out of this
// engine's scope (spec.md §1); SrcFile only decodes an already-compiled
// blob, or holds source text awaiting an external compile step.
package srcfile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kristofer/june/pkg/bytecode"
	"github.com/kristofer/june/pkg/vmerr"
)

// Magic is the four-byte prefix identifying an on-disk bytecode file
// (spec.md §6).
var Magic = [4]byte{'J', 'U', 'N', 'E'}

// lineCol is one entry in a SrcFile's column-range index: the byte offset
// at which a line begins.
type lineCol struct {
	lineStart int
}

// SrcFile is one loaded June module: its identity, its raw bytes, and
// (depending on how it was loaded) either compiled Bytecode or source text
// awaiting compilation.
type SrcFile struct {
	Id        uint64
	Dir       string
	Path      string
	Raw       []byte
	Bytecode  *bytecode.Bytecode
	IsMain    bool
	IsBytecode bool

	lineOffsets []int // byte offset of the start of each line
}

// Load constructs a SrcFile from raw bytes read from path. id must be
// assigned by the caller in load order (spec.md §3 "unique id assigned in
// load order"); the loader owns that sequence, not SrcFile itself.
func Load(id uint64, dir, path string, raw []byte, isMain bool) (*SrcFile, error) {
	if len(raw) == 0 {
		return nil, vmerr.FileIo("%s: empty source file", path)
	}

	sf := &SrcFile{Id: id, Dir: dir, Path: path, Raw: raw, IsMain: isMain}

	if len(raw) >= 4 && bytes.Equal(raw[:4], Magic[:]) {
		sf.IsBytecode = true
		bc, err := bytecode.Decode(bytes.NewReader(raw[4:]))
		if err != nil {
			return nil, err
		}
		sf.Bytecode = bc
		return sf, nil
	}

	sf.buildLineIndex()
	return sf, nil
}

// Encode serializes sf.Bytecode with the JUNE magic prefix, the on-disk
// form decoded by Load.
func (sf *SrcFile) Encode() ([]byte, error) {
	if sf.Bytecode == nil {
		return nil, vmerr.FileIo("%s: no compiled bytecode to encode", sf.Path)
	}
	var buf bytes.Buffer
	buf.Write(Magic[:])
	if err := bytecode.Encode(&buf, sf.Bytecode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sf *SrcFile) buildLineIndex() {
	sf.lineOffsets = []int{0}
	for i, b := range sf.Raw {
		if b == '\n' && i+1 < len(sf.Raw) {
			sf.lineOffsets = append(sf.lineOffsets, i+1)
		}
	}
}

// LineCol maps a byte offset to a 1-based (line, col) pair.
func (sf *SrcFile) LineCol(offset int) (line, col int) {
	if len(sf.lineOffsets) == 0 {
		return 1, offset + 1
	}
	line = 1
	for i, start := range sf.lineOffsets {
		if start > offset {
			break
		}
		line = i + 1
	}
	lineStart := sf.lineOffsets[line-1]
	return line, offset - lineStart + 1
}

// lineText returns the raw text of the given 1-based line number, without
// its trailing newline.
func (sf *SrcFile) lineText(line int) string {
	if line < 1 || line > len(sf.lineOffsets) {
		return ""
	}
	start := sf.lineOffsets[line-1]
	end := len(sf.Raw)
	if line < len(sf.lineOffsets) {
		end = sf.lineOffsets[line] - 1 // drop the newline
	}
	if end < start {
		end = start
	}
	return string(sf.Raw[start:end])
}

// Diagnostic renders a source-position error: "path:line:col: message",
// followed by the offending line and a caret indicator. Bytecode-only files
// have no text to quote and skip the caret line (spec.md §4.4).
func (sf *SrcFile) Diagnostic(offset int, message string) string {
	var b strings.Builder
	if sf.IsBytecode {
		fmt.Fprintf(&b, "%s: %s", sf.Path, message)
		return b.String()
	}
	line, col := sf.LineCol(offset)
	fmt.Fprintf(&b, "%s:%d:%d: %s\n", sf.Path, line, col, message)
	b.WriteString(sf.lineText(line))
	b.WriteByte('\n')
	if col > 0 {
		b.WriteString(strings.Repeat(" ", col-1))
	}
	b.WriteByte('^')
	return b.String()
}
