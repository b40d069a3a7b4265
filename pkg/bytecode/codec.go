package bytecode

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/kristofer/june/pkg/mem"
	"github.com/kristofer/june/pkg/vmerr"
)

// FormatVersion is written as the first 8 bytes of every encoded Bytecode.
// Decode rejects any other value with a vmerr.KindFileIo error rather than
// attempt any forward/backward reinterpretation — cross-version bytecode
// compatibility is an explicit Non-goal.
const FormatVersion uint64 = 1

// Encode writes b in the wire format from spec.md §4.3:
//
//	[u64 version]
//	[u64 data_count] { [u8 data_type] <payload> } * data_count
//	[u64 op_count]   { [u16 op] [u64 srcId] [u64 idx] [u64 dataIdx] } * op_count
//
// All multi-byte fields are big-endian.
func Encode(w io.Writer, b *Bytecode) error {
	bw := bufio.NewWriter(w)

	if err := writeU64(bw, FormatVersion); err != nil {
		return err
	}

	entries := b.Data.Entries()
	if err := writeU64(bw, uint64(len(entries))); err != nil {
		return err
	}
	for _, d := range entries {
		if err := encodeDatum(bw, d); err != nil {
			return err
		}
	}

	if err := writeU64(bw, uint64(len(b.Ops))); err != nil {
		return err
	}
	for _, op := range b.Ops {
		if err := writeU16(bw, uint16(op.Op)); err != nil {
			return err
		}
		if err := writeU64(bw, op.SrcId); err != nil {
			return err
		}
		if err := writeU64(bw, op.Idx); err != nil {
			return err
		}
		if err := writeU64(bw, op.DataIdx); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Decode reads a Bytecode previously written by Encode.
func Decode(r io.Reader) (*Bytecode, error) {
	br := bufio.NewReader(r)

	version, err := readU64(br)
	if err != nil {
		return nil, vmerr.FileIo("reading bytecode version: %v", err)
	}
	if version != FormatVersion {
		return nil, vmerr.FileIo("unsupported bytecode version %d (want %d)", version, FormatVersion)
	}

	dataCount, err := readU64(br)
	if err != nil {
		return nil, vmerr.FileIo("reading data count: %v", err)
	}
	table := NewDataTable()
	for i := uint64(0); i < dataCount; i++ {
		d, err := decodeDatum(br)
		if err != nil {
			return nil, vmerr.FileIo("reading data entry %d: %v", i, err)
		}
		table.Insert(d)
	}

	opCount, err := readU64(br)
	if err != nil {
		return nil, vmerr.FileIo("reading op count: %v", err)
	}
	ops := make([]Op, 0, opCount)
	for i := uint64(0); i < opCount; i++ {
		opv, err := readU16(br)
		if err != nil {
			return nil, vmerr.FileIo("reading op %d: %v", i, err)
		}
		srcId, err := readU64(br)
		if err != nil {
			return nil, vmerr.FileIo("reading op %d srcId: %v", i, err)
		}
		idx, err := readU64(br)
		if err != nil {
			return nil, vmerr.FileIo("reading op %d idx: %v", i, err)
		}
		dataIdx, err := readU64(br)
		if err != nil {
			return nil, vmerr.FileIo("reading op %d dataIdx: %v", i, err)
		}
		ops = append(ops, Op{SrcId: srcId, Idx: idx, Op: Opcode(opv), DataIdx: dataIdx})
	}

	return &Bytecode{Ops: ops, Data: table}, nil
}

func encodeDatum(w *bufio.Writer, d Datum) error {
	if err := w.WriteByte(byte(d.Type)); err != nil {
		return err
	}
	switch d.Type {
	case DataInt:
		return writeU64(w, uint64(d.Int))
	case DataFloat, DataString, DataIdent:
		if err := writeU64(w, uint64(len(d.Str))); err != nil {
			return err
		}
		_, err := w.WriteString(d.Str)
		return err
	case DataSize:
		return writeU64(w, d.Size)
	case DataBool:
		if d.Bool {
			return w.WriteByte(1)
		}
		return w.WriteByte(0)
	default: // DataNil
		return nil
	}
}

func decodeDatum(r *bufio.Reader) (Datum, error) {
	typeByte, err := r.ReadByte()
	if err != nil {
		return Datum{}, err
	}
	typ := DataType(typeByte)
	switch typ {
	case DataInt:
		v, err := readU64(r)
		if err != nil {
			return Datum{}, err
		}
		return IntDatum(int64(v)), nil
	case DataFloat, DataString, DataIdent:
		n, err := readU64(r)
		if err != nil {
			return Datum{}, err
		}
		// Every string/ident/float-literal payload in a module's data table
		// passes through here once per load, making it the decode path's
		// hottest allocation site; the scratch block comes from mem.Default
		// and goes straight back once copied into the Datum's Str.
		blk := mem.Default.Alloc(int(n))
		if _, err := io.ReadFull(r, blk[:n]); err != nil {
			return Datum{}, err
		}
		d := Datum{Type: typ, Str: string(blk[:n])}
		mem.Default.Free(blk, int(n))
		return d, nil
	case DataSize:
		v, err := readU64(r)
		if err != nil {
			return Datum{}, err
		}
		return SizeDatum(v), nil
	case DataBool:
		b, err := r.ReadByte()
		if err != nil {
			return Datum{}, err
		}
		return BoolDatum(b != 0), nil
	case DataNil:
		return NilDatum, nil
	default:
		return Datum{}, vmerr.FileIo("unknown data type tag %d", typeByte)
	}
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}
