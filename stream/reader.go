package stream

import (
	"github.com/tesvault/bsarc/endian"
	"github.com/tesvault/bsarc/errs"
)

// Reader is a bounded cursor over a byte run.
//
// Integer reads honor the reader's current engine; the TES4 codec swaps
// the engine to big-endian when decoding Xbox record tables. Reads past
// the end of the source fail with errs.ErrTruncatedInput. A failed byte,
// integer, byte-run, or zstring read leaves the cursor where it was; a
// length-prefixed string read that fails has already consumed its prefix.
type Reader struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
}

// NewReader returns a little-endian cursor over the source.
func NewReader(src *Source) *Reader {
	return NewReaderBytes(src.Data())
}

// NewReaderBytes returns a little-endian cursor over a raw slice.
func NewReaderBytes(data []byte) *Reader {
	return &Reader{data: data, engine: endian.GetLittleEndianEngine()}
}

// Engine returns the byte-order engine used for integer reads.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// SetEngine replaces the byte-order engine used for integer reads.
func (r *Reader) SetEngine(engine endian.EndianEngine) {
	r.engine = engine
}

// Len returns the total length of the underlying byte run.
func (r *Reader) Len() int {
	return len(r.data)
}

// Tell returns the current cursor position.
func (r *Reader) Tell() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// SeekAbsolute moves the cursor to pos.
func (r *Reader) SeekAbsolute(pos int) {
	r.pos = pos
}

// SeekRelative moves the cursor by off bytes.
func (r *Reader) SeekRelative(off int) {
	r.pos += off
}

// Checkpoint captures the current position and returns a function that
// restores it. Callers typically defer the restore:
//
//	restore := r.Checkpoint()
//	defer restore()
func (r *Reader) Checkpoint() func() {
	pos := r.pos
	return func() { r.pos = pos }
}

// ReadBytes returns the next n bytes as a slice borrowing the underlying
// source, advancing the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos < 0 || n > len(r.data)-r.pos {
		return nil, errs.ErrTruncatedInput
	}

	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n

	return b, nil
}

// ReadByte returns the next byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadUint16 decodes the next two bytes with the current engine.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint16(b), nil
}

// ReadUint32 decodes the next four bytes with the current engine.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// ReadUint64 decodes the next eight bytes with the current engine.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(b), nil
}

// ReadZString reads a null-terminated byte string, consuming the
// terminator but not including it in the result.
func (r *Reader) ReadZString() ([]byte, error) {
	start := r.pos
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			r.pos = i + 1
			return r.data[start:i:i], nil
		}
	}

	return nil, errs.ErrTruncatedInput
}

// ReadBString reads a u8-length-prefixed byte string with no terminator.
func (r *Reader) ReadBString() ([]byte, error) {
	n, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	return r.ReadBytes(int(n))
}

// ReadBZString reads a u8-length-prefixed, null-terminated byte string.
// The prefix counts the terminator; the result excludes it.
func (r *Reader) ReadBZString() ([]byte, error) {
	n, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	b, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[len(b)-1] != 0 {
		return nil, errs.ErrBadFormat
	}

	return b[:len(b)-1], nil
}

// ReadWString reads a u16-length-prefixed byte string with no terminator.
func (r *Reader) ReadWString() ([]byte, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	return r.ReadBytes(int(n))
}
