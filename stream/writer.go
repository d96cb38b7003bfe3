package stream

import (
	"github.com/google/renameio"
	"github.com/tesvault/bsarc/endian"
)

// Writer accumulates an archive image in memory.
//
// Serialization is two-pass: offsets are computed up front, then records
// and data are appended here. WriteFile flushes the image through an
// atomic rename so a failed write never leaves a partial archive behind.
type Writer struct {
	buf    []byte
	engine endian.EndianEngine
}

// NewWriter returns an empty little-endian writer.
func NewWriter() *Writer {
	return &Writer{engine: endian.GetLittleEndianEngine()}
}

// Engine returns the byte-order engine used for integer writes.
func (w *Writer) Engine() endian.EndianEngine {
	return w.engine
}

// SetEngine replaces the byte-order engine used for integer writes.
func (w *Writer) SetEngine(engine endian.EndianEngine) {
	w.engine = engine
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated image. The slice is owned by the writer
// and only valid until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutByte appends a single byte.
func (w *Writer) PutByte(v byte) {
	w.buf = append(w.buf, v)
}

// PutUint16 appends v with the current engine.
func (w *Writer) PutUint16(v uint16) {
	w.buf = w.engine.AppendUint16(w.buf, v)
}

// PutUint32 appends v with the current engine.
func (w *Writer) PutUint32(v uint32) {
	w.buf = w.engine.AppendUint32(w.buf, v)
}

// PutUint64 appends v with the current engine.
func (w *Writer) PutUint64(v uint64) {
	w.buf = w.engine.AppendUint64(w.buf, v)
}

// PutBytes appends a raw byte span.
func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutZString appends a null-terminated byte string.
func (w *Writer) PutZString(s []byte) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// PutBString appends a u8-length-prefixed byte string with no terminator.
func (w *Writer) PutBString(s []byte) {
	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
}

// PutBZString appends a u8-length-prefixed, null-terminated byte string.
// The prefix counts the terminator.
func (w *Writer) PutBZString(s []byte) {
	w.buf = append(w.buf, byte(len(s)+1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// PutWString appends a u16-length-prefixed byte string with no terminator.
func (w *Writer) PutWString(s []byte) {
	w.PutUint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteFile flushes the accumulated image to path atomically.
func (w *Writer) WriteFile(path string) error {
	return renameio.WriteFile(path, w.buf, 0o644)
}
