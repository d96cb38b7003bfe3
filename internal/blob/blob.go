// Package blob implements the byte payload carried by archive files and
// chunks.
//
// A Data value either owns its bytes or borrows a slice of a backing
// buffer (typically the memory-mapped archive source) that must outlive
// it. A separate decompressed-size annotation marks the payload as
// compressed; the annotation is present exactly when the bytes are a
// compressed stream.
package blob

// Data is an owned or borrowed byte payload with an optional
// decompressed-size annotation.
//
// The zero value is an empty, uncompressed, owned payload.
type Data struct {
	bytes      []byte
	borrowed   bool
	compressed bool
	decompSize uint32
}

// AsBytes returns the raw payload bytes. The slice must not be mutated
// if the payload is borrowed.
func (d *Data) AsBytes() []byte {
	return d.bytes
}

// Len returns the payload length in bytes.
func (d *Data) Len() int {
	return len(d.bytes)
}

// Empty reports whether the payload has no bytes.
func (d *Data) Empty() bool {
	return len(d.bytes) == 0
}

// Compressed reports whether the payload holds a compressed stream.
func (d *Data) Compressed() bool {
	return d.compressed
}

// DecompressedSize returns the annotated decompressed size for a
// compressed payload, or the plain length otherwise.
func (d *Data) DecompressedSize() uint32 {
	if d.compressed {
		return d.decompSize
	}

	return uint32(len(d.bytes))
}

// SetData replaces the payload with caller-owned uncompressed bytes.
func (d *Data) SetData(b []byte) {
	*d = Data{bytes: b}
}

// SetCompressedData replaces the payload with caller-owned compressed
// bytes whose decompressed length is decompSize.
func (d *Data) SetCompressedData(b []byte, decompSize uint32) {
	*d = Data{bytes: b, compressed: true, decompSize: decompSize}
}

// SetBorrowed replaces the payload with a slice borrowing a backing
// buffer that outlives this value.
func (d *Data) SetBorrowed(b []byte) {
	*d = Data{bytes: b, borrowed: true}
}

// SetBorrowedCompressed replaces the payload with a borrowed compressed
// slice whose decompressed length is decompSize.
func (d *Data) SetBorrowedCompressed(b []byte, decompSize uint32) {
	*d = Data{bytes: b, borrowed: true, compressed: true, decompSize: decompSize}
}

// Borrowed reports whether the payload references a backing buffer it
// does not own.
func (d *Data) Borrowed() bool {
	return d.borrowed
}

// DeepCopy promotes a borrowed payload to an owned copy. Owned payloads
// are left untouched.
func (d *Data) DeepCopy() {
	if !d.borrowed {
		return
	}

	owned := make([]byte, len(d.bytes))
	copy(owned, d.bytes)
	d.bytes = owned
	d.borrowed = false
}

// Clear resets the payload to empty and uncompressed.
func (d *Data) Clear() {
	*d = Data{}
}
