package blob

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	var d Data
	require.True(t, d.Empty())
	require.Equal(t, 0, d.Len())
	require.False(t, d.Compressed())
	require.False(t, d.Borrowed())
	require.Equal(t, uint32(0), d.DecompressedSize())
}

func TestSetData(t *testing.T) {
	var d Data
	payload := []byte("payload")
	d.SetData(payload)

	require.Equal(t, payload, d.AsBytes())
	require.Equal(t, 7, d.Len())
	require.False(t, d.Compressed())
	require.Equal(t, uint32(7), d.DecompressedSize())
}

func TestCompressedAnnotation(t *testing.T) {
	var d Data
	d.SetCompressedData([]byte{0x78, 0x9C}, 64)

	require.True(t, d.Compressed())
	require.Equal(t, uint32(64), d.DecompressedSize())

	// Replacing the payload drops the annotation.
	d.SetData([]byte("plain"))
	require.False(t, d.Compressed())
	require.Equal(t, uint32(5), d.DecompressedSize())
}

func TestDeepCopy(t *testing.T) {
	backing := []byte("backing buffer")

	var d Data
	d.SetBorrowed(backing[:7])
	require.True(t, d.Borrowed())
	require.Same(t, &backing[0], &d.AsBytes()[0])

	d.DeepCopy()
	require.False(t, d.Borrowed())
	require.Equal(t, []byte("backing"), d.AsBytes())
	require.NotSame(t, &backing[0], &d.AsBytes()[0])

	// Deep-copying an owned payload is a no-op.
	ptr := &d.AsBytes()[0]
	d.DeepCopy()
	require.Same(t, ptr, &d.AsBytes()[0])
}

func TestDeepCopyKeepsCompression(t *testing.T) {
	backing := []byte("compressed bytes")

	var d Data
	d.SetBorrowedCompressed(backing, 256)
	d.DeepCopy()

	require.False(t, d.Borrowed())
	require.True(t, d.Compressed())
	require.Equal(t, uint32(256), d.DecompressedSize())
	require.Equal(t, backing, d.AsBytes())
}

func TestClear(t *testing.T) {
	var d Data
	d.SetCompressedData([]byte("x"), 9)
	d.Clear()

	require.True(t, d.Empty())
	require.False(t, d.Compressed())
}
