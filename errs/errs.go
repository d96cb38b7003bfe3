// Package errs defines the sentinel errors surfaced by the archive codecs.
//
// The set is closed: every failure mode a caller can observe maps onto one
// of these values, possibly wrapped with additional context. Use errors.Is
// to classify.
package errs

import "errors"

var (
	// ErrTruncatedInput indicates the input ended before a required field.
	ErrTruncatedInput = errors.New("input truncated before a required field")

	// ErrBadMagic indicates the container magic did not match the format.
	ErrBadMagic = errors.New("invalid archive magic")

	// ErrBadVersion indicates a version outside the supported set.
	ErrBadVersion = errors.New("unsupported archive version")

	// ErrBadFormat indicates an unrecognized sub-format tag.
	ErrBadFormat = errors.New("invalid archive format")

	// ErrBadSentinel indicates a chunk sentinel mismatch.
	ErrBadSentinel = errors.New("invalid chunk sentinel")

	// ErrSizeMismatch indicates a compressed/decompressed size disagreement.
	ErrSizeMismatch = errors.New("decompressed size mismatch")

	// ErrCompression indicates the backing codec library reported failure.
	ErrCompression = errors.New("compression codec failure")

	// ErrUnsupportedCodec indicates the requested codec is unavailable on
	// this platform (LZX outside Windows, or the proxy binary is missing).
	ErrUnsupportedCodec = errors.New("unsupported compression codec")

	// ErrCodecTimeout indicates the external codec did not answer in time.
	ErrCodecTimeout = errors.New("external codec timed out")

	// ErrOffsetOverflow indicates serialization would exceed the format's
	// 32-bit offset limits.
	ErrOffsetOverflow = errors.New("archive offset overflow")

	// ErrNotFound indicates a lookup by hash or name missed.
	ErrNotFound = errors.New("entry not found")

	// ErrStateMismatch indicates a compression-state precondition violation,
	// e.g. compressing an already-compressed file.
	ErrStateMismatch = errors.New("compression state mismatch")
)
