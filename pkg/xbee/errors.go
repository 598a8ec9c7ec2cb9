package xbee

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by a ByteSource or ByteSink when the
	// transport is not ready yet. The codec retries the same byte.
	ErrWouldBlock = errors.New("would block")
	// ErrOverflow indicates the frame exceeds the staging buffer.
	ErrOverflow = errors.New("frame overflows buffer")
	// ErrNoStart indicates the first byte read is not the start delimiter.
	ErrNoStart = errors.New("no start delimiter")
	// ErrLengthMismatch indicates a Frame emitted a different number of
	// bytes than its EncodedLen.
	ErrLengthMismatch = errors.New("frame length mismatch")
)

// ChecksumError indicates a frame failed checksum validation.
type ChecksumError struct {
	// Sum is the low byte of the payload sum, excluding the checksum byte.
	Sum byte
	// Checksum is the checksum byte received.
	Checksum byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("bad checksum %02x (sum %02x)", e.Checksum, e.Sum)
}

// UnsupportedError indicates an unknown frame type.
type UnsupportedError struct {
	FrameType byte
}

// Error implements error.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported frame type %02x", e.FrameType)
}

// MalformedError indicates a payload too short for its frame type.
type MalformedError struct {
	FrameType byte
	Len       int
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed frame %02x: payload length %d", e.FrameType, e.Len)
}

// UnknownStatusError indicates a status code outside the known table.
type UnknownStatusError struct {
	Kind string
	Code byte
}

// Error implements error.
func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown %s %02x", e.Kind, e.Code)
}

// TransportError wraps the error reported by a ByteSource or ByteSink.
type TransportError struct {
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

// Unwrap returns the transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsFrameError reports whether err rejected a single, fully consumed
// frame. After such an error the stream is still positioned at a frame
// boundary and the next Read can proceed directly. Any other error may
// leave the stream in the middle of a frame.
func IsFrameError(err error) bool {
	switch err.(type) {
	case *ChecksumError, *UnsupportedError, *MalformedError, *UnknownStatusError:
		return true
	}
	return false
}
