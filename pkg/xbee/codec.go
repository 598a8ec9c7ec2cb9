package xbee

import (
	"errors"
	"runtime"
)

const (
	// StartDelimiter starts every frame.
	StartDelimiter byte = 0x7E
	// Capacity is the staging buffer size in payload bytes. Decoding also
	// stages the checksum byte, so the longest decodable payload is
	// Capacity-1 bytes.
	Capacity = 256
	// FrameOverhead is the number of bytes around a payload:
	// start delimiter, two length bytes and the checksum.
	FrameOverhead = 4
)

// ByteSource provides one byte at a time. ReadByte returns ErrWouldBlock
// when no byte is available yet; any other error is a transport failure.
// io.ByteReader satisfies it.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ByteSourceFunc is func type of ByteSource.
type ByteSourceFunc func() (byte, error)

// ReadByte implements ByteSource.
func (f ByteSourceFunc) ReadByte() (byte, error) {
	return f()
}

// ByteSink accepts one byte at a time. WriteByte returns ErrWouldBlock
// when the byte was not accepted yet; any other error is a transport
// failure. io.ByteWriter satisfies it.
type ByteSink interface {
	WriteByte(b byte) error
}

// ByteSinkFunc is func type of ByteSink.
type ByteSinkFunc func(byte) error

// WriteByte implements ByteSink.
func (f ByteSinkFunc) WriteByte(b byte) error {
	return f(b)
}

// Checksum calculates the checksum byte of a payload.
func Checksum(payload []byte) byte {
	return 0xFF - sum(payload)
}

func sum(data []byte) (s byte) {
	for _, b := range data {
		s += b
	}
	return
}

func readByte(src ByteSource) (byte, error) {
	for {
		b, err := src.ReadByte()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return 0, &TransportError{Err: err}
		}
		runtime.Gosched()
	}
}

func writeByte(sink ByteSink, b byte) error {
	for {
		err := sink.WriteByte(b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return &TransportError{Err: err}
		}
		runtime.Gosched()
	}
}
