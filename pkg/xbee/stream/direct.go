package stream

import (
	"io"
	"os"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// Reader is a ByteSource reading one byte per call from R.
// A read timeout or an empty read is reported as xbee.ErrWouldBlock.
type Reader struct {
	R io.Reader

	buf [1]byte
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{R: r}
}

// ReadByte implements xbee.ByteSource.
func (r *Reader) ReadByte() (byte, error) {
	n, err := r.R.Read(r.buf[:])
	if n == 1 {
		return r.buf[0], nil
	}
	if err == nil || os.IsTimeout(err) {
		return 0, xbee.ErrWouldBlock
	}
	return 0, err
}

// Writer is a ByteSink writing one byte per call to W.
// A write timeout or a short write is reported as xbee.ErrWouldBlock.
type Writer struct {
	W io.Writer

	buf [1]byte
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

// WriteByte implements xbee.ByteSink.
func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	n, err := w.W.Write(w.buf[:])
	if n == 1 {
		return nil
	}
	if err == nil || os.IsTimeout(err) {
		return xbee.ErrWouldBlock
	}
	return err
}

// ReadWriter combines Reader and Writer over the same stream.
type ReadWriter struct {
	*Reader
	*Writer
}

// NewReadWriter creates a ReadWriter.
func NewReadWriter(rw io.ReadWriter) *ReadWriter {
	return &ReadWriter{Reader: NewReader(rw), Writer: NewWriter(rw)}
}
