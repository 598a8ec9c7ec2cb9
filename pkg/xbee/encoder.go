package xbee

// Encoder serializes frames. The staging buffer is reused, so an
// Encoder must not be shared by concurrent callers.
type Encoder struct {
	buf [Capacity + FrameOverhead]byte
}

// Encode writes one frame to sink. The frame is staged completely
// before the first byte is written; once writing started, a failure
// leaves a truncated frame on the wire.
func (e *Encoder) Encode(f Frame, sink ByteSink) error {
	wire, err := e.stage(f)
	if err != nil {
		return err
	}
	for _, b := range wire {
		if err := writeByte(sink, b); err != nil {
			return err
		}
	}
	return nil
}

// Marshal returns the wire bytes of a frame.
func (e *Encoder) Marshal(f Frame) ([]byte, error) {
	wire, err := e.stage(f)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), wire...), nil
}

func (e *Encoder) stage(f Frame) ([]byte, error) {
	length := f.EncodedLen()
	if length > Capacity {
		return nil, ErrOverflow
	}
	e.buf[0], e.buf[1], e.buf[2] = StartDelimiter, byte(length>>8), byte(length)
	n, limit := 3, 3+length
	var s byte
	f.EncodeTo(func(b byte) {
		if n < limit {
			e.buf[n] = b
			s += b
		}
		n++
	})
	if n != limit {
		return nil, ErrLengthMismatch
	}
	e.buf[n] = 0xFF - s
	return e.buf[:n+1], nil
}
