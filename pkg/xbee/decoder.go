package xbee

// Decoder deserializes frames. The staging buffer is reused, so a
// Decoder must not be shared by concurrent callers, and slices handed
// out by a Read are only valid until it returns.
type Decoder struct {
	buf [Capacity]byte
}

// Read reads exactly one frame from src and calls onFrame with it.
// Data fields of the frame reference the staging buffer and must not
// be retained after onFrame returns.
//
// A frame with an unknown status code is still passed to onFrame, then
// its UnknownStatusError is returned.
func (d *Decoder) Read(src ByteSource, onFrame func(Inbound)) error {
	return d.ReadPayload(src, func(payload []byte) error {
		f, err := ParseInbound(payload)
		if f != nil {
			onFrame(f)
		}
		return err
	})
}

// ReadPayload reads exactly one frame from src, verifies it and calls fn
// with the payload (checksum excluded). The error from fn is returned.
//
// A byte other than StartDelimiter fails with ErrNoStart after consuming
// only that byte. A declared length beyond the buffer fails with
// ErrOverflow once the L+1 body bytes are consumed and discarded, so the
// next read starts at the following frame.
func (d *Decoder) ReadPayload(src ByteSource, fn func([]byte) error) error {
	b, err := readByte(src)
	if err != nil {
		return err
	}
	if b != StartDelimiter {
		return ErrNoStart
	}
	hi, err := readByte(src)
	if err != nil {
		return err
	}
	lo, err := readByte(src)
	if err != nil {
		return err
	}
	length := int(hi)<<8 | int(lo)
	if length+1 > len(d.buf) {
		for i := 0; i <= length; i++ {
			if _, err = readByte(src); err != nil {
				return err
			}
		}
		return ErrOverflow
	}
	for i := 0; i <= length; i++ {
		if d.buf[i], err = readByte(src); err != nil {
			return err
		}
	}
	payload, checksum := d.buf[:length], d.buf[length]
	if s := sum(payload); s+checksum != 0xFF {
		return &ChecksumError{Sum: s, Checksum: checksum}
	}
	return fn(payload)
}
