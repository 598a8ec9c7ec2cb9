package xbee

// Frame types (first payload byte).
const (
	FrameTypeAtCommand               byte = 0x08
	FrameTypeAtCommandQueueParam     byte = 0x09
	FrameTypeTxRequest               byte = 0x10
	FrameTypeRemoteAtCommand         byte = 0x17
	FrameTypeAtCommandResponse       byte = 0x88
	FrameTypeModemStatus             byte = 0x8A
	FrameTypeTransmitStatus          byte = 0x8B
	FrameTypeRxPacket                byte = 0x90
	FrameTypeRemoteAtCommandResponse byte = 0x97
)

// Frame is a payload which knows its exact wire layout.
type Frame interface {
	// FrameType returns the frame type byte.
	FrameType() byte
	// EncodedLen returns the payload length, frame type byte included.
	EncodedLen() int
	// EncodeTo emits EncodedLen payload bytes to sink.
	EncodeTo(sink func(byte))
}

// Outbound is a frame sent from the host to the radio.
type Outbound interface {
	Frame
	outbound()
}

// Inbound is a frame sent from the radio to the host.
type Inbound interface {
	Frame
	inbound()
}

// AtCommandName is a two-character AT command, e.g. "MY".
type AtCommandName [2]byte

// AtCmd creates an AtCommandName from a string. Only the first two
// characters are used.
func AtCmd(s string) (n AtCommandName) {
	copy(n[:], s)
	return
}

// String implements fmt.Stringer.
func (n AtCommandName) String() string {
	return string(n[:])
}

// payloadReader reads fields from a verified payload without copying.
type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) next() byte {
	b := r.buf[r.off]
	r.off++
	return b
}

func (r *payloadReader) short() ShortAddress {
	a := ShortAddress{High: r.buf[r.off], Low: r.buf[r.off+1]}
	r.off += 2
	return a
}

func (r *payloadReader) extended() ExtendedAddress {
	b := r.buf[r.off : r.off+8]
	r.off += 8
	return ExtendedAddress{
		High: uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		Low:  uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]),
	}
}

func (r *payloadReader) command() AtCommandName {
	n := AtCommandName{r.buf[r.off], r.buf[r.off+1]}
	r.off += 2
	return n
}

func (r *payloadReader) rest() []byte {
	return r.buf[r.off:]
}

func emitBytes(sink func(byte), data []byte) {
	for _, b := range data {
		sink(b)
	}
}
