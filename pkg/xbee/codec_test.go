package xbee

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// stallingSource returns ErrWouldBlock stall times before every byte.
type stallingSource struct {
	data  []byte
	stall int
	left  int
	reads int
}

func newStallingSource(stall int, data ...byte) *stallingSource {
	return &stallingSource{data: data, stall: stall, left: stall}
}

func (s *stallingSource) ReadByte() (byte, error) {
	if s.left > 0 {
		s.left--
		return 0, ErrWouldBlock
	}
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	b := s.data[0]
	s.data, s.left = s.data[1:], s.stall
	s.reads++
	return b, nil
}

// recordingSink accepts bytes after stall ErrWouldBlock, and fails
// with failErr once limit bytes were accepted.
type recordingSink struct {
	out     []byte
	stall   int
	left    int
	limit   int
	failErr error
}

func (s *recordingSink) WriteByte(b byte) error {
	if s.left > 0 {
		s.left--
		return ErrWouldBlock
	}
	if s.failErr != nil && len(s.out) >= s.limit {
		return s.failErr
	}
	s.out = append(s.out, b)
	s.left = s.stall
	return nil
}

var scenarioARequest = TxRequest{
	FrameID:         0x01,
	DestAddr:        ShortAddressUnknown,
	DestMAC:         ExtendedAddress{High: 0x0013A200, Low: 0x400A0127},
	BroadcastRadius: 0x00,
	Options:         TxExtendedTimeout,
	Data:            []byte("Tx2Coord"),
}

var scenarioAWire = []byte{
	0x7E, 0x00, 0x16, 0x10, 0x01, 0x00, 0x13, 0xA2, 0x00, 0x40, 0x0A, 0x01, 0x27, 0xFF,
	0xFE, 0x00, 0x40, 0x54, 0x78, 0x32, 0x43, 0x6F, 0x6F, 0x72, 0x64, 0x95,
}

var scenarioBWire = []byte{0x7E, 0x00, 0x07, 0x8B, 0x01, 0x7D, 0x84, 0x00, 0x00, 0x01, 0x71}

var scenarioBFrame = TransmitStatus{
	FrameID:     0x01,
	DestAddr:    ShortAddress{High: 0x7D, Low: 0x84},
	RetryCount:  0x00,
	Status:      TxSuccess,
	DiscoStatus: DiscoAddressDiscovery,
}

func wireOf(payload ...byte) []byte {
	wire := []byte{StartDelimiter, byte(len(payload) >> 8), byte(len(payload))}
	wire = append(wire, payload...)
	return append(wire, Checksum(payload))
}

func readOne(t *testing.T, src ByteSource) (Inbound, error) {
	var d Decoder
	var frames []Inbound
	err := d.Read(src, func(f Inbound) {
		frames = append(frames, f)
	})
	if err == nil {
		require.Len(t, frames, 1)
		return frames[0], nil
	}
	require.LessOrEqual(t, len(frames), 1)
	if len(frames) == 1 {
		return frames[0], err
	}
	return nil, err
}

func TestEncodeTxRequest(t *testing.T) {
	var e Encoder
	var sink recordingSink
	require.NoError(t, e.Encode(scenarioARequest, &sink))
	require.Equal(t, scenarioAWire, sink.out)

	wire, err := e.Marshal(scenarioARequest)
	require.NoError(t, err)
	require.Equal(t, scenarioAWire, wire)
}

func TestEncodeRetriesWouldBlock(t *testing.T) {
	var e Encoder
	sink := recordingSink{stall: 3, left: 3}
	require.NoError(t, e.Encode(scenarioARequest, &sink))
	require.Equal(t, scenarioAWire, sink.out)
}

func TestEncodeTransportFailure(t *testing.T) {
	var e Encoder
	failure := errors.New("uart fault")
	sink := recordingSink{limit: 5, failErr: failure}
	err := e.Encode(scenarioARequest, &sink)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, failure, terr.Err)
	require.True(t, errors.Is(err, failure))
	require.Equal(t, scenarioAWire[:5], sink.out)
}

func TestEncodeOverflow(t *testing.T) {
	var e Encoder
	var sink recordingSink
	req := scenarioARequest
	req.Data = make([]byte, Capacity-txRequestHeaderLen+1)
	require.Equal(t, ErrOverflow, e.Encode(req, &sink))
	require.Empty(t, sink.out)
	_, err := e.Marshal(req)
	require.Equal(t, ErrOverflow, err)

	req.Data = req.Data[:len(req.Data)-1]
	require.NoError(t, e.Encode(req, &sink))
	require.Len(t, sink.out, Capacity+FrameOverhead)
}

type lyingFrame struct {
	TxRequest
}

func (f lyingFrame) EncodedLen() int { return f.TxRequest.EncodedLen() - 1 }

func TestEncodeLengthMismatch(t *testing.T) {
	var e Encoder
	var sink recordingSink
	require.Equal(t, ErrLengthMismatch, e.Encode(lyingFrame{scenarioARequest}, &sink))
	require.Empty(t, sink.out)
}

func TestEncodeInvariants(t *testing.T) {
	var e Encoder
	for n := 0; n <= 241; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*7 + n)
		}
		req := TxRequest{
			FrameID:  byte(n),
			DestMAC:  ExtendedAddressFrom(0x0013A20040A1B2C3 + uint64(n)),
			DestAddr: ShortAddressFrom(uint16(n) * 31),
			Options:  TxOptions(n),
			Data:     data,
		}
		require.Equal(t, 14+n, req.EncodedLen())
		wire, err := e.Marshal(req)
		require.NoError(t, err)
		require.Len(t, wire, 14+n+4, "length invariant, data %d", n)
		require.Equal(t, byte(0xFF), sum(wire[3:]), "checksum invariant, data %d", n)
		again, err := e.Marshal(req)
		require.NoError(t, err)
		require.Equal(t, wire, again, "idempotent, data %d", n)

		var d Decoder
		err = d.ReadPayload(newStallingSource(0, wire...), func(payload []byte) error {
			out, err := ParseOutbound(payload)
			require.NoError(t, err)
			require.Equal(t, req, out)
			return nil
		})
		require.NoError(t, err, "round trip, data %d", n)
	}
}

func TestDecodeTransmitStatus(t *testing.T) {
	for _, stall := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("stall %d", stall), func(t *testing.T) {
			src := newStallingSource(stall, scenarioBWire...)
			f, err := readOne(t, src)
			require.NoError(t, err)
			require.Equal(t, scenarioBFrame, f)
			require.Equal(t, len(scenarioBWire), src.reads)
		})
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	for bit := uint(0); bit < 8; bit++ {
		wire := append([]byte(nil), scenarioBWire...)
		wire[len(wire)-1] ^= 1 << bit
		_, err := readOne(t, newStallingSource(0, wire...))
		var cerr *ChecksumError
		require.True(t, errors.As(err, &cerr), "bit %d: %v", bit, err)
		require.Equal(t, byte(0x8E), cerr.Sum)
		require.Equal(t, wire[len(wire)-1], cerr.Checksum)
		require.True(t, IsFrameError(err))
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		wire  []byte
		check func(*testing.T, error)
		reads int
	}{
		{
			name: "no start",
			wire: []byte{0x00, 0x7E, 0x00},
			check: func(t *testing.T, err error) {
				require.Equal(t, ErrNoStart, err)
				require.False(t, IsFrameError(err))
			},
			reads: 1,
		},
		{
			name: "overflow",
			wire: append([]byte{0x7E, 0x01, 0x00}, make([]byte, 0x101)...),
			check: func(t *testing.T, err error) {
				require.Equal(t, ErrOverflow, err)
			},
			reads: 3 + 0x101,
		},
		{
			name: "unsupported",
			wire: wireOf(0x10, 0x01),
			check: func(t *testing.T, err error) {
				require.Equal(t, &UnsupportedError{FrameType: 0x10}, err)
				require.True(t, IsFrameError(err))
			},
			reads: 6,
		},
		{
			name: "empty payload",
			wire: wireOf(),
			check: func(t *testing.T, err error) {
				require.Equal(t, &MalformedError{}, err)
			},
			reads: 4,
		},
		{
			name: "short rx packet",
			wire: wireOf(0x90, 1, 2, 3, 4, 5, 6, 7, 8, 9),
			check: func(t *testing.T, err error) {
				require.Equal(t, &MalformedError{FrameType: 0x90, Len: 10}, err)
			},
			reads: 14,
		},
		{
			name: "unknown tx status",
			wire: wireOf(0x8B, 0x01, 0x7D, 0x84, 0x00, 0x99, 0x01),
			check: func(t *testing.T, err error) {
				require.Equal(t, &UnknownStatusError{Kind: "TxStatus", Code: 0x99}, err)
			},
			reads: 11,
		},
		{
			name: "truncated stream",
			wire: scenarioBWire[:6],
			check: func(t *testing.T, err error) {
				var terr *TransportError
				require.True(t, errors.As(err, &terr))
				require.True(t, errors.Is(err, io.EOF))
				require.False(t, IsFrameError(err))
			},
			reads: 6,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := newStallingSource(1, tc.wire...)
			_, err := readOne(t, src)
			require.Error(t, err)
			tc.check(t, err)
			require.Equal(t, tc.reads, src.reads)
		})
	}
}

func TestDecodeMaxPayload(t *testing.T) {
	payload := make([]byte, Capacity-1)
	payload[0] = FrameTypeRxPacket
	var d Decoder
	var got []byte
	err := d.ReadPayload(newStallingSource(0, wireOf(payload...)...), func(p []byte) error {
		got = append(got, p...)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, payload, got)

	payload = append(payload, 0)
	err = d.ReadPayload(newStallingSource(0, wireOf(payload...)...), func([]byte) error {
		t.Fatal("unexpected payload")
		return nil
	})
	require.Equal(t, ErrOverflow, err)
}

func TestDecodeSequentialFrames(t *testing.T) {
	var e Encoder
	frames := []Inbound{
		ModemStatusFrame{Status: ModemHardwareReset},
		scenarioBFrame,
		RxPacket{
			SourceMAC:  ExtendedAddress{High: 0x0013A200, Low: 0x40522BAA},
			SourceAddr: ShortAddress{High: 0x7D, Low: 0x84},
			Options:    RxPacketAcknowledged,
			Data:       []byte("RxData"),
		},
		AtCommandResponse{FrameID: 0x52, Command: AtCmd("MY"), Status: AtStatusOK, Data: []byte{0xFF, 0xFE}},
		RemoteAtCommandResponse{
			FrameID:    0x55,
			SourceMAC:  ExtendedAddress{High: 0x0013A200, Low: 0x40522BAA},
			SourceAddr: ShortAddress{High: 0x7D, Low: 0x84},
			Command:    AtCmd("SL"),
			Status:     AtStatusOK,
			Data:       []byte{0x40, 0x52, 0x2B, 0xAA},
		},
	}
	var stream []byte
	for _, f := range frames {
		wire, err := e.Marshal(f)
		require.NoError(t, err)
		stream = append(stream, wire...)
	}
	src := newStallingSource(2, stream...)
	var d Decoder
	for i, expect := range frames {
		err := d.Read(src, func(f Inbound) {
			require.Equalf(t, expect, f, "frame[%d] mismatch", i)
		})
		require.NoError(t, err)
	}
	require.Empty(t, src.data)
}

func TestReadPayloadCallbackError(t *testing.T) {
	var d Decoder
	stop := errors.New("stop")
	err := d.ReadPayload(newStallingSource(0, scenarioBWire...), func([]byte) error {
		return stop
	})
	require.Equal(t, stop, err)
}

func TestByteFuncs(t *testing.T) {
	src := ByteSourceFunc(func() (byte, error) { return 0x42, nil })
	b, err := src.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x42), b)

	var got byte
	sink := ByteSinkFunc(func(b byte) error { got = b; return nil })
	require.NoError(t, sink.WriteByte(0x24))
	require.Equal(t, byte(0x24), got)
}

func TestDecodeAfterOverflow(t *testing.T) {
	body := make([]byte, 0x101)
	for i := range body {
		body[i] = StartDelimiter
	}
	wire := append([]byte{StartDelimiter, 0x01, 0x00}, body...)
	wire = append(wire, scenarioBWire...)
	src := newStallingSource(0, wire...)

	_, err := readOne(t, src)
	require.Equal(t, ErrOverflow, err)
	f, err := readOne(t, src)
	require.NoError(t, err)
	require.Equal(t, scenarioBFrame, f)
}

func TestDecodeUnknownStatus(t *testing.T) {
	testCases := []struct {
		name   string
		wire   []byte
		expect Inbound
		err    error
	}{
		{
			name:   "tx status",
			wire:   wireOf(0x8B, 0x01, 0x7D, 0x84, 0x00, 0x0E, 0x00),
			expect: TransmitStatus{FrameID: 1, DestAddr: ShortAddress{High: 0x7D, Low: 0x84}, Status: TxStatus(0x0E)},
			err:    &UnknownStatusError{Kind: "TxStatus", Code: 0x0E},
		},
		{
			name:   "modem status",
			wire:   wireOf(0x8A, 0x0B),
			expect: ModemStatusFrame{Status: ModemStatus(0x0B)},
			err:    &UnknownStatusError{Kind: "ModemStatus", Code: 0x0B},
		},
		{
			name:   "at status",
			wire:   wireOf(0x88, 0x02, 'N', 'I', 0x07, 'X'),
			expect: AtCommandResponse{FrameID: 2, Command: AtCmd("NI"), Status: AtCommandStatus(0x07), Data: []byte("X")},
			err:    &UnknownStatusError{Kind: "AtCommandStatus", Code: 0x07},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := readOne(t, newStallingSource(0, tc.wire...))
			require.Equal(t, tc.err, err)
			require.True(t, IsFrameError(err))
			require.Equal(t, tc.expect, f)
		})
	}
}
