package xbee

// rxPacketMinLen is the smallest RxPacket payload: type, MAC, address
// and options, with empty data.
const rxPacketMinLen = 11

// RxPacket is data received from a remote device (frame type 0x90).
type RxPacket struct {
	SourceMAC  ExtendedAddress
	SourceAddr ShortAddress
	Options    RxOptions
	Data       []byte
}

func (RxPacket) inbound() {}

// FrameType implements Frame.
func (RxPacket) FrameType() byte { return FrameTypeRxPacket }

// EncodedLen implements Frame.
func (f RxPacket) EncodedLen() int {
	return rxPacketMinLen + len(f.Data)
}

// EncodeTo implements Frame.
func (f RxPacket) EncodeTo(sink func(byte)) {
	sink(FrameTypeRxPacket)
	f.SourceMAC.encodeTo(sink)
	f.SourceAddr.encodeTo(sink)
	sink(byte(f.Options))
	emitBytes(sink, f.Data)
}

// TransmitStatus reports the result of a TxRequest (frame type 0x8B).
type TransmitStatus struct {
	FrameID     byte
	DestAddr    ShortAddress
	RetryCount  byte
	Status      TxStatus
	DiscoStatus DiscoStatus
}

func (TransmitStatus) inbound() {}

// FrameType implements Frame.
func (TransmitStatus) FrameType() byte { return FrameTypeTransmitStatus }

// EncodedLen implements Frame.
func (TransmitStatus) EncodedLen() int { return 7 }

// EncodeTo implements Frame.
func (f TransmitStatus) EncodeTo(sink func(byte)) {
	sink(FrameTypeTransmitStatus)
	sink(f.FrameID)
	f.DestAddr.encodeTo(sink)
	sink(f.RetryCount)
	sink(byte(f.Status))
	sink(byte(f.DiscoStatus))
}

// AtCommandResponse is the reply to a local AT command (frame type 0x88).
type AtCommandResponse struct {
	FrameID byte
	Command AtCommandName
	Status  AtCommandStatus
	Data    []byte
}

func (AtCommandResponse) inbound() {}

// FrameType implements Frame.
func (AtCommandResponse) FrameType() byte { return FrameTypeAtCommandResponse }

// EncodedLen implements Frame.
func (f AtCommandResponse) EncodedLen() int {
	return 5 + len(f.Data)
}

// EncodeTo implements Frame.
func (f AtCommandResponse) EncodeTo(sink func(byte)) {
	sink(FrameTypeAtCommandResponse)
	sink(f.FrameID)
	sink(f.Command[0])
	sink(f.Command[1])
	sink(byte(f.Status))
	emitBytes(sink, f.Data)
}

// ModemStatusFrame reports a modem state change (frame type 0x8A).
type ModemStatusFrame struct {
	Status ModemStatus
}

func (ModemStatusFrame) inbound() {}

// FrameType implements Frame.
func (ModemStatusFrame) FrameType() byte { return FrameTypeModemStatus }

// EncodedLen implements Frame.
func (ModemStatusFrame) EncodedLen() int { return 2 }

// EncodeTo implements Frame.
func (f ModemStatusFrame) EncodeTo(sink func(byte)) {
	sink(FrameTypeModemStatus)
	sink(byte(f.Status))
}

// RemoteAtCommandResponse is the reply to a RemoteAtCommand
// (frame type 0x97).
type RemoteAtCommandResponse struct {
	FrameID    byte
	SourceMAC  ExtendedAddress
	SourceAddr ShortAddress
	Command    AtCommandName
	Status     AtCommandStatus
	Data       []byte
}

func (RemoteAtCommandResponse) inbound() {}

// FrameType implements Frame.
func (RemoteAtCommandResponse) FrameType() byte { return FrameTypeRemoteAtCommandResponse }

// EncodedLen implements Frame.
func (f RemoteAtCommandResponse) EncodedLen() int {
	return 15 + len(f.Data)
}

// EncodeTo implements Frame.
func (f RemoteAtCommandResponse) EncodeTo(sink func(byte)) {
	sink(FrameTypeRemoteAtCommandResponse)
	sink(f.FrameID)
	f.SourceMAC.encodeTo(sink)
	f.SourceAddr.encodeTo(sink)
	sink(f.Command[0])
	sink(f.Command[1])
	sink(byte(f.Status))
	emitBytes(sink, f.Data)
}

// ParseInbound parses a verified payload (checksum excluded) sent by
// the radio. Data fields reference payload and are only valid as long
// as payload is.
//
// A status code outside the known table does not discard the frame: the
// frame is returned holding the raw code, together with the first
// UnknownStatusError.
func ParseInbound(payload []byte) (Inbound, error) {
	if len(payload) == 0 {
		return nil, &MalformedError{}
	}
	r := &payloadReader{buf: payload, off: 1}
	switch payload[0] {
	case FrameTypeRxPacket:
		if len(payload) < rxPacketMinLen {
			return nil, malformedPayload(payload)
		}
		return RxPacket{
			SourceMAC:  r.extended(),
			SourceAddr: r.short(),
			Options:    RxOptionsTruncate(r.next()),
			Data:       r.rest(),
		}, nil
	case FrameTypeTransmitStatus:
		if len(payload) < 7 {
			return nil, malformedPayload(payload)
		}
		f := TransmitStatus{FrameID: r.next(), DestAddr: r.short(), RetryCount: r.next()}
		var err, discoErr error
		f.Status, err = ParseTxStatus(r.next())
		f.DiscoStatus, discoErr = ParseDiscoStatus(r.next())
		if err == nil {
			err = discoErr
		}
		return f, err
	case FrameTypeAtCommandResponse:
		if len(payload) < 5 {
			return nil, malformedPayload(payload)
		}
		f := AtCommandResponse{FrameID: r.next(), Command: r.command()}
		var err error
		f.Status, err = ParseAtCommandStatus(r.next())
		f.Data = r.rest()
		return f, err
	case FrameTypeModemStatus:
		if len(payload) < 2 {
			return nil, malformedPayload(payload)
		}
		var f ModemStatusFrame
		var err error
		f.Status, err = ParseModemStatus(r.next())
		return f, err
	case FrameTypeRemoteAtCommandResponse:
		if len(payload) < 15 {
			return nil, malformedPayload(payload)
		}
		f := RemoteAtCommandResponse{
			FrameID:    r.next(),
			SourceMAC:  r.extended(),
			SourceAddr: r.short(),
			Command:    r.command(),
		}
		var err error
		f.Status, err = ParseAtCommandStatus(r.next())
		f.Data = r.rest()
		return f, err
	default:
		return nil, &UnsupportedError{FrameType: payload[0]}
	}
}

func malformedPayload(payload []byte) error {
	return &MalformedError{FrameType: payload[0], Len: len(payload)}
}
