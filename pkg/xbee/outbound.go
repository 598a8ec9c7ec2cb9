package xbee

// TxRequest transmits data to a remote device (frame type 0x10).
// BroadcastRadius is the max hops of a broadcast, 0 for maximum.
type TxRequest struct {
	FrameID         byte
	DestMAC         ExtendedAddress
	DestAddr        ShortAddress
	BroadcastRadius byte
	Options         TxOptions
	Data            []byte
}

// txRequestHeaderLen is the fixed part of a TxRequest payload.
const txRequestHeaderLen = 14

func (TxRequest) outbound() {}

// FrameType implements Frame.
func (TxRequest) FrameType() byte { return FrameTypeTxRequest }

// EncodedLen implements Frame.
func (f TxRequest) EncodedLen() int {
	return txRequestHeaderLen + len(f.Data)
}

// EncodeTo implements Frame.
func (f TxRequest) EncodeTo(sink func(byte)) {
	sink(FrameTypeTxRequest)
	sink(f.FrameID)
	f.DestMAC.encodeTo(sink)
	f.DestAddr.encodeTo(sink)
	sink(f.BroadcastRadius)
	sink(byte(f.Options))
	emitBytes(sink, f.Data)
}

// AtCommand queries or sets a local parameter and applies it
// immediately (frame type 0x08).
type AtCommand struct {
	FrameID byte
	Command AtCommandName
	Param   []byte
}

func (AtCommand) outbound() {}

// FrameType implements Frame.
func (AtCommand) FrameType() byte { return FrameTypeAtCommand }

// EncodedLen implements Frame.
func (f AtCommand) EncodedLen() int {
	return 4 + len(f.Param)
}

// EncodeTo implements Frame.
func (f AtCommand) EncodeTo(sink func(byte)) {
	encodeAtCommand(sink, FrameTypeAtCommand, f.FrameID, f.Command, f.Param)
}

// AtCommandQueueParam sets a local parameter without applying it
// until AC or another AtCommand (frame type 0x09).
type AtCommandQueueParam struct {
	FrameID byte
	Command AtCommandName
	Param   []byte
}

func (AtCommandQueueParam) outbound() {}

// FrameType implements Frame.
func (AtCommandQueueParam) FrameType() byte { return FrameTypeAtCommandQueueParam }

// EncodedLen implements Frame.
func (f AtCommandQueueParam) EncodedLen() int {
	return 4 + len(f.Param)
}

// EncodeTo implements Frame.
func (f AtCommandQueueParam) EncodeTo(sink func(byte)) {
	encodeAtCommand(sink, FrameTypeAtCommandQueueParam, f.FrameID, f.Command, f.Param)
}

func encodeAtCommand(sink func(byte), frameType, frameID byte, cmd AtCommandName, param []byte) {
	sink(frameType)
	sink(frameID)
	sink(cmd[0])
	sink(cmd[1])
	emitBytes(sink, param)
}

// RemoteApplyChanges is the RemoteAtCommand option applying the change
// on the remote device immediately.
const RemoteApplyChanges byte = 0x02

// RemoteAtCommand queries or sets a parameter on a remote device
// (frame type 0x17).
type RemoteAtCommand struct {
	FrameID  byte
	DestMAC  ExtendedAddress
	DestAddr ShortAddress
	Options  byte
	Command  AtCommandName
	Param    []byte
}

func (RemoteAtCommand) outbound() {}

// FrameType implements Frame.
func (RemoteAtCommand) FrameType() byte { return FrameTypeRemoteAtCommand }

// EncodedLen implements Frame.
func (f RemoteAtCommand) EncodedLen() int {
	return 15 + len(f.Param)
}

// EncodeTo implements Frame.
func (f RemoteAtCommand) EncodeTo(sink func(byte)) {
	sink(FrameTypeRemoteAtCommand)
	sink(f.FrameID)
	f.DestMAC.encodeTo(sink)
	f.DestAddr.encodeTo(sink)
	sink(f.Options)
	sink(f.Command[0])
	sink(f.Command[1])
	emitBytes(sink, f.Param)
}

// ParseOutbound parses a verified payload sent by the host.
// Data fields reference payload.
func ParseOutbound(payload []byte) (Outbound, error) {
	if len(payload) == 0 {
		return nil, &MalformedError{}
	}
	r := &payloadReader{buf: payload, off: 1}
	switch ft := payload[0]; ft {
	case FrameTypeTxRequest:
		if len(payload) < txRequestHeaderLen {
			return nil, malformedPayload(payload)
		}
		return TxRequest{
			FrameID:         r.next(),
			DestMAC:         r.extended(),
			DestAddr:        r.short(),
			BroadcastRadius: r.next(),
			Options:         TxOptions(r.next()),
			Data:            r.rest(),
		}, nil
	case FrameTypeAtCommand, FrameTypeAtCommandQueueParam:
		if len(payload) < 4 {
			return nil, malformedPayload(payload)
		}
		id, cmd := r.next(), r.command()
		if ft == FrameTypeAtCommand {
			return AtCommand{FrameID: id, Command: cmd, Param: r.rest()}, nil
		}
		return AtCommandQueueParam{FrameID: id, Command: cmd, Param: r.rest()}, nil
	case FrameTypeRemoteAtCommand:
		if len(payload) < 15 {
			return nil, malformedPayload(payload)
		}
		return RemoteAtCommand{
			FrameID:  r.next(),
			DestMAC:  r.extended(),
			DestAddr: r.short(),
			Options:  r.next(),
			Command:  r.command(),
			Param:    r.rest(),
		}, nil
	default:
		return nil, &UnsupportedError{FrameType: ft}
	}
}
