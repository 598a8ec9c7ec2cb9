package link

import (
	"math/rand"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// FrameID is the correlation number of a request. 0 asks the radio
// not to respond, so the sequence skips it.
type FrameID byte

// NewFrameID creates a random starting frame ID.
func NewFrameID() FrameID {
	return FrameID(rand.Intn(0xFF)).Next()
}

// Next calculates the next frame ID.
func (id FrameID) Next() FrameID {
	n := byte(id) + 1
	if n == 0 {
		n = 1
	}
	return FrameID(n)
}

// IsValid checks if the ID expects a response.
func (id FrameID) IsValid() bool {
	return id != 0
}

// WithFrameID returns a copy of f using id.
func WithFrameID(f xbee.Outbound, id FrameID) (xbee.Outbound, error) {
	switch req := f.(type) {
	case xbee.TxRequest:
		req.FrameID = byte(id)
		return req, nil
	case xbee.AtCommand:
		req.FrameID = byte(id)
		return req, nil
	case xbee.AtCommandQueueParam:
		req.FrameID = byte(id)
		return req, nil
	case xbee.RemoteAtCommand:
		req.FrameID = byte(id)
		return req, nil
	}
	return nil, ErrNoFrameID
}

// ResponseFrameID extracts the frame ID of a response. It returns false
// for frames which do not answer a request.
func ResponseFrameID(f xbee.Inbound) (FrameID, bool) {
	switch resp := f.(type) {
	case xbee.TransmitStatus:
		return FrameID(resp.FrameID), resp.FrameID != 0
	case xbee.AtCommandResponse:
		return FrameID(resp.FrameID), resp.FrameID != 0
	case xbee.RemoteAtCommandResponse:
		return FrameID(resp.FrameID), resp.FrameID != 0
	}
	return 0, false
}

// Detach copies the data a decoded frame borrows from the decoder, so
// it can be kept after the handler returns.
func Detach(f xbee.Inbound) xbee.Inbound {
	switch v := f.(type) {
	case xbee.RxPacket:
		v.Data = cloneBytes(v.Data)
		return v
	case xbee.AtCommandResponse:
		v.Data = cloneBytes(v.Data)
		return v
	case xbee.RemoteAtCommandResponse:
		v.Data = cloneBytes(v.Data)
		return v
	}
	return f
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
