// Package sim simulates the firmware of a radio in API mode, so hosts
// can be developed and tested without hardware.
package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
	"github.com/robotalks/xbee.go/pkg/xbee/stream"
)

// ErrNotConnected indicates no host is served at the moment.
var ErrNotConnected = errors.New("no host connected")

// FirmwareVersion is reported for ATVR.
const FirmwareVersion uint16 = 0x21A7

// Peer is a remote device reachable from the simulated radio.
type Peer struct {
	MAC    xbee.ExtendedAddress
	Addr   xbee.ShortAddress
	NodeID string
	// Echo sends data received by the peer back to the host.
	Echo bool
}

// Radio is a simulated radio. It serves one host at a time.
type Radio struct {
	MAC  xbee.ExtendedAddress
	Addr xbee.ShortAddress

	params  map[xbee.AtCommandName][]byte
	queued  map[xbee.AtCommandName][]byte
	peers   map[xbee.ExtendedAddress]*Peer
	lock    sync.Mutex
	enc     xbee.Encoder
	sink    xbee.ByteSink
	encLock sync.Mutex
}

// NewRadio creates a Radio.
func NewRadio(mac xbee.ExtendedAddress, addr xbee.ShortAddress, nodeID string) *Radio {
	r := &Radio{
		MAC:    mac,
		Addr:   addr,
		params: make(map[xbee.AtCommandName][]byte),
		queued: make(map[xbee.AtCommandName][]byte),
		peers:  make(map[xbee.ExtendedAddress]*Peer),
	}
	r.params[xbee.AtCmd("NI")] = []byte(nodeID)
	r.params[xbee.AtCmd("ID")] = []byte{0, 0, 0, 0, 0, 0, 0x33, 0x32}
	r.params[xbee.AtCmd("AP")] = []byte{1}
	r.params[xbee.AtCmd("BD")] = []byte{3}
	r.params[xbee.AtCmd("NJ")] = []byte{0xFF}
	return r
}

// AddPeer adds a remote device.
func (r *Radio) AddPeer(p *Peer) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.peers[p.MAC] = p
}

// Peers returns the remote devices.
func (r *Radio) Peers() (peers []*Peer) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	return
}

// Param returns the value of a local AT parameter.
func (r *Radio) Param(cmd xbee.AtCommandName) ([]byte, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.paramLocked(cmd)
}

func (r *Radio) paramLocked(cmd xbee.AtCommandName) ([]byte, bool) {
	switch cmd.String() {
	case "SH":
		return be32(r.MAC.High), true
	case "SL":
		return be32(r.MAC.Low), true
	case "MY":
		return []byte{r.Addr.High, r.Addr.Low}, true
	case "VR":
		return []byte{byte(FirmwareVersion >> 8), byte(FirmwareVersion & 0xFF)}, true
	}
	val, ok := r.params[cmd]
	return val, ok
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// Serve speaks to the host on rw until ctx is done or rw fails. It
// starts by reporting a hardware reset, like a radio on power up.
func (r *Radio) Serve(ctx context.Context, rw io.ReadWriter) error {
	if c, ok := rw.(io.Closer); ok {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-stop:
			}
		}()
	}

	sink := stream.NewWriter(rw)
	r.encLock.Lock()
	r.sink = sink
	r.encLock.Unlock()
	defer func() {
		r.encLock.Lock()
		if r.sink == sink {
			r.sink = nil
		}
		r.encLock.Unlock()
	}()

	if err := r.emit(xbee.ModemStatusFrame{Status: xbee.ModemHardwareReset}); err != nil {
		return err
	}

	src := stream.NewReader(rw)
	var dec xbee.Decoder
	for {
		err := dec.ReadPayload(src, func(payload []byte) error {
			req, err := xbee.ParseOutbound(payload)
			if err != nil {
				return err
			}
			if glog.V(2) {
				glog.Infof("sim: received %T %+v", req, req)
			}
			return r.handle(req)
		})
		switch {
		case err == nil, err == xbee.ErrNoStart, err == xbee.ErrOverflow:
			continue
		case xbee.IsFrameError(err):
			glog.Warningf("sim: frame dropped: %v", err)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// Receive injects data received from a peer, delivered to the host as
// an RxPacket.
func (r *Radio) Receive(from *Peer, data []byte, broadcast bool) error {
	opts := xbee.RxPacketAcknowledged
	if broadcast {
		opts = xbee.RxBroadcastPacket
	}
	return r.emit(xbee.RxPacket{
		SourceMAC:  from.MAC,
		SourceAddr: from.Addr,
		Options:    opts,
		Data:       data,
	})
}

func (r *Radio) emit(f xbee.Inbound) error {
	r.encLock.Lock()
	defer r.encLock.Unlock()
	if r.sink == nil {
		return ErrNotConnected
	}
	return r.enc.Encode(f, r.sink)
}

func (r *Radio) handle(req xbee.Outbound) error {
	switch req := req.(type) {
	case xbee.TxRequest:
		return r.transmit(req)
	case xbee.AtCommand:
		status, data := r.command(req.Command, req.Param, true)
		return r.respond(req.FrameID, xbee.AtCommandResponse{
			FrameID: req.FrameID,
			Command: req.Command,
			Status:  status,
			Data:    data,
		})
	case xbee.AtCommandQueueParam:
		status, data := r.command(req.Command, req.Param, false)
		return r.respond(req.FrameID, xbee.AtCommandResponse{
			FrameID: req.FrameID,
			Command: req.Command,
			Status:  status,
			Data:    data,
		})
	case xbee.RemoteAtCommand:
		return r.remoteCommand(req)
	}
	return nil
}

// respond sends the response unless the frame ID disabled it.
func (r *Radio) respond(frameID byte, f xbee.Inbound) error {
	if frameID == 0 {
		return nil
	}
	return r.emit(f)
}

func (r *Radio) transmit(req xbee.TxRequest) error {
	broadcast := req.DestMAC == xbee.ExtendedAddressBroadcast
	r.lock.Lock()
	peer := r.peers[req.DestMAC]
	var echoes []*Peer
	if broadcast {
		for _, p := range r.peers {
			if p.Echo {
				echoes = append(echoes, p)
			}
		}
	} else if peer != nil && peer.Echo {
		echoes = append(echoes, peer)
	}
	r.lock.Unlock()

	status := xbee.TransmitStatus{FrameID: req.FrameID, DestAddr: req.DestAddr}
	switch {
	case len(req.Data) > MaxPayload:
		status.Status = xbee.TxPayloadTooLarge
	case broadcast:
		status.DestAddr = xbee.ShortAddressUnknown
	case peer == nil:
		status.Status = xbee.TxAddressNotFound
		status.DiscoStatus = xbee.DiscoAddressDiscovery
	case req.DestAddr == xbee.ShortAddressUnknown:
		status.DestAddr = peer.Addr
		status.DiscoStatus = xbee.DiscoAddressDiscovery
	}
	if err := r.respond(req.FrameID, status); err != nil {
		return err
	}
	if status.Status != xbee.TxSuccess {
		return nil
	}
	for _, p := range echoes {
		if err := r.Receive(p, req.Data, broadcast); err != nil {
			return err
		}
	}
	return nil
}

// MaxPayload is the longest RF payload the simulated radio transmits.
const MaxPayload = 84

func (r *Radio) command(cmd xbee.AtCommandName, param []byte, apply bool) (xbee.AtCommandStatus, []byte) {
	r.lock.Lock()
	defer r.lock.Unlock()
	switch cmd.String() {
	case "AC":
		for name, val := range r.queued {
			r.params[name] = val
		}
		r.queued = make(map[xbee.AtCommandName][]byte)
		return xbee.AtStatusOK, nil
	case "SH", "SL", "MY", "VR":
		if len(param) > 0 {
			return xbee.AtStatusInvalidParameter, nil
		}
	}
	val, ok := r.paramLocked(cmd)
	if !ok {
		return xbee.AtStatusInvalidCommand, nil
	}
	if len(param) == 0 {
		if pending, ok := r.queued[cmd]; ok {
			val = pending
		}
		return xbee.AtStatusOK, append([]byte{}, val...)
	}
	param = append([]byte{}, param...)
	if apply {
		r.params[cmd] = param
		delete(r.queued, cmd)
	} else {
		r.queued[cmd] = param
	}
	return xbee.AtStatusOK, nil
}

func (r *Radio) remoteCommand(req xbee.RemoteAtCommand) error {
	resp := xbee.RemoteAtCommandResponse{
		FrameID:    req.FrameID,
		SourceMAC:  req.DestMAC,
		SourceAddr: req.DestAddr,
		Command:    req.Command,
	}
	r.lock.Lock()
	peer := r.peers[req.DestMAC]
	r.lock.Unlock()
	if peer == nil {
		resp.Status = xbee.AtStatusTxFailure
		return r.respond(req.FrameID, resp)
	}
	resp.SourceAddr = peer.Addr
	r.lock.Lock()
	switch cmd := req.Command.String(); {
	case cmd == "NI" && len(req.Param) == 0:
		resp.Data = []byte(peer.NodeID)
	case cmd == "NI":
		peer.NodeID = string(req.Param)
	case cmd == "MY" && len(req.Param) == 0:
		resp.Data = []byte{peer.Addr.High, peer.Addr.Low}
	case cmd == "SH" && len(req.Param) == 0:
		resp.Data = be32(peer.MAC.High)
	case cmd == "SL" && len(req.Param) == 0:
		resp.Data = be32(peer.MAC.Low)
	default:
		resp.Status = xbee.AtStatusInvalidCommand
	}
	r.lock.Unlock()
	return r.respond(req.FrameID, resp)
}

// Beacon makes every peer send its node identifier to the host on each
// interval until ctx is done. Beacons are skipped while no host is
// connected.
func (r *Radio) Beacon(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		for _, p := range r.Peers() {
			r.lock.Lock()
			nodeID := p.NodeID
			r.lock.Unlock()
			err := r.Receive(p, []byte(nodeID), false)
			if err == ErrNotConnected {
				break
			}
			if err != nil {
				return err
			}
		}
	}
}
