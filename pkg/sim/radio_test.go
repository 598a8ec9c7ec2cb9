package sim

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/xbee.go/pkg/link"
	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

var (
	radioMAC = xbee.ExtendedAddressFrom(0x0013A20040000001)
	routerA  = &Peer{MAC: xbee.ExtendedAddressFrom(0x0013A20040000002), Addr: xbee.ShortAddressFrom(0x0002), NodeID: "ROUTER-A", Echo: true}
	routerB  = &Peer{MAC: xbee.ExtendedAddressFrom(0x0013A20040000003), Addr: xbee.ShortAddressFrom(0x0003), NodeID: "ROUTER-B"}
)

type simTestEnv struct {
	t      *testing.T
	radio  *Radio
	link   *link.Link
	frames chan xbee.Inbound
}

func newSimTestEnv(t *testing.T) *simTestEnv {
	host, conn := net.Pipe()
	env := &simTestEnv{
		t:      t,
		radio:  NewRadio(radioMAC, xbee.ShortAddressCoordinator, "COORD"),
		link:   link.New(host),
		frames: make(chan xbee.Inbound, 4),
	}
	env.radio.AddPeer(&Peer{MAC: routerA.MAC, Addr: routerA.Addr, NodeID: routerA.NodeID, Echo: true})
	env.radio.AddPeer(&Peer{MAC: routerB.MAC, Addr: routerB.Addr, NodeID: routerB.NodeID})
	env.link.Timeout = time.Second
	env.link.Handler = link.HandleFrameFunc(func(ctx context.Context, f xbee.Inbound) {
		env.frames <- link.Detach(f)
	})
	ctx, cancel := context.WithCancel(context.Background())
	go env.radio.Serve(ctx, conn)
	go env.link.Run(ctx)
	t.Cleanup(func() {
		cancel()
		host.Close()
	})
	require.Equal(t, xbee.ModemStatusFrame{Status: xbee.ModemHardwareReset}, env.nextFrame())
	return env
}

func (e *simTestEnv) nextFrame() xbee.Inbound {
	select {
	case f := <-e.frames:
		return f
	case <-time.After(time.Second):
		e.t.Fatal("timeout waiting for frame")
	}
	return nil
}

func (e *simTestEnv) request(f xbee.Outbound) link.Result {
	return e.link.Request(context.Background(), f)
}

func (e *simTestEnv) at(cmd string, param ...byte) link.Result {
	return e.request(xbee.AtCommand{Command: xbee.AtCmd(cmd), Param: param})
}

func TestTransmit(t *testing.T) {
	env := newSimTestEnv(t)

	r := env.request(xbee.TxRequest{DestMAC: routerA.MAC, DestAddr: xbee.ShortAddressUnknown, Data: []byte("ping")})
	require.NoError(t, r.Err)
	status := r.Frame.(xbee.TransmitStatus)
	require.Equal(t, routerA.Addr, status.DestAddr)
	require.Equal(t, xbee.DiscoAddressDiscovery, status.DiscoStatus)
	rx := env.nextFrame().(xbee.RxPacket)
	require.Equal(t, routerA.MAC, rx.SourceMAC)
	require.Equal(t, []byte("ping"), rx.Data)
	require.True(t, rx.Options.Has(xbee.RxPacketAcknowledged))

	r = env.request(xbee.TxRequest{DestMAC: routerB.MAC, DestAddr: routerB.Addr, Data: []byte("quiet")})
	require.NoError(t, r.Err)
	require.Equal(t, xbee.DiscoNoOverhead, r.Frame.(xbee.TransmitStatus).DiscoStatus)

	r = env.request(xbee.TxRequest{DestMAC: xbee.ExtendedAddressFrom(0x0013A200400000FF), Data: []byte("lost")})
	var derr *link.DeliveryError
	require.True(t, errors.As(r.Err, &derr))
	require.Equal(t, xbee.TxAddressNotFound, derr.Status)

	r = env.request(xbee.TxRequest{DestMAC: routerA.MAC, Data: make([]byte, MaxPayload+1)})
	require.True(t, errors.As(r.Err, &derr))
	require.Equal(t, xbee.TxPayloadTooLarge, derr.Status)
}

func TestBroadcast(t *testing.T) {
	env := newSimTestEnv(t)
	r := env.request(xbee.TxRequest{DestMAC: xbee.ExtendedAddressBroadcast, DestAddr: xbee.ShortAddressUnknown, Data: []byte("all")})
	require.NoError(t, r.Err)
	rx := env.nextFrame().(xbee.RxPacket)
	require.Equal(t, routerA.MAC, rx.SourceMAC)
	require.True(t, rx.Options.Has(xbee.RxBroadcastPacket))
}

func TestLocalCommands(t *testing.T) {
	env := newSimTestEnv(t)
	testCases := []struct {
		name   string
		cmd    string
		param  []byte
		status xbee.AtCommandStatus
		data   []byte
	}{
		{"serial high", "SH", nil, xbee.AtStatusOK, []byte{0x00, 0x13, 0xA2, 0x00}},
		{"serial low", "SL", nil, xbee.AtStatusOK, []byte{0x40, 0x00, 0x00, 0x01}},
		{"short address", "MY", nil, xbee.AtStatusOK, []byte{0, 0}},
		{"firmware", "VR", nil, xbee.AtStatusOK, []byte{0x21, 0xA7}},
		{"node id", "NI", nil, xbee.AtStatusOK, []byte("COORD")},
		{"set node id", "NI", []byte("HUB"), xbee.AtStatusOK, nil},
		{"node id changed", "NI", nil, xbee.AtStatusOK, []byte("HUB")},
		{"read only", "SH", []byte{1}, xbee.AtStatusInvalidParameter, nil},
		{"unknown", "ZZ", nil, xbee.AtStatusInvalidCommand, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := env.at(tc.cmd, tc.param...)
			resp := r.Frame.(xbee.AtCommandResponse)
			require.Equal(t, tc.status, resp.Status)
			require.Equal(t, xbee.AtCmd(tc.cmd), resp.Command)
			if tc.status == xbee.AtStatusOK {
				require.NoError(t, r.Err)
			} else {
				require.Error(t, r.Err)
			}
			if len(tc.data) == 0 {
				require.Empty(t, resp.Data)
			} else {
				require.Equal(t, tc.data, resp.Data)
			}
		})
	}
}

func TestQueuedParams(t *testing.T) {
	env := newSimTestEnv(t)
	r := env.request(xbee.AtCommandQueueParam{Command: xbee.AtCmd("NJ"), Param: []byte{0x10}})
	require.NoError(t, r.Err)
	val, _ := env.radio.Param(xbee.AtCmd("NJ"))
	require.Equal(t, []byte{0xFF}, val)

	require.NoError(t, env.at("AC").Err)
	val, _ = env.radio.Param(xbee.AtCmd("NJ"))
	require.Equal(t, []byte{0x10}, val)
}

func TestRemoteCommands(t *testing.T) {
	env := newSimTestEnv(t)
	r := env.request(xbee.RemoteAtCommand{DestMAC: routerB.MAC, DestAddr: xbee.ShortAddressUnknown, Command: xbee.AtCmd("NI")})
	require.NoError(t, r.Err)
	resp := r.Frame.(xbee.RemoteAtCommandResponse)
	require.Equal(t, routerB.MAC, resp.SourceMAC)
	require.Equal(t, routerB.Addr, resp.SourceAddr)
	require.Equal(t, []byte("ROUTER-B"), resp.Data)

	r = env.request(xbee.RemoteAtCommand{DestMAC: routerB.MAC, Command: xbee.AtCmd("D0"), Param: []byte{4}})
	var cerr *link.CommandError
	require.True(t, errors.As(r.Err, &cerr))
	require.Equal(t, xbee.AtStatusInvalidCommand, cerr.Status)

	r = env.request(xbee.RemoteAtCommand{DestMAC: xbee.ExtendedAddressFrom(1), Command: xbee.AtCmd("NI")})
	require.True(t, errors.As(r.Err, &cerr))
	require.Equal(t, xbee.AtStatusTxFailure, cerr.Status)
}

func TestNoResponseWithoutFrameID(t *testing.T) {
	env := newSimTestEnv(t)
	require.NoError(t, env.link.Send(xbee.TxRequest{DestMAC: routerA.MAC, DestAddr: routerA.Addr, Data: []byte{7}}))
	// only the echo arrives, the transmit status was suppressed.
	rx := env.nextFrame().(xbee.RxPacket)
	require.Equal(t, []byte{7}, rx.Data)
	select {
	case f := <-env.frames:
		t.Fatalf("unexpected frame %+v", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReceive(t *testing.T) {
	env := newSimTestEnv(t)
	require.NoError(t, env.radio.Receive(routerB, []byte{1, 2, 3}, false))
	rx := env.nextFrame().(xbee.RxPacket)
	require.Equal(t, routerB.MAC, rx.SourceMAC)
	require.Equal(t, routerB.Addr, rx.SourceAddr)
	require.Equal(t, []byte{1, 2, 3}, rx.Data)

	idle := NewRadio(radioMAC, xbee.ShortAddressCoordinator, "")
	require.Equal(t, ErrNotConnected, idle.Receive(routerB, nil, false))
}

func TestConfig(t *testing.T) {
	conf := NewConfig()
	conf.MAC = "0013A200:40000001"
	conf.Peers = "0013A20040000002/0x0002/ROUTER, 0013A20040000003"
	conf.Echo = true
	r, err := conf.NewRadio()
	require.NoError(t, err)
	require.Equal(t, radioMAC, r.MAC)
	peers := r.Peers()
	require.Len(t, peers, 2)
	for _, p := range peers {
		require.True(t, p.Echo)
		if p.MAC == routerA.MAC {
			require.Equal(t, "ROUTER", p.NodeID)
			require.Equal(t, xbee.ShortAddressFrom(2), p.Addr)
		} else {
			require.Equal(t, xbee.ShortAddressUnknown, p.Addr)
		}
	}

	_, err = ParsePeer("nothex")
	require.Error(t, err)
	_, err = ParsePeer("0013A20040000002/0x10000")
	require.Error(t, err)
}

func TestBeacon(t *testing.T) {
	env := newSimTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.radio.Beacon(ctx, 20*time.Millisecond) }()

	nodeIDs := make(map[xbee.ExtendedAddress]string)
	for len(nodeIDs) < 2 {
		rx := env.nextFrame().(xbee.RxPacket)
		nodeIDs[rx.SourceMAC] = string(rx.Data)
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Equal(t, map[xbee.ExtendedAddress]string{
		routerA.MAC: routerA.NodeID,
		routerB.MAC: routerB.NodeID,
	}, nodeIDs)

	idle := NewRadio(radioMAC, xbee.ShortAddressCoordinator, "")
	idle.AddPeer(&Peer{MAC: routerB.MAC})
	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, idle.Beacon(ctx, 10*time.Millisecond))
}
