package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

func TestNewRxMessage(t *testing.T) {
	data := []byte{0xDE, 0xAD}
	msg := NewRxMessage(xbee.RxPacket{
		SourceMAC:  xbee.ExtendedAddressFrom(0x0013A20040A1B2C3),
		SourceAddr: xbee.ShortAddressFrom(0x7D84),
		Options:    xbee.RxBroadcastPacket | xbee.RxPacketEncrypted,
		Data:       data,
	}, time.Unix(1, int64(500*time.Millisecond)))
	data[0] = 0
	require.Equal(t, &RxMessage{
		Source:    "0013A20040A1B2C3",
		Addr:      "7D84",
		Broadcast: true,
		Encrypted: true,
		Data:      []byte{0xDE, 0xAD},
		Time:      1500,
	}, msg)
}

func TestTxMessageRequest(t *testing.T) {
	dest := xbee.ExtendedAddressFrom(0x0013A20040A1B2C3)
	testCases := []struct {
		name string
		msg  TxMessage
		req  xbee.TxRequest
	}{
		{
			"text",
			TxMessage{Text: "hi"},
			xbee.TxRequest{DestMAC: dest, DestAddr: xbee.ShortAddressUnknown, Data: []byte("hi")},
		},
		{
			"data wins over text",
			TxMessage{Data: []byte{1}, Text: "ignored"},
			xbee.TxRequest{DestMAC: dest, DestAddr: xbee.ShortAddressUnknown, Data: []byte{1}},
		},
		{
			"options",
			TxMessage{Addr: "7d84", Radius: 3, DisableRetries: true, Encrypt: true, ExtendedTimeout: true, Data: []byte{1}},
			xbee.TxRequest{
				DestMAC:         dest,
				DestAddr:        xbee.ShortAddressFrom(0x7D84),
				BroadcastRadius: 3,
				Options:         xbee.TxDisableRetries | xbee.TxEnableEncryption | xbee.TxExtendedTimeout,
				Data:            []byte{1},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := tc.msg.Request(dest)
			require.NoError(t, err)
			require.Equal(t, tc.req, req)
		})
	}

	for _, addr := range []string{"7D8", "7D8400", "zzzz"} {
		_, err := (&TxMessage{Addr: addr}).Request(dest)
		require.Error(t, err, addr)
	}
}

func TestAtMessageRequest(t *testing.T) {
	remote := xbee.ExtendedAddressFrom(0x0013A20040A1B2C3)
	testCases := []struct {
		name string
		msg  AtMessage
		req  xbee.Outbound
	}{
		{"local", AtMessage{Command: "ni"}, xbee.AtCommand{Command: xbee.AtCmd("NI")}},
		{"queued", AtMessage{Command: "NJ", Param: []byte{0}, Queue: true}, xbee.AtCommandQueueParam{Command: xbee.AtCmd("NJ"), Param: []byte{0}}},
		{
			"remote",
			AtMessage{Dest: "0013A20040A1B2C3", Command: "D0", Param: []byte{4}, Apply: true},
			xbee.RemoteAtCommand{DestMAC: remote, DestAddr: xbee.ShortAddressUnknown, Options: xbee.RemoteApplyChanges, Command: xbee.AtCmd("D0"), Param: []byte{4}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := tc.msg.Request()
			require.NoError(t, err)
			require.Equal(t, tc.req, req)
		})
	}

	_, err := (&AtMessage{Command: "N"}).Request()
	require.Error(t, err)
	_, err = (&AtMessage{Command: "NI", Dest: "nowhere"}).Request()
	require.Error(t, err)
}

func TestCodecs(t *testing.T) {
	msg := &StatusMessage{
		ID:        "m1",
		Dest:      "0013A20040A1B2C3",
		Addr:      "7D84",
		Status:    "NoAck",
		Code:      1,
		Retries:   2,
		Discovery: "RouteDiscovery",
		Error:     "delivery failed: NoAck",
	}
	for _, name := range []string{"json", "protobuf"} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			require.NoError(t, err)
			require.Equal(t, name, codec.Name())
			data, err := codec.Marshal(msg)
			require.NoError(t, err)
			var decoded StatusMessage
			require.NoError(t, codec.Unmarshal(data, &decoded))
			require.Equal(t, msg, &decoded)
		})
	}
	_, err := CodecByName("xml")
	require.Error(t, err)
	require.Error(t, Protobuf.Unmarshal([]byte{0xFF, 0xFF}, &StatusMessage{}))
}

func TestMessageFor(t *testing.T) {
	testCases := []struct {
		topic    string
		expected interface{}
	}{
		{"gw1/rx/0013A20040A1B2C3", &RxMessage{}},
		{"gw1/tx/broadcast", &TxMessage{}},
		{"gw1/status/0013A20040A1B2C3", &StatusMessage{}},
		{"gw1/at", &AtMessage{}},
		{"gw1/at/reply", &AtReply{}},
		{"gw1/modem", &ModemMessage{}},
		{"gw1/meta", &MetaMessage{}},
		{"gw1/other", nil},
		{"gw1", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.topic, func(t *testing.T) {
			require.Equal(t, tc.expected, MessageFor(tc.topic))
		})
	}
}
