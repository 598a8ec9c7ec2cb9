package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// RxMessage is published for each packet received from a device.
type RxMessage struct {
	Source    string `json:"source"`
	Addr      string `json:"addr"`
	Acked     bool   `json:"acked,omitempty"`
	Broadcast bool   `json:"broadcast,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Data      []byte `json:"data"`
	Time      int64  `json:"time"`
}

// NewRxMessage converts a received packet. Data is copied.
func NewRxMessage(f xbee.RxPacket, at time.Time) *RxMessage {
	return &RxMessage{
		Source:    f.SourceMAC.String(),
		Addr:      f.SourceAddr.String(),
		Acked:     f.Options.Has(xbee.RxPacketAcknowledged),
		Broadcast: f.Options.Has(xbee.RxBroadcastPacket),
		Encrypted: f.Options.Has(xbee.RxPacketEncrypted),
		Data:      append([]byte{}, f.Data...),
		Time:      at.UnixNano() / int64(time.Millisecond),
	}
}

// TxMessage requests transmitting data to the device named by the topic.
// Text is sent when Data is empty.
type TxMessage struct {
	ID              string `json:"id,omitempty"`
	Addr            string `json:"addr,omitempty"`
	Radius          byte   `json:"radius,omitempty"`
	DisableRetries  bool   `json:"disableRetries,omitempty"`
	Encrypt         bool   `json:"encrypt,omitempty"`
	ExtendedTimeout bool   `json:"extendedTimeout,omitempty"`
	Data            []byte `json:"data,omitempty"`
	Text            string `json:"text,omitempty"`
}

// Request builds the TxRequest to dest.
func (m *TxMessage) Request(dest xbee.ExtendedAddress) (xbee.TxRequest, error) {
	req := xbee.TxRequest{
		DestMAC:         dest,
		DestAddr:        xbee.ShortAddressUnknown,
		BroadcastRadius: m.Radius,
		Data:            m.Data,
	}
	if len(req.Data) == 0 {
		req.Data = []byte(m.Text)
	}
	if m.Addr != "" {
		addr, err := parseShortAddress(m.Addr)
		if err != nil {
			return req, err
		}
		req.DestAddr = addr
	}
	if m.DisableRetries {
		req.Options = req.Options.With(xbee.TxDisableRetries)
	}
	if m.Encrypt {
		req.Options = req.Options.With(xbee.TxEnableEncryption)
	}
	if m.ExtendedTimeout {
		req.Options = req.Options.With(xbee.TxExtendedTimeout)
	}
	return req, nil
}

// StatusMessage reports the outcome of a TxMessage.
type StatusMessage struct {
	ID        string `json:"id,omitempty"`
	Dest      string `json:"dest"`
	Addr      string `json:"addr,omitempty"`
	Status    string `json:"status"`
	Code      byte   `json:"code"`
	Retries   byte   `json:"retries,omitempty"`
	Discovery string `json:"discovery,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AtMessage requests an AT command, on a remote device if Dest is set.
type AtMessage struct {
	ID      string `json:"id,omitempty"`
	Dest    string `json:"dest,omitempty"`
	Command string `json:"command"`
	Param   []byte `json:"param,omitempty"`
	// Queue defers applying a local parameter until AC.
	Queue bool `json:"queue,omitempty"`
	// Apply applies a remote parameter immediately.
	Apply bool `json:"apply,omitempty"`
}

// Request builds the AT command frame.
func (m *AtMessage) Request() (xbee.Outbound, error) {
	if len(m.Command) != 2 {
		return nil, fmt.Errorf("invalid AT command %q", m.Command)
	}
	cmd := xbee.AtCmd(strings.ToUpper(m.Command))
	if m.Dest != "" {
		dest, err := xbee.ParseExtendedAddress(m.Dest)
		if err != nil {
			return nil, err
		}
		req := xbee.RemoteAtCommand{DestMAC: dest, DestAddr: xbee.ShortAddressUnknown, Command: cmd, Param: m.Param}
		if m.Apply {
			req.Options = xbee.RemoteApplyChanges
		}
		return req, nil
	}
	if m.Queue {
		return xbee.AtCommandQueueParam{Command: cmd, Param: m.Param}, nil
	}
	return xbee.AtCommand{Command: cmd, Param: m.Param}, nil
}

// AtReply is the response of an AtMessage.
type AtReply struct {
	ID      string `json:"id,omitempty"`
	Source  string `json:"source,omitempty"`
	Command string `json:"command"`
	Status  string `json:"status"`
	Data    []byte `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ModemMessage reports a modem status event.
type ModemMessage struct {
	Status string `json:"status"`
	Code   byte   `json:"code"`
	Time   int64  `json:"time"`
}

// MetaMessage describes the gateway, published retained.
type MetaMessage struct {
	ID     string `json:"id"`
	MAC    string `json:"mac,omitempty"`
	NodeID string `json:"nodeId,omitempty"`
	Online bool   `json:"online"`
}

func parseShortAddress(s string) (xbee.ShortAddress, error) {
	var v uint16
	if _, err := fmt.Sscanf(s, "%04x", &v); err != nil || len(s) != 4 {
		return xbee.ShortAddress{}, fmt.Errorf("invalid short address %q", s)
	}
	return xbee.ShortAddressFrom(v), nil
}

// Codec encodes envelopes for MQTT payloads.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

var (
	// JSON encodes envelopes as JSON objects.
	JSON Codec = jsonCodec{}
	// Protobuf encodes envelopes as google.protobuf.Struct messages
	// with the same fields as JSON.
	Protobuf Codec = protobufCodec{}
)

// CodecByName finds a Codec by name.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "protobuf", "proto", "pb":
		return Protobuf, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type protobufCodec struct{}

func (protobufCodec) Name() string { return "protobuf" }

func (protobufCodec) Marshal(v interface{}) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var s structpb.Struct
	if err := jsonpb.Unmarshal(bytes.NewReader(encoded), &s); err != nil {
		return nil, err
	}
	return proto.Marshal(&s)
}

func (protobufCodec) Unmarshal(data []byte, v interface{}) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	encoded, err := (&jsonpb.Marshaler{}).MarshalToString(&s)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(encoded), v)
}

// MessageFor creates the empty envelope carried on a bridge topic
// <id>/<kind>[/...], or nil if the topic is not a bridge topic.
func MessageFor(topic string) interface{} {
	items := strings.Split(topic, "/")
	if len(items) < 2 {
		return nil
	}
	switch items[1] {
	case "rx":
		return &RxMessage{}
	case "tx":
		return &TxMessage{}
	case "status":
		return &StatusMessage{}
	case "at":
		if len(items) > 2 && items[2] == "reply" {
			return &AtReply{}
		}
		return &AtMessage{}
	case "modem":
		return &ModemMessage{}
	case "meta":
		return &MetaMessage{}
	}
	return nil
}
