package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/robotalks/xbee.go/pkg/link"
	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// Radio is the link side of a Bridge. *link.Link implements it.
type Radio interface {
	Request(ctx context.Context, f xbee.Outbound) link.Result
}

// BroadcastTopic is the device segment addressing all devices.
const BroadcastTopic = "broadcast"

// DefaultQueueSize is the number of pending requests a Bridge buffers.
const DefaultQueueSize = 64

var (
	// ErrRateLimited rejects a transmit exceeding the configured rate.
	ErrRateLimited = errors.New("rate limited")
	// ErrQueueFull rejects a request when too many are pending.
	ErrQueueFull = errors.New("request queue full")
)

// Bridge relays frames between a radio and an MQTT broker.
//
// Topics, relative to the broker prefix:
//   <id>/rx/<mac>      RxMessage for each packet from device <mac>
//   <id>/tx/<mac>      TxMessage to device <mac>, or "broadcast"
//   <id>/status/<mac>  StatusMessage for each TxMessage
//   <id>/at            AtMessage, replied on <id>/at/reply as AtReply
//   <id>/modem         ModemMessage
//   <id>/meta          MetaMessage, retained
type Bridge struct {
	ID      string
	Radio   Radio
	Broker  Broker
	Codec   Codec
	Limiter *rate.Limiter
	Metrics *Metrics
	Now     func() time.Time

	jobs     chan func(context.Context)
	jobsOnce sync.Once
	meta     MetaMessage
}

// NewBridge creates a Bridge.
func NewBridge(id string, radio Radio, broker Broker) *Bridge {
	return &Bridge{
		ID:     id,
		Radio:  radio,
		Broker: broker,
		Codec:  JSON,
		Now:    time.Now,
	}
}

// Topic builds a topic under the gateway ID.
func (b *Bridge) Topic(items ...string) string {
	return b.ID + "/" + strings.Join(items, "/")
}

func (b *Bridge) queue() chan func(context.Context) {
	b.jobsOnce.Do(func() {
		if b.jobs == nil {
			b.jobs = make(chan func(context.Context), DefaultQueueSize)
		}
	})
	return b.jobs
}

// HandleFrame implements link.FrameHandler.
func (b *Bridge) HandleFrame(ctx context.Context, f xbee.Inbound) {
	if m := b.Metrics; m != nil {
		m.FramesReceived.WithLabelValues(frameTypeName(f)).Inc()
	}
	switch f := f.(type) {
	case xbee.RxPacket:
		b.publish("rx", b.Topic("rx", f.SourceMAC.String()), NewRxMessage(f, b.Now()), false)
	case xbee.ModemStatusFrame:
		b.publish("modem", b.Topic("modem"), &ModemMessage{
			Status: f.Status.String(),
			Code:   byte(f.Status),
			Time:   b.Now().UnixNano() / int64(time.Millisecond),
		}, false)
	default:
		if glog.V(2) {
			glog.Infof("ignored %T %+v", f, f)
		}
	}
}

func (b *Bridge) publish(kind, topic string, v interface{}, retain bool) {
	payload, err := b.Codec.Marshal(v)
	if err == nil {
		err = b.Broker.Publish(topic, payload, retain)
	}
	if err != nil {
		glog.Warningf("publish %s error: %v", topic, err)
		kind = "error"
	}
	if m := b.Metrics; m != nil {
		m.Published.WithLabelValues(kind).Inc()
	}
}

func (b *Bridge) countTx(result string) {
	if m := b.Metrics; m != nil {
		m.TxTotal.WithLabelValues(result).Inc()
	}
}

// Run subscribes the request topics and serves requests until ctx is
// done. The meta topic reports the gateway online while it runs.
func (b *Bridge) Run(ctx context.Context) error {
	jobs := b.queue()
	var subs []io.Closer
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()
	for topic, handler := range map[string]Handler{
		b.Topic("tx", "+"): b.onTx,
		b.Topic("at"):      b.onAt,
	} {
		sub, err := b.Broker.Subscribe(topic, handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		subs = append(subs, sub)
	}

	b.meta = b.queryMeta(ctx)
	b.publish("meta", b.Topic("meta"), &b.meta, true)
	defer func() {
		b.meta.Online = false
		b.publish("meta", b.Topic("meta"), &b.meta, true)
	}()
	glog.Infof("gateway %s online, radio %s", b.ID, b.meta.MAC)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-jobs:
			job(ctx)
		}
	}
}

func (b *Bridge) queryMeta(ctx context.Context) MetaMessage {
	meta := MetaMessage{ID: b.ID, Online: true}
	var serial []byte
	for _, cmd := range []string{"SH", "SL"} {
		r := b.Radio.Request(ctx, xbee.AtCommand{Command: xbee.AtCmd(cmd)})
		if r.Err != nil {
			glog.Warningf("query AT%s error: %v", cmd, r.Err)
			return meta
		}
		if resp, ok := r.Frame.(xbee.AtCommandResponse); ok {
			serial = append(serial, resp.Data...)
		}
	}
	if len(serial) == 8 {
		var v uint64
		for _, c := range serial {
			v = v<<8 | uint64(c)
		}
		meta.MAC = xbee.ExtendedAddressFrom(v).String()
	}
	r := b.Radio.Request(ctx, xbee.AtCommand{Command: xbee.AtCmd("NI")})
	if resp, ok := r.Frame.(xbee.AtCommandResponse); ok && r.Err == nil {
		meta.NodeID = string(resp.Data)
	}
	return meta
}

func (b *Bridge) enqueue(job func(context.Context)) error {
	select {
	case b.queue() <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *Bridge) onTx(topic string, payload []byte) {
	device := topic[strings.LastIndex(topic, "/")+1:]
	status := &StatusMessage{Dest: device}
	statusTopic := b.Topic("status", device)

	var msg TxMessage
	err := b.Codec.Unmarshal(payload, &msg)
	status.ID = msg.ID
	var req xbee.TxRequest
	if err == nil {
		var dest xbee.ExtendedAddress
		if dest, err = parseDevice(device); err == nil {
			req, err = msg.Request(dest)
		}
	}
	if err != nil {
		glog.Warningf("invalid tx message on %s: %v", topic, err)
		b.countTx("invalid")
		status.Status, status.Error = "Invalid", err.Error()
		b.publish("status", statusTopic, status, false)
		return
	}
	if b.Limiter != nil && !b.Limiter.Allow() {
		b.countTx("rejected")
		status.Status, status.Error = "Rejected", ErrRateLimited.Error()
		b.publish("status", statusTopic, status, false)
		return
	}

	err = b.enqueue(func(ctx context.Context) {
		start := b.Now()
		r := b.Radio.Request(ctx, req)
		if ts, ok := r.Frame.(xbee.TransmitStatus); ok {
			if m := b.Metrics; m != nil {
				m.TxLatency.Observe(b.Now().Sub(start).Seconds())
			}
			status.Addr = ts.DestAddr.String()
			status.Status = ts.Status.String()
			status.Code = byte(ts.Status)
			status.Retries = ts.RetryCount
			status.Discovery = ts.DiscoStatus.String()
		} else {
			status.Status = "NoStatus"
		}
		if r.Err != nil {
			status.Error = r.Err.Error()
			b.countTx("failed")
		} else {
			b.countTx("ok")
		}
		b.publish("status", statusTopic, status, false)
	})
	if err != nil {
		b.countTx("rejected")
		status.Status, status.Error = "Rejected", err.Error()
		b.publish("status", statusTopic, status, false)
	}
}

func (b *Bridge) onAt(topic string, payload []byte) {
	replyTopic := b.Topic("at", "reply")
	var msg AtMessage
	err := b.Codec.Unmarshal(payload, &msg)
	reply := &AtReply{ID: msg.ID, Source: msg.Dest, Command: strings.ToUpper(msg.Command)}
	var req xbee.Outbound
	if err == nil {
		req, err = msg.Request()
	}
	if err != nil {
		glog.Warningf("invalid at message: %v", err)
		reply.Status, reply.Error = "Invalid", err.Error()
		b.publish("at", replyTopic, reply, false)
		return
	}
	err = b.enqueue(func(ctx context.Context) {
		r := b.Radio.Request(ctx, req)
		switch resp := r.Frame.(type) {
		case xbee.AtCommandResponse:
			reply.Status, reply.Data = resp.Status.String(), resp.Data
		case xbee.RemoteAtCommandResponse:
			reply.Source = resp.SourceMAC.String()
			reply.Status, reply.Data = resp.Status.String(), resp.Data
		default:
			reply.Status = "NoResponse"
		}
		if r.Err != nil {
			reply.Error = r.Err.Error()
		}
		b.publish("at", replyTopic, reply, false)
	})
	if err != nil {
		reply.Status, reply.Error = "Rejected", err.Error()
		b.publish("at", replyTopic, reply, false)
	}
}

func parseDevice(device string) (xbee.ExtendedAddress, error) {
	if device == BroadcastTopic {
		return xbee.ExtendedAddressBroadcast, nil
	}
	return xbee.ParseExtendedAddress(device)
}

func frameTypeName(f xbee.Inbound) string {
	switch f.(type) {
	case xbee.RxPacket:
		return "rx_packet"
	case xbee.TransmitStatus:
		return "transmit_status"
	case xbee.AtCommandResponse:
		return "at_response"
	case xbee.RemoteAtCommandResponse:
		return "remote_at_response"
	case xbee.ModemStatusFrame:
		return "modem_status"
	}
	return fmt.Sprintf("0x%02x", f.FrameType())
}
