// Package xbee provides the XBee ZigBee API frame codec.
//
// API mode frames are exchanged between the host and the radio firmware
// over a point-to-point serial link:
//
//	0x7E | LEN_HI | LEN_LO | payload[LEN] | CHECKSUM
//
// LEN counts the payload bytes (frame type through last data byte) and
// CHECKSUM is 0xFF minus the low byte of the payload sum. Only the unescaped
// mode (AP=1) is supported.
//
// The codec never blocks on its own. Bytes move through ByteSource and
// ByteSink, which report ErrWouldBlock while the transport is not ready,
// so the same Encoder and Decoder work from a busy-wait loop or behind a
// ring buffer filled by another goroutine.
//
// Producer: host (Outbound), radio firmware (Inbound)
// Consumer: radio firmware (Outbound), host (Inbound)
package xbee
