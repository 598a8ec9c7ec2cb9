package xbee

import (
	"fmt"
	"strconv"
	"strings"
)

// ShortAddress is the 16-bit network address.
type ShortAddress struct {
	High byte
	Low  byte
}

// Well-known short addresses.
var (
	ShortAddressCoordinator = ShortAddress{High: 0x00, Low: 0x00}
	ShortAddressUnknown     = ShortAddress{High: 0xFF, Low: 0xFE}
)

// ShortAddressFrom splits a 16-bit value.
func ShortAddressFrom(v uint16) ShortAddress {
	return ShortAddress{High: byte(v >> 8), Low: byte(v)}
}

// Uint16 returns the address as a 16-bit value.
func (a ShortAddress) Uint16() uint16 {
	return uint16(a.High)<<8 | uint16(a.Low)
}

// String implements fmt.Stringer.
func (a ShortAddress) String() string {
	return fmt.Sprintf("%02X%02X", a.High, a.Low)
}

// ExtendedAddress is the 64-bit IEEE address (MAC) of a device.
type ExtendedAddress struct {
	High uint32
	Low  uint32
}

// Well-known extended addresses.
var (
	ExtendedAddressCoordinator = ExtendedAddress{High: 0, Low: 0}
	ExtendedAddressBroadcast   = ExtendedAddress{High: 0x0000, Low: 0xFFFF}
)

// ExtendedAddressFrom splits a 64-bit value.
func ExtendedAddressFrom(v uint64) ExtendedAddress {
	return ExtendedAddress{High: uint32(v >> 32), Low: uint32(v)}
}

// ParseExtendedAddress parses 16 hex digits, optionally separated by ':'.
func ParseExtendedAddress(s string) (ExtendedAddress, error) {
	hex := strings.Replace(s, ":", "", -1)
	if len(hex) != 16 {
		return ExtendedAddress{}, fmt.Errorf("invalid extended address %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return ExtendedAddress{}, fmt.Errorf("invalid extended address %q: %v", s, err)
	}
	return ExtendedAddressFrom(v), nil
}

// Uint64 returns the address as a 64-bit value.
func (a ExtendedAddress) Uint64() uint64 {
	return uint64(a.High)<<32 | uint64(a.Low)
}

// ByteAt returns byte i (0..7) in big-endian order.
func (a ExtendedAddress) ByteAt(i int) (byte, error) {
	switch {
	case i >= 0 && i < 4:
		return byte(a.High >> uint(24-8*i)), nil
	case i >= 4 && i < 8:
		return byte(a.Low >> uint(24-8*(i-4))), nil
	}
	return 0, fmt.Errorf("extended address index %d out of range", i)
}

// String implements fmt.Stringer.
func (a ExtendedAddress) String() string {
	return fmt.Sprintf("%08X%08X", a.High, a.Low)
}

func (a ExtendedAddress) encodeTo(sink func(byte)) {
	for _, w := range [2]uint32{a.High, a.Low} {
		sink(byte(w >> 24))
		sink(byte(w >> 16))
		sink(byte(w >> 8))
		sink(byte(w))
	}
}

func (a ShortAddress) encodeTo(sink func(byte)) {
	sink(a.High)
	sink(a.Low)
}

// TxOptions are the transmit options of a TxRequest.
// Bits not named here are sent as-is.
type TxOptions byte

// Transmit options.
const (
	TxDisableRetries   TxOptions = 0x01
	TxEnableEncryption TxOptions = 0x20
	TxExtendedTimeout  TxOptions = 0x40
)

// Has checks if all bits in o are set.
func (t TxOptions) Has(o TxOptions) bool {
	return t&o == o
}

// With returns the options with o added.
func (t TxOptions) With(o TxOptions) TxOptions {
	return t | o
}

// RxOptions are the receive options of an RxPacket.
type RxOptions byte

// Receive options.
const (
	RxPacketAcknowledged RxOptions = 0x01
	RxBroadcastPacket    RxOptions = 0x02
	RxPacketEncrypted    RxOptions = 0x20

	rxOptionsAll = RxPacketAcknowledged | RxBroadcastPacket | RxPacketEncrypted
)

// RxOptionsTruncate creates RxOptions dropping unknown bits.
func RxOptionsTruncate(b byte) RxOptions {
	return RxOptions(b) & rxOptionsAll
}

// RxOptionsStrict creates RxOptions and fails if unknown bits are set.
func RxOptionsStrict(b byte) (RxOptions, error) {
	if RxOptions(b)&^rxOptionsAll != 0 {
		return RxOptions(b) & rxOptionsAll, fmt.Errorf("unknown rx option bits %02x", b&^byte(rxOptionsAll))
	}
	return RxOptions(b), nil
}

// Has checks if all bits in o are set.
func (r RxOptions) Has(o RxOptions) bool {
	return r&o == o
}

// ChannelIndicator is the channel mask of an IO sample.
type ChannelIndicator uint16

// IO sample channels.
const (
	ChannelD0 ChannelIndicator = 1 << iota
	ChannelD1
	ChannelD2
	ChannelD3
	ChannelD4
	ChannelD5
	ChannelD6
	ChannelD7
	ChannelD8
	ChannelA0
	ChannelA1
	ChannelA2
	ChannelA3

	channelsDigital = ChannelD0 | ChannelD1 | ChannelD2 | ChannelD3 | ChannelD4 |
		ChannelD5 | ChannelD6 | ChannelD7 | ChannelD8
	channelsAnalog = ChannelA0 | ChannelA1 | ChannelA2 | ChannelA3
)

// HasDigital indicates any digital channel is enabled.
func (c ChannelIndicator) HasDigital() bool {
	return c&channelsDigital != 0
}

// HasAnalog indicates any analog channel is enabled.
func (c ChannelIndicator) HasAnalog() bool {
	return c&channelsAnalog != 0
}
