// Package stream adapts byte streams to the byte capabilities of the
// xbee codec.
//
// Two shapes are provided. Reader and Writer map each capability call
// onto a single io call, for transports with their own read timeouts.
// Ring decouples a producer goroutine (or an interrupt-like callback)
// from the codec with a bounded buffer, reporting xbee.ErrWouldBlock
// while it is empty.
package stream
