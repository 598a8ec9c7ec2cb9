// Package link runs the codec over a live connection to a radio.
//
// A Link owns the only Decoder of the connection in its Run loop and
// serializes senders on the only Encoder. Requests are sent with a frame
// ID from a rolling sequence and matched to the TransmitStatus or AT
// command response carrying the same ID:
//
//   Host                          Radio
//   TxRequest{FrameID: n}   -->
//                           <--   TransmitStatus{FrameID: n}
//   AtCommand{FrameID: m}   -->
//                           <--   AtCommandResponse{FrameID: m}
//
// All other frames (RxPacket, ModemStatus, unsolicited responses) are
// passed to the Handler.
package link
