package link

import (
	"errors"
	"fmt"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

var (
	// ErrNoReply indicates the response was not received in time, or
	// the frame ID was reused before it arrived.
	ErrNoReply = errors.New("no reply")
	// ErrClosed indicates the link stopped before the response arrived.
	ErrClosed = errors.New("link closed")
	// ErrNoFrameID indicates the frame type carries no frame ID.
	ErrNoFrameID = errors.New("frame has no frame id")
)

// DeliveryError reports a TransmitStatus other than success.
type DeliveryError struct {
	Status xbee.TxStatus
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Status)
}

// CommandError reports an AT command response other than OK.
type CommandError struct {
	Command xbee.AtCommandName
	Status  xbee.AtCommandStatus
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %v: %v", e.Command, e.Status)
}
