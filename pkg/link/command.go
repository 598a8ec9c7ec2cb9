package link

import (
	"context"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// Result is the result of a request using Do.
type Result struct {
	Err   error
	Frame xbee.Inbound
}

// Command represents a pending request waiting for its response.
type Command struct {
	link     *Link
	frameID  FrameID
	resultCh chan Result
	next     *Command
}

// FrameID returns the frame ID the request was sent with.
func (c *Command) FrameID() FrameID {
	return c.frameID
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Wait waits for the result until ctx is done. On expiry the command
// is abandoned and the result carries ctx.Err().
func (c *Command) Wait(ctx context.Context) Result {
	select {
	case r := <-c.resultCh:
		return r
	case <-ctx.Done():
		if c.link != nil && c.link.abandon(c) {
			return Result{Err: ctx.Err()}
		}
		// the result raced with expiry.
		return <-c.resultCh
	}
}

// resultOf converts a response into a Result, turning failure status
// codes into errors.
func resultOf(f xbee.Inbound) Result {
	r := Result{Frame: f}
	switch resp := f.(type) {
	case xbee.TransmitStatus:
		if resp.Status != xbee.TxSuccess {
			r.Err = &DeliveryError{Status: resp.Status}
		}
	case xbee.AtCommandResponse:
		if resp.Status != xbee.AtStatusOK {
			r.Err = &CommandError{Command: resp.Command, Status: resp.Status}
		}
	case xbee.RemoteAtCommandResponse:
		if resp.Status != xbee.AtStatusOK {
			r.Err = &CommandError{Command: resp.Command, Status: resp.Status}
		}
	}
	return r
}
