package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
	"github.com/robotalks/xbee.go/pkg/xbee/stream"
)

// FrameHandler is called when a frame is received that is not the
// response of a pending request. The frame borrows the decoder buffer,
// use Detach to keep it.
type FrameHandler interface {
	HandleFrame(context.Context, xbee.Inbound)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, xbee.Inbound)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame xbee.Inbound) {
	f(ctx, frame)
}

// Stats are counters of a Link.
type Stats struct {
	FramesIn    uint64
	FramesOut   uint64
	FrameErrors uint64
	Resyncs     uint64
}

// DefaultTimeout is the response timeout used by Request.
const DefaultTimeout = 2 * time.Second

// Link exchanges frames with a radio.
type Link struct {
	stats Stats

	ReadWriter  io.ReadWriter
	Handler     FrameHandler
	Timeout     time.Duration
	ReadTimeout bool // set to true if ReadWriter already supports timeout with Read

	frameID  FrameID
	enc      xbee.Encoder
	sink     xbee.ByteSink
	sendLock sync.Mutex

	cmdsHead *Command
	cmdsTail *Command
	cmdsLock sync.Mutex
	closed   bool
}

// New creates a Link.
func New(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    DefaultTimeout,
		frameID:    NewFrameID(),
	}
}

// Stats returns a snapshot of the counters.
func (l *Link) Stats() Stats {
	return Stats{
		FramesIn:    atomic.LoadUint64(&l.stats.FramesIn),
		FramesOut:   atomic.LoadUint64(&l.stats.FramesOut),
		FrameErrors: atomic.LoadUint64(&l.stats.FrameErrors),
		Resyncs:     atomic.LoadUint64(&l.stats.Resyncs),
	}
}

// Send sends a frame as is, without waiting for any response.
func (l *Link) Send(f xbee.Outbound) error {
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	return l.sendLocked(f)
}

func (l *Link) sendLocked(f xbee.Outbound) error {
	if l.sink == nil {
		l.sink = stream.NewWriter(l.ReadWriter)
	}
	if err := l.enc.Encode(f, l.sink); err != nil {
		return err
	}
	atomic.AddUint64(&l.stats.FramesOut, 1)
	if glog.V(2) {
		glog.Infof("sent %T %+v", f, f)
	}
	return nil
}

// DoWith sends a request with the next frame ID and expects the result
// in the provided chan.
func (l *Link) DoWith(f xbee.Outbound, ch chan Result) *Command {
	cmd := &Command{link: l, resultCh: ch}

	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	cmd.frameID = l.frameID
	req, err := WithFrameID(f, cmd.frameID)
	if err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	l.frameID = l.frameID.Next()

	// registered before sending, the response may arrive any time after.
	l.cmdsLock.Lock()
	if l.closed {
		l.cmdsLock.Unlock()
		cmd.resultCh <- Result{Err: ErrClosed}
		return cmd
	}
	superseded := l.removeLocked(cmd.frameID)
	l.appendLocked(cmd)
	l.cmdsLock.Unlock()
	if superseded != nil {
		superseded.resultCh <- Result{Err: ErrNoReply}
	}

	if err := l.sendLocked(req); err != nil {
		if l.abandon(cmd) {
			cmd.resultCh <- Result{Err: err}
		}
	}
	return cmd
}

// Do sends a request and returns a Command for result.
func (l *Link) Do(f xbee.Outbound) *Command {
	return l.DoWith(f, make(chan Result, 1))
}

// Request sends a request and waits for its result, at most Timeout.
func (l *Link) Request(ctx context.Context, f xbee.Outbound) Result {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	r := l.Do(f).Wait(ctx)
	if errors.Is(r.Err, context.DeadlineExceeded) {
		r.Err = ErrNoReply
	}
	return r
}

func (l *Link) appendLocked(cmd *Command) {
	if l.cmdsHead == nil {
		l.cmdsHead = cmd
	} else {
		l.cmdsTail.next = cmd
	}
	l.cmdsTail = cmd
}

func (l *Link) removeLocked(id FrameID) *Command {
	var prev *Command
	for curr := l.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr.frameID != id {
			continue
		}
		if prev == nil {
			l.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if l.cmdsTail == curr {
			l.cmdsTail = prev
		}
		curr.next = nil
		return curr
	}
	return nil
}

// abandon removes cmd if still pending and reports whether it did.
func (l *Link) abandon(cmd *Command) bool {
	l.cmdsLock.Lock()
	defer l.cmdsLock.Unlock()
	var prev *Command
	for curr := l.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != cmd {
			continue
		}
		if prev == nil {
			l.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if l.cmdsTail == curr {
			l.cmdsTail = prev
		}
		curr.next = nil
		return true
	}
	return false
}

// Pending returns the number of requests waiting for responses.
func (l *Link) Pending() (n int) {
	l.cmdsLock.Lock()
	defer l.cmdsLock.Unlock()
	for curr := l.cmdsHead; curr != nil; curr = curr.next {
		n++
	}
	return
}

func (l *Link) dispatch(ctx context.Context, f xbee.Inbound) {
	atomic.AddUint64(&l.stats.FramesIn, 1)
	if glog.V(2) {
		glog.Infof("received %T %+v", f, f)
	}
	if id, ok := ResponseFrameID(f); ok {
		l.cmdsLock.Lock()
		cmd := l.removeLocked(id)
		l.cmdsLock.Unlock()
		if cmd != nil {
			cmd.resultCh <- resultOf(Detach(f))
			return
		}
	}
	if h := l.Handler; h != nil {
		h.HandleFrame(ctx, f)
	}
}

func (l *Link) closePending() {
	l.cmdsLock.Lock()
	head := l.cmdsHead
	l.cmdsHead, l.cmdsTail = nil, nil
	l.closed = true
	l.cmdsLock.Unlock()
	for head != nil {
		next := head.next
		head.next = nil
		head.resultCh <- Result{Err: ErrClosed}
		head = next
	}
}

// Run receives frames until ctx is done or the connection fails.
// Pending requests fail with ErrClosed afterwards.
func (l *Link) Run(ctx context.Context) error {
	defer l.closePending()

	var src xbee.ByteSource
	if l.ReadTimeout {
		src = stream.WithContext(ctx, stream.NewReader(l.ReadWriter))
	} else {
		ring := stream.NewRing(0)
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go ring.Feed(subCtx, l.ReadWriter)
		src = stream.WithContext(ctx, waitFor(ctx, ring))
	}

	var dec xbee.Decoder
	var unknownStatus *xbee.UnknownStatusError
	skipped := 0
	for {
		err := dec.Read(src, func(f xbee.Inbound) { l.dispatch(ctx, f) })
		switch {
		case err == nil:
			skipped = 0
			continue
		case err == xbee.ErrNoStart:
			if skipped == 0 {
				atomic.AddUint64(&l.stats.Resyncs, 1)
			}
			skipped++
			if glog.V(2) {
				glog.Infof("resync: skipped %d bytes", skipped)
			}
			continue
		case errors.As(err, &unknownStatus):
			// the frame was dispatched with its raw status code.
			skipped = 0
			glog.Warningf("frame with %v", err)
			continue
		case err == xbee.ErrOverflow:
			atomic.AddUint64(&l.stats.FrameErrors, 1)
			glog.Warningf("frame dropped: %v", err)
			continue
		case xbee.IsFrameError(err):
			skipped = 0
			atomic.AddUint64(&l.stats.FrameErrors, 1)
			glog.Warningf("frame dropped: %v", err)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// waitFor makes the ring wait for data instead of busy looping the
// decoder while the link is idle.
func waitFor(ctx context.Context, ring *stream.Ring) xbee.ByteSource {
	return xbee.ByteSourceFunc(func() (byte, error) {
		b, err := ring.ReadByte()
		if err == xbee.ErrWouldBlock {
			select {
			case <-ring.Ready():
			case <-ctx.Done():
			}
		}
		return b, err
	})
}
