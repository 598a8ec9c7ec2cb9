package stream

import (
	"context"
	"io"
	"sync"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// DefaultRingSize is the buffer size used when NewRing gets 0.
const DefaultRingSize = 512

// Ring is a bounded byte buffer between a producer and the decoder.
// ReadByte never blocks: it returns xbee.ErrWouldBlock while the buffer
// is empty, and the producer's error once the buffer is drained after
// Close.
type Ring struct {
	buf   []byte
	head  int
	count int
	err   error
	lock  sync.Mutex

	spaceCh chan struct{}
	readyCh chan struct{}
}

// NewRing creates a Ring holding up to size bytes.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{
		buf:     make([]byte, size),
		spaceCh: make(chan struct{}, 1),
		readyCh: make(chan struct{}, 1),
	}
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.count
}

// Ready returns a chan signaled after bytes are pushed or the ring is
// closed. A consumer getting xbee.ErrWouldBlock may wait on it instead
// of spinning.
func (r *Ring) Ready() <-chan struct{} {
	return r.readyCh
}

// Push appends a byte, returning false if the buffer is full or closed.
// It is safe to call from a different goroutine than ReadByte.
func (r *Ring) Push(b byte) bool {
	r.lock.Lock()
	if r.err != nil || r.count == len(r.buf) {
		r.lock.Unlock()
		return false
	}
	r.buf[(r.head+r.count)%len(r.buf)] = b
	r.count++
	r.lock.Unlock()
	signal(r.readyCh)
	return true
}

// Close stops accepting bytes. Once buffered bytes are consumed,
// ReadByte returns err, or io.EOF if err is nil.
func (r *Ring) Close(err error) {
	if err == nil {
		err = io.EOF
	}
	r.lock.Lock()
	if r.err == nil {
		r.err = err
	}
	r.lock.Unlock()
	signal(r.spaceCh)
	signal(r.readyCh)
}

// ReadByte implements xbee.ByteSource.
func (r *Ring) ReadByte() (byte, error) {
	r.lock.Lock()
	if r.count == 0 {
		err := r.err
		r.lock.Unlock()
		if err != nil {
			return 0, err
		}
		return 0, xbee.ErrWouldBlock
	}
	b := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	r.lock.Unlock()
	signal(r.spaceCh)
	return b, nil
}

// Feed copies bytes from rd into the ring until rd fails or ctx is
// done, waiting for space when the ring is full. The ring is closed
// with the read error when Feed returns.
func (r *Ring) Feed(ctx context.Context, rd io.Reader) error {
	buf := make([]byte, len(r.buf))
	for {
		n, err := rd.Read(buf)
		for _, b := range buf[:n] {
			for !r.Push(b) {
				if r.closed() {
					return r.closeErr()
				}
				select {
				case <-ctx.Done():
					r.Close(ctx.Err())
					return ctx.Err()
				case <-r.spaceCh:
				}
			}
		}
		if err != nil {
			r.Close(err)
			return err
		}
		select {
		case <-ctx.Done():
			r.Close(ctx.Err())
			return ctx.Err()
		default:
		}
	}
}

func (r *Ring) closed() bool {
	return r.closeErr() != nil
}

func (r *Ring) closeErr() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.err
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
