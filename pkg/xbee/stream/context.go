package stream

import (
	"context"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// WithContext returns a ByteSource which fails with ctx.Err() once ctx
// is done. Since the codec keeps calling ReadByte while src reports
// xbee.ErrWouldBlock, this bounds the wait for a frame.
func WithContext(ctx context.Context, src xbee.ByteSource) xbee.ByteSource {
	return xbee.ByteSourceFunc(func() (byte, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return src.ReadByte()
	})
}

// SinkWithContext is WithContext for a ByteSink.
func SinkWithContext(ctx context.Context, sink xbee.ByteSink) xbee.ByteSink {
	return xbee.ByteSinkFunc(func(b byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return sink.WriteByte(b)
	})
}
