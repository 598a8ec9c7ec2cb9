package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// ConnHandler serves one accepted link. The link is closed after it returns.
type ConnHandler func(ctx context.Context, conn io.ReadWriteCloser)

// Listener accepts links on tcp:// or ws:// URLs, used to expose a
// simulated radio.
type Listener struct {
	URL *url.URL

	listener net.Listener
}

// Listen starts listening on the address of rawURL.
func Listen(rawURL string) (*Listener, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "tcp", "ws":
	default:
		return nil, fmt.Errorf("unknown listen URL scheme: %q", parsedURL.Scheme)
	}
	ln, err := net.Listen("tcp", parsedURL.Host)
	if err != nil {
		return nil, err
	}
	return &Listener{URL: parsedURL, listener: ln}, nil
}

// Addr returns the URL clients can open, with the actual port.
func (l *Listener) Addr() string {
	u := *l.URL
	u.Host = l.listener.Addr().String()
	return u.String()
}

// Close stops accepting links.
func (l *Listener) Close() error {
	return l.listener.Close()
}

// Serve accepts links until ctx is done, calling fn for each on its own
// goroutine. It returns after all calls of fn returned.
func (l *Listener) Serve(ctx context.Context, fn ConnHandler) error {
	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		stopped bool
	)
	defer func() {
		lock.Lock()
		stopped = true
		lock.Unlock()
		wg.Wait()
	}()
	// serve runs fn on the calling goroutine, unless Serve is returning.
	serve := func(conn io.ReadWriteCloser) {
		defer conn.Close()
		lock.Lock()
		if stopped {
			lock.Unlock()
			return
		}
		wg.Add(1)
		lock.Unlock()
		defer wg.Done()
		fn(ctx, conn)
	}

	go func() {
		<-ctx.Done()
		l.listener.Close()
	}()

	if l.URL.Scheme == "ws" {
		mux := http.NewServeMux()
		path := l.URL.Path
		if path == "" {
			path = "/"
		}
		mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
			conn.PayloadType = websocket.BinaryFrame
			glog.Infof("accepted websocket link from %s", conn.Request().RemoteAddr)
			serve(conn)
		}))
		err := http.Serve(l.listener, mux)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		glog.Infof("accepted link from %s", conn.RemoteAddr())
		go serve(conn)
	}
}
