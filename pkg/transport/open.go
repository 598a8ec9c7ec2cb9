package transport

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// Open opens the link located by c.URL.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	if !strings.Contains(c.URL, "://") {
		return c.openSerial(c.URL, c.BaudRate)
	}
	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "serial":
		baud := c.BaudRate
		if val := parsedURL.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil || baud <= 0 {
				return nil, fmt.Errorf("invalid baud rate: %q", val)
			}
		}
		return c.openSerial(parsedURL.Path, baud)
	case "tcp":
		return net.Dial("tcp", parsedURL.Host)
	case "ws", "wss":
		return dialWebsocket(parsedURL)
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", parsedURL.Scheme)
	}
}

func (c *Config) openSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if c.ReadTimeout > 0 {
		if err := port.SetReadTimeout(c.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
		}
	}
	return port, nil
}

func dialWebsocket(u *url.URL) (io.ReadWriteCloser, error) {
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(u.String(), "", origin.String())
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Ports lists the serial devices on this machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// IsSerial tells whether c.URL locates a serial device.
func (c *Config) IsSerial() bool {
	return !strings.Contains(c.URL, "://") || strings.HasPrefix(c.URL, "serial://")
}
