package transport

import (
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"time"
)

// Config provides options to open the link to the radio.
type Config struct {
	// URL locates the radio, e.g.
	//   /dev/ttyUSB0
	//   serial:///dev/ttyUSB0?baud=115200
	//   tcp://localhost:9750
	//   ws://localhost:9751/xbee
	URL string
	// BaudRate applies to serial devices without a baud query.
	BaudRate int
	// ReadTimeout is applied to serial devices when not zero.
	ReadTimeout time.Duration
}

// DefaultBaudRate is the factory baud rate of the radio.
const DefaultBaudRate = 9600

var defaultConfig = Config{
	URL:         "/dev/ttyUSB0",
	BaudRate:    DefaultBaudRate,
	ReadTimeout: 100 * time.Millisecond,
}

func init() {
	if val := os.Getenv("XBEE_PORT"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("XBEE_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil && baud > 0 {
			defaultConfig.BaudRate = baud
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "port", defaultConfig.URL, "Radio serial device or link URL")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Serial read timeout")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// MustOpen opens the link and fails on error.
func (c *Config) MustOpen() io.ReadWriteCloser {
	conn, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
