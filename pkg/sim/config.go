package sim

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// Config defines the configuration of a simulated radio.
type Config struct {
	MAC    string
	Addr   uint16
	NodeID string
	// Peers lists remote devices as MAC[/addr[/node-id]], comma separated.
	Peers string
	// Echo makes every peer send received data back.
	Echo bool
	// Beacon is the interval peers report to the host, disabled if zero.
	Beacon time.Duration
}

var defaultConfig = Config{
	MAC:    "0013A20040000001",
	NodeID: "COORDINATOR",
	Peers:  "0013A20040000002/0x0002/ROUTER",
}

func init() {
	if val := os.Getenv("XBEE_SIM_MAC"); val != "" {
		defaultConfig.MAC = val
	}
	if val := os.Getenv("XBEE_SIM_PEERS"); val != "" {
		defaultConfig.Peers = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.MAC, "mac", defaultConfig.MAC, "64-bit address of the simulated radio")
	flag.StringVar(&defaultConfig.NodeID, "node-id", defaultConfig.NodeID, "Node identifier (NI) of the simulated radio")
	flag.StringVar(&defaultConfig.Peers, "peers", defaultConfig.Peers, "Remote devices: MAC[/addr[/node-id]],...")
	flag.BoolVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Peers echo received data back")
	flag.DurationVar(&defaultConfig.Beacon, "beacon", defaultConfig.Beacon, "Interval peers send beacons to the host, 0 to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewRadio creates a Radio from the config.
func (c *Config) NewRadio() (*Radio, error) {
	mac, err := xbee.ParseExtendedAddress(c.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid radio MAC: %w", err)
	}
	r := NewRadio(mac, xbee.ShortAddressFrom(c.Addr), c.NodeID)
	for _, item := range strings.Split(c.Peers, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		peer, err := ParsePeer(item)
		if err != nil {
			return nil, err
		}
		peer.Echo = c.Echo
		r.AddPeer(peer)
	}
	return r, nil
}

// ParsePeer parses MAC[/addr[/node-id]].
func ParsePeer(s string) (*Peer, error) {
	parts := strings.SplitN(s, "/", 3)
	mac, err := xbee.ParseExtendedAddress(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid peer %q: %w", s, err)
	}
	peer := &Peer{MAC: mac, Addr: xbee.ShortAddressUnknown}
	if len(parts) > 1 {
		addr, err := strconv.ParseUint(parts[1], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid peer %q address: %w", s, err)
		}
		peer.Addr = xbee.ShortAddressFrom(uint16(addr))
	}
	if len(parts) > 2 {
		peer.NodeID = parts[2]
	}
	return peer, nil
}
