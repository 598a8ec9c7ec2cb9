package gateway

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/robotalks/xbee.go/pkg/env"
	fx "github.com/robotalks/xbee.go/pkg/framework"
	"github.com/robotalks/xbee.go/pkg/link"
)

// Config provides options to run the gateway.
type Config struct {
	// BrokerURL specifies the MQTT broker and topic prefix,
	// e.g. mqtt://host:1883/xbee/
	BrokerURL string
	// ID is the first topic segment, defaults to the machine ID.
	ID       string
	Encoding string
	// TxRate limits transmit requests per second, 0 for unlimited.
	TxRate      float64
	TxBurst     int
	MetricsAddr string
}

var defaultConfig = Config{
	BrokerURL:   "mqtt://localhost:1883/xbee/",
	Encoding:    "json",
	TxRate:      10,
	TxBurst:     20,
	MetricsAddr: ":9752",
}

func init() {
	if val := os.Getenv("XBEE_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
	if val := os.Getenv("XBEE_GATEWAY_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val := os.Getenv("XBEE_TX_RATE"); val != "" {
		if r, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.TxRate = r
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Gateway ID, defaults to machine ID")
	flag.StringVar(&defaultConfig.Encoding, "encoding", defaultConfig.Encoding, "Message encoding: json or protobuf")
	flag.Float64Var(&defaultConfig.TxRate, "tx-rate", defaultConfig.TxRate, "Max transmit requests per second, 0 for unlimited")
	flag.IntVar(&defaultConfig.TxBurst, "tx-burst", defaultConfig.TxBurst, "Transmit request burst")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Prometheus metrics listen address, empty to disable")
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

// Gateway is a Bridge connected to its broker, with metrics.
type Gateway struct {
	Bridge      *Bridge
	Queue       *Queue
	Registry    *prometheus.Registry
	MetricsAddr string
}

// NewGateway creates a Gateway for the radio link.
func (c *Config) NewGateway(l *link.Link) (*Gateway, error) {
	codec, err := CodecByName(c.Encoding)
	if err != nil {
		return nil, err
	}
	id := c.ID
	if id == "" {
		id = env.MachineID()
	}
	opts, prefix, err := ClientOptionsFromURL(c.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}
	if opts.ClientID == "" {
		opts.SetClientID("xbee2mqtt-" + id)
	}
	will, err := codec.Marshal(&MetaMessage{ID: id})
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+id+"/meta", will, 0, true)

	gw := &Gateway{
		Registry:    NewRegistry(),
		MetricsAddr: c.MetricsAddr,
	}
	gw.Queue = NewQueue(opts, prefix)
	gw.Bridge = NewBridge(id, l, gw.Queue)
	gw.Bridge.Codec = codec
	gw.Bridge.Metrics = NewMetrics(gw.Registry)
	if c.TxRate > 0 {
		burst := c.TxBurst
		if burst <= 0 {
			burst = 1
		}
		gw.Bridge.Limiter = rate.NewLimiter(rate.Limit(c.TxRate), burst)
	}
	RegisterLinkStats(gw.Registry, l)
	connected := gw.Bridge.Metrics.MQTTConnected
	gw.Queue.OnConnect = func(*Queue) { connected.Set(1) }
	gw.Queue.OnDisconnect = func(*Queue) { connected.Set(0) }
	l.Handler = gw.Bridge
	return gw, nil
}

// MustNewGateway creates a Gateway and fails on error.
func (c *Config) MustNewGateway(l *link.Link) *Gateway {
	gw, err := c.NewGateway(l)
	if err != nil {
		log.Fatalln(err)
	}
	return gw
}

// Run connects to the broker and runs the bridge and the metrics
// server until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.Queue.Connect(); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer g.Queue.Close()

	runner := fx.NewRunnerWith(ctx)
	runner.Go(fx.NamedRun("bridge", g.Bridge))
	if g.MetricsAddr != "" {
		ln, err := net.Listen("tcp", g.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		glog.Infof("metrics on http://%s/metrics", ln.Addr())
		mux := http.NewServeMux()
		mux.Handle("/metrics", MetricsHandler(g.Registry))
		server := &http.Server{Handler: mux}
		runner.Go(fx.NamedRun("metrics", fx.RunnableFunc(func(ctx context.Context) error {
			return fx.RunWithContextCancel(ctx, func() { server.Close() }, func() error {
				return server.Serve(ln)
			})
		})))
	}
	return runner.Wait()
}
