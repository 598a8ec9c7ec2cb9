package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/xbee.go/pkg/framework"
	"github.com/robotalks/xbee.go/pkg/sim"
	"github.com/robotalks/xbee.go/pkg/transport"
)

var (
	listenURL = "tcp://:9750"
)

func init() {
	if val := os.Getenv("XBEE_SIM_LISTEN"); val != "" {
		listenURL = val
	}
	flag.StringVar(&listenURL, "listen", listenURL, "Listen URL, tcp://host:port or ws://host:port/path")
	sim.SetupFlags()
}

func main() {
	flag.Parse()

	conf := sim.Default()
	radio, err := conf.NewRadio()
	if err != nil {
		log.Fatalln(err)
	}
	ln, err := transport.Listen(listenURL)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("simulated radio %s on %s", radio.MAC, ln.Addr())

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("listener", fx.RunnableFunc(func(ctx context.Context) error {
		return ln.Serve(ctx, func(ctx context.Context, conn io.ReadWriteCloser) {
			glog.Info("host connected")
			err := radio.Serve(ctx, conn)
			glog.Infof("host disconnected: %v", err)
		})
	})))
	if conf.Beacon > 0 {
		runner.Go(fx.NamedRun("beacon", fx.RunnableFunc(func(ctx context.Context) error {
			return radio.Beacon(ctx, conf.Beacon)
		})))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
