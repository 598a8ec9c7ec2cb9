package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	fx "github.com/robotalks/xbee.go/pkg/framework"
	"github.com/robotalks/xbee.go/pkg/gateway"
	"github.com/robotalks/xbee.go/pkg/link"
	"github.com/robotalks/xbee.go/pkg/transport"
)

func init() {
	transport.SetupFlags()
	gateway.SetupFlags()
}

func main() {
	flag.Parse()

	conf := transport.Default()
	conn := conf.MustOpen()
	defer conn.Close()

	l := link.New(conn)
	l.ReadTimeout = conf.ReadTimeout > 0 && conf.IsSerial()
	gw := gateway.Default().MustNewGateway(l)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(
		fx.NamedRun("link", fx.RunnableFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, conn, func() error {
				return l.Run(ctx)
			})
		})),
		fx.NamedRun("gateway", gw),
	)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
