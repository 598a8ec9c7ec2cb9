package main

import (
	"github.com/robotalks/xbee.go/pkg/cli/sh"
	"github.com/robotalks/xbee.go/pkg/transport"

	_ "github.com/robotalks/xbee.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	transport.SetupFlags()
}

func main() {
	sh.Main()
}
