// Package radio provides the radio commands of the shell.
package radio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/xbee.go/pkg/cli/sh"
	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// DefaultListenDuration is used by listen without SECONDS.
const DefaultListenDuration = 10 * time.Second

var (
	// TxCmd transmits data to a remote radio.
	TxCmd = ishell.Cmd{
		Name:    "tx",
		Aliases: []string{"send"},
		Help:    "MAC DATA|0xHEX",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := TxFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Request(c, f)
		}),
	}

	// BroadcastCmd transmits data to all radios.
	BroadcastCmd = ishell.Cmd{
		Name:    "broadcast",
		Aliases: []string{"bc"},
		Help:    "DATA|0xHEX",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := TxFrame(append([]string{xbee.ExtendedAddressBroadcast.String()}, c.Args...))
			if err != nil {
				c.Err(err)
				return
			}
			sh.Request(c, f)
		}),
	}

	// AtCmd runs an AT command on the local radio.
	AtCmd = ishell.Cmd{
		Name: "at",
		Help: "CMD [0xHEX|TEXT]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := AtFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Request(c, f)
		}),
	}

	// RemoteAtCmd runs an AT command on a remote radio.
	RemoteAtCmd = ishell.Cmd{
		Name:    "remote-at",
		Aliases: []string{"rat"},
		Help:    "MAC CMD [0xHEX|TEXT]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := RemoteAtFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Request(c, f)
		}),
	}

	// ListenCmd prints frames received from the radio.
	ListenCmd = ishell.Cmd{
		Name:    "listen",
		Aliases: []string{"l"},
		Help:    "[SECONDS]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			duration := DefaultListenDuration
			if len(c.Args) > 0 {
				secs, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || secs <= 0 {
					c.Err(fmt.Errorf("Invalid SECONDS: %q", c.Args[0]))
					return
				}
				duration = time.Duration(secs * float64(time.Second))
			}
			s := sh.ShellFrom(c)
			timer := time.NewTimer(duration)
			defer timer.Stop()
			for {
				select {
				case f := <-s.Conn.Frames:
					s.PrintFrame(c, f)
				case <-timer.C:
					return
				case <-s.Conn.Ctx.Done():
					return
				}
			}
		}),
	}

	// StatsCmd prints the link counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats := s.Conn.Link.Stats()
			if s.OutputJSON {
				out, _ := json.Marshal(stats)
				c.Println(string(out))
				return
			}
			c.Printf("frames in:    %d\n", stats.FramesIn)
			c.Printf("frames out:   %d\n", stats.FramesOut)
			c.Printf("frame errors: %d\n", stats.FrameErrors)
			c.Printf("resyncs:      %d\n", stats.Resyncs)
			c.Printf("pending:      %d\n", s.Conn.Link.Pending())
		}),
	}
)

// TxFrame builds a TxRequest from MAC DATA arguments.
func TxFrame(args []string) (xbee.Outbound, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("MAC and DATA required")
	}
	mac, err := xbee.ParseExtendedAddress(args[0])
	if err != nil {
		return nil, fmt.Errorf("Invalid MAC: %v", err)
	}
	data, err := sh.ParseData(strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	return xbee.TxRequest{
		DestMAC:  mac,
		DestAddr: xbee.ShortAddressUnknown,
		Data:     data,
	}, nil
}

// AtFrame builds an AtCommand from CMD [PARAM] arguments.
func AtFrame(args []string) (xbee.Outbound, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("CMD required")
	}
	cmd, param, err := parseAtArgs(args)
	if err != nil {
		return nil, err
	}
	return xbee.AtCommand{Command: cmd, Param: param}, nil
}

// RemoteAtFrame builds a RemoteAtCommand from MAC CMD [PARAM] arguments.
// Changes are applied immediately.
func RemoteAtFrame(args []string) (xbee.Outbound, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("MAC and CMD required")
	}
	mac, err := xbee.ParseExtendedAddress(args[0])
	if err != nil {
		return nil, fmt.Errorf("Invalid MAC: %v", err)
	}
	cmd, param, err := parseAtArgs(args[1:])
	if err != nil {
		return nil, err
	}
	return xbee.RemoteAtCommand{
		DestMAC:  mac,
		DestAddr: xbee.ShortAddressUnknown,
		Options:  xbee.RemoteApplyChanges,
		Command:  cmd,
		Param:    param,
	}, nil
}

func parseAtArgs(args []string) (cmd xbee.AtCommandName, param []byte, err error) {
	if len(args[0]) != 2 {
		return cmd, nil, fmt.Errorf("Invalid CMD: %q", args[0])
	}
	cmd = xbee.AtCmd(strings.ToUpper(args[0]))
	if len(args) > 1 {
		param, err = sh.ParseData(strings.Join(args[1:], " "))
	}
	return
}

func init() {
	sh.AddCmds(
		&TxCmd,
		&BroadcastCmd,
		&AtCmd,
		&RemoteAtCmd,
		&ListenCmd,
		&StatsCmd,
	)
}
