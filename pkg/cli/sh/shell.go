// Package sh provides the interactive shell of xbeecli.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/xbee.go/pkg/gateway"
	"github.com/robotalks/xbee.go/pkg/link"
	"github.com/robotalks/xbee.go/pkg/transport"
	xbee "github.com/robotalks/xbee.go/pkg/xbee"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *transport.Config
	Conn   *LinkConn
}

// LinkConn is an open link to a radio.
type LinkConn struct {
	Ctx    context.Context
	Cancel func()
	URL    string
	Link   *link.Link
	Frames <-chan xbee.Inbound

	closer io.Closer
	done   chan error
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
	framesBuffer = 64
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *transport.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("link not open"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the link at url, replacing the current one.
func (s *Shell) Open(url string) error {
	conf := *s.Config
	conf.URL = url
	rw, err := conf.Open()
	if err != nil {
		return err
	}
	frames := make(chan xbee.Inbound, framesBuffer)
	conn := &LinkConn{
		URL:    url,
		Link:   link.New(rw),
		Frames: frames,
		closer: rw,
		done:   make(chan error, 1),
	}
	conn.Link.ReadTimeout = conf.ReadTimeout > 0 && conf.IsSerial()
	conn.Link.Handler = link.HandleFrameFunc(func(ctx context.Context, f xbee.Inbound) {
		f = link.Detach(f)
		for {
			select {
			case frames <- f:
				return
			default:
			}
			// nobody is listening, drop the oldest frame.
			select {
			case <-frames:
			default:
			}
		}
	})
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	s.Close()
	s.Conn = conn
	go func() {
		conn.done <- conn.Link.Run(conn.Ctx)
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Close closes the current link.
func (s *Shell) Close() {
	if conn := s.Conn; conn != nil {
		conn.Cancel()
		conn.closer.Close()
		<-conn.done
		s.Conn = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Request sends a request on the open link and prints the result.
func Request(c *ishell.Context, f xbee.Outbound) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("link not open")
		c.Err(err)
		return err
	}
	r := s.Conn.Link.Request(s.Conn.Ctx, f)
	if r.Frame != nil {
		s.PrintFrame(c, r.Frame)
	}
	if r.Err != nil {
		c.Err(r.Err)
	}
	return r.Err
}

// PrintFrame prints a frame as text or JSON.
func (s *Shell) PrintFrame(c *ishell.Context, f xbee.Inbound) {
	if !s.OutputJSON {
		c.Println(FormatFrame(f))
		return
	}
	var v interface{} = f
	if rx, ok := f.(xbee.RxPacket); ok {
		v = gateway.NewRxMessage(rx, time.Now())
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// FormatFrame prints a frame into friendly string for display.
func FormatFrame(f xbee.Inbound) string {
	switch f := f.(type) {
	case xbee.RxPacket:
		return fmt.Sprintf("RX %s/%s %s", f.SourceMAC, f.SourceAddr, FormatData(f.Data))
	case xbee.TransmitStatus:
		return fmt.Sprintf("TX-STATUS #%d %s %v retries=%d %v", f.FrameID, f.DestAddr, f.Status, f.RetryCount, f.DiscoStatus)
	case xbee.AtCommandResponse:
		return fmt.Sprintf("AT #%d %v %v %s", f.FrameID, f.Command, f.Status, FormatData(f.Data))
	case xbee.RemoteAtCommandResponse:
		return fmt.Sprintf("REMOTE-AT #%d %s %v %v %s", f.FrameID, f.SourceMAC, f.Command, f.Status, FormatData(f.Data))
	case xbee.ModemStatusFrame:
		return fmt.Sprintf("MODEM %v", f.Status)
	}
	return fmt.Sprintf("%T %+v", f, f)
}

// FormatData shows printable data as quoted text and the rest as hex.
func FormatData(data []byte) string {
	if len(data) == 0 {
		return "-"
	}
	for _, b := range data {
		if b < 0x20 || b > 0x7E {
			return "0x" + strings.ToUpper(hex.EncodeToString(data))
		}
	}
	return fmt.Sprintf("%q", data)
}

// ParseData parses 0x-prefixed hex, or takes the text as is.
func ParseData(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		data, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %v", err)
		}
		return data, nil
	}
	return []byte(s), nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.URL != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.URL)
		}
		if err := s.Open(s.Config.URL); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.URL, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial devices",
		Func: func(c *ishell.Context) {
			ports, err := transport.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				out, _ := json.Marshal(ports)
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial devices found")
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.URL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Open(url); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(transport.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
