package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/simpleiot/serialcfg/system"
	"github.com/simpleiot/serialcfg/transport"
	"github.com/simpleiot/serialcfg/uart"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrCommand is returned by Test when the device rejects a command.
var ErrCommand = errors.New("command failed")

// Report prints the line settings read back from an open port.
func Report(w io.Writer, path string, s uart.Snapshot) {
	fmt.Fprintf(w, "%v: baud %v, icf %v, flow control %v, hangup %v\n",
		path, s.BaudRate, s.Framing, s.FlowControl, s.Hangup)
}

// Configure opens the port, applies the configuration, reports the
// result and closes the port.
func Configure(o Options, out io.Writer) error {
	return uart.WithPort(o.Port, o.Uart, func(p *uart.Port) error {
		s, err := p.Attributes()
		if err != nil {
			return err
		}
		Report(out, o.Port.Path, s)
		return nil
	})
}

// Test configures the port and then sends each command, printing the
// response. SIGINT or SIGTERM, or canceling ctx, closes the port, which
// ends a pending read.
func Test(ctx context.Context, o Options, out io.Writer) error {
	port := uart.NewPort(o.Port, o.Uart)
	if err := port.Open(); err != nil {
		return err
	}

	var closeErr error
	var g run.Group

	g.Add(func() error {
		s, err := port.Attributes()
		if err != nil {
			return err
		}
		Report(out, o.Port.Path, s)

		return exchange(port, o, out)
	}, func(error) {
		closeErr = port.Close()
	})

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()

	// the port is closed once all actors are interrupted
	if err == nil {
		err = closeErr
	} else if closeErr != nil {
		log.Println("Error closing port: ", closeErr)
	}

	return err
}

func exchange(port io.ReadWriter, o Options, out io.Writer) error {
	conn := transport.NewConn(port, o.Transport())
	defer conn.Stop()

	for _, cmd := range o.Commands {
		fmt.Fprintf(out, "> %v\n", cmd)

		resp, err := conn.Exchange(cmd)
		printResponse(out, resp.Data)
		if err != nil {
			return err
		}

		switch resp.Sentinel {
		case "OK", "CONNECT":
		default:
			return errors.Wrapf(ErrCommand, "%v: %v", cmd, resp.Sentinel)
		}
	}

	return nil
}

func printResponse(out io.Writer, data string) {
	for _, l := range strings.Split(data, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			fmt.Fprintln(out, l)
		}
	}
}

// ListPorts prints the serial ports found on the system, with USB
// details when they are available.
func ListPorts(out io.Writer) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Println("Detailed port list failed, trying plain list: ", err)
		names, err := serial.GetPortsList()
		if err != nil {
			return errors.Wrap(err, "listing ports")
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	for _, p := range ports {
		if !p.IsUSB {
			fmt.Fprintln(out, p.Name)
			continue
		}
		fmt.Fprintf(out, "%v\tUSB %v:%v %v %v\n", p.Name, p.VID, p.PID,
			p.Product, p.SerialNumber)
	}

	return nil
}

// Main parses args, runs the selected operation and returns the exit
// code. usage is printed when help is requested.
func Main(ctx context.Context, args []string, test bool, out io.Writer) int {
	flags := NewFlagSet("serialcfg")
	flags.SetOutput(out)

	o, err := Args(args, flags)
	if err == ErrHelp {
		return ExitOK
	}

	if err == nil && o.Syslog {
		if err := system.EnableSyslog("serialcfg"); err != nil {
			log.Println("Error enabling syslog: ", err)
		}
	}

	if err == nil {
		if test {
			err = Test(ctx, o, out)
		} else {
			err = Configure(o, out)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, Diagnostic(err))
	}

	return ExitCode(err)
}
