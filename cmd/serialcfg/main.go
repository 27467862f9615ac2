package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/simpleiot/serialcfg/cli"
	"github.com/simpleiot/serialcfg/system"
	"github.com/spf13/cobra"
)

// goreleaser will replace version with Git version. You can also pass version
// into the version into the go build:
//
//	go build -ldflags="-X main.version=1.2.3"
var version = "Development"

const options = `Options:
  -p, --port PATH            serial device path
  -b, --baudrate RATE        baud rate
  -i, --icf 8N1|7E1|7O1|7S1  framing
  -f, --flowcontrol rtscts|xonxoff|none
      --hangup               drop modem lines on close (default true)
      --fallback-baud RATE   use instead of rejecting an unsupported rate
      --config FILE          YAML settings file
  -d, --debug                log port transitions and traffic
      --syslog               log to syslog
Run "serialcfg test -h" for all options.`

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	code := cli.ExitOK

	// cli.Args does the option parsing so unknown flags are ignored the
	// same way for every command
	root := &cobra.Command{
		Use:   "serialcfg [OPTION]...",
		Short: "Configure a serial line",
		Long: "Open a serial device, apply baud rate, framing and flow control, " +
			"print the resulting settings and close it.\n\n" + options,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Run: func(cmd *cobra.Command, args []string) {
			code = cli.Main(context.Background(), args, false, cmd.OutOrStdout())
		},
	}

	test := &cobra.Command{
		Use:   "test [OPTION]...",
		Short: "Configure a serial line and exchange commands with the device",
		Long: "Configure the line, send each --command (default AT) and wait " +
			"for OK, ERROR or CONNECT.\n\n" + options,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			code = cli.Main(context.Background(), args, true, cmd.OutOrStdout())
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListPorts(cmd.OutOrStdout())
		},
	}

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "serialcfg", version)
			if runtime.GOOS != "linux" {
				return
			}
			if v, err := system.ReadOSVersion(system.OSReleaseFile); err == nil {
				fmt.Fprintln(out, "OS version", v)
			}
		},
	}

	root.AddCommand(test, list, ver)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Diagnostic(err))
		if code == cli.ExitOK {
			code = cli.ExitFailure
		}
	}

	return code
}
