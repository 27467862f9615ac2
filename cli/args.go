package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/simpleiot/serialcfg/transport"
	"github.com/simpleiot/serialcfg/uart"
	"github.com/spf13/pflag"
)

// MaxPathLen bounds the device path, same as PATH_MAX on Linux.
const MaxPathLen = 4096

// Argument errors
var (
	ErrHelp               = pflag.ErrHelp
	ErrBadFlag            = errors.New("bad option")
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrInvalidBaudRate    = errors.New("invalid baud rate")
	ErrPathTooLong        = errors.New("port path too long")
	ErrSettings           = errors.New("settings file")
)

// UnexpectedArgumentError lists the positional arguments that were left
// over after option parsing.
type UnexpectedArgumentError struct {
	Args []string
}

func (e *UnexpectedArgumentError) Error() string {
	return "non-option ARGV-elements: " + strings.Join(e.Args, " ")
}

// Is matches ErrUnexpectedArgument.
func (e *UnexpectedArgumentError) Is(target error) bool {
	return target == ErrUnexpectedArgument
}

// Options is everything the command line selects.
type Options struct {
	Port uart.Config
	Uart uart.Options

	// Commands are sent in order by Test.
	Commands   []string
	Timeout    time.Duration
	Terminator string

	ConfigFile string
	Debug      bool
	Syslog     bool
}

// Transport returns the exchange options for o.
func (o Options) Transport() transport.Options {
	return transport.Options{
		Timeout:    o.Timeout,
		Terminator: o.Terminator,
		Debug:      o.Debug,
	}
}

// NewFlagSet returns the flag set Args parses with.
func NewFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SortFlags = false

	flags.StringP("port", "p", "", "serial device path")
	flags.StringP("baudrate", "b", "", fmt.Sprintf("baud rate, one of %v",
		uart.SupportedBaudRates()))
	flags.StringP("flowcontrol", "f", "", "flow control: rtscts, xonxoff, none")
	flags.StringP("icf", "i", "", "framing: 8N1, 7E1, 7O1, 7S1")
	flags.StringArrayP("command", "c", []string{"AT"}, "command to send, may be repeated")
	flags.DurationP("timeout", "t", transport.DefaultTimeout, "response timeout, 0 waits forever")
	flags.String("terminator", "\r", "appended to each command")
	flags.Bool("hangup", true, "drop modem control lines on last close (HUPCL)")
	flags.Int("fallback-baud", 0, "use this rate instead of rejecting an unsupported one")
	flags.String("config", "", "YAML settings file (env SERIALCFG_CONFIG)")
	flags.BoolP("debug", "d", false, "log port transitions and traffic")
	flags.Bool("syslog", false, "log to syslog instead of stderr (env SERIALCFG_SYSLOG)")

	return flags
}

// Args parses the command line. If flags is nil, NewFlagSet is used.
// Values come from the settings file first, then from any flag given on
// the command line.
func Args(args []string, flags *pflag.FlagSet) (Options, error) {
	if flags == nil {
		flags = NewFlagSet("serialcfg")
	}

	if err := flags.Parse(StripUnknown(flags, args)); err != nil {
		if err == pflag.ErrHelp {
			return Options{}, ErrHelp
		}
		return Options{}, errors.Wrap(ErrBadFlag, err.Error())
	}

	if rest := flags.Args(); len(rest) > 0 {
		return Options{}, &UnexpectedArgumentError{Args: rest}
	}

	ret := Options{
		Uart:       uart.Options{Hangup: true},
		Commands:   []string{"AT"},
		Timeout:    transport.DefaultTimeout,
		Terminator: "\r",
	}

	// only consider env if the command line option is left at its default
	ret.ConfigFile, _ = flags.GetString("config")
	if ret.ConfigFile == "" {
		ret.ConfigFile = os.Getenv("SERIALCFG_CONFIG")
	}

	if ret.ConfigFile != "" {
		s, err := LoadSettings(ret.ConfigFile)
		if err != nil {
			return Options{}, err
		}
		s.apply(&ret)
	}

	if err := applyFlags(flags, &ret); err != nil {
		return Options{}, err
	}

	if !flags.Changed("syslog") {
		if v := os.Getenv("SERIALCFG_SYSLOG"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Options{}, errors.Wrapf(ErrBadFlag, "SERIALCFG_SYSLOG=%q", v)
			}
			ret.Syslog = b
		}
	}

	ret.Uart.Debug = ret.Debug

	if err := validate(ret); err != nil {
		return Options{}, err
	}

	return ret, nil
}

// StripUnknown removes the options flags does not define. An unknown
// option never takes a value, so the token after it is kept and is
// reported if it is not an option either. -h and --help are kept.
func StripUnknown(flags *pflag.FlagSet, args []string) []string {
	ret := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		a := args[i]

		switch {
		case a == "--":
			return append(ret, args[i:]...)

		case strings.HasPrefix(a, "--"):
			name := strings.SplitN(a[2:], "=", 2)[0]
			if name == "help" {
				ret = append(ret, a)
				continue
			}
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			ret = append(ret, a)
			if !strings.Contains(a, "=") && f.NoOptDefVal == "" && i+1 < len(args) {
				i++
				ret = append(ret, args[i])
			}

		case strings.HasPrefix(a, "-") && len(a) > 1:
			short, value := stripShort(flags, a[1:])
			if short != "" {
				ret = append(ret, "-"+short)
			}
			if value && i+1 < len(args) {
				i++
				ret = append(ret, args[i])
			}

		default:
			ret = append(ret, a)
		}
	}

	return ret
}

// stripShort drops unknown letters from a group of short options. value
// is true when the last kept option takes the next argument.
func stripShort(flags *pflag.FlagSet, group string) (string, bool) {
	var kept strings.Builder

	for j := 0; j < len(group); j++ {
		c := group[j]
		if c == 'h' {
			kept.WriteByte(c)
			continue
		}

		f := flags.ShorthandLookup(string(c))
		if f == nil {
			// -x=value belongs to the unknown option
			if j+1 < len(group) && group[j+1] == '=' {
				break
			}
			continue
		}

		kept.WriteByte(c)

		// -d=false
		if j+1 < len(group) && group[j+1] == '=' {
			kept.WriteString(group[j+1:])
			return kept.String(), false
		}

		if f.NoOptDefVal != "" {
			continue
		}

		// the rest of the group is the value, as in -p/dev/ttyS0
		if j+1 < len(group) {
			kept.WriteString(group[j+1:])
			return kept.String(), false
		}

		return kept.String(), true
	}

	return kept.String(), false
}

func applyFlags(flags *pflag.FlagSet, o *Options) error {
	var err error

	if flags.Changed("port") {
		o.Port.Path, _ = flags.GetString("port")
	}

	if flags.Changed("baudrate") {
		v, _ := flags.GetString("baudrate")
		if o.Port.BaudRate, err = ParseBaudRate(v); err != nil {
			return err
		}
	}

	if flags.Changed("flowcontrol") {
		v, _ := flags.GetString("flowcontrol")
		if o.Port.FlowControl, err = uart.MapFlowControl(v); err != nil {
			return err
		}
	}

	if flags.Changed("icf") {
		v, _ := flags.GetString("icf")
		if o.Port.Framing, err = uart.MapFraming(v); err != nil {
			return err
		}
	}

	if flags.Changed("command") {
		o.Commands, _ = flags.GetStringArray("command")
	}

	if flags.Changed("timeout") {
		o.Timeout, _ = flags.GetDuration("timeout")
	}

	if flags.Changed("terminator") {
		o.Terminator, _ = flags.GetString("terminator")
	}

	if flags.Changed("hangup") {
		o.Uart.Hangup, _ = flags.GetBool("hangup")
	}

	if flags.Changed("fallback-baud") {
		o.Uart.FallbackBaud, _ = flags.GetInt("fallback-baud")
	}

	if flags.Changed("debug") {
		o.Debug, _ = flags.GetBool("debug")
	}

	if flags.Changed("syslog") {
		o.Syslog, _ = flags.GetBool("syslog")
	}

	return nil
}

// ParseBaudRate parses a decimal baud rate. Zero and non-numeric values
// are ErrInvalidBaudRate. Whether the rate is supported is checked later.
func ParseBaudRate(v string) (int, error) {
	b, err := strconv.ParseUint(v, 10, 31)
	if err != nil || b == 0 {
		return 0, errors.Wrapf(ErrInvalidBaudRate, "%q", v)
	}
	return int(b), nil
}

func validate(o Options) error {
	if len(o.Port.Path) > MaxPathLen {
		return errors.Wrapf(ErrPathTooLong, "%v bytes, limit is %v",
			len(o.Port.Path), MaxPathLen)
	}

	// with a fallback, the port substitutes for an unsupported rate
	if o.Port.BaudRate != 0 && o.Uart.FallbackBaud == 0 {
		if _, err := uart.MapBaudRate(o.Port.BaudRate); err != nil {
			return err
		}
	}

	if o.Uart.FallbackBaud != 0 {
		if _, err := uart.MapBaudRate(o.Uart.FallbackBaud); err != nil {
			return errors.Wrap(err, "fallback")
		}
	}

	return nil
}
