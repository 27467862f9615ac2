package uart

import (
	"sort"

	"github.com/pkg/errors"
)

// Framing is the character framing of a line: data bits and parity.
// Stop bits are always 1.
type Framing int

// Framing values. The zero value means the option was never given.
const (
	FramingUnknown Framing = iota
	Framing8N1
	Framing7E1
	Framing7O1
	Framing7S1
)

// FlowControl selects how the line throttles the sender.
type FlowControl int

// FlowControl values. The zero value means the option was never given.
const (
	FlowUnknown FlowControl = iota
	FlowRTSCTS
	FlowXONXOFF
	FlowNone
)

type framingEntry struct {
	framing Framing
	token   string
}

type flowEntry struct {
	flow  FlowControl
	token string
}

var framingTable = []framingEntry{
	{Framing8N1, "8N1"},
	{Framing7E1, "7E1"},
	{Framing7O1, "7O1"},
	{Framing7S1, "7S1"},
}

var flowTable = []flowEntry{
	{FlowRTSCTS, "rtscts"},
	{FlowXONXOFF, "xonxoff"},
	{FlowNone, "none"},
}

// supportedBauds is the fixed set of rates a line may be configured with.
var supportedBauds = []int{
	300, 1200, 2400, 4800, 9600, 19200, 38400, 57600,
	115200, 230400, 460800, 921600,
}

// MapFraming returns the framing for an option token. Only exact
// tokens match, so "8N1x" is rejected.
func MapFraming(token string) (Framing, error) {
	for _, e := range framingTable {
		if e.token == token {
			return e.framing, nil
		}
	}

	return FramingUnknown, errors.Wrapf(ErrInvalidFraming, "%q", token)
}

// MapFlowControl returns the flow control mode for an option token.
func MapFlowControl(token string) (FlowControl, error) {
	for _, e := range flowTable {
		if e.token == token {
			return e.flow, nil
		}
	}

	return FlowUnknown, errors.Wrapf(ErrInvalidFlowControl, "%q", token)
}

// MapBaudRate returns the OS speed constant for a baud rate.
func MapBaudRate(baud int) (Speed, error) {
	s, ok := baudToSpeed[baud]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedBaudRate, "%v", baud)
	}
	return s, nil
}

// MapSpeedConstant is the reverse of MapBaudRate.
func MapSpeedConstant(speed Speed) (int, error) {
	for baud, s := range baudToSpeed {
		if s == speed {
			return baud, nil
		}
	}

	return 0, errors.Wrapf(ErrUnsupportedBaudRate, "speed constant %#x", uint32(speed))
}

// SupportedBaudRates returns the supported rates in ascending order.
func SupportedBaudRates() []int {
	ret := make([]int, len(supportedBauds))
	copy(ret, supportedBauds)
	sort.Ints(ret)
	return ret
}

func (f Framing) String() string {
	for _, e := range framingTable {
		if e.framing == f {
			return e.token
		}
	}
	return "unknown"
}

// MarshalText renders the option token.
func (f Framing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses an option token through MapFraming.
func (f *Framing) UnmarshalText(text []byte) error {
	v, err := MapFraming(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnmarshalYAML decodes the option token from YAML.
func (f *Framing) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}

func (fc FlowControl) String() string {
	for _, e := range flowTable {
		if e.flow == fc {
			return e.token
		}
	}
	return "unknown"
}

// MarshalText renders the option token.
func (fc FlowControl) MarshalText() ([]byte, error) {
	return []byte(fc.String()), nil
}

// UnmarshalText parses an option token through MapFlowControl.
func (fc *FlowControl) UnmarshalText(text []byte) error {
	v, err := MapFlowControl(string(text))
	if err != nil {
		return err
	}
	*fc = v
	return nil
}

// UnmarshalYAML decodes the option token from YAML.
func (fc *FlowControl) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return fc.UnmarshalText([]byte(s))
}
