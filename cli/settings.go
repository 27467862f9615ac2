package cli

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/simpleiot/serialcfg/uart"
)

// Settings is the YAML settings file. Every key is optional, and flags
// given on the command line override it.
//
//	port: /dev/ttyUSB0
//	baudrate: 115200
//	icf: 8N1
//	flowcontrol: none
//	hangup: true
//	fallbackBaud: 0
//	command: AT
//	timeout: 5s
type Settings struct {
	Port         string   `yaml:"port"`
	BaudRate     int      `yaml:"baudrate"`
	ICF          string   `yaml:"icf"`
	FlowControl  string   `yaml:"flowcontrol"`
	Hangup       *bool    `yaml:"hangup"`
	FallbackBaud int      `yaml:"fallbackBaud"`
	Command      Commands `yaml:"command"`
	Timeout      string   `yaml:"timeout"`
	Debug        bool     `yaml:"debug"`

	// parsed values
	framing    uart.Framing
	flow       uart.FlowControl
	timeout    time.Duration
	timeoutSet bool
}

// Commands is a single command or a list of them.
type Commands []string

// UnmarshalYAML accepts a scalar or a sequence.
func (c *Commands) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		*c = nil
	case string:
		*c = Commands{v}
	case []interface{}:
		ret := make(Commands, 0, len(v))
		for _, cmd := range v {
			s, ok := cmd.(string)
			if !ok {
				return errors.Errorf("command must be a string: %v", cmd)
			}
			ret = append(ret, s)
		}
		*c = ret
	default:
		return errors.Errorf("command must be a string or a list: %v", v)
	}

	return nil
}

// LoadSettings reads and checks a settings file. Framing and flow control
// tokens go through the same table as the command line.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrap(ErrSettings, err.Error())
	}

	return ParseSettings(data)
}

// ParseSettings decodes settings file contents.
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.DisallowUnknownField()); err != nil {
		return Settings{}, errors.Wrap(ErrSettings, err.Error())
	}

	var err error

	if s.ICF != "" {
		if s.framing, err = uart.MapFraming(s.ICF); err != nil {
			return Settings{}, err
		}
	}

	if s.FlowControl != "" {
		if s.flow, err = uart.MapFlowControl(s.FlowControl); err != nil {
			return Settings{}, err
		}
	}

	if s.BaudRate < 0 {
		return Settings{}, errors.Wrapf(ErrInvalidBaudRate, "%v", s.BaudRate)
	}

	if s.Timeout != "" {
		if s.timeout, err = time.ParseDuration(s.Timeout); err != nil {
			return Settings{}, errors.Wrapf(ErrSettings, "timeout: %v", err)
		}
		s.timeoutSet = true
	}

	return s, nil
}

func (s Settings) apply(o *Options) {
	if s.Port != "" {
		o.Port.Path = s.Port
	}
	if s.BaudRate != 0 {
		o.Port.BaudRate = s.BaudRate
	}
	if s.framing != uart.FramingUnknown {
		o.Port.Framing = s.framing
	}
	if s.flow != uart.FlowUnknown {
		o.Port.FlowControl = s.flow
	}
	if s.Hangup != nil {
		o.Uart.Hangup = *s.Hangup
	}
	if s.FallbackBaud != 0 {
		o.Uart.FallbackBaud = s.FallbackBaud
	}
	if len(s.Command) > 0 {
		o.Commands = s.Command
	}
	if s.timeoutSet {
		o.Timeout = s.timeout
	}
	if s.Debug {
		o.Debug = true
	}
}
