package cli

import (
	"github.com/pkg/errors"
	"github.com/simpleiot/serialcfg/transport"
	"github.com/simpleiot/serialcfg/uart"
)

// Exit codes, one per failure kind.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitArgument            = 2
	ExitMapping             = 3
	ExitOpen                = 4
	ExitGetAttributes       = 5
	ExitSetBaud             = 6
	ExitSetFraming          = 7
	ExitSetFlowControl      = 8
	ExitSetLine             = 9
	ExitClose               = 10
	ExitWrite               = 11
	ExitTimeout             = 12
	ExitUnsupportedPlatform = 13
)

var setExit = map[uart.Phase]int{
	uart.PhaseBase:        ExitSetLine,
	uart.PhaseBaud:        ExitSetBaud,
	uart.PhaseFraming:     ExitSetFraming,
	uart.PhaseFlowControl: ExitSetFlowControl,
}

// ExitCode returns the process status for err.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrHelp) {
		return ExitOK
	}

	var attrErr *uart.AttributeError

	switch {
	case errors.Is(err, ErrBadFlag),
		errors.Is(err, ErrUnexpectedArgument),
		errors.Is(err, ErrInvalidBaudRate),
		errors.Is(err, ErrPathTooLong),
		errors.Is(err, ErrSettings):
		return ExitArgument
	case errors.Is(err, uart.ErrInvalidFraming),
		errors.Is(err, uart.ErrInvalidFlowControl),
		errors.Is(err, uart.ErrUnsupportedBaudRate):
		return ExitMapping
	case errors.Is(err, uart.ErrUnsupportedPlatform):
		return ExitUnsupportedPlatform
	case errors.Is(err, uart.ErrDeviceOpenFailed):
		return ExitOpen
	case errors.As(err, &attrErr):
		if attrErr.Get {
			return ExitGetAttributes
		}
		if code, ok := setExit[attrErr.Phase]; ok {
			return code
		}
		return ExitFailure
	case errors.Is(err, uart.ErrClose):
		return ExitClose
	case errors.Is(err, transport.ErrWrite):
		return ExitWrite
	case errors.Is(err, transport.ErrTimeout):
		return ExitTimeout
	}

	return ExitFailure
}

// Diagnostic renders err as the single line printed before exit.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return "serialcfg: " + err.Error()
}
