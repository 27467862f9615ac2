package uart

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Use errors.Is to classify a failure; the typed errors
// below match the sentinel for their kind.
var (
	ErrInvalidFraming      = errors.New("invalid framing")
	ErrInvalidFlowControl  = errors.New("invalid flow control")
	ErrUnsupportedBaudRate = errors.New("unsupported baud rate")

	ErrDeviceOpenFailed    = errors.New("device open failed")
	ErrGetAttributes       = errors.New("get terminal attributes failed")
	ErrSetAttributes       = errors.New("set terminal attributes failed")
	ErrClose               = errors.New("device close failed")
	ErrNotOpen             = errors.New("port is not open")
	ErrAlreadyOpen         = errors.New("port is already open")
	ErrUnsupportedPlatform = errors.New("terminal control not supported on this platform")
)

// Phase names a step of Configure.
type Phase int

// Configure phases, in the order they run.
const (
	PhaseBase Phase = iota
	PhaseBaud
	PhaseFraming
	PhaseFlowControl
)

func (p Phase) String() string {
	switch p {
	case PhaseBase:
		return "line"
	case PhaseBaud:
		return "baud rate"
	case PhaseFraming:
		return "framing"
	case PhaseFlowControl:
		return "flow control"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// OpenError is returned when the device could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%v: %v: %v", ErrDeviceOpenFailed, e.Path, e.Err)
}

// Unwrap returns the OS error.
func (e *OpenError) Unwrap() error { return e.Err }

// Is matches ErrDeviceOpenFailed.
func (e *OpenError) Is(target error) bool { return target == ErrDeviceOpenFailed }

// AttributeError is returned when reading or writing terminal attributes
// fails during a Configure phase.
type AttributeError struct {
	Phase Phase
	// Get is true when reading the attributes failed, false when
	// writing them back failed.
	Get bool
	Err error
}

func (e *AttributeError) kind() error {
	if e.Get {
		return ErrGetAttributes
	}
	return ErrSetAttributes
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%v: %v: %v", e.Phase, e.kind(), e.Err)
}

// Unwrap returns the OS error.
func (e *AttributeError) Unwrap() error { return e.Err }

// Is matches ErrGetAttributes or ErrSetAttributes.
func (e *AttributeError) Is(target error) bool { return target == e.kind() }

// CloseError is returned when releasing the device fails.
type CloseError struct {
	Path string
	Err  error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("%v: %v: %v", ErrClose, e.Path, e.Err)
}

// Unwrap returns the OS error.
func (e *CloseError) Unwrap() error { return e.Err }

// Is matches ErrClose.
func (e *CloseError) Is(target error) bool { return target == ErrClose }
