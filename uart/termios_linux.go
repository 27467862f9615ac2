//go:build linux

package uart

import (
	"log"

	"golang.org/x/sys/unix"
)

// phaseFunc modifies t and reports whether it must be written back.
type phaseFunc func(t *unix.Termios) bool

// configure runs each phase as its own get/modify/set cycle so a
// failure can be attributed to the phase that caused it.
func (p *Port) configure() error {
	speed, setSpeed, err := p.resolveBaud()
	if err != nil {
		return err
	}

	if p.config.Framing == Framing7S1 {
		log.Printf("uart: %v: 7S1 not supported by the line discipline, using 8N1\n",
			p.config.Path)
	}

	phases := []struct {
		phase Phase
		apply phaseFunc
	}{
		{PhaseBase, func(t *unix.Termios) bool {
			applyBase(t, p.opts.Hangup)
			return true
		}},
		{PhaseBaud, func(t *unix.Termios) bool {
			if !setSpeed {
				return false
			}
			applySpeed(t, speed)
			return true
		}},
		{PhaseFraming, func(t *unix.Termios) bool {
			applyFraming(t, p.config.Framing)
			return true
		}},
		{PhaseFlowControl, func(t *unix.Termios) bool {
			applyFlowControl(t, p.config.FlowControl)
			return true
		}},
	}

	return p.control(func(fd int) error {
		for _, ph := range phases {
			t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
			if err != nil {
				return &AttributeError{Phase: ph.phase, Get: true, Err: err}
			}

			if !ph.apply(t) {
				continue
			}

			// TCSETS takes effect immediately (TCSANOW)
			if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
				return &AttributeError{Phase: ph.phase, Err: err}
			}
		}

		return nil
	})
}

func (p *Port) attributes() (Snapshot, error) {
	var ret Snapshot

	err := p.control(func(fd int) error {
		t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
		if err != nil {
			return &AttributeError{Phase: PhaseBase, Get: true, Err: err}
		}
		ret = snapshot(t)
		return nil
	})

	return ret, err
}

// applyBase enables the receiver, ignores modem control lines and
// turns off input, local and output processing. Software flow control
// bits are left alone.
func applyBase(t *unix.Termios, hangup bool) {
	t.Cflag |= unix.CREAD | unix.CLOCAL
	if hangup {
		t.Cflag |= unix.HUPCL
	} else {
		t.Cflag &^= unix.HUPCL
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST

	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

func applySpeed(t *unix.Termios, s Speed) {
	t.Cflag &^= unix.CBAUD
	t.Cflag |= uint32(s)
	t.Ispeed = uint32(s)
	t.Ospeed = uint32(s)
}

// applyFraming sets data bits and parity. Stop bits are always 1.
// 7S1 and unknown framing fall back to 8N1.
func applyFraming(t *unix.Termios, f Framing) {
	t.Cflag &^= unix.CSTOPB | unix.CSIZE

	switch f {
	case Framing7E1:
		t.Cflag |= unix.PARENB | unix.CS7
		t.Cflag &^= unix.PARODD
	case Framing7O1:
		t.Cflag |= unix.PARENB | unix.PARODD | unix.CS7
	default:
		t.Cflag &^= unix.PARENB | unix.PARODD
		t.Cflag |= unix.CS8
	}
}

// applyFlowControl leaves software flow control untouched except for
// XON/XOFF, which turns it on.
func applyFlowControl(t *unix.Termios, fc FlowControl) {
	switch fc {
	case FlowRTSCTS:
		t.Cflag |= unix.CRTSCTS
	case FlowXONXOFF:
		t.Cflag &^= unix.CRTSCTS
		t.Iflag |= unix.IXON | unix.IXOFF | unix.IXANY
	default:
		t.Cflag &^= unix.CRTSCTS
	}
}

func snapshot(t *unix.Termios) Snapshot {
	var ret Snapshot

	baud, err := MapSpeedConstant(Speed(t.Cflag & unix.CBAUD))
	if err == nil {
		ret.BaudRate = baud
	}

	size := t.Cflag & unix.CSIZE
	switch {
	case size == unix.CS8 && t.Cflag&unix.PARENB == 0:
		ret.Framing = Framing8N1
	case size == unix.CS7 && t.Cflag&unix.PARENB != 0 && t.Cflag&unix.PARODD == 0:
		ret.Framing = Framing7E1
	case size == unix.CS7 && t.Cflag&unix.PARENB != 0:
		ret.Framing = Framing7O1
	}

	switch {
	case t.Cflag&unix.CRTSCTS != 0:
		ret.FlowControl = FlowRTSCTS
	case t.Iflag&(unix.IXON|unix.IXOFF) == unix.IXON|unix.IXOFF:
		ret.FlowControl = FlowXONXOFF
	default:
		ret.FlowControl = FlowNone
	}

	ret.Hangup = t.Cflag&unix.HUPCL != 0

	return ret
}
