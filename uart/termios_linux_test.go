//go:build linux

package uart

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func TestApplyFraming(t *testing.T) {
	tests := []struct {
		framing Framing
		size    uint32
		parity  bool
		odd     bool
	}{
		{Framing8N1, unix.CS8, false, false},
		{Framing7E1, unix.CS7, true, false},
		{Framing7O1, unix.CS7, true, true},
		{Framing7S1, unix.CS8, false, false},
		{FramingUnknown, unix.CS8, false, false},
	}

	for _, test := range tests {
		// start from a line with every framing bit set
		term := unix.Termios{Cflag: unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB}
		applyFraming(&term, test.framing)

		if term.Cflag&unix.CSIZE != test.size {
			t.Errorf("%v: wrong char size %#x", test.framing, term.Cflag&unix.CSIZE)
		}
		if (term.Cflag&unix.PARENB != 0) != test.parity {
			t.Errorf("%v: wrong parity enable", test.framing)
		}
		if (term.Cflag&unix.PARODD != 0) != test.odd {
			t.Errorf("%v: wrong parity sense", test.framing)
		}
		if term.Cflag&unix.CSTOPB != 0 {
			t.Errorf("%v: two stop bits set", test.framing)
		}
	}
}

func TestApplyFlowControl(t *testing.T) {
	const soft = unix.IXON | unix.IXOFF | unix.IXANY

	term := unix.Termios{Iflag: unix.IXON}
	applyFlowControl(&term, FlowRTSCTS)
	if term.Cflag&unix.CRTSCTS == 0 {
		t.Error("rtscts did not enable hardware flow control")
	}
	if term.Iflag != unix.IXON {
		t.Error("rtscts changed software flow control")
	}

	term = unix.Termios{Cflag: unix.CRTSCTS}
	applyFlowControl(&term, FlowXONXOFF)
	if term.Cflag&unix.CRTSCTS != 0 {
		t.Error("xonxoff left hardware flow control on")
	}
	if term.Iflag&soft != soft {
		t.Error("xonxoff did not enable software flow control")
	}

	for _, fc := range []FlowControl{FlowNone, FlowUnknown} {
		term = unix.Termios{Cflag: unix.CRTSCTS, Iflag: unix.IXOFF}
		applyFlowControl(&term, fc)
		if term.Cflag&unix.CRTSCTS != 0 {
			t.Errorf("%v left hardware flow control on", fc)
		}
		if term.Iflag != unix.IXOFF {
			t.Errorf("%v changed software flow control", fc)
		}
	}
}

func TestApplyBase(t *testing.T) {
	term := unix.Termios{Lflag: unix.ICANON | unix.ECHO, Oflag: unix.OPOST}
	applyBase(&term, true)

	if term.Cflag&(unix.CREAD|unix.CLOCAL|unix.HUPCL) != unix.CREAD|unix.CLOCAL|unix.HUPCL {
		t.Error("base flags not set: ", term.Cflag)
	}
	if term.Lflag != 0 || term.Oflag != 0 {
		t.Error("line processing not disabled")
	}

	applyBase(&term, false)
	if term.Cflag&unix.HUPCL != 0 {
		t.Error("hangup not cleared")
	}
}

func TestApplySpeed(t *testing.T) {
	term := unix.Termios{Cflag: unix.B9600 | unix.CS8}
	applySpeed(&term, unix.B921600)

	if term.Cflag&unix.CBAUD != unix.B921600 {
		t.Errorf("speed bits %#x", term.Cflag&unix.CBAUD)
	}
	if term.Cflag&unix.CSIZE != unix.CS8 {
		t.Error("speed change touched other bits")
	}
	if term.Ispeed != unix.B921600 || term.Ospeed != unix.B921600 {
		t.Error("input/output speed not set")
	}
}

func TestConfigureNotATerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	p := NewPort(Config{Path: path, BaudRate: 9600}, Options{})
	err := p.Open()

	var ae *AttributeError
	if !errors.As(err, &ae) {
		t.Fatal("expected attribute error, got: ", err)
	}

	if !ae.Get || ae.Phase != PhaseBase || !errors.Is(err, unix.ENOTTY) {
		t.Error("unexpected attribute error: ", err)
	}

	if p.State() != StateClosed {
		t.Error("handle not released after configure failure, state: ", p.State())
	}
}

func TestConfigureRejectsBaud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	p := NewPort(Config{Path: path, BaudRate: 14400}, Options{})
	if err := p.Open(); !errors.Is(err, ErrUnsupportedBaudRate) {
		t.Fatal("expected unsupported baud, got: ", err)
	}

	if p.State() != StateClosed {
		t.Error("handle not released, state: ", p.State())
	}
}

func openPty(t *testing.T) (*os.File, string) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skip("pty not available: ", err)
	}

	t.Cleanup(func() {
		tty.Close()
		ptmx.Close()
	})

	return ptmx, tty.Name()
}

// The pty driver forces CS8 and clears PARENB on every set, so framing
// always reads back as 8N1 here. TestApplyFraming covers those bits.
func TestOpenPty(t *testing.T) {
	_, name := openPty(t)

	tests := []struct {
		config Config
		opts   Options
		exp    Snapshot
	}{
		{
			Config{BaudRate: 115200, Framing: Framing8N1, FlowControl: FlowNone},
			Options{Hangup: true},
			Snapshot{BaudRate: 115200, Framing: Framing8N1, FlowControl: FlowNone, Hangup: true},
		},
		{
			Config{BaudRate: 9600, Framing: Framing7E1, FlowControl: FlowRTSCTS},
			Options{},
			Snapshot{BaudRate: 9600, Framing: Framing8N1, FlowControl: FlowRTSCTS},
		},
		{
			Config{BaudRate: 14400, Framing: Framing7S1},
			Options{FallbackBaud: 115200},
			Snapshot{BaudRate: 115200, Framing: Framing8N1, FlowControl: FlowNone},
		},
		// software flow control is never turned off again, keep this last
		{
			Config{BaudRate: 38400, Framing: Framing7O1, FlowControl: FlowXONXOFF},
			Options{},
			Snapshot{BaudRate: 38400, Framing: Framing8N1, FlowControl: FlowXONXOFF},
		},
	}

	for _, test := range tests {
		test.config.Path = name

		err := WithPort(test.config, test.opts, func(p *Port) error {
			if !p.IsOpen() {
				t.Error("port not open inside WithPort")
			}

			snap, err := p.Attributes()
			if err != nil {
				return err
			}

			if diff := cmp.Diff(test.exp, snap); diff != "" {
				t.Errorf("%+v: attributes mismatch (-want +got):\n%v", test.config, diff)
			}

			return nil
		})

		if err != nil {
			t.Errorf("%+v: %v", test.config, err)
		}
	}
}

func TestReopenPty(t *testing.T) {
	_, name := openPty(t)

	p := NewPort(Config{Path: name, BaudRate: 57600}, Options{})
	if err := p.Open(); err != nil {
		t.Fatal("open failed: ", err)
	}

	if err := p.Open(); err != ErrAlreadyOpen {
		t.Error("expected ErrAlreadyOpen, got: ", err)
	}

	if err := p.Configure(); err != nil {
		t.Error("reconfigure failed: ", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.Close(); err != nil {
			t.Error("close failed: ", err)
		}
	}

	if err := p.Open(); err != nil {
		t.Fatal("open after close failed: ", err)
	}
	p.Close()
}

func TestPortReadWrite(t *testing.T) {
	ptmx, name := openPty(t)

	err := WithPort(Config{Path: name, BaudRate: 115200}, Options{}, func(p *Port) error {
		if _, err := p.Write([]byte("AT\r")); err != nil {
			return err
		}

		buf := make([]byte, 16)
		n, err := io.ReadAtLeast(ptmx, buf, 3)
		if err != nil {
			return err
		}

		if string(buf[:n]) != "AT\r" {
			t.Errorf("device received %q", buf[:n])
		}

		if _, err := ptmx.Write([]byte("OK\r\n")); err != nil {
			return err
		}

		n, err = io.ReadAtLeast(p, buf, 4)
		if err != nil {
			return err
		}

		if string(buf[:n]) != "OK\r\n" {
			t.Errorf("port received %q", buf[:n])
		}

		return nil
	})

	if err != nil {
		t.Fatal(err)
	}
}
