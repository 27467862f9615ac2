package uart

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/pkg/errors"
)

func TestOpenMissingDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyMissing0")
	p := NewPort(Config{Path: path, BaudRate: 115200}, Options{})

	err := p.Open()
	if !errors.Is(err, ErrDeviceOpenFailed) {
		t.Fatal("expected device open failure, got: ", err)
	}

	if !errors.Is(err, syscall.ENOENT) {
		t.Error("expected ENOENT as cause, got: ", err)
	}

	var oe *OpenError
	if !errors.As(err, &oe) || oe.Path != path {
		t.Error("open error does not carry the path: ", err)
	}

	if p.IsOpen() {
		t.Error("port reports open after failed open")
	}

	if p.State() != StateClosed {
		t.Error("expected closed state, got: ", p.State())
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := NewPort(Config{Path: "/dev/ttyS0"}, Options{})

	for i := 0; i < 2; i++ {
		if err := p.Close(); err != nil {
			t.Errorf("close %v returned: %v", i, err)
		}
	}
}

func TestClosedPortIO(t *testing.T) {
	p := NewPort(Config{}, Options{})

	if _, err := p.Write([]byte("AT\r")); err != ErrNotOpen {
		t.Error("expected ErrNotOpen on write, got: ", err)
	}

	if _, err := p.Read(make([]byte, 10)); err != ErrNotOpen {
		t.Error("expected ErrNotOpen on read, got: ", err)
	}

	if err := p.Configure(); err != ErrNotOpen {
		t.Error("expected ErrNotOpen on configure, got: ", err)
	}

	if _, err := p.Attributes(); err != ErrNotOpen {
		t.Error("expected ErrNotOpen on attributes, got: ", err)
	}
}

func TestWithPortOpenFailure(t *testing.T) {
	called := false

	err := WithPort(Config{Path: filepath.Join(t.TempDir(), "nope")}, Options{},
		func(p *Port) error {
			called = true
			return nil
		})

	if !errors.Is(err, ErrDeviceOpenFailed) {
		t.Error("expected open failure, got: ", err)
	}

	if called {
		t.Error("function should not run when open fails")
	}
}

func TestErrorKinds(t *testing.T) {
	get := &AttributeError{Phase: PhaseFraming, Get: true, Err: syscall.ENOTTY}
	if !errors.Is(get, ErrGetAttributes) || errors.Is(get, ErrSetAttributes) {
		t.Error("get attribute error classified wrong")
	}
	if !errors.Is(get, syscall.ENOTTY) {
		t.Error("attribute error does not unwrap to cause")
	}

	set := &AttributeError{Phase: PhaseBaud, Err: syscall.EINVAL}
	if !errors.Is(set, ErrSetAttributes) || errors.Is(set, ErrGetAttributes) {
		t.Error("set attribute error classified wrong")
	}

	if set.Error() != "baud rate: set terminal attributes failed: invalid argument" {
		t.Error("unexpected message: ", set.Error())
	}

	cerr := &CloseError{Path: "/dev/ttyS0", Err: syscall.EIO}
	if !errors.Is(cerr, ErrClose) {
		t.Error("close error classified wrong")
	}
}

func TestStateStrings(t *testing.T) {
	exp := []string{"closed", "opening", "configuring", "open", "closing"}
	for i, s := range []State{StateClosed, StateOpening, StateConfiguring,
		StateOpen, StateClosing} {
		if s.String() != exp[i] {
			t.Errorf("state %v: expected %v, got %v", i, exp[i], s.String())
		}
	}
}
