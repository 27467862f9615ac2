package uart

import (
	"log"
	"os"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// Config describes the desired settings of one serial line. A zero
// field means the setting was not given.
type Config struct {
	Path        string      `yaml:"port"`
	BaudRate    int         `yaml:"baudrate"`
	Framing     Framing     `yaml:"icf"`
	FlowControl FlowControl `yaml:"flowcontrol"`
}

// Options are line policy switches that are not part of the
// configuration itself.
type Options struct {
	// Hangup sets HUPCL, so modem control lines drop on last close.
	Hangup bool
	// FallbackBaud, when non-zero, is used in place of an unsupported
	// baud rate. When zero, unsupported rates are rejected.
	FallbackBaud int
	// Debug logs each lifecycle transition.
	Debug bool
}

// State is the lifecycle state of a Port.
type State int

// Port lifecycle states
const (
	StateClosed State = iota
	StateOpening
	StateConfiguring
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateConfiguring:
		return "configuring"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	}
	return "invalid"
}

// Snapshot is the line configuration read back from the device.
type Snapshot struct {
	BaudRate    int
	Framing     Framing
	FlowControl FlowControl
	Hangup      bool
}

// Port owns the OS handle of one serial device. The handle is valid
// only while the state is StateConfiguring or StateOpen. Port
// implements io.ReadWriteCloser.
type Port struct {
	config Config
	opts   Options

	lock  sync.Mutex
	state State
	file  *os.File
}

// NewPort creates a closed port for config.
func NewPort(config Config, opts Options) *Port {
	return &Port{config: config, opts: opts}
}

// WithPort opens and configures the port, runs fn, and closes the
// port on every return path. A close error is only reported when
// nothing else failed.
func WithPort(config Config, opts Options, fn func(p *Port) error) (err error) {
	p := NewPort(config, opts)
	if err := p.Open(); err != nil {
		return err
	}

	defer func() {
		cerr := p.Close()
		if err == nil {
			err = cerr
		}
	}()

	return fn(p)
}

// Config returns the settings the port was created with.
func (p *Port) Config() Config {
	return p.config
}

// State returns the current lifecycle state.
func (p *Port) State() State {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state
}

// IsOpen returns true if the port holds a valid handle.
func (p *Port) IsOpen() bool {
	return p.State() == StateOpen
}

// Open acquires the device and applies the configuration. If
// configuration fails, the device is released before Open returns.
func (p *Port) Open() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.state != StateClosed {
		return ErrAlreadyOpen
	}

	p.setState(StateOpening)

	f, err := os.OpenFile(p.config.Path,
		os.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		p.setState(StateClosed)
		var pe *os.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return &OpenError{Path: p.config.Path, Err: err}
	}

	p.file = f
	p.setState(StateConfiguring)

	if err := p.configure(); err != nil {
		if cerr := p.release(); cerr != nil {
			log.Printf("uart: %v: %v\n", p.config.Path, cerr)
		}
		return err
	}

	p.setState(StateOpen)
	return nil
}

// Configure applies the configuration again to an open port.
func (p *Port) Configure() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.state != StateOpen {
		return ErrNotOpen
	}

	p.setState(StateConfiguring)
	err := p.configure()
	p.setState(StateOpen)

	return err
}

// Attributes reads back the line settings currently in effect.
func (p *Port) Attributes() (Snapshot, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.file == nil {
		return Snapshot{}, ErrNotOpen
	}

	return p.attributes()
}

// Close releases the device. Closing a closed port does nothing.
func (p *Port) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.release()
}

func (p *Port) Read(b []byte) (int, error) {
	f := p.handle()
	if f == nil {
		return 0, ErrNotOpen
	}
	return f.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	f := p.handle()
	if f == nil {
		return 0, ErrNotOpen
	}
	return f.Write(b)
}

// handle returns the file without holding the lock during I/O, so a
// blocked Read can be interrupted by Close.
func (p *Port) handle() *os.File {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.state != StateOpen {
		return nil
	}
	return p.file
}

// release must be called with the lock held.
func (p *Port) release() error {
	if p.file == nil {
		p.setState(StateClosed)
		return nil
	}

	p.setState(StateClosing)
	err := p.file.Close()
	p.file = nil
	p.setState(StateClosed)

	if err != nil {
		return &CloseError{Path: p.config.Path, Err: err}
	}

	return nil
}

func (p *Port) setState(s State) {
	if p.opts.Debug && s != p.state {
		log.Printf("uart: %v: %v -> %v\n", p.config.Path, p.state, s)
	}
	p.state = s
}

// control runs fn with the raw descriptor. SyscallConn is used instead
// of Fd so the descriptor stays in non-blocking mode.
func (p *Port) control(fn func(fd int) error) error {
	rc, err := p.file.SyscallConn()
	if err != nil {
		return err
	}

	var ferr error
	err = rc.Control(func(fd uintptr) {
		ferr = fn(int(fd))
	})
	if err != nil {
		return err
	}

	return ferr
}

// resolveBaud applies the fallback policy to the configured rate. A
// zero rate returns ok false: leave the line speed alone.
func (p *Port) resolveBaud() (speed Speed, ok bool, err error) {
	baud := p.config.BaudRate
	if baud == 0 {
		return 0, false, nil
	}

	speed, err = MapBaudRate(baud)
	if err == nil {
		return speed, true, nil
	}

	if p.opts.FallbackBaud == 0 {
		return 0, false, err
	}

	log.Printf("uart: %v: baud %v not supported, using %v\n",
		p.config.Path, baud, p.opts.FallbackBaud)

	speed, err = MapBaudRate(p.opts.FallbackBaud)
	if err != nil {
		return 0, false, errors.Wrap(err, "fallback baud")
	}

	return speed, true, nil
}
