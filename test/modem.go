package test

import (
	"bytes"
	"io"
	"sync"
)

// Modem emulates a device that answers AT style commands. Commands are
// terminated by a carriage return. Each command gets the response from the
// table, or "\r\nERROR\r\n" when it is not in the table. A response of ""
// means the modem stays silent for that command.
type Modem struct {
	port      io.ReadWriter
	responses map[string]string

	lock     sync.Mutex
	received []string
}

// NewModem creates a modem on port. Call Run to start answering.
func NewModem(port io.ReadWriter, responses map[string]string) *Modem {
	return &Modem{port: port, responses: responses}
}

// Run answers commands until the port returns an error. It is normally
// started in a goroutine and stopped by closing the port.
func (m *Modem) Run() error {
	var line []byte
	buf := make([]byte, 64)

	for {
		n, err := m.port.Read(buf)
		if err != nil {
			return err
		}

		line = append(line, buf[:n]...)

		for {
			i := bytes.IndexByte(line, '\r')
			if i < 0 {
				break
			}

			cmd := string(bytes.TrimSpace(line[:i]))
			line = line[i+1:]

			if cmd == "" {
				continue
			}

			m.lock.Lock()
			m.received = append(m.received, cmd)
			m.lock.Unlock()

			resp, ok := m.responses[cmd]
			if !ok {
				resp = "\r\nERROR\r\n"
			}

			if resp == "" {
				continue
			}

			if _, err := m.port.Write([]byte(resp)); err != nil {
				return err
			}
		}
	}
}

// Received returns the commands seen so far.
func (m *Modem) Received() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	ret := make([]string, len(m.received))
	copy(ret, m.received)
	return ret
}
