//go:build windows

package test

import "errors"

// Fifo is not available on windows
type Fifo struct {
}

var errNoFifo = errors.New("fifos not supported on windows")

// NewFifoA is not supported on windows
func NewFifoA(prefix string) (*Fifo, error) {
	return nil, errNoFifo
}

// NewFifoB is not supported on windows
func NewFifoB(prefix string) (*Fifo, error) {
	return nil, errNoFifo
}

func (f *Fifo) Read(b []byte) (int, error) {
	return 0, errNoFifo
}

func (f *Fifo) Write(b []byte) (int, error) {
	return 0, errNoFifo
}

// Close does nothing
func (f *Fifo) Close() error {
	return nil
}
