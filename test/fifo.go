//go:build !windows

package test

import (
	"io"
	"log"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Fifo uses unix named pipes to emulate the two ends of a UART link. The A
// side creates the fifos and removes them on Close. The B side only opens
// them. Fifo implements io.ReadWriteCloser.
type Fifo struct {
	fread  io.ReadCloser
	fwrite io.WriteCloser
	a2b    string
	b2a    string
}

// NewFifoA creates the A side. prefix is a path prefix for the two fifo
// files, usually inside a test temp directory. It must be called before
// NewFifoB.
func NewFifoA(prefix string) (*Fifo, error) {
	ret := &Fifo{
		a2b: prefix + "a2b",
		b2a: prefix + "b2a",
	}

	os.Remove(ret.a2b)
	os.Remove(ret.b2a)

	if err := syscall.Mkfifo(ret.a2b, 0666); err != nil {
		return nil, errors.Wrap(err, "mkfifo a2b")
	}
	if err := syscall.Mkfifo(ret.b2a, 0666); err != nil {
		return nil, errors.Wrap(err, "mkfifo b2a")
	}

	if err := ret.open(ret.b2a, ret.a2b); err != nil {
		return nil, err
	}

	return ret, nil
}

// NewFifoB opens the B side of fifos created by NewFifoA.
func NewFifoB(prefix string) (*Fifo, error) {
	ret := &Fifo{}
	if err := ret.open(prefix+"a2b", prefix+"b2a"); err != nil {
		return nil, err
	}
	return ret, nil
}

// open uses RDWR so the open does not block waiting for the other side
func (f *Fifo) open(readPath, writePath string) error {
	var err error

	f.fread, err = os.OpenFile(readPath, os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening read fifo")
	}

	f.fwrite, err = os.OpenFile(writePath, os.O_RDWR, 0600)
	if err != nil {
		f.fread.Close()
		return errors.Wrap(err, "opening write fifo")
	}

	return nil
}

func (f *Fifo) Read(b []byte) (int, error) {
	return f.fread.Read(b)
}

func (f *Fifo) Write(b []byte) (int, error) {
	return f.fwrite.Write(b)
}

// Close the fifo files. The A side also deletes them.
func (f *Fifo) Close() error {
	if err := f.fwrite.Close(); err != nil {
		log.Println("Error closing write fifo: ", err)
	}

	if err := f.fread.Close(); err != nil {
		log.Println("Error closing read fifo: ", err)
	}

	if f.a2b != "" {
		os.Remove(f.a2b)
	}

	if f.b2a != "" {
		os.Remove(f.b2a)
	}

	return nil
}
