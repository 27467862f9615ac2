//go:build !windows

package test

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFifo(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "fifo")

	a, err := NewFifoA(prefix)
	if err != nil {
		t.Fatal("Creating A side failed: ", err)
	}
	defer a.Close()

	b, err := NewFifoB(prefix)
	if err != nil {
		t.Fatal("Creating B side failed: ", err)
	}
	defer b.Close()

	testString := "hi there"

	_, err = a.Write([]byte(testString))
	if err != nil {
		t.Fatal("Error writing a: ", err)
	}

	buf := make([]byte, 500)

	c, err := b.Read(buf)
	if err != nil {
		t.Fatal("Error reading b: ", err)
	}

	if string(buf[:c]) != testString {
		t.Fatal("did not get test string back")
	}

	_, err = b.Write([]byte(testString))
	if err != nil {
		t.Fatal("Error writing b: ", err)
	}

	c, err = a.Read(buf)
	if err != nil {
		t.Fatal("Error reading a: ", err)
	}

	if string(buf[:c]) != testString {
		t.Fatal("did not get test string back")
	}

	// verify fifo reads with no data block
	readReturned := make(chan struct{})
	go func() {
		a.Read(buf)
		close(readReturned)
	}()

	select {
	case <-readReturned:
		t.Error("Read should have never returned")
	case <-time.After(time.Millisecond * 10):
		// all is well
	}
}

func TestModem(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "modem")

	a, err := NewFifoA(prefix)
	if err != nil {
		t.Fatal("Creating A side failed: ", err)
	}
	defer a.Close()

	b, err := NewFifoB(prefix)
	if err != nil {
		t.Fatal("Creating B side failed: ", err)
	}
	defer b.Close()

	modem := NewModem(a, map[string]string{"AT": "\r\nOK\r\n"})
	go modem.Run()

	if _, err := b.Write([]byte("AT\rATZ\r")); err != nil {
		t.Fatal("write failed: ", err)
	}

	exp := "\r\nOK\r\n\r\nERROR\r\n"
	var got []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(time.Second)

	for len(got) < len(exp) && time.Now().Before(deadline) {
		c, err := b.Read(buf)
		if err != nil {
			t.Fatal("read failed: ", err)
		}
		got = append(got, buf[:c]...)
	}

	if string(got) != exp {
		t.Errorf("got %q", got)
	}

	rx := modem.Received()
	if len(rx) != 2 || rx[0] != "AT" || rx[1] != "ATZ" {
		t.Error("unexpected commands: ", rx)
	}
}

func TestHexDump(t *testing.T) {
	if HexDump([]byte{0x41, 0x54, 0x0d}) != "41 54 0d" {
		t.Error("unexpected dump: ", HexDump([]byte{0x41, 0x54, 0x0d}))
	}

	if Printable([]byte("OK\r\n")) != `"OK\r\n"` {
		t.Error("unexpected printable: ", Printable([]byte("OK\r\n")))
	}
}
