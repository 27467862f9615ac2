// Package transport sends a command to an open serial port and waits for
// the device to answer with one of a small set of sentinel strings, the
// way modems answer AT commands.
package transport

import (
	"bytes"
	"io"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/simpleiot/serialcfg/respreader"
	"github.com/simpleiot/serialcfg/test"
)

// Sentinels are the strings that end a response by default.
var Sentinels = []string{"OK", "ERROR", "CONNECT"}

// Transport errors
var (
	ErrWrite   = errors.New("write failed")
	ErrTimeout = respreader.ErrorTimeout
)

// DefaultTimeout bounds how long Exchange waits for a response.
const DefaultTimeout = 5 * time.Second

// flushQuiet is how long the line must be idle before a command is sent
const flushQuiet = 20 * time.Millisecond

// Options for Exchange
type Options struct {
	// Timeout for the whole response. Zero or less waits forever.
	Timeout time.Duration
	// Terminator is appended to the command, "\r" if empty.
	Terminator string
	// Sentinels end the response. If empty, Sentinels is used.
	Sentinels []string
	// Echo, if set, receives every chunk as it arrives.
	Echo io.Writer
	// Debug logs transmitted and received bytes.
	Debug bool
}

// Response is the data received for one command.
type Response struct {
	Data string
	// Sentinel is the sentinel that ended the response, "" on timeout.
	Sentinel string
}

// OK returns true if the device answered OK.
func (r Response) OK() bool {
	return r.Sentinel == "OK"
}

// Write writes all of data, retrying short writes. A zero length payload
// or a write that makes no progress is an error.
func Write(w io.Writer, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.Wrap(ErrWrite, "empty payload")
	}

	total := 0
	for total < len(data) {
		n, err := w.Write(data[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, errors.Wrapf(ErrWrite, "after %v of %v bytes: %v",
				total, len(data), err)
		}
		if n <= 0 {
			return total, errors.Wrapf(ErrWrite, "no progress after %v of %v bytes",
				total, len(data))
		}
	}

	return total, nil
}

// FindSentinel returns the sentinel that occurs first in data.
func FindSentinel(data []byte, sentinels []string) (string, bool) {
	found := ""
	pos := -1

	for _, s := range sentinels {
		if s == "" {
			continue
		}
		i := bytes.Index(data, []byte(s))
		if i >= 0 && (pos < 0 || i < pos) {
			found, pos = s, i
		}
	}

	return found, pos >= 0
}

// ReadUntil reads from r until one of sentinels appears in the data
// received so far. A sentinel split across two reads still matches.
func ReadUntil(r *respreader.ResponseReader, sentinels []string, each func([]byte)) (Response, error) {
	data, err := r.ReadUntil(func(d []byte) bool {
		_, ok := FindSentinel(d, sentinels)
		return ok
	}, each)

	ret := Response{Data: string(data)}
	ret.Sentinel, _ = FindSentinel(data, sentinels)

	if err == respreader.ErrorTimeout {
		return ret, errors.Wrapf(ErrTimeout, "waiting for %v", sentinels)
	}

	return ret, err
}

// Conn runs command exchanges over one port. It starts a reader goroutine
// that lives until the port is closed, so create one Conn per open port
// and call Stop when done with it.
type Conn struct {
	port      io.Writer
	rr        *respreader.ResponseReader
	opts      Options
	term      string
	sentinels []string
}

// NewConn creates a Conn on port.
func NewConn(port io.ReadWriter, opts Options) *Conn {
	ret := &Conn{
		port:      port,
		rr:        respreader.NewReader(port, opts.Timeout, flushQuiet),
		opts:      opts,
		term:      opts.Terminator,
		sentinels: opts.Sentinels,
	}

	if ret.term == "" {
		ret.term = "\r"
	}

	if len(ret.sentinels) == 0 {
		ret.sentinels = Sentinels
	}

	return ret
}

// Exchange sends cmd and waits for a response that contains a sentinel.
// Input that arrived before the command is discarded.
func (c *Conn) Exchange(cmd string) (Response, error) {
	out := []byte(cmd + c.term)

	if c.opts.Debug {
		log.Println("Tx: ", test.Printable(out))
	}

	// flush once, a reply may start before a short write is finished
	if _, err := c.rr.Flush(); err != nil {
		return Response{}, errors.Wrapf(ErrWrite, "flushing input: %v", err)
	}

	if _, err := Write(c.port, out); err != nil {
		return Response{}, err
	}

	return ReadUntil(c.rr, c.sentinels, func(chunk []byte) {
		if c.opts.Debug {
			log.Printf("Rx: %v [%v]\n", test.Printable(chunk), test.HexDump(chunk))
		}
		if c.opts.Echo != nil {
			if _, err := c.opts.Echo.Write(chunk); err != nil {
				log.Println("Error echoing response: ", err)
			}
		}
	})
}

// Stop discards input nobody will read. The reader goroutine exits once
// the port is closed. Exchange must not be called after Stop.
func (c *Conn) Stop() {
	c.rr.Stop()
}

// Exchange sends a single command on port. See Conn.Exchange.
func Exchange(port io.ReadWriter, cmd string, opts Options) (Response, error) {
	return NewConn(port, opts).Exchange(cmd)
}
