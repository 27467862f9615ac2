/*
Package respreader reads responses from devices that use prompt/response
protocols such as modem AT commands. A device takes some variable amount of
time to respond to a prompt and then streams the response out of the serial
port. A plain Read on a serial descriptor blocks until data arrives, possibly
forever; the readers in this package bound every wait with a timeout.

Two ways of finding the end of a response are supported:

1) Read returns once a gap of chunkTimeout follows the first received data.
This needs no knowledge of the response format.

2) ReadUntil returns as soon as a caller supplied predicate matches the data
accumulated so far, for example when a terminating "OK" appears.

Both return ErrorTimeout when the overall timeout expires first. A timeout of
zero or less waits forever.

Example using a serial port:

	import (
		"github.com/simpleiot/serialcfg/respreader"
		"github.com/simpleiot/serialcfg/uart"
	)

	port := uart.NewPort(uart.Config{Path: "/dev/ttyUSB0", BaudRate: 115200},
		uart.Options{})
	if err := port.Open(); err != nil {
		return err
	}

	rw := respreader.NewReadWriteCloser(port, 5*time.Second,
		50*time.Millisecond)

	// to stop the reader goroutine, close the port
	defer rw.Close()

	rw.Write([]byte("AT\r"))

	data, err := rw.ReadUntil(func(d []byte) bool {
		return bytes.Contains(d, []byte("OK"))
	}, nil)

Three types are provided for convenience that wrap io.Reader, io.ReadWriter, and io.ReadWriteCloser.
*/
package respreader
