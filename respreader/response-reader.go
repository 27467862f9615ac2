package respreader

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrorTimeout indicates the reader timed out
var ErrorTimeout = errors.New("timeout")

// ChunkSize is the largest read issued to the underlying reader.
const ChunkSize = 256

// ResponseReader is used for prompt/response communication where a prompt is
// sent and some time later a response streams back. A goroutine reads the
// underlying reader for the life of the ResponseReader and hands chunks to
// Read, ReadUntil and Flush over a channel, which lets those calls give up
// after a timeout even though the underlying Read blocks.
//
// The goroutine exits when the underlying reader returns an error, for
// example because the port was closed, or after Stop. After that, reads
// return io.EOF.
type ResponseReader struct {
	reader       io.Reader
	timeout      time.Duration
	chunkTimeout time.Duration
	size         int
	dataChan     chan []byte
	done         chan struct{}
	stopOnce     sync.Once
	// data received but not yet returned to a caller
	pending []byte
}

// NewReader creates a new response reader. timeout bounds how long a read
// waits for a response; zero or less waits forever. chunkTimeout is the gap
// that ends a response once data has started arriving, and the quiet time
// Flush waits for.
func NewReader(reader io.Reader, timeout time.Duration, chunkTimeout time.Duration) *ResponseReader {
	rr := ResponseReader{
		reader:       reader,
		timeout:      timeout,
		chunkTimeout: chunkTimeout,
		size:         ChunkSize,
		dataChan:     make(chan []byte),
		done:         make(chan struct{}),
	}
	// there is no way to stop a goroutine blocked in Read, so it lives
	// until the underlying reader fails
	go rr.readInput()
	return &rr
}

// Read waits up to the overall timeout for the first data, then keeps
// collecting until no data arrives for chunkTimeout or buffer is full.
func (rr *ResponseReader) Read(buffer []byte) (int, error) {
	if len(buffer) <= 0 {
		return 0, errors.New("must supply non-zero length buffer")
	}

	count := copy(buffer, rr.pending)
	rr.pending = rr.pending[count:]
	if count == len(buffer) {
		return count, nil
	}

	var timer *time.Timer
	if count > 0 {
		timer = startTimer(rr.chunkTimeout)
	} else {
		timer = startTimer(rr.timeout)
	}
	defer stopTimer(timer)

	for {
		select {
		case newData, ok := <-rr.dataChan:
			if !ok {
				return count, io.EOF
			}

			n := copy(buffer[count:], newData)
			count += n
			if n < len(newData) {
				rr.pending = append(rr.pending, newData[n:]...)
			}

			if count == len(buffer) || rr.chunkTimeout <= 0 {
				return count, nil
			}

			timer = resetTimer(timer, rr.chunkTimeout)

		case <-timerC(timer):
			if count > 0 {
				return count, nil
			}

			return count, ErrorTimeout
		}
	}
}

// ReadUntil accumulates data until done returns true for everything read so
// far. each, if not nil, is called with every chunk as it arrives. The
// overall timeout is not extended by incoming data. On timeout or EOF the
// data read so far is returned with the error.
func (rr *ResponseReader) ReadUntil(done func(data []byte) bool, each func(chunk []byte)) ([]byte, error) {
	var ret []byte

	add := func(chunk []byte) bool {
		if each != nil {
			each(chunk)
		}
		ret = append(ret, chunk...)
		return done(ret)
	}

	if len(rr.pending) > 0 {
		chunk := rr.pending
		rr.pending = nil
		if add(chunk) {
			return ret, nil
		}
	}

	timer := startTimer(rr.timeout)
	defer stopTimer(timer)

	for {
		select {
		case chunk, ok := <-rr.dataChan:
			if !ok {
				return ret, io.EOF
			}

			if add(chunk) {
				return ret, nil
			}

		case <-timerC(timer):
			return ret, ErrorTimeout
		}
	}
}

// Flush is used to flush any input data. It returns once no data has arrived
// for chunkTimeout.
func (rr *ResponseReader) Flush() (int, error) {
	count := len(rr.pending)
	rr.pending = nil

	if rr.chunkTimeout <= 0 {
		for {
			select {
			case newData, ok := <-rr.dataChan:
				count += len(newData)
				if !ok {
					return count, io.EOF
				}
			default:
				return count, nil
			}
		}
	}

	timeout := time.NewTimer(rr.chunkTimeout)
	defer timeout.Stop()

	for {
		select {
		case newData, ok := <-rr.dataChan:
			count += len(newData)
			if !ok {
				return count, io.EOF
			}

			timeout = resetTimer(timeout, rr.chunkTimeout)

		case <-timeout.C:
			return count, nil
		}
	}
}

// Stop tells the reader goroutine to discard data nobody reads and exit.
// A goroutine blocked in the underlying Read still exits only when that
// Read returns, so close the port as well.
func (rr *ResponseReader) Stop() {
	rr.stopOnce.Do(func() {
		close(rr.done)
	})
}

// readInput is used by a goroutine to read data from the underlying io.Reader
func (rr *ResponseReader) readInput() {
	defer close(rr.dataChan)

	for {
		select {
		case <-rr.done:
			return
		default:
		}

		tmp := make([]byte, rr.size)
		length, err := rr.reader.Read(tmp)
		if length > 0 {
			select {
			case rr.dataChan <- tmp[0:length]:
			case <-rr.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func startTimer(d time.Duration) *time.Timer {
	if d <= 0 {
		return nil
	}
	return time.NewTimer(d)
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// resetTimer restarts t, creating it if the wait so far was unbounded.
func resetTimer(t *time.Timer, d time.Duration) *time.Timer {
	if t == nil {
		return startTimer(d)
	}
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
	return t
}

// a nil channel blocks forever, which is what an unbounded wait needs
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// ResponseReadWriter is a convenience type that implements io.ReadWriter. Write
// calls flush reader before writing the prompt.
type ResponseReadWriter struct {
	writer io.Writer
	*ResponseReader
}

// NewReadWriter creates a new response reader
func NewReadWriter(iorw io.ReadWriter, timeout time.Duration, chunkTimeout time.Duration) *ResponseReadWriter {
	return &ResponseReadWriter{
		writer:         iorw,
		ResponseReader: NewReader(iorw, timeout, chunkTimeout),
	}
}

// Write flushes all data from reader, and then passes through write call.
func (rrw *ResponseReadWriter) Write(buffer []byte) (int, error) {
	n, err := rrw.Flush()
	if err != nil {
		return n, err
	}

	return rrw.writer.Write(buffer)
}

// ResponseReadWriteCloser is a convenience type that implements io.ReadWriteCloser.
// Write calls flush reader before writing the prompt.
type ResponseReadWriteCloser struct {
	closer io.Closer
	*ResponseReadWriter
}

// NewReadWriteCloser creates a new response reader
func NewReadWriteCloser(iorw io.ReadWriteCloser, timeout time.Duration, chunkTimeout time.Duration) *ResponseReadWriteCloser {
	return &ResponseReadWriteCloser{
		closer:             iorw,
		ResponseReadWriter: NewReadWriter(iorw, timeout, chunkTimeout),
	}
}

// Close stops the reader and closes the underlying port, which ends the
// reader goroutine.
func (rrwc *ResponseReadWriteCloser) Close() error {
	rrwc.Stop()
	return rrwc.closer.Close()
}
