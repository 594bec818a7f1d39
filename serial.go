package zemote

import (
	"errors"
	"io"
	"sync"
)

// SerialBufferSize is the number of received bytes a SerialQueue holds before
// it starts dropping.
const SerialBufferSize = 64

// ErrNoData is returned by ReadByte when nothing is buffered.
var ErrNoData = errors.New("zemote: no serial data buffered")

// SerialQueue adapts a blocking io.ReadWriter, such as a tty or a pipe, into
// a [SerialPort]. A background goroutine reads into a bounded buffer; bytes
// that arrive while the buffer is full are dropped, like a UART's RX buffer.
type SerialQueue struct {
	w io.Writer

	mu      sync.Mutex
	buf     [SerialBufferSize]byte
	head    int
	n       int
	dropped int
	err     error

	done chan struct{}
	wmu  sync.Mutex
}

var _ SerialPort = (*SerialQueue)(nil)

// NewSerialQueue starts reading from rw. The reader goroutine exits once rw
// returns an error; closing rw is how it is stopped.
func NewSerialQueue(rw io.ReadWriter) *SerialQueue {
	q := &SerialQueue{
		w:    rw,
		done: make(chan struct{}),
	}
	go q.pump(rw)
	return q
}

func (q *SerialQueue) pump(r io.Reader) {
	defer close(q.done)

	chunk := make([]byte, SerialBufferSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			q.push(chunk[:n])
		}
		if err != nil {
			q.mu.Lock()
			q.err = err
			q.mu.Unlock()
			return
		}
	}
}

func (q *SerialQueue) push(b []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, c := range b {
		if q.n == len(q.buf) {
			q.dropped++
			continue
		}
		q.buf[(q.head+q.n)%len(q.buf)] = c
		q.n++
	}
}

// Buffered implements [SerialPort].
func (q *SerialQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// ReadByte implements [SerialPort]. It never blocks.
func (q *SerialQueue) ReadByte() (byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 {
		return 0, ErrNoData
	}
	c := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return c, nil
}

// Write implements [SerialPort].
func (q *SerialQueue) Write(b []byte) (int, error) {
	q.wmu.Lock()
	defer q.wmu.Unlock()
	return q.w.Write(b)
}

// Dropped returns the number of received bytes dropped because the buffer was
// full.
func (q *SerialQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Done is closed once the reader goroutine has exited.
func (q *SerialQueue) Done() <-chan struct{} {
	return q.done
}

// Err returns the error that stopped the reader goroutine, if any. io.EOF is
// returned as is.
func (q *SerialQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
