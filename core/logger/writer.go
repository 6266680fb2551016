package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter hands lines to a single goroutine that owns the buffered sink.
// The buffer is flushed whenever the queue runs empty.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}

	// closing guards lines: senders hold the read lock, Close the write lock.
	closing sync.RWMutex
	closed  bool

	sink *bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(w io.Writer, bufSize int) *asyncWriter {
	aw := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		sink:    bufio.NewWriterSize(w, bufSize),
	}
	go aw.loop()
	return aw
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.record(w.sink.Flush())
				return
			}
			w.write(line)
			if len(w.lines) == 0 {
				w.record(w.sink.Flush())
			}
		case ack := <-w.flushes:
			w.drain()
			ack <- w.sink.Flush()
		}
	}
}

func (w *asyncWriter) write(line []byte) {
	_, err := w.sink.Write(line)
	w.record(err)
}

// drain writes lines already queued without waiting for new ones.
func (w *asyncWriter) drain() {
	for n := len(w.lines); n > 0; n-- {
		line, ok := <-w.lines
		if !ok {
			return
		}
		w.write(line)
	}
}

// Write copies p and queues it, blocking while the queue is full.
// Lines written after Close are dropped.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.closing.RLock()
	defer w.closing.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every queued line reached the sink.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.closing.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.closing.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
