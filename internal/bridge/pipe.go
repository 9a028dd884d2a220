package bridge

import (
	"errors"
	"sync"
)

// ErrClosed signals that the bridge connection has been torn down.
var ErrClosed = errors.New("bridge connection closed")

// Conn is one end of the bridge. Sends are fire-and-forget: no
// acknowledgement exists in either direction, and delivery order is
// preserved only within one direction.
type Conn interface {
	Send(Message) error
	Receive() (Message, error)
	Close() error
}

const pipeBuffer = 64

// pipeEnd is an in-process bridge end backed by buffered channels. It is
// used by tests and by embeddings that run host and runtime in one process.
type pipeEnd struct {
	out  chan Message
	in   chan Message
	done chan struct{}
	once *sync.Once
}

// Pipe returns two connected bridge ends. Messages sent on one end arrive
// on the other in FIFO order; when the buffer is full a send drops the
// message rather than blocking the frame loop.
func Pipe() (Conn, Conn) {
	ab := make(chan Message, pipeBuffer)
	ba := make(chan Message, pipeBuffer)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeEnd{out: ab, in: ba, done: done, once: once}
	b := &pipeEnd{out: ba, in: ab, done: done, once: once}
	return a, b
}

func (p *pipeEnd) Send(m Message) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- m:
	default:
		// best-effort: accepted message loss under backpressure
	}
	return nil
}

func (p *pipeEnd) Receive() (Message, error) {
	select {
	case m := <-p.in:
		return m, nil
	case <-p.done:
		// drain what was already queued before the close
		select {
		case m := <-p.in:
			return m, nil
		default:
			return Message{}, ErrClosed
		}
	}
}

// Close tears down both ends; either side may call it.
func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
