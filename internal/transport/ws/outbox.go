package ws

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("ws: connection closed")

// Outbox is the bounded queue between builds and the connection's single
// writer goroutine. Send blocks while the queue is full.
type Outbox struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = 64
	}
	return &Outbox{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (o *Outbox) Send(ctx context.Context, frame []byte) error {
	select {
	case <-o.done:
		return ErrClosed
	default:
	}
	select {
	case o.ch <- frame:
		return nil
	case <-o.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close makes every pending and future Send fail with ErrClosed.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

func (o *Outbox) Len() int { return len(o.ch) }
