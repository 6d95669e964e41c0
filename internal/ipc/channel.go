// Package ipc links the telemetry host with the dashboard process.
//
// A link is two one-way OS pipes. The data pipe carries batches of readings
// from the Producer to the Consumer, one JSON document per line, in send
// order. The control pipe carries a single shutdown byte from the Consumer
// back to the Producer. Each pipe has exactly one writer and one reader.
//
// No call on either endpoint blocks on I/O: sends are queued and written by
// a background goroutine, receives pop batches already decoded by another.
// A Producer whose peer disappears reports itself closed, the same as if the
// dashboard had asked to shut down.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"soleondash/internal/telemetry"
)

// ErrClosed is returned by Send once the consumer has closed or gone away.
var ErrClosed = errors.New("dashboard link closed")

// shutdownByte is written once on the control pipe.
const shutdownByte = 'q'

// Producer is the host end of a link.
type Producer struct {
	data io.WriteCloser
	ctl  io.ReadCloser

	queue       batchQueue
	wake        chan struct{}
	done        chan struct{}
	writerDone  chan struct{}
	watcherDone chan struct{}
	closed      atomic.Bool
	once        sync.Once
}

// NewProducer starts the I/O goroutines for a producer endpoint writing
// batches to data and watching ctl for the shutdown signal.
func NewProducer(data io.WriteCloser, ctl io.ReadCloser) *Producer {
	p := &Producer{
		data:        data,
		ctl:         ctl,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		writerDone:  make(chan struct{}),
		watcherDone: make(chan struct{}),
	}
	go p.writeLoop()
	go p.watchControl()
	return p
}

// Send queues a batch for delivery. Empty batches are dropped.
func (p *Producer) Send(b telemetry.Batch) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if len(b) == 0 {
		return nil
	}
	p.queue.push(b)
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// IsClosed reports whether the consumer signalled shutdown or disconnected.
func (p *Producer) IsClosed() bool {
	return p.closed.Load()
}

// Pending returns the number of batches queued but not yet written.
func (p *Producer) Pending() int {
	return p.queue.len()
}

// Close writes out batches already sent, then releases the producer end.
// The consumer observes end of stream after the last batch.
func (p *Producer) Close() error {
	var err error
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.done)
		<-p.writerDone
		err = p.data.Close()
		if cerr := p.ctl.Close(); err == nil {
			err = cerr
		}
		<-p.watcherDone
	})
	return err
}

func (p *Producer) writeLoop() {
	defer close(p.writerDone)
	w := bufio.NewWriter(p.data)
	enc := json.NewEncoder(w)
	for {
		stop := false
		select {
		case <-p.done:
			stop = true
		case <-p.wake:
		}
		if !p.flush(w, enc) {
			p.closed.Store(true)
			return
		}
		if stop {
			return
		}
	}
}

// flush writes every queued batch and reports whether the pipe took them.
func (p *Producer) flush(w *bufio.Writer, enc *json.Encoder) bool {
	for _, b := range p.queue.drain() {
		if err := enc.Encode(b); err != nil {
			return false
		}
	}
	return w.Flush() == nil
}

// watchControl latches closed on the shutdown byte, EOF or any read error.
func (p *Producer) watchControl() {
	defer close(p.watcherDone)
	var buf [1]byte
	_, _ = p.ctl.Read(buf[:])
	p.closed.Store(true)
}

// Consumer is the dashboard end of a link.
type Consumer struct {
	data io.ReadCloser
	ctl  io.WriteCloser

	queue      batchQueue
	gone       atomic.Bool
	requested  atomic.Bool
	signalOnce sync.Once
	closeOnce  sync.Once
	readDone   chan struct{}
}

// NewConsumer starts decoding batches from data; ctl carries the shutdown
// signal back to the producer.
func NewConsumer(data io.ReadCloser, ctl io.WriteCloser) *Consumer {
	c := &Consumer{data: data, ctl: ctl, readDone: make(chan struct{})}
	go c.readLoop()
	return c
}

// TryReceive returns the next pending batch without blocking.
func (c *Consumer) TryReceive() (telemetry.Batch, bool) {
	return c.queue.pop()
}

// SignalClose asks the producer to stop. Repeated calls are no-ops.
func (c *Consumer) SignalClose() {
	c.signalOnce.Do(func() {
		c.requested.Store(true)
		_, _ = c.ctl.Write([]byte{shutdownByte})
		_ = c.ctl.Close()
	})
}

// CloseRequested reports whether SignalClose has been called.
func (c *Consumer) CloseRequested() bool {
	return c.requested.Load()
}

// ProducerGone reports whether the data stream ended. Batches decoded
// before the end remain available to TryReceive.
func (c *Consumer) ProducerGone() bool {
	return c.gone.Load()
}

// Close signals shutdown and releases the consumer end.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.SignalClose()
		err = c.data.Close()
		<-c.readDone
	})
	return err
}

func (c *Consumer) readLoop() {
	defer close(c.readDone)
	dec := json.NewDecoder(bufio.NewReader(c.data))
	for {
		var b telemetry.Batch
		if err := dec.Decode(&b); err != nil {
			c.gone.Store(true)
			return
		}
		if len(b) > 0 {
			c.queue.push(b)
		}
	}
}
