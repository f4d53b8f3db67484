package plugin

import (
	"fmt"
	"sync/atomic"

	"github.com/muurk/printscout/internal/logging"
	"go.uber.org/zap"
)

// dispatcher delivers counts to a sink in push order. With a queue it runs
// one goroutine reading a bounded channel; without one it calls the sink
// inline.
type dispatcher struct {
	plugin  string
	sink    CountSink
	ch      chan delivery
	done    chan struct{}
	discard atomic.Bool
}

// delivery is one queued count, or a flush marker when ack is set.
type delivery struct {
	count int
	ack   chan struct{}
}

func newDispatcher(plugin string, sink CountSink, size int) *dispatcher {
	d := &dispatcher{plugin: plugin, sink: sink}
	if size <= 0 {
		return d
	}
	d.ch = make(chan delivery, size)
	d.done = make(chan struct{})
	go d.run()
	return d
}

// push hands count to the sink. A full queue blocks the caller.
func (d *dispatcher) push(count int) {
	if d.ch == nil {
		d.deliver(count)
		return
	}
	d.ch <- delivery{count: count}
}

// mark queues a marker behind everything pushed so far. The returned
// channel is closed once the marker is reached. It must be called with the
// plugin lock held, like push.
func (d *dispatcher) mark() <-chan struct{} {
	ack := make(chan struct{})
	if d.ch == nil {
		close(ack)
		return ack
	}
	d.ch <- delivery{ack: ack}
	return ack
}

// close delivers everything pushed so far and waits for the goroutine.
func (d *dispatcher) close() {
	if d.ch == nil {
		return
	}
	close(d.ch)
	<-d.done
}

// abort drops pending counts and waits for the goroutine.
func (d *dispatcher) abort() {
	d.discard.Store(true)
	d.close()
}

func (d *dispatcher) run() {
	defer close(d.done)
	for item := range d.ch {
		if item.ack != nil {
			close(item.ack)
			continue
		}
		if d.discard.Load() {
			continue
		}
		d.deliver(item.count)
	}
}

func (d *dispatcher) deliver(count int) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Count sink panicked",
				zap.String("plugin", d.plugin),
				zap.Int("count", count),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	d.sink.CountChanged(count)
}
