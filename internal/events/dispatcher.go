package events

import (
	"context"
	"log"
	"sync/atomic"
)

// Sink consumes events. Handle is called from the dispatcher goroutine only.
type Sink interface {
	Handle(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

const DefaultBufferSize = 1024

// Dispatcher fans events out to sinks on its own goroutine so that callers
// publishing from inside a critical section never wait on network I/O.
type Dispatcher struct {
	sinks   []Sink
	ch      chan Event
	dropped atomic.Uint64
}

// NewDispatcher creates a dispatcher with the given buffer size.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Dispatcher{
		sinks: sinks,
		ch:    make(chan Event, buffer),
	}
}

// Register adds a sink. It must be called before Run.
func (d *Dispatcher) Register(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Observe queues e without blocking. When the buffer is full the event is dropped.
func (d *Dispatcher) Observe(e Event) {
	select {
	case d.ch <- e:
	default:
		d.dropped.Add(1)
		log.Printf("WARNING: event buffer full, dropping %s for message %s", e.Type, e.MessageID)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Start runs the dispatcher on its own context. The returned stop function
// cancels it and returns once every queued event has been delivered, so it
// belongs after the producers (the HTTP server) have shut down.
func (d *Dispatcher) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

// Run delivers events until ctx is cancelled, then drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("Event dispatcher started.")
	for {
		select {
		case e := <-d.ch:
			d.dispatch(ctx, e)
		case <-ctx.Done():
			d.drain()
			log.Println("Event dispatcher stopped.")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	ctx := context.Background()
	for {
		select {
		case e := <-d.ch:
			d.dispatch(ctx, e)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, e Event) {
	for _, s := range d.sinks {
		if err := s.Handle(ctx, e); err != nil {
			log.Printf("ERROR: event sink %T failed for %s on message %s: %v", s, e.Type, e.MessageID, err)
		}
	}
}
