package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Subscriber receives events through a buffered channel. When the buffer is
// full the dispatcher drops the event for that subscriber instead of
// blocking the publisher.
type Subscriber struct {
	name string
	ch   chan Event
}

func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

func (s *Subscriber) Name() string {
	return s.name
}

// Dispatcher fans events out to subscribers. Publish never blocks.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(name string, buffer int) *Subscriber
	Unsubscribe(sub *Subscriber)
	Close()
}

type dispatcherImpl struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	closed bool
}

func NewDispatcher() Dispatcher {
	return &dispatcherImpl{
		subs: make(map[*Subscriber]struct{}),
	}
}

func (d *dispatcherImpl) Publish(_ context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	for sub := range d.subs {
		select {
		case sub.ch <- event:
		default:
			log.Warn().
				Str("subscriber", sub.name).
				Str("eventType", event.Type).
				Str("eventId", event.ID).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

func (d *dispatcherImpl) Subscribe(name string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}

	sub := &Subscriber{
		name: name,
		ch:   make(chan Event, buffer),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		close(sub.ch)

		return sub
	}

	d.subs[sub] = struct{}{}

	return sub
}

func (d *dispatcherImpl) Unsubscribe(sub *Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[sub]; !ok {
		return
	}

	delete(d.subs, sub)
	close(sub.ch)
}

func (d *dispatcherImpl) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.closed = true

	for sub := range d.subs {
		delete(d.subs, sub)
		close(sub.ch)
	}
}
