package event

import (
	"log/slog"
	"sync"
)

const defaultBufferSize = 32

// Dispatcher fans events out to subscriptions. Publishing never blocks: an
// event that does not fit into a subscriber's buffer is dropped for that
// subscriber.
type Dispatcher struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	logger *slog.Logger
	closed bool
}

// New creates a dispatcher that logs through slog.Default().
func New() *Dispatcher {
	return NewWithLogger(nil)
}

// NewWithLogger creates a dispatcher with the given logger.
func NewWithLogger(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscription receives events for a set of topics.
type Subscription struct {
	d      *Dispatcher
	topics map[Topic]struct{}
	ch     chan Event
	once   sync.Once
}

// C returns the delivery channel. It is closed by Unsubscribe or when the
// dispatcher closes.
func (s *Subscription) C() <-chan Event { return s.ch }

// Unsubscribe stops delivery and closes the channel.
func (s *Subscription) Unsubscribe() {
	s.d.remove(s)
}

func (s *Subscription) matches(t Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[t]
	return ok
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Subscribe registers interest in topics. No topics means every topic.
func (d *Dispatcher) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{
		d:      d,
		topics: make(map[Topic]struct{}, len(topics)),
		ch:     make(chan Event, defaultBufferSize),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		sub.close()
		return sub
	}
	d.subs[sub] = struct{}{}
	return sub
}

// Publish delivers e to every matching subscription.
func (d *Dispatcher) Publish(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for sub := range d.subs {
		if !sub.matches(e.Topic) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			d.logger.Debug("event dropped", "topic", e.Topic)
		}
	}
}

func (d *Dispatcher) remove(s *Subscription) {
	d.mu.Lock()
	delete(d.subs, s)
	d.mu.Unlock()
	s.close()
}

// Close closes every subscription. Publishing afterwards is a no-op.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for sub := range d.subs {
		sub.close()
	}
	d.subs = nil
}
