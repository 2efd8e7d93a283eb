package events

import (
	"sync"
)

// GlobalResource subscribes to every resource's events.
const GlobalResource = "*"

// Publisher fans mutation events out to subscribers keyed by resource
// name.
type Publisher interface {
	Publish(event Event)
	// Subscribe returns a channel of events for the resource; pass
	// GlobalResource for everything. The channel is closed on
	// Unsubscribe or Close.
	Subscribe(resource string) <-chan Event
	Unsubscribe(resource string, ch <-chan Event)
	Close()
}

// MemoryPublisher is the in-process Publisher used by the server. Sends
// never block: a subscriber whose buffer is full misses the event.
type MemoryPublisher struct {
	mu         sync.RWMutex
	subs       map[string]map[chan Event]struct{}
	bufferSize int
	closed     bool
}

// PublisherOption configures a MemoryPublisher.
type PublisherOption func(*MemoryPublisher)

// WithBufferSize overrides the per-subscriber channel buffer.
func WithBufferSize(n int) PublisherOption {
	return func(p *MemoryPublisher) { p.bufferSize = n }
}

func NewMemoryPublisher(opts ...PublisherOption) *MemoryPublisher {
	p := &MemoryPublisher{
		subs:       make(map[string]map[chan Event]struct{}),
		bufferSize: 100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish delivers the event to the resource's subscribers and to global
// subscribers.
func (p *MemoryPublisher) Publish(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.fanout(p.subs[event.Resource], event)
	if event.Resource != GlobalResource {
		p.fanout(p.subs[GlobalResource], event)
	}
}

func (p *MemoryPublisher) fanout(set map[chan Event]struct{}, event Event) {
	for ch := range set {
		select {
		case ch <- event:
		default:
		}
	}
}

func (p *MemoryPublisher) Subscribe(resource string) <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, p.bufferSize)
	if p.subs[resource] == nil {
		p.subs[resource] = make(map[chan Event]struct{})
	}
	p.subs[resource][ch] = struct{}{}
	return ch
}

func (p *MemoryPublisher) Unsubscribe(resource string, ch <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for sub := range p.subs[resource] {
		if sub == ch {
			delete(p.subs[resource], sub)
			close(sub)
			break
		}
	}
	if len(p.subs[resource]) == 0 {
		delete(p.subs, resource)
	}
}

// Close closes every subscription channel. Further publishes are dropped
// and further subscribes return closed channels.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for resource, set := range p.subs {
		for ch := range set {
			close(ch)
		}
		delete(p.subs, resource)
	}
}

// SubscriberCount reports active subscriptions for a resource.
func (p *MemoryPublisher) SubscriberCount(resource string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[resource])
}

// NopPublisher discards everything. Handy for tests that do not care
// about events.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) Publish(Event) {}

func (*NopPublisher) Subscribe(string) <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

func (*NopPublisher) Unsubscribe(string, <-chan Event) {}

func (*NopPublisher) Close() {}
