package events

import (
	"sync"

	"contenthub/core/types"
)

const defaultSubscriberBuffer = 64

// Bus fans emitted events out to in-process subscribers. Emission never
// blocks: a subscriber whose buffer is full misses the event, matching the
// "emitted synchronously, no delivery guarantee" contract of the registry.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan *types.Event
	buffer int
}

// NewBus constructs a bus with the default per-subscriber buffer.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[uint64]chan *types.Event),
		buffer: defaultSubscriberBuffer,
	}
}

// Emit implements the Emitter interface for payloads carrying a types.Event.
func (b *Bus) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- payload.Clone():
		default:
		}
	}
}

// Subscribe registers a new subscriber channel. The returned cancel function
// must be called when the subscriber is done; the channel is closed on cancel.
func (b *Bus) Subscribe() (<-chan *types.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan *types.Event, b.buffer)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}
