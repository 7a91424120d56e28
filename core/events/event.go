package events

// Event is anything the registry can announce to subscribers, keyed by a
// stable type string.
type Event interface {
	EventType() string
}

// Emitter receives events as state transitions commit.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards everything. Engines fall back to it so event emission
// is always safe to call.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}
