package events

// Capture is an Emitter that records events in order. The node stages engine
// events in a Capture while a state transaction is open and republishes them
// only after the transaction commits.
type Capture struct {
	events []Event
}

// Emit implements the Emitter interface.
func (c *Capture) Emit(evt Event) {
	if c == nil || evt == nil {
		return
	}
	c.events = append(c.events, evt)
}

// Events returns the recorded events in emission order.
func (c *Capture) Events() []Event {
	if c == nil {
		return nil
	}
	return c.events
}
