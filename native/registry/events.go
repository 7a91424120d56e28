package registry

import (
	"contenthub/core/events"
	"contenthub/core/types"
)

const (
	// EventTypeContentSubmitted is emitted when a contributor submits new content.
	EventTypeContentSubmitted = "registry.content.submitted"
	// EventTypeContentApproved is emitted when the administrator approves a record.
	EventTypeContentApproved = "registry.content.approved"
	// EventTypeContentRejected is emitted when the administrator rejects a record.
	EventTypeContentRejected = "registry.content.rejected"
	// EventTypeContributorAdded is emitted when an account gains submission rights.
	EventTypeContributorAdded = "registry.contributor.added"
	// EventTypeContributorRemoved is emitted when an account loses submission rights.
	EventTypeContributorRemoved = "registry.contributor.removed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// ContentSubmittedEvent returns the structured payload announcing a submission.
func ContentSubmittedEvent(id string, submitter string, title string, description string, url string, reward string) *types.Event {
	return &types.Event{
		Type: EventTypeContentSubmitted,
		Attributes: map[string]string{
			"id":          id,
			"submitter":   submitter,
			"title":       title,
			"description": description,
			"url":         url,
			"reward":      reward,
		},
	}
}

// ContentApprovedEvent returns the structured payload for an approval,
// including the reward paid out to the submitter.
func ContentApprovedEvent(id string, submitter string, reward string) *types.Event {
	return &types.Event{
		Type: EventTypeContentApproved,
		Attributes: map[string]string{
			"id":        id,
			"submitter": submitter,
			"reward":    reward,
		},
	}
}

// ContentRejectedEvent returns the structured payload for a rejection.
func ContentRejectedEvent(id string, submitter string) *types.Event {
	return &types.Event{
		Type: EventTypeContentRejected,
		Attributes: map[string]string{
			"id":        id,
			"submitter": submitter,
		},
	}
}

// ContributorAddedEvent captures an account gaining submission rights.
func ContributorAddedEvent(account string) *types.Event {
	return &types.Event{
		Type: EventTypeContributorAdded,
		Attributes: map[string]string{
			"account": account,
		},
	}
}

// ContributorRemovedEvent captures an account losing submission rights.
func ContributorRemovedEvent(account string) *types.Event {
	return &types.Event{
		Type: EventTypeContributorRemoved,
		Attributes: map[string]string{
			"account": account,
		},
	}
}
