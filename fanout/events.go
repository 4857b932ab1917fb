package fanout

import "fmt"

// Event types pushed to subscribers.
const (
	EventSessionStarted         = "session_started"
	EventParticipantJoined      = "participant_joined"
	EventParticipantLeft        = "participant_left"
	EventSessionEnded           = "session_ended"
	EventTableCreated           = "table_created"
	EventTableUpdated           = "table_updated"
	EventCallCreated            = "call_created"
	EventCallAcknowledged       = "call_acknowledged"
	EventCallInProgress         = "call_in_progress"
	EventCallResolved           = "call_resolved"
	EventSplitCreated           = "split_created"
	EventTipAdded               = "tip_added"
	EventContributionProcessing = "contribution_processing"
	EventContributionPaid       = "contribution_paid"
	EventContributionFailed     = "contribution_failed"
	EventSplitCompleted         = "split_completed"
)

// Topic builders. Subscriptions are scoped per location and per audience.
func LocationTopic(locationID uint) string {
	return fmt.Sprintf("location:%d", locationID)
}

func WaiterTopic(locationID uint) string {
	return fmt.Sprintf("waiter:%d", locationID)
}

func CustomerTopic(locationID uint) string {
	return fmt.Sprintf("customer:%d", locationID)
}

func KitchenTopic(locationID uint) string {
	return fmt.Sprintf("kitchen:%d", locationID)
}

// Message is the wire envelope for every pushed event.
type Message struct {
	Topic string      `json:"topic"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}
