package event_bus

// TopicEventsUpdated is published whenever a source replaces its cached
// event batch (a sync completed or a feed import landed).
const TopicEventsUpdated EventType = "events.updated"

// EventsUpdated describes one replaced batch.
type EventsUpdated struct {
	// Source is the sourceKind whose batch changed.
	Source string
	// Count is the number of events now in the batch.
	Count int
}
