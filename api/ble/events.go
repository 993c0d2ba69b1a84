package ble

import (
	"github.com/bluetuith-org/bluetooth-le/api/eventbus"
)

// EventID represents a unique event ID.
type EventID byte

// The different types of event IDs.
const (
	EventNone EventID = iota // The zero value for this type.
	EventError
	EventDevice
	EventConnection
)

// EventAction describes an action that is associated with an event.
type EventAction string

// The different types of event actions.
const (
	EventActionNone    EventAction = "none"
	EventActionAdded   EventAction = "added"
	EventActionUpdated EventAction = "updated"
	EventActionRemoved EventAction = "removed"
)

var eventNames = map[EventID]string{
	EventNone:       "",
	EventError:      "error_event",
	EventDevice:     "device_event",
	EventConnection: "connection_event",
}

// String returns the name of the event ID.
func (e EventID) String() string {
	return eventNames[e]
}

// Value returns the event ID.
func (e EventID) Value() uint {
	return uint(e)
}

// Event represents a general event.
type Event[T any] struct {
	// ID holds the event ID.
	ID EventID `json:"event_id,omitempty" doc:"The event ID."`

	// Action holds the corresponding action associated with this event.
	Action EventAction `json:"event_action,omitempty" doc:"The corresponding action associated with this event."`

	// Data holds the actual event data.
	Data T `json:"event_data,omitempty" doc:"The actual event data."`
}

// ConnectionEventData holds connection lifecycle event data.
type ConnectionEventData struct {
	// Connection holds the connection handle.
	Connection Connection `json:"connection,omitempty" doc:"The connection handle."`

	// Connected indicates if the handshake completed.
	Connected bool `json:"connected,omitempty" doc:"Indicates if the handshake completed."`

	// Status holds the driver status of a teardown.
	Status int32 `json:"status,omitempty" doc:"The driver status of a teardown."`
}

// EventGroup publishes and subscribes to events of one event ID.
type EventGroup[T any] struct {
	// ID holds the event ID.
	ID EventID
}

// Publish publishes an event with the given action to the event stream.
func (e EventGroup[T]) Publish(action EventAction, data T) {
	eventbus.Publish(e.ID, Event[T]{e.ID, action, data})
}

// Subscribe subscribes to this event group's events.
func (e EventGroup[T]) Subscribe() eventbus.SubscriberID {
	return eventbus.Subscribe(e.ID)
}

// DeviceEvents returns the event group for discovered-device events.
func DeviceEvents() EventGroup[DiscoveredDevice] {
	return EventGroup[DiscoveredDevice]{ID: EventDevice}
}

// ConnectionEvents returns the event group for connection lifecycle events.
func ConnectionEvents() EventGroup[ConnectionEventData] {
	return EventGroup[ConnectionEventData]{ID: EventConnection}
}

// ErrorEvents returns the event group for failure events.
func ErrorEvents() EventGroup[Failure] {
	return EventGroup[Failure]{ID: EventError}
}
