// Package eventbus provides a process-wide publisher for events emitted
// by a running central. Event delivery through this bus is advisory and
// unordered with respect to per-connection listener fan-out.
package eventbus

import (
	"sync"

	"github.com/cskr/pubsub/v2"
)

// EventID represents a unique event ID.
type EventID interface {
	String() string
	Value() uint
}

// UnsubFunc describes a function to be called when unsubscribing from an event.
type UnsubFunc func()

// SubscriberID represents a subscriber ID.
type SubscriberID struct {
	C      chan any
	active bool
	unsub  UnsubFunc
}

// Unsubscribe unsubscribes from the attached subscription.
func (s SubscriberID) Unsubscribe() {
	if s.unsub != nil {
		s.unsub()
	}
}

// IsActive returns if the subscriber can actually receive events.
func (s SubscriberID) IsActive() bool {
	return s.active
}

// EventHandler represents an interface that can publish events to, and
// subscribe to events from, an event stream.
type EventHandler interface {
	Publish(id uint, data any)
	Subscribe(id uint) SubscriberID
}

var (
	handlerMu sync.RWMutex
	handler   EventHandler = DefaultHandler()
)

// RegisterEventHandler registers the event handler interface.
func RegisterEventHandler(eh EventHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()

	handler = eh
}

// DisableEvents unregisters the event handler.
func DisableEvents() {
	RegisterEventHandler(NilHandler())
}

// Publish calls the registered publisher handler.
func Publish(id EventID, data any) {
	if id == nil {
		return
	}

	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()

	h.Publish(id.Value(), data)
}

// Subscribe calls the registered subscriber handler.
func Subscribe(id EventID) SubscriberID {
	if id == nil {
		return NilHandler().Subscribe(0)
	}

	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()

	return h.Subscribe(id.Value())
}

// DefaultEventHandler represents an internal event handler.
type DefaultEventHandler struct {
	*pubsub.PubSub[uint, any]
}

// DefaultHandler returns the default event handler.
func DefaultHandler() *DefaultEventHandler {
	return &DefaultEventHandler{PubSub: pubsub.New[uint, any](10)}
}

// Publish publishes an event to the event stream.
func (d *DefaultEventHandler) Publish(id uint, data any) {
	d.TryPub(data, id)
}

// Subscribe subscribes to an event from the event stream.
func (d *DefaultEventHandler) Subscribe(id uint) SubscriberID {
	ch := d.Sub(id)
	return SubscriberID{
		C:      ch,
		active: true,
		unsub: func() {
			go d.Unsub(ch, id)
		},
	}
}

// NilEventHandler represents a disabled event handler.
type NilEventHandler struct{}

// NilHandler returns a disabled event handler.
func NilHandler() *NilEventHandler {
	return &NilEventHandler{}
}

// Publish does not do anything.
func (n *NilEventHandler) Publish(uint, any) {
}

// Subscribe returns a closed subscription channel.
func (n *NilEventHandler) Subscribe(uint) SubscriberID {
	ch := make(chan any)
	close(ch)
	return SubscriberID{C: ch}
}
