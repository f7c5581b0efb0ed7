// Package dispatch routes decoded event frames to registered handlers.
package dispatch

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/danmuck/swayctl/internal/logging"
	"github.com/danmuck/swayctl/internal/observability"
	"github.com/danmuck/swayctl/internal/protocol"
	"github.com/danmuck/swayctl/internal/protocol/frame"
)

// SubscriptionID identifies one registered handler.
type SubscriptionID = uuid.UUID

// Event is a decoded event frame handed to handlers.
type Event struct {
	Kind    protocol.EventType
	Payload json.RawMessage
}

type Handler func(Event)

type subscription struct {
	id      SubscriptionID
	kind    protocol.EventType
	handler Handler
	once    bool
}

// Dispatcher maps event kinds to handlers. Safe for concurrent use; handlers
// run on the dispatching goroutine outside the registry lock.
type Dispatcher struct {
	mu    sync.Mutex
	kinds [protocol.EventCount]map[SubscriptionID]*subscription
	index map[SubscriptionID]protocol.EventType
}

func New() *Dispatcher {
	d := &Dispatcher{
		index: make(map[SubscriptionID]protocol.EventType),
	}
	for i := range d.kinds {
		d.kinds[i] = make(map[SubscriptionID]*subscription)
	}
	return d
}

// Register adds handler for kind. Delivery order across handlers of one kind
// is unspecified.
func (d *Dispatcher) Register(kind protocol.EventType, handler Handler) SubscriptionID {
	return d.add(kind, handler, false)
}

// RegisterOnce adds handler for a single delivery; it is unregistered before
// it runs.
func (d *Dispatcher) RegisterOnce(kind protocol.EventType, handler Handler) SubscriptionID {
	return d.add(kind, handler, true)
}

func (d *Dispatcher) add(kind protocol.EventType, handler Handler, once bool) SubscriptionID {
	if !kind.Valid() {
		panic(fmt.Sprintf("dispatch: register for unknown event kind %d", kind))
	}
	if handler == nil {
		panic("dispatch: nil handler")
	}
	sub := &subscription{id: uuid.New(), kind: kind, handler: handler, once: once}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds[kind][sub.id] = sub
	d.index[sub.id] = kind
	return sub.id
}

// Unregister removes one handler. Unknown ids are ignored.
func (d *Dispatcher) Unregister(id SubscriptionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kind, ok := d.index[id]
	if !ok {
		return
	}
	delete(d.kinds[kind], id)
	delete(d.index, id)
}

// Len reports the number of handlers registered for kind.
func (d *Dispatcher) Len(kind protocol.EventType) int {
	if !kind.Valid() {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.kinds[kind])
}

// Dispatch delivers f to the handlers registered for its event kind.
//
// Replies are logged and dropped. A missing or malformed event payload is
// returned as *protocol.InvalidPayloadError and no handler runs.
func (d *Dispatcher) Dispatch(f frame.Frame) error {
	if !f.Header.IsEvent() {
		logging.Infof("dispatch: reply type=%s len=%d payload=%s", protocol.CommandType(f.Header.Type), f.Header.PayloadLen, f.Text())
		return nil
	}

	kind := protocol.EventType(f.Header.Type)
	if !kind.Valid() {
		logging.Warnf("dispatch: dropping unknown event type=%d len=%d", f.Header.Type, f.Header.PayloadLen)
		return nil
	}
	if len(f.Payload) == 0 {
		observability.RecordPayloadError(kind.String())
		return &protocol.InvalidPayloadError{Type: f.Header.Type, Event: true, Reason: "payload missing"}
	}
	if !json.Valid(f.Payload) {
		observability.RecordPayloadError(kind.String())
		return &protocol.InvalidPayloadError{Type: f.Header.Type, Event: true, Reason: "payload is not valid JSON"}
	}

	subs := d.take(kind)
	logging.Debugf("dispatch: event=%s handlers=%d len=%d", kind, len(subs), f.Header.PayloadLen)
	ev := Event{Kind: kind, Payload: json.RawMessage(f.Payload)}
	for _, sub := range subs {
		observability.RecordDelivery(kind.String(), invoke(sub, ev))
	}
	return nil
}

// take snapshots the handlers for kind and removes once entries.
func (d *Dispatcher) take(kind protocol.EventType) []*subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := make([]*subscription, 0, len(d.kinds[kind]))
	for id, sub := range d.kinds[kind] {
		subs = append(subs, sub)
		if sub.once {
			delete(d.kinds[kind], id)
			delete(d.index, id)
		}
	}
	return subs
}

func invoke(sub *subscription, ev Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errf("dispatch: handler panic event=%s id=%s err=%v", ev.Kind, sub.id, r)
			ok = false
		}
	}()
	sub.handler(ev)
	return true
}
