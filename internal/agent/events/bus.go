// Package events provides the in-process pub/sub channel that broadcasts
// job lifecycle transitions to interested observers (UI, cache
// invalidation) without coupling them to the queue manager.
package events

import "sync"

// Type tags an event with its kind.
type Type string

const (
	JobQueued    Type = "job:queued"
	JobCompleted Type = "job:completed"
	JobFailed    Type = "job:failed"
	JobConflict  Type = "job:conflict"
	SyncOnline   Type = "sync:online"
	SyncOffline  Type = "sync:offline"
)

// Event is the payload delivered to handlers.
type Event struct {
	Type  Type
	JobID string

	// Err carries the terminal error for JobFailed events.
	Err error
}

// Handler receives events synchronously on the emitter's goroutine.
// Handlers should stay side-effect-light; a handler that blocks stalls the
// queue manager.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a single-process, synchronous event bus. Delivery preserves
// emission order per event type; no ordering is guaranteed across types.
// Nothing is persisted.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Type][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]subscription)}
}

// On registers a handler for the given event types and returns a
// subscription id usable with Off.
func (b *Bus) On(types []Type, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	for _, t := range types {
		b.subs[t] = append(b.subs[t], subscription{id: id, handler: h})
	}
	return id
}

// Off removes a subscription from every type it was registered for.
func (b *Bus) Off(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subs {
		kept := subs[:0]
		for _, s := range subs {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		b.subs[t] = kept
	}
}

// Emit delivers the event to all handlers registered for its type. The
// handler list is snapshotted before delivery, so a handler may safely
// subscribe, unsubscribe, or emit while being invoked.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[e.Type]))
	copy(subs, b.subs[e.Type])
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
