// Package events is the typed in-process bus connecting the planning engine to
// its collaborators (map surface, notifications, metrics, publishers).
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Handler processes one event. Handlers run synchronously on the emitting
// goroutine and must not call back into the component that emitted.
type Handler func(event Event)

type subscription struct {
	id      string
	handler Handler
	types   map[Type]struct{}
}

func (s *subscription) matches(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Emitter broadcasts events to subscribers.
//
// Thread Safety: Emitter is safe for concurrent use.
type Emitter struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	order  []string
	seq    atomic.Uint64
	now    func() time.Time
	logger *slog.Logger
}

// EmitterOption configures an Emitter
type EmitterOption func(*Emitter)

// WithLogger sets the logger used to report handler panics
func WithLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// WithTimeSource overrides the timestamp source
func WithTimeSource(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		e.now = now
	}
}

// NewEmitter creates an emitter with no subscribers
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		subs:   make(map[string]*subscription),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a handler for the given types (none = all types) and
// returns the subscription ID. Handlers are called in subscription order.
func (e *Emitter) Subscribe(handler Handler, types ...Type) string {
	sub := &subscription{
		id:      uuid.NewString(),
		handler: handler,
	}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[sub.id] = sub
	e.order = append(e.order, sub.id)
	return sub.id
}

// Unsubscribe removes a subscription, reporting whether it existed
func (e *Emitter) Unsubscribe(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.subs[id]; !ok {
		return false
	}
	delete(e.subs, id)
	for i, sid := range e.order {
		if sid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Emit broadcasts an event to every matching subscriber
func (e *Emitter) Emit(t Type, data any) {
	ev := Event{
		Type: t,
		Seq:  e.seq.Add(1),
		Time: e.now(),
		Data: data,
	}

	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.order))
	for _, id := range e.order {
		if sub := e.subs[id]; sub.matches(t) {
			handlers = append(handlers, sub.handler)
		}
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		e.dispatch(h, ev)
	}
}

func (e *Emitter) dispatch(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked",
				slog.String("type", string(ev.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	h(ev)
}

// SubscriberCount returns the number of active subscriptions
func (e *Emitter) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
