package formengine

import "github.com/goliatone/go-surveysync/pkg/engine"

// hub keeps handlers in registration order. Disposed handlers are skipped
// even when disposal happens while an event is being delivered.
type hub[T any] struct {
	entries []*hubEntry[T]
}

type hubEntry[T any] struct {
	fn     func(T)
	active bool
}

func (h *hub[T]) add(fn func(T)) engine.Subscription {
	if fn == nil {
		return engine.SubscriptionFunc(nil)
	}
	entry := &hubEntry[T]{fn: fn, active: true}
	h.entries = append(h.entries, entry)
	return engine.SubscriptionFunc(func() {
		h.remove(entry)
	})
}

func (h *hub[T]) remove(target *hubEntry[T]) {
	target.active = false
	for i, entry := range h.entries {
		if entry == target {
			next := make([]*hubEntry[T], 0, len(h.entries)-1)
			next = append(next, h.entries[:i]...)
			h.entries = append(next, h.entries[i+1:]...)
			return
		}
	}
}

func (h *hub[T]) fire(event T) {
	snapshot := h.entries
	for _, entry := range snapshot {
		if entry.active {
			entry.fn(event)
		}
	}
}

func (h *hub[T]) count() int {
	return len(h.entries)
}
