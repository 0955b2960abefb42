package controller

import "sync"

type EventKind int

const (
	RecordsChanged EventKind = iota
	AuditAppended
	FlagsChanged
	// StateChanged reports a create or reveal state machine transition.
	StateChanged
)

func (k EventKind) String() string {
	switch k {
	case RecordsChanged:
		return "records"
	case AuditAppended:
		return "audit"
	case FlagsChanged:
		return "flags"
	case StateChanged:
		return "state"
	}
	return "unknown"
}

type Event struct {
	Kind EventKind
	// Op and State are set for StateChanged.
	Op       string
	State    string
	RecordID string
}

const subscriberBuffer = 64

type eventHub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func (h *eventHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *eventHub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
