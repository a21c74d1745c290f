package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/lib/pq"
)

// ChangeEvent is one row-change notification from the backend's change feed.
// UserID is set for tables whose rows belong to a single recipient.
type ChangeEvent struct {
	Table  string `json:"table"`
	UserID string `json:"user_id"`
}

// Subscriber receives change events for one screen. Events is buffered with
// capacity 1 and further events are dropped while one is pending: a screen
// refetches everything per event, so a pending event already covers any burst
// behind it.
type Subscriber struct {
	Table  string
	UserID string
	Events chan ChangeEvent

	once sync.Once
}

// Hub fans change-feed notifications out to subscribed screens, filtered by
// table and, where set, by owning user id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]bool
}

var realtimeHub *Hub

func InitRealtimeHub() {
	realtimeHub = NewHub()
}

func GetRealtimeHub() *Hub {
	return realtimeHub
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]bool)}
}

// Subscribe registers interest in changes to a table. userID of "" receives
// every change; otherwise only changes owned by that user are delivered.
func (h *Hub) Subscribe(table, userID string) *Subscriber {
	sub := &Subscriber{
		Table:  table,
		UserID: userID,
		Events: make(chan ChangeEvent, 1),
	}

	h.mu.Lock()
	if h.subs[table] == nil {
		h.subs[table] = make(map[*Subscriber]bool)
	}
	h.subs[table][sub] = true
	h.mu.Unlock()

	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if m := h.subs[sub.Table]; m != nil {
		delete(m, sub)
		if len(m) == 0 {
			delete(h.subs, sub.Table)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.Events) })
}

// Broadcast delivers an event to matching subscribers without blocking.
func (h *Hub) Broadcast(ev ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.Table] {
		if sub.UserID != "" && sub.UserID != ev.UserID {
			continue
		}
		select {
		case sub.Events <- ev:
		default:
		}
	}
}

// Run consumes the LISTEN/NOTIFY feed until the listener closes. A nil
// notification marks a reconnect; screens keep their subscriptions and pick
// up again on the next change.
func (h *Hub) Run(listener *pq.Listener) {
	for n := range listener.Notify {
		if n == nil {
			continue
		}

		var ev ChangeEvent
		if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
			log.Printf("bad change feed payload %q: %v", n.Extra, err)
			continue
		}
		if ev.Table == "" {
			continue
		}
		h.Broadcast(ev)
	}
}
