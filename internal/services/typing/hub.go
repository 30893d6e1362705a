// File: internal/services/typing/hub.go
package typing

import (
    "sync"
    "time"
)

// Event is an ephemeral typing signal on a conversation's broadcast channel.
// Nothing here is ever persisted; a subscriber that reconnects starts clean.
type Event struct {
    Sender string    `json:"sender"` // "customer" or "agent"
    Typing bool      `json:"typing"`
    At     time.Time `json:"at"`
}

const subscriberBuffer = 8

// Hub is an in-process broadcast fan-out with one topic per conversation.
// Publishing to a conversation with no subscribers is a no-op, and a slow
// subscriber loses events rather than blocking the publisher. Losing a
// "stopped typing" event is acceptable: receivers expire stale indicators on
// their own (see Monitor).
type Hub struct {
    mu   sync.RWMutex
    subs map[uint]map[chan Event]struct{}
}

func NewHub() *Hub {
    return &Hub{subs: make(map[uint]map[chan Event]struct{})}
}

// Subscribe registers for a conversation's typing events. The returned cancel
// function must be called when the listener goes away; it closes the channel.
func (h *Hub) Subscribe(conversationID uint) (<-chan Event, func()) {
    ch := make(chan Event, subscriberBuffer)

    h.mu.Lock()
    if h.subs[conversationID] == nil {
        h.subs[conversationID] = make(map[chan Event]struct{})
    }
    h.subs[conversationID][ch] = struct{}{}
    h.mu.Unlock()

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            h.mu.Lock()
            if set, ok := h.subs[conversationID]; ok {
                delete(set, ch)
                if len(set) == 0 {
                    delete(h.subs, conversationID)
                }
            }
            h.mu.Unlock()
            close(ch)
        })
    }
    return ch, cancel
}

// Publish broadcasts an event to every subscriber of the conversation.
func (h *Hub) Publish(conversationID uint, ev Event) {
    h.mu.RLock()
    defer h.mu.RUnlock()

    for ch := range h.subs[conversationID] {
        select {
        case ch <- ev:
        default:
            // Subscriber buffer full; drop. Typing signals are best-effort.
        }
    }
}

// Subscribers reports how many listeners a conversation currently has.
func (h *Hub) Subscribers(conversationID uint) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.subs[conversationID])
}
