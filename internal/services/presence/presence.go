// File: internal/services/presence/presence.go
package presence

import (
    "sync"
    "time"

    "github.com/benbjohnson/clock"
)

// Status is a derived, non-persisted availability state. It exists only in
// memory: a restart forgets everyone, and agents come back with their next
// heartbeat.
type Status string

const (
    StatusOnline  Status = "online"
    StatusAway    Status = "away"
    StatusOffline Status = "offline"
)

// Default windows. The dashboard heartbeats every 30s, so 90s tolerates two
// missed beats before an agent drops to away.
const (
    DefaultOnlineWindow = 90 * time.Second
    DefaultAwayWindow   = 10 * time.Minute
)

// Tracker derives agent presence from heartbeats.
type Tracker struct {
    mu           sync.RWMutex
    clock        clock.Clock
    onlineWindow time.Duration
    awayWindow   time.Duration
    lastSeen     map[uint]time.Time
}

func NewTracker(clk clock.Clock, onlineWindow, awayWindow time.Duration) *Tracker {
    if clk == nil {
        clk = clock.New()
    }
    if onlineWindow <= 0 {
        onlineWindow = DefaultOnlineWindow
    }
    if awayWindow <= onlineWindow {
        awayWindow = DefaultAwayWindow
    }
    return &Tracker{
        clock:        clk,
        onlineWindow: onlineWindow,
        awayWindow:   awayWindow,
        lastSeen:     make(map[uint]time.Time),
    }
}

// Heartbeat records activity for an agent.
func (t *Tracker) Heartbeat(agentID uint) {
    if agentID == 0 {
        return
    }
    t.mu.Lock()
    t.lastSeen[agentID] = t.clock.Now()
    t.mu.Unlock()
}

// StatusOf derives the agent's current status from their last heartbeat.
func (t *Tracker) StatusOf(agentID uint) Status {
    t.mu.RLock()
    seen, ok := t.lastSeen[agentID]
    t.mu.RUnlock()

    if !ok {
        return StatusOffline
    }

    elapsed := t.clock.Now().Sub(seen)
    switch {
    case elapsed <= t.onlineWindow:
        return StatusOnline
    case elapsed <= t.awayWindow:
        return StatusAway
    }
    return StatusOffline
}

// IsAgentAvailable reports whether at least one agent is actively online
// right now. Absence of presence data is not an error; it simply reads as
// unavailable.
func (t *Tracker) IsAgentAvailable() bool {
    return t.anyWithin(t.onlineWindow)
}

// IsAnyAgentOnline is the weaker recent-activity check: it also counts
// agents who are merely away.
func (t *Tracker) IsAnyAgentOnline() bool {
    return t.anyWithin(t.awayWindow)
}

func (t *Tracker) anyWithin(window time.Duration) bool {
    now := t.clock.Now()

    t.mu.RLock()
    defer t.mu.RUnlock()
    for _, seen := range t.lastSeen {
        if now.Sub(seen) <= window {
            return true
        }
    }
    return false
}

// Snapshot returns the derived status of every agent ever seen.
func (t *Tracker) Snapshot() map[uint]Status {
    t.mu.RLock()
    ids := make([]uint, 0, len(t.lastSeen))
    for id := range t.lastSeen {
        ids = append(ids, id)
    }
    t.mu.RUnlock()

    out := make(map[uint]Status, len(ids))
    for _, id := range ids {
        out[id] = t.StatusOf(id)
    }
    return out
}

// Forget drops an agent from the tracker (logout).
func (t *Tracker) Forget(agentID uint) {
    t.mu.Lock()
    delete(t.lastSeen, agentID)
    t.mu.Unlock()
}
