// File: internal/services/typing/monitor.go
package typing

import (
    "sync"
    "time"

    "github.com/benbjohnson/clock"
)

// DefaultExpiry is how long a received typing=true stays valid with no
// follow-up. It is deliberately longer than the sender's idle timeout so a
// healthy stop signal always lands first.
const DefaultExpiry = 2500 * time.Millisecond

// Monitor implements the receiver side of the typing channel: it derives a
// boolean indicator from observed events and forces it back to false after
// the expiry if no explicit typing=false arrives. This guards against a
// dropped stop event leaving a stale "still typing" indicator on screen.
type Monitor struct {
    mu       sync.Mutex
    clock    clock.Clock
    expiry   time.Duration
    onChange func(typing bool)
    timer    *clock.Timer
    typing   bool
}

// NewMonitor builds a monitor. onChange, if non-nil, fires on every
// transition of the derived indicator.
func NewMonitor(clk clock.Clock, expiry time.Duration, onChange func(typing bool)) *Monitor {
    if clk == nil {
        clk = clock.New()
    }
    if expiry <= 0 {
        expiry = DefaultExpiry
    }
    return &Monitor{clock: clk, expiry: expiry, onChange: onChange}
}

// Observe feeds a received typing flag into the monitor.
func (m *Monitor) Observe(typing bool) {
    m.mu.Lock()
    changed := m.typing != typing
    m.typing = typing

    if typing {
        if m.timer == nil {
            m.timer = m.clock.AfterFunc(m.expiry, m.expire)
        } else {
            m.timer.Reset(m.expiry)
        }
    } else if m.timer != nil {
        m.timer.Stop()
    }
    onChange := m.onChange
    m.mu.Unlock()

    if changed && onChange != nil {
        onChange(typing)
    }
}

func (m *Monitor) expire() {
    m.mu.Lock()
    changed := m.typing
    m.typing = false
    onChange := m.onChange
    m.mu.Unlock()

    if changed && onChange != nil {
        onChange(false)
    }
}

// IsTyping returns the derived indicator.
func (m *Monitor) IsTyping() bool {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.typing
}

// Stop cancels the expiry timer.
func (m *Monitor) Stop() {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.timer != nil {
        m.timer.Stop()
    }
}
