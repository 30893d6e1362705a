// File: internal/services/typing/debounce.go
package typing

import (
    "sync"
    "time"

    "github.com/benbjohnson/clock"
)

// DefaultIdleTimeout is how long after the last keystroke the trailing
// "stopped typing" signal fires.
const DefaultIdleTimeout = 1200 * time.Millisecond

// Debouncer implements the sender side of the typing channel: every
// keystroke publishes typing=true immediately, and typing=false is published
// once, after the composer has been idle for the timeout. This is
// debounce-to-idle, not debounce-to-suppress: a keystroke arriving after the
// idle timer fired starts a fresh true/false cycle.
type Debouncer struct {
    mu      sync.Mutex
    clock   clock.Clock
    idle    time.Duration
    publish func(typing bool)
    timer   *clock.Timer
    typing  bool
}

func NewDebouncer(clk clock.Clock, idle time.Duration, publish func(typing bool)) *Debouncer {
    if clk == nil {
        clk = clock.New()
    }
    if idle <= 0 {
        idle = DefaultIdleTimeout
    }
    return &Debouncer{clock: clk, idle: idle, publish: publish}
}

// Keystroke records composer activity, publishing typing=true and resetting
// the idle timer.
func (d *Debouncer) Keystroke() {
    d.mu.Lock()
    d.typing = true
    if d.timer == nil {
        d.timer = d.clock.AfterFunc(d.idle, d.expire)
    } else {
        d.timer.Reset(d.idle)
    }
    publish := d.publish
    d.mu.Unlock()

    if publish != nil {
        publish(true)
    }
}

func (d *Debouncer) expire() {
    d.mu.Lock()
    fire := d.typing
    d.typing = false
    publish := d.publish
    d.mu.Unlock()

    if fire && publish != nil {
        publish(false)
    }
}

// Stop cancels the idle timer and, if a typing=true is still outstanding,
// flushes the trailing typing=false. Called when the composer unmounts.
func (d *Debouncer) Stop() {
    d.mu.Lock()
    if d.timer != nil {
        d.timer.Stop()
    }
    fire := d.typing
    d.typing = false
    publish := d.publish
    d.mu.Unlock()

    if fire && publish != nil {
        publish(false)
    }
}
