// File: internal/services/typing/typing_test.go
package typing

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signalLog collects published typing flags from a mock-clock callback.
type signalLog struct {
	mu    sync.Mutex
	flags []bool
}

func (l *signalLog) record(typing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flags = append(l.flags, typing)
}

func (l *signalLog) snapshot() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]bool, len(l.flags))
	copy(out, l.flags)
	return out
}

func TestDebouncerPublishesTrueOnEveryKeystroke(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	d := NewDebouncer(mock, DefaultIdleTimeout, log.record)

	d.Keystroke()
	d.Keystroke()
	d.Keystroke()

	assert.Equal(t, []bool{true, true, true}, log.snapshot())
}

func TestDebouncerSingleTrailingFalseAfterIdle(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	d := NewDebouncer(mock, DefaultIdleTimeout, log.record)

	d.Keystroke()
	mock.Add(500 * time.Millisecond)
	d.Keystroke()

	// Idle timer was reset by the second keystroke; half the timeout later
	// nothing has fired yet.
	mock.Add(600 * time.Millisecond)
	assert.Equal(t, []bool{true, true}, log.snapshot())

	mock.Add(DefaultIdleTimeout)
	require.Eventually(t, func() bool {
		flags := log.snapshot()
		return len(flags) == 3 && flags[2] == false
	}, time.Second, 5*time.Millisecond)

	// No further signals once idle.
	mock.Add(10 * DefaultIdleTimeout)
	assert.Equal(t, []bool{true, true, false}, log.snapshot())
}

func TestDebouncerRestartsCycleAfterIdle(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	d := NewDebouncer(mock, DefaultIdleTimeout, log.record)

	d.Keystroke()
	mock.Add(2 * DefaultIdleTimeout)
	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	d.Keystroke()
	mock.Add(2 * DefaultIdleTimeout)
	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 4
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []bool{true, false, true, false}, log.snapshot())
}

func TestDebouncerStopFlushesTrailingFalse(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	d := NewDebouncer(mock, DefaultIdleTimeout, log.record)

	d.Keystroke()
	d.Stop()

	assert.Equal(t, []bool{true, false}, log.snapshot())

	// Stopping an idle debouncer publishes nothing.
	d.Stop()
	assert.Equal(t, []bool{true, false}, log.snapshot())
}

func TestMonitorExpiresStaleTypingIndicator(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	m := NewMonitor(mock, DefaultExpiry, log.record)

	m.Observe(true)
	assert.True(t, m.IsTyping())

	// The stop event never arrives; expiry forces the indicator back off.
	mock.Add(DefaultExpiry + time.Millisecond)
	require.Eventually(t, func() bool {
		return !m.IsTyping()
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []bool{true, false}, log.snapshot())
}

func TestMonitorExplicitStopCancelsExpiry(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	m := NewMonitor(mock, DefaultExpiry, log.record)

	m.Observe(true)
	m.Observe(false)
	assert.False(t, m.IsTyping())

	mock.Add(10 * DefaultExpiry)
	assert.Equal(t, []bool{true, false}, log.snapshot())
}

func TestMonitorRepeatedTrueExtendsExpiry(t *testing.T) {
	mock := clock.NewMock()
	m := NewMonitor(mock, DefaultExpiry, nil)

	m.Observe(true)
	mock.Add(2 * time.Second)
	m.Observe(true)
	mock.Add(2 * time.Second)

	// Each true pushed the deadline out; 2s after the last one the
	// indicator is still on.
	assert.True(t, m.IsTyping())

	mock.Add(DefaultExpiry)
	require.Eventually(t, func() bool {
		return !m.IsTyping()
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorOnChangeFiresOnlyOnTransitions(t *testing.T) {
	mock := clock.NewMock()
	log := &signalLog{}
	m := NewMonitor(mock, DefaultExpiry, log.record)

	m.Observe(true)
	m.Observe(true)
	m.Observe(true)
	m.Observe(false)

	assert.Equal(t, []bool{true, false}, log.snapshot())
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe(7)
	ch2, cancel2 := hub.Subscribe(7)
	defer cancel1()
	defer cancel2()

	require.Equal(t, 2, hub.Subscribers(7))

	ev := Event{Sender: "customer", Typing: true, At: time.Now()}
	hub.Publish(7, ev)

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, ev, got1)
	assert.Equal(t, ev, got2)
}

func TestHubIsolatesConversations(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(2, Event{Sender: "agent", Typing: true})

	select {
	case ev := <-ch:
		t.Fatalf("received event %+v from another conversation", ev)
	default:
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(3)
	cancel()

	assert.Equal(t, 0, hub.Subscribers(3))

	// The channel is closed; a reader unblocks instead of hanging.
	_, open := <-ch
	assert.False(t, open)

	// Double cancel is safe.
	cancel()
}

func TestHubDropsEventsForSlowSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(9)
	defer cancel()

	// Fill the buffer and then some; the publisher must never block.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.Publish(9, Event{Sender: "customer", Typing: true})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.Equal(t, subscriberBuffer, received)
			return
		}
	}
}

func TestHubPublishWithoutSubscribersIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Publish(42, Event{Sender: "agent", Typing: true})
	assert.Equal(t, 0, hub.Subscribers(42))
}
