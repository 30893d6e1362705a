// File: internal/services/chat/poller_test.go
package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukasmart/livechat/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}

// messageStore is a fake poll source with server-assigned IDs.
type messageStore struct {
	mu       sync.Mutex
	messages []domain.Message
	nextID   uint
	fetches  int
	failNext bool
}

func newMessageStore() *messageStore {
	return &messageStore{nextID: 1}
}

func (s *messageStore) add(content string) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := domain.Message{
		ID:        s.nextID,
		Content:   content,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Second),
	}
	s.nextID++
	s.messages = append(s.messages, m)
	return m
}

func (s *messageStore) fetch(_ context.Context, afterID uint) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.failNext {
		s.failNext = false
		return nil, errors.New("transient fetch failure")
	}
	var out []domain.Message
	for _, m := range s.messages {
		if m.ID > afterID {
			out = append(out, m)
		}
	}
	return out, nil
}

func contents(messages []domain.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Content
	}
	return out
}

func TestPollerMergesInOrder(t *testing.T) {
	store := newMessageStore()
	store.add("hello")
	store.add("anyone there?")

	p := NewPoller(store.fetch, DefaultPollInterval, clock.NewMock(), nopLogger{}, 0, nil)
	require.NoError(t, p.Poll(context.Background()))

	assert.Equal(t, []string{"hello", "anyone there?"}, contents(p.Messages()))
	assert.Equal(t, uint(2), p.LastID())
}

func TestPollerIsIdempotentWithoutNewMessages(t *testing.T) {
	store := newMessageStore()
	store.add("hello")

	p := NewPoller(store.fetch, DefaultPollInterval, clock.NewMock(), nopLogger{}, 0, nil)
	require.NoError(t, p.Poll(context.Background()))
	before := p.Messages()

	require.NoError(t, p.Poll(context.Background()))
	require.NoError(t, p.Poll(context.Background()))

	assert.Equal(t, before, p.Messages(), "repeated polls with no new messages change nothing")
}

func TestPollerDeliversEachMessageOnce(t *testing.T) {
	store := newMessageStore()
	store.add("first")

	var delivered []string
	p := NewPoller(store.fetch, DefaultPollInterval, clock.NewMock(), nopLogger{}, 0, func(m domain.Message) {
		delivered = append(delivered, m.Content)
	})

	require.NoError(t, p.Poll(context.Background()))
	store.add("second")
	require.NoError(t, p.Poll(context.Background()))
	require.NoError(t, p.Poll(context.Background()))

	assert.Equal(t, []string{"first", "second"}, delivered)
}

func TestPollerStartsAfterGivenID(t *testing.T) {
	store := newMessageStore()
	store.add("old history")
	store.add("also old")
	newest := store.add("fresh")

	p := NewPoller(store.fetch, DefaultPollInterval, clock.NewMock(), nopLogger{}, 2, nil)
	require.NoError(t, p.Poll(context.Background()))

	assert.Equal(t, []string{"fresh"}, contents(p.Messages()))
	assert.Equal(t, newest.ID, p.LastID())
}

func TestPollerFailedFetchLeavesStateIntact(t *testing.T) {
	store := newMessageStore()
	store.add("hello")

	p := NewPoller(store.fetch, DefaultPollInterval, clock.NewMock(), nopLogger{}, 0, nil)
	require.NoError(t, p.Poll(context.Background()))

	store.failNext = true
	err := p.Poll(context.Background())
	require.Error(t, err)

	// The failed tick is skipped; the next one picks everything up.
	store.add("after the blip")
	require.NoError(t, p.Poll(context.Background()))
	assert.Equal(t, []string{"hello", "after the blip"}, contents(p.Messages()))
}

func TestPollerRunTicksUntilCancelled(t *testing.T) {
	store := newMessageStore()
	store.add("hello")

	mock := clock.NewMock()
	p := NewPoller(store.fetch, DefaultPollInterval, mock, nopLogger{}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Let Run register its ticker before advancing the clock.
	time.Sleep(10 * time.Millisecond)
	mock.Add(DefaultPollInterval)

	require.Eventually(t, func() bool {
		return len(p.Messages()) == 1
	}, time.Second, 5*time.Millisecond)

	store.add("second")
	mock.Add(DefaultPollInterval)
	require.Eventually(t, func() bool {
		return len(p.Messages()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
