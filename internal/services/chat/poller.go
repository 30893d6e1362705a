// File: internal/services/chat/poller.go
package chat

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/benbjohnson/clock"

    "github.com/dukasmart/livechat/internal/domain"
)

// DefaultPollInterval is how often a poller re-fetches when the caller does
// not override it.
const DefaultPollInterval = 3 * time.Second

// FetchFunc fetches messages newer than afterID.
type FetchFunc func(ctx context.Context, afterID uint) ([]domain.Message, error)

// Poller periodically fetches new messages for one conversation and merges
// them into an in-memory list, deduplicating by message ID. A failed tick is
// logged and skipped; the next scheduled tick simply tries again. There is no
// backoff and no user-visible error, matching the transient-noise treatment
// poll failures get.
type Poller struct {
    fetch     FetchFunc
    interval  time.Duration
    clock     clock.Clock
    logger    Logger
    onMessage func(domain.Message)

    mu       sync.Mutex
    lastID   uint
    known    map[uint]struct{}
    messages []domain.Message
}

// NewPoller builds a poller starting after the given message ID. onMessage,
// if non-nil, is invoked once per newly merged message in order.
func NewPoller(fetch FetchFunc, interval time.Duration, clk clock.Clock, logger Logger, afterID uint, onMessage func(domain.Message)) *Poller {
    if interval <= 0 {
        interval = DefaultPollInterval
    }
    if clk == nil {
        clk = clock.New()
    }
    return &Poller{
        fetch:     fetch,
        interval:  interval,
        clock:     clk,
        logger:    logger,
        onMessage: onMessage,
        lastID:    afterID,
        known:     make(map[uint]struct{}),
    }
}

// Run polls until ctx is cancelled. Cancellation is the only way a poll loop
// stops; callers tie it to the widget/page lifetime.
func (p *Poller) Run(ctx context.Context) {
    ticker := p.clock.Ticker(p.interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := p.Poll(ctx); err != nil {
                if ctx.Err() != nil {
                    return
                }
                p.logger.Warn("poll tick failed", "error", err)
            }
        }
    }
}

// Poll performs a single fetch-and-merge. Calling it with no new server-side
// messages changes nothing.
func (p *Poller) Poll(ctx context.Context) error {
    p.mu.Lock()
    afterID := p.lastID
    p.mu.Unlock()

    fetched, err := p.fetch(ctx, afterID)
    if err != nil {
        return err
    }

    merged := p.merge(fetched)
    for _, m := range merged {
        if p.onMessage != nil {
            p.onMessage(m)
        }
    }
    return nil
}

// merge appends messages not seen before and advances the high-water mark.
// Fetches arrive in timestamp order and messages are immutable, so
// append-if-new keeps the list sorted.
func (p *Poller) merge(fetched []domain.Message) []domain.Message {
    p.mu.Lock()
    defer p.mu.Unlock()

    var merged []domain.Message
    for _, m := range fetched {
        if _, seen := p.known[m.ID]; seen {
            continue
        }
        p.known[m.ID] = struct{}{}
        p.messages = append(p.messages, m)
        if m.ID > p.lastID {
            p.lastID = m.ID
        }
        merged = append(merged, m)
    }

    if len(merged) > 0 {
        sort.SliceStable(p.messages, func(i, j int) bool {
            if p.messages[i].CreatedAt.Equal(p.messages[j].CreatedAt) {
                return p.messages[i].ID < p.messages[j].ID
            }
            return p.messages[i].CreatedAt.Before(p.messages[j].CreatedAt)
        })
    }
    return merged
}

// Messages returns a copy of the merged message list in creation order.
func (p *Poller) Messages() []domain.Message {
    p.mu.Lock()
    defer p.mu.Unlock()

    out := make([]domain.Message, len(p.messages))
    copy(out, p.messages)
    return out
}

// LastID returns the highest message ID merged so far.
func (p *Poller) LastID() uint {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.lastID
}
