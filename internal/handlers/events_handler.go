// File: internal/handlers/events_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"

	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/dtos"
	"github.com/dukasmart/livechat/internal/services/chat"
	"github.com/dukasmart/livechat/internal/services/typing"
)

const sseKeepAliveInterval = 15 * time.Second

// EventsHandler streams per-conversation events over SSE: new messages
// (bridged from a server-side poller, so clients can subscribe instead of
// polling themselves) and ephemeral typing signals from the broadcast hub.
type EventsHandler struct {
	ChatService  *chat.Service
	TypingHub    *typing.Hub
	Clock        clock.Clock
	PollInterval time.Duration
	Logger       chat.Logger
}

func NewEventsHandler(cs *chat.Service, hub *typing.Hub, clk clock.Clock, pollInterval time.Duration, logger chat.Logger) *EventsHandler {
	if clk == nil {
		clk = clock.New()
	}
	if pollInterval <= 0 {
		pollInterval = chat.DefaultPollInterval
	}
	return &EventsHandler{
		ChatService:  cs,
		TypingHub:    hub,
		Clock:        clk,
		PollInterval: pollInterval,
		Logger:       logger,
	}
}

// StreamCustomerEvents serves the widget's event stream, addressed by the
// guest token.
func (h *EventsHandler) StreamCustomerEvents(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	conv, err := h.ChatService.ConversationByPublicID(r.Context(), token)
	if err != nil {
		writeError(w, "Conversation not found", http.StatusNotFound)
		return
	}
	h.stream(w, r, conv)
}

// StreamAgentEvents serves the dashboard's event stream, addressed by the
// numeric conversation ID (the route sits behind agent auth).
func (h *EventsHandler) StreamAgentEvents(w http.ResponseWriter, r *http.Request) {
	conversationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	conv, err := h.ChatService.ConversationByID(r.Context(), uint(conversationID))
	if err != nil {
		writeError(w, "Conversation not found", http.StatusNotFound)
		return
	}
	h.stream(w, r, conv)
}

func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request, conv *domain.Conversation) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var afterID uint
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			afterID = uint(parsed)
		}
	}

	ctx := r.Context()

	// Typing events are best-effort: losing them degrades the indicator,
	// never the message flow.
	typingEvents, cancelTyping := h.TypingHub.Subscribe(conv.ID)
	defer cancelTyping()

	messageEvents := make(chan domain.Message, 16)
	fetch := func(fetchCtx context.Context, after uint) ([]domain.Message, error) {
		return h.ChatService.MessagesSince(fetchCtx, conv.ID, after)
	}
	poller := chat.NewPoller(fetch, h.PollInterval, h.Clock, h.Logger, afterID, func(m domain.Message) {
		select {
		case messageEvents <- m:
		case <-ctx.Done():
		}
	})

	// Deliver the backlog immediately rather than waiting one interval. The
	// first poll runs on the poll goroutine: the write loop below must be
	// draining messageEvents before a backlog larger than the channel buffer
	// is pushed, or the poller would block against it.
	go func() {
		if err := poller.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[EventsHandler] Initial fetch failed for conversation %d: %v", conv.ID, err)
		}
		poller.Run(ctx)
	}()

	keepAlive := h.Clock.Ticker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-messageEvents:
			h.writeEvent(w, flusher, "message", dtos.FromMessage(m))
		case ev, open := <-typingEvents:
			if !open {
				return
			}
			h.writeEvent(w, flusher, "typing", ev)
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[EventsHandler] Failed to marshal %s event: %v", event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
