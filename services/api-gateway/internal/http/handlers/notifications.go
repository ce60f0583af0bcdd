package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"smart-international-shipping/internal/lifecycle"
	"smart-international-shipping/internal/notify"
)

// Subscriber is satisfied by *cache.Redis.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

type Notifications struct {
	Svc       *lifecycle.Service
	Live      Subscriber
	Log       zerolog.Logger
	Heartbeat time.Duration
}

func (h *Notifications) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ns, err := h.Svc.Notifications(r.Context(), p.UserID)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, ns)
}

// Stream relays pushed notifications as server-sent events until the client
// goes away.
func (h *Notifications) Stream(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || h.Live == nil {
		WriteMessage(w, http.StatusNotImplemented, "streaming unsupported")
		return
	}

	ctx := r.Context()
	msgs, err := h.Live.Subscribe(ctx, notify.Channel(p.UserID))
	if err != nil {
		WriteError(w, r, h.Log, fmt.Errorf("subscribe notifications: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	every := h.Heartbeat
	if every <= 0 {
		every = 25 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", m); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}
