package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

const (
	sseBuffer    = 64
	sseKeepAlive = 15 * time.Second
)

// GET /v1/stream/updates — Server-Sent Events, one "update" per tick.
// A client that falls sseBuffer updates behind misses the excess.
func (h *Handler) streamUpdates(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Long-lived response; the server's write timeout must not cut it.
	_ = rc.SetWriteDeadline(time.Time{})

	updates := make(chan stream.Update, sseBuffer)
	cancel := h.Stream.Subscribe(func(u stream.Update) {
		select {
		case updates <- u:
		default:
		}
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected state=%s\n\n", h.Stream.State())
	if err := rc.Flush(); err != nil {
		h.Logger.Warn("sse flush unsupported", "err", err)
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
		case u := <-updates:
			data, err := json.Marshal(u)
			if err != nil {
				h.Logger.Warn("sse encode error", "event_id", u.Event.ID, "err", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: update\ndata: %s\n\n", u.Event.ID, data)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
