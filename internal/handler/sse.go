package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/pkg/logging"
	"github.com/webdeskos/vfsd/pkg/logging/slogext"
)

const sseBuffer = 64

// SSEHandler streams filesystem events to web clients as Server-Sent
// Events. Delivery mirrors the bus contract: at most once, no replay.
type SSEHandler struct {
	bus *events.Bus
}

func NewSSEHandler(bus *events.Bus) *SSEHandler {
	return &SSEHandler{bus: bus}
}

func (h *SSEHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.bus.Subscribe(sseBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				logger := logging.GetLoggerFromContext(ctx)
				logger.Error("Failed to encode event", slogext.Err(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}
