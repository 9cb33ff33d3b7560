package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StreamProducts pushes every product snapshot as a server-sent event until the client goes away.
// A slow client skips intermediate snapshots.
func (h *StorefrontHandler) StreamProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	rc := http.NewResponseController(w)
	// the server write timeout would cut the stream
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		mLogger.DebugContext(r.Context(), "Write deadline not cleared", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		mLogger.ErrorContext(r.Context(), "Streaming is not supported", "error", err)
		return
	}

	sent := 0
	for snap := range h.cache.Watch(r.Context()) {
		data, err := json.Marshal(snap)
		if err != nil {
			mLogger.ErrorContext(r.Context(), "Error encoding snapshot", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			mLogger.DebugContext(r.Context(), "Stream client gone", "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
		sent++
	}
	mLogger.DebugContext(r.Context(), "Stream closed", "snapshots", sent)
}
