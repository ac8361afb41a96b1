// Package server wires the ingestion endpoint, its middleware, and the
// listener lifecycle into the single HTTP surface the browser extension
// talks to.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/searchtrail/searchtrail/internal/dedup"
	"github.com/searchtrail/searchtrail/internal/httputil"
	"github.com/searchtrail/searchtrail/internal/logbook"
)

// Endpoint handles the extension's wire contract: CORS preflight on any
// path, POST /log for events, 404 for everything else. Every response,
// including failures, allows any origin; the extension's content script
// posts from arbitrary page origins.
type Endpoint struct {
	window *dedup.Window
	writer *logbook.Writer
	logger *slog.Logger
}

// NewEndpoint creates the handler. The window outlives writer rebuilds:
// pass the same one across settings changes so a reload does not reopen
// the dedup window.
func NewEndpoint(window *dedup.Window, writer *logbook.Writer, logger *slog.Logger) *Endpoint {
	return &Endpoint{window: window, writer: writer, logger: logger}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost || r.URL.Path != "/log" {
		httputil.Error(w, r, e.logger, http.StatusNotFound, "not found")
		return
	}

	e.handleLog(w, r)
}

func (e *Endpoint) handleLog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.Error(w, r, e.logger, http.StatusBadRequest, "unreadable request body")
		return
	}

	var entry logbook.Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		httputil.Error(w, r, e.logger, http.StatusBadRequest, "malformed event")
		return
	}

	// Duplicate check comes before any write, so a repeat never touches
	// the note.
	if e.window.Contains(entry.Query) {
		e.logger.Debug("duplicate query suppressed", "query", entry.Query)
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}
	e.window.Record(entry.Query)

	if err := e.writer.Commit(entry); err != nil {
		httputil.Error(w, r, e.logger, http.StatusBadRequest, "log write failed")
		return
	}

	e.logger.Info("query logged", "query", entry.Query, "note", e.writer.Note())
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "logged"})
}
