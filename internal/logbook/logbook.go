// Package logbook turns accepted search events into lines of a markdown note.
// One event becomes one bullet line; the note stays an ordinary text document
// the user can edit, sort, or delete at will.
package logbook

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/searchtrail/searchtrail/internal/stamp"
	"github.com/searchtrail/searchtrail/internal/vault"
)

// Entry is one search-query event reported by the browser extension.
// It is immutable once decoded and is never persisted as a record, only
// projected into a text line.
type Entry struct {
	Query     string `json:"query"`
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"` // milliseconds since the Unix epoch
}

// Time returns the entry's timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Writer commits entries to a single note in the vault, either after the
// existing content (append) or before it (prepend).
type Writer struct {
	store      vault.Store
	note       string
	prepend    bool
	timeLayout string
	loc        *time.Location
	logger     *slog.Logger

	// mu serializes commits. Prepend is a read-modify-write of the whole
	// note; two interleaved commits would drop one of the lines.
	mu sync.Mutex
}

// New creates a Writer committing to the given vault-relative note path.
// timeLayout is a moment-style format; empty selects stamp.DefaultLayout.
func New(store vault.Store, note string, prepend bool, timeLayout string, logger *slog.Logger) *Writer {
	if timeLayout == "" {
		timeLayout = stamp.DefaultLayout
	}
	return &Writer{
		store:      store,
		note:       note,
		prepend:    prepend,
		timeLayout: timeLayout,
		loc:        time.Local,
		logger:     logger,
	}
}

// Note returns the vault-relative path the writer commits to.
func (w *Writer) Note() string {
	return w.note
}

// Prepend reports whether new lines go before existing content.
func (w *Writer) Prepend() bool {
	return w.prepend
}

// Line renders the newline-terminated markdown line for an entry.
// The timestamp comes from the entry itself, not the wall clock, so a
// delayed delivery still logs the moment the user actually searched.
func (w *Writer) Line(e Entry) string {
	ts := stamp.Format(e.Time().In(w.loc), w.timeLayout)
	return fmt.Sprintf("- %s [%s](%s)\n", ts, escapeLinkText(e.Query), e.URL)
}

// Commit writes the entry's line to the note. An absent note is created with
// the line as its whole content in both modes. A note path that currently
// denotes a folder is reported and the entry dropped; that is not an error
// the caller can act on, the user has to rename one or the other.
func (w *Writer) Commit(e Entry) error {
	line := w.Line(e)

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.store.Stat(w.note) {
	case vault.Folder:
		w.logger.Warn("log note path is a folder, dropping entry",
			"note", w.note, "query", e.Query)
		return nil
	case vault.Absent:
		return w.store.Create(w.note, line)
	}

	if w.prepend {
		old, err := w.store.Read(w.note)
		if err != nil {
			return err
		}
		return w.store.Modify(w.note, line+old)
	}
	return w.store.Append(w.note, line)
}

// escapeLinkText keeps query text from breaking the link markup.
func escapeLinkText(s string) string {
	s = strings.ReplaceAll(s, "[", `\[`)
	s = strings.ReplaceAll(s, "]", `\]`)
	return s
}
