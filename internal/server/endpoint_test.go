package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchtrail/searchtrail/internal/dedup"
	"github.com/searchtrail/searchtrail/internal/logbook"
	"github.com/searchtrail/searchtrail/internal/vault"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestEndpoint(t *testing.T, prepend bool) (*Endpoint, string) {
	t.Helper()
	root := t.TempDir()
	store, err := vault.NewDir(root)
	require.NoError(t, err, "vault should open")
	writer := logbook.New(store, "Search Log.md", prepend, "", noopLogger)
	ep := NewEndpoint(dedup.New(dedup.DefaultCapacity), writer, noopLogger)
	return ep, filepath.Join(root, "Search Log.md")
}

func postEvent(ep *Endpoint, query string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"query":%q,"url":"https://x/?q=%s","timestamp":1700000000000}`, query, query)
	req := httptest.NewRequest(http.MethodPost, "/log", strings.NewReader(body))
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)
	return rec
}

func readNote(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "note should exist")
	return string(data)
}

func TestEndpoint_CORSPreflight(t *testing.T) {
	ep, _ := newTestEndpoint(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rec.Body.String(), "preflight carries no body")
}

func TestEndpoint_LogCreatesNote(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)

	rec := postEvent(ep, "cats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	content := readNote(t, notePath)
	assert.Contains(t, content, "[cats](https://x/?q=cats)")
	assert.Equal(t, 1, strings.Count(content, "\n"), "exactly one line")
}

func TestEndpoint_DuplicateSuppressed(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)

	require.Equal(t, http.StatusOK, postEvent(ep, "cats").Code)
	before := readNote(t, notePath)

	rec := postEvent(ep, "cats")
	assert.Equal(t, http.StatusOK, rec.Code, "duplicates still succeed")
	assert.Contains(t, rec.Body.String(), "duplicate")
	assert.Equal(t, before, readNote(t, notePath), "note unchanged on duplicate")
}

func TestEndpoint_DuplicateMatchIsCaseSensitive(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)

	postEvent(ep, "cats")
	postEvent(ep, "Cats")

	content := readNote(t, notePath)
	assert.Equal(t, 2, strings.Count(content, "\n"), "Cats and cats are distinct queries")
}

func TestEndpoint_WindowEviction(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)

	// Fill the window past capacity, then repeat the evicted query.
	for _, q := range []string{"q1", "q2", "q3", "q4", "q1"} {
		require.Equal(t, http.StatusOK, postEvent(ep, q).Code)
	}

	content := readNote(t, notePath)
	assert.Equal(t, 5, strings.Count(content, "\n"),
		"q1 was evicted by q4 and must be logged again")
}

func TestEndpoint_MalformedBody(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)

	req := httptest.NewRequest(http.MethodPost, "/log", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"),
		"errors carry CORS headers too")
	_, err := os.Stat(notePath)
	assert.True(t, os.IsNotExist(err), "nothing written on parse failure")
}

func TestEndpoint_UnknownRoutes(t *testing.T) {
	ep, _ := newTestEndpoint(t, false)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/log"},
		{http.MethodPost, "/other"},
		{http.MethodDelete, "/"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, nil)
		rec := httptest.NewRecorder()
		ep.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", c.method, c.path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestEndpoint_FolderTargetStillSucceeds(t *testing.T) {
	ep, notePath := newTestEndpoint(t, false)
	require.NoError(t, os.Mkdir(notePath, 0755))

	rec := postEvent(ep, "cats")
	assert.Equal(t, http.StatusOK, rec.Code,
		"a folder at the note path is not the caller's problem")

	entries, err := os.ReadDir(notePath)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written into the folder")
}
