package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage/memory"
	"github.com/webdeskos/vfsd/internal/vfs"
	"github.com/webdeskos/vfsd/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *vfs.VFS) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := logging.MakeContextWithLogger(context.Background(), logger)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	fs := vfs.New(memory.New(), bus)
	require.NoError(t, fs.Initialize(ctx, nil))
	return NewHandler(fs), fs
}

func postJSON(t *testing.T, fn http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func get(fn http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeEntry(t *testing.T, rec *httptest.ResponseRecorder) models.Entry {
	t.Helper()
	var entry models.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
	return entry
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(h.HandleHealthCheck, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateFileEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{
		"path":    `C:\hello.txt`,
		"content": "hi",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	entry := decodeEntry(t, rec)
	assert.Equal(t, `C:\hello.txt`, entry.Path)
	assert.Equal(t, int64(2), entry.Size)
	assert.Equal(t, "text/plain", entry.MimeType)
}

func TestCreateFileEndpoint_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/create_file", nil)
	out := httptest.NewRecorder()
	h.HandleCreateFile(out, req)
	assert.Equal(t, http.StatusMethodNotAllowed, out.Code)
}

func TestCreateFileEndpoint_Conflict(t *testing.T) {
	h, _ := newTestHandler(t)

	first := postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\dup.txt`})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\dup.txt`})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestReadEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{
		"path":    `C:\a.txt`,
		"content": "payload",
	})

	rec := get(h.HandleRead, "/api/read?path=C:%5Ca.txt")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Content string `json:"content"`
		Size    int    `json:"size"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "payload", resp.Content)
	assert.Equal(t, 7, resp.Size)

	missing := get(h.HandleRead, "/api/read?path=C:%5Cmissing.txt")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestWriteEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	miss := postJSON(t, h.HandleWrite, "/api/write", map[string]any{
		"path":    `C:\new.txt`,
		"content": "x",
	})
	assert.Equal(t, http.StatusNotFound, miss.Code)

	created := postJSON(t, h.HandleWrite, "/api/write", map[string]any{
		"path":            `C:\new.txt`,
		"content":         "x",
		"createIfMissing": true,
	})
	assert.Equal(t, http.StatusOK, created.Code)
}

func TestListEndpoint_SortsDirectoriesFirst(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\zz.txt`})
	postJSON(t, h.HandleMkdir, "/api/mkdir", map[string]any{"path": `C:\beta`})
	postJSON(t, h.HandleMkdir, "/api/mkdir", map[string]any{"path": `C:\alpha`})
	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\aa.txt`})

	rec := get(h.HandleList, "/api/list?path=C:%5C")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []models.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Entries, 4)

	names := make([]string, len(resp.Entries))
	for i, entry := range resp.Entries {
		names[i] = entry.Name
	}
	assert.Equal(t, []string{"alpha", "beta", "aa.txt", "zz.txt"}, names)
}

func TestDeleteEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleMkdir, "/api/mkdir", map[string]any{"path": `C:\d`})
	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\d\f.txt`})

	blocked := postJSON(t, h.HandleRmdir, "/api/rmdir", map[string]any{"path": `C:\d`})
	assert.Equal(t, http.StatusConflict, blocked.Code)

	deleted := postJSON(t, h.HandleDeleteFile, "/api/delete_file", map[string]any{"path": `C:\d\f.txt`})
	assert.Equal(t, http.StatusOK, deleted.Code)

	emptied := postJSON(t, h.HandleRmdir, "/api/rmdir", map[string]any{"path": `C:\d`})
	assert.Equal(t, http.StatusOK, emptied.Code)
}

func TestRenameMoveCopyEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\a.txt`, "content": "x"})
	postJSON(t, h.HandleMkdir, "/api/mkdir", map[string]any{"path": `C:\dir`})

	renamed := postJSON(t, h.HandleRename, "/api/rename", map[string]any{
		"src":  `C:\a.txt`,
		"dest": `C:\b.txt`,
	})
	require.Equal(t, http.StatusOK, renamed.Code)
	assert.Equal(t, `C:\b.txt`, decodeEntry(t, renamed).Path)

	moved := postJSON(t, h.HandleMove, "/api/move", map[string]any{
		"src":  `C:\b.txt`,
		"dest": `C:\dir\b.txt`,
	})
	require.Equal(t, http.StatusOK, moved.Code)

	copied := postJSON(t, h.HandleCopy, "/api/copy", map[string]any{
		"src":  `C:\dir\b.txt`,
		"dest": `C:\dir\c.txt`,
	})
	assert.Equal(t, http.StatusCreated, copied.Code)

	missingArgs := postJSON(t, h.HandleMove, "/api/move", map[string]any{"src": `C:\x`})
	assert.Equal(t, http.StatusBadRequest, missingArgs.Code)
}

func TestInfoEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\a.txt`})

	found := get(h.HandleInfo, "/api/info?path=C:%5Ca.txt")
	assert.Equal(t, http.StatusOK, found.Code)

	missing := get(h.HandleInfo, "/api/info?path=C:%5Cghost")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSearchEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\a.txt`})
	postJSON(t, h.HandleCreateFile, "/api/create_file", map[string]any{"path": `C:\b.png`})

	rec := get(h.HandleSearch, "/api/search?pattern=*.txt")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []models.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "a.txt", resp.Entries[0].Name)

	noPattern := get(h.HandleSearch, "/api/search")
	assert.Equal(t, http.StatusBadRequest, noPattern.Code)
}
