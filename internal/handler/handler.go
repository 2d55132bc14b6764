// Package handler exposes the filesystem coordinator as a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
	"github.com/webdeskos/vfsd/internal/vfs"
	"github.com/webdeskos/vfsd/pkg/logging"
	"github.com/webdeskos/vfsd/pkg/logging/slogext"
)

type Handler struct {
	fs *vfs.VFS
}

func NewHandler(fs *vfs.VFS) *Handler {
	return &Handler{fs: fs}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createFileRequest struct {
	Path       string            `json:"path"`
	Content    string            `json:"content"`
	Attributes models.Attributes `json:"attributes"`
	MimeType   string            `json:"mimeType,omitempty"`
}

func (h *Handler) HandleCreateFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	entry, err := h.fs.CreateFile(ctx, req.Path, []byte(req.Content), vfs.CreateOptions{
		Attributes: req.Attributes,
		MimeType:   req.MimeType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

type pathRequest struct {
	Path string `json:"path"`
}

func (h *Handler) HandleMkdir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	entry, err := h.fs.CreateDirectory(ctx, req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	content, err := h.fs.ReadFile(ctx, path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"content": string(content),
		"size":    len(content),
	})
}

type writeFileRequest struct {
	Path            string `json:"path"`
	Content         string `json:"content"`
	CreateIfMissing bool   `json:"createIfMissing"`
}

func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req writeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	entry, err := h.fs.WriteFile(ctx, req.Path, []byte(req.Content), vfs.WriteOptions{
		CreateIfMissing: req.CreateIfMissing,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	if err := h.fs.DeleteFile(ctx, req.Path); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Path})
}

type rmdirRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

func (h *Handler) HandleRmdir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rmdirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	if err := h.fs.DeleteDirectory(ctx, req.Path, req.Recursive); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Path})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	entries, err := h.fs.ListDirectory(ctx, path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Directories first, then by name, for a stable listing.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].IsDirectory()
		}
		return entries[i].Name < entries[j].Name
	})

	writeJSON(w, http.StatusOK, map[string]any{"path": path, "entries": entries})
}

type srcDestRequest struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
}

func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	h.relocate(w, r, h.fs.Rename)
}

func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	h.relocate(w, r, h.fs.Move)
}

func (h *Handler) relocate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, src, dest string) (*models.Entry, error)) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req srcDestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Src == "" || req.Dest == "" {
		writeBadRequest(w, "src and dest are required")
		return
	}

	entry, err := fn(ctx, req.Src, req.Dest)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req srcDestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Src == "" || req.Dest == "" {
		writeBadRequest(w, "src and dest are required")
		return
	}

	entry, err := h.fs.CopyFile(ctx, req.Src, req.Dest)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	entry, err := h.fs.GetInfo(ctx, path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"path": path, "exists": false})
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		writeBadRequest(w, "pattern is required")
		return
	}
	dir := r.URL.Query().Get("dir")

	entries, err := h.fs.Search(ctx, pattern, dir)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	writeJSON(w, http.StatusOK, map[string]any{"pattern": pattern, "entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("Request failed", slogext.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrAlreadyExists), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrInvalidType):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrDirectoryNotEmpty):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
