package handler

import (
	"net/http"

	"github.com/webdeskos/vfsd/internal/metrics"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, sse *SSEHandler) {
	// System endpoints
	mux.HandleFunc("/health", h.HandleHealthCheck)
	mux.Handle("/metrics", metrics.Handler())

	// API endpoints
	mux.HandleFunc("/api/create_file", h.HandleCreateFile)
	mux.HandleFunc("/api/mkdir", h.HandleMkdir)
	mux.HandleFunc("/api/read", h.HandleRead)
	mux.HandleFunc("/api/write", h.HandleWrite)
	mux.HandleFunc("/api/delete_file", h.HandleDeleteFile)
	mux.HandleFunc("/api/rmdir", h.HandleRmdir)
	mux.HandleFunc("/api/list", h.HandleList)
	mux.HandleFunc("/api/rename", h.HandleRename)
	mux.HandleFunc("/api/move", h.HandleMove)
	mux.HandleFunc("/api/copy", h.HandleCopy)
	mux.HandleFunc("/api/info", h.HandleInfo)
	mux.HandleFunc("/api/search", h.HandleSearch)
	mux.HandleFunc("/api/events", sse.HandleEvents)
}
