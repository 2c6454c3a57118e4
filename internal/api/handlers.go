package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc          *noteservice.Service
	manifestPath string
	agentsPath   string
}

// NewHandler creates a new Handler. manifestPath and agentsPath are the
// generated JSON files served by /components and /agents.
func NewHandler(svc *noteservice.Service, manifestPath, agentsPath string) *Handler {
	return &Handler{svc: svc, manifestPath: manifestPath, agentsPath: agentsPath}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Encoded slashes (ai%2Fnote.md) are accepted.
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.TagStats(r.Context())
	if err != nil {
		slog.Error("tag stats failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: counts})
}

// NormalizeTag handles GET /api/tags/normalize?tag=.
func (h *Handler) NormalizeTag(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tag")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Input: raw, Tag: h.svc.NormalizeTag(raw)})
}

// Suggestions handles GET /api/suggestions?reason=&limit=.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason != "" && reason != links.ReasonEntity && reason != links.ReasonKeyword {
		writeError(w, http.StatusBadRequest, "reason must be "+links.ReasonEntity+" or "+links.ReasonKeyword)
		return
	}
	rows, err := h.svc.Suggestions(r.Context(), reason, queryLimit(r))
	if err != nil {
		slog.Error("load suggestions failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: rows})
}

// Orphans handles GET /api/orphans.
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.svc.Orphans(r.Context())
	if err != nil {
		slog.Error("orphans failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, OrphansResponse{Orphans: orphans})
}

// Runs handles GET /api/runs?limit=.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.Runs(r.Context(), queryLimit(r))
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// Components handles GET /api/components.
func (h *Handler) Components(w http.ResponseWriter, r *http.Request) {
	serveFile(w, h.manifestPath)
}

// Agents handles GET /api/agents.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	serveFile(w, h.agentsPath)
}

// serveFile writes a generated JSON document, or 404 when it has not been
// built yet.
func serveFile(w http.ResponseWriter, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "not generated yet")
			return
		}
		slog.Error("read generated file failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
