package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/paths"
	"github.com/1rns/obsidian-math-booster/internal/search"
)

// handleLookup resolves a fully-qualified label to its entry.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		jsonError(w, "label query parameter is required", http.StatusBadRequest)
		return
	}

	entry, err := s.db.Lookup(label)
	if err == index.ErrEntryNotFound {
		jsonError(w, "no entry for label: "+label, http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "lookup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, entry)
}

// handleSuggest returns ranked completion candidates for a partial query.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	active := r.URL.Query().Get("doc")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.db.AllEntries()
	if err != nil {
		jsonError(w, "failed to load entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	recent, err := s.db.RecentDocuments(10)
	if err != nil {
		jsonError(w, "failed to load recent documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	candidates := search.Suggest(entries, q, search.Context{
		ActiveDocument: active,
		Recent:         recent,
	}, limit)

	writeJSON(w, map[string]any{"candidates": candidates})
}

// handleDocumentEntries lists the indexed entries of one document.
func (s *Server) handleDocumentEntries(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	// Nested document IDs arrive with the slash percent-encoded.
	if unescaped, err := url.PathUnescape(docID); err == nil {
		docID = unescaped
	}

	entries, err := s.db.EntriesForDocument(paths.DocumentIDToFile(docID))
	if err != nil {
		jsonError(w, "failed to load entries: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"document": docID, "entries": entries})
}

// handleSettings reports the effective settings for a path.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	eff := s.settings.Resolve(path)
	writeJSON(w, eff)
}

// handleStats reports index-wide counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats()
	if err != nil {
		jsonError(w, "failed to compute stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// handleReindex triggers a full rebuild.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.pipe.Rebuild(r.Context())
	if err != nil {
		jsonError(w, "rebuild failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"documents_indexed": n})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
