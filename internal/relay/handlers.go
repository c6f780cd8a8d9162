package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/log"
	"github.com/clientctl/clientctl/internal/tableapi"
	"github.com/clientctl/clientctl/internal/transport"
)

// failure is the error body returned to front ends.
type failure struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := log.WithHTTPLogContext(r.Context(), log.HTTPLogContext{Operation: transport.OpList})
	q := r.URL.Query()

	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	page, err := s.table.List(ctx, tableapi.ListParams{
		PageSize: pageSize,
		Offset:   q.Get("offset"),
		Formula:  tableapi.SearchFormula(q.Get("search")),
	})
	if err != nil {
		s.writeUpstreamError(ctx, w, "Failed to list clients", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := log.WithHTTPLogContext(r.Context(), log.HTTPLogContext{Operation: transport.OpCreate})

	var fields clients.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	fields = fields.Trimmed()
	if err := fields.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, failure{Message: "Missing required fields: nome and email."})
		return
	}

	rec, err := s.table.Create(ctx, fields)
	if err != nil {
		s.writeUpstreamError(ctx, w, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, clients.Page{Records: []clients.Record{rec}})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := log.WithHTTPLogContext(r.Context(), log.HTTPLogContext{Operation: transport.OpUpdate})

	var patch clients.Patch
	if !decodeBody(w, r, &patch) {
		return
	}

	rec, err := s.table.Update(ctx, r.PathValue("id"), patch)
	if err != nil {
		s.writeUpstreamError(ctx, w, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, clients.Page{Records: []clients.Record{rec}})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := log.WithHTTPLogContext(r.Context(), log.HTTPLogContext{Operation: transport.OpDelete})

	deleted, err := s.table.Delete(ctx, r.PathValue("id"))
	if err != nil {
		s.writeUpstreamError(ctx, w, "Failed to delete client", err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// handleConfig publishes the relay location to static front ends. Without a
// configured public URL a config.json from the static assets is served.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if base := strings.TrimRight(strings.TrimSpace(s.settings.PublicBaseURL), "/"); base != "" {
		writeJSON(w, http.StatusOK, transport.RelayOverride{APIBaseURL: base})
		return
	}
	s.handleStatic(w, r)
}

// handleStatic serves an asset when one exists. Unknown extensionless paths
// fall back to index.html so client-side routes resolve.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	info, err := fs.Stat(s.assets, name)
	switch {
	case err == nil && !info.IsDir():
		http.ServeFileFS(w, r, s.assets, name)
		return
	case path.Ext(name) != "":
		http.NotFound(w, r)
		return
	}

	index, err := fs.ReadFile(s.assets, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(index)
}

func (s *Server) writeUpstreamError(ctx context.Context, w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	var se *tableapi.StatusError
	switch {
	case errors.As(err, &se):
		status = se.StatusCode
	case errors.Is(err, clients.ErrMissingID):
		status = http.StatusBadRequest
	}

	s.logger.LogAttrs(ctx, levelFor(status), message,
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	writeJSON(w, status, failure{Message: message, Details: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, failure{Message: "Request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, failure{Message: "Invalid JSON body", Details: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
