package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

type createDocumentRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "OmniMind API",
		"version": s.version,
	})
}

// handleHealth always answers 200; an unreachable dependency degrades the
// report instead of failing the probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.ports.Health.Check(r.Context())

	services := make(map[string]string, len(report.Dependencies))
	for _, d := range report.Dependencies {
		services[d.Name] = d.Status()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    string(report.State),
		Services:  services,
		Timestamp: report.CheckedAt.UTC(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Documents.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := s.ports.Documents.Create(r.Context(), driving.CreateDocumentInput{
		Filename: req.Filename,
		Content:  req.Content,
		MimeType: req.MimeType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleSearch returns at most DefaultSearchLimit results.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > domain.DefaultSearchLimit {
		limit = domain.DefaultSearchLimit
	}

	results, err := s.ports.Search.Search(r.Context(), req.Query, domain.SearchOptions{Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeBody reads a JSON body into dst, writing a 400 or 413 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, domain.KindValidation, "request body too large")
			return false
		}
		writeErrorBody(w, http.StatusBadRequest, domain.KindValidation, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
