package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/JaimeStill/floracare/pkg/formatting"
	"github.com/JaimeStill/floracare/pkg/handlers"
	"github.com/JaimeStill/floracare/pkg/routes"
)

const defaultSearchK = 3

// Handler provides HTTP endpoints for knowledge ingestion and search.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// SearchRequest is the body of a similarity search.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// IngestResult reports the chunks written for an uploaded document.
type IngestResult struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "knowledge"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for knowledge endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/knowledge",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/sources", Handler: h.Sources},
			{Method: "DELETE", Pattern: "/sources/{source...}", Handler: h.DeleteSource},
		},
	}
}

// Upload ingests a multipart .txt, .md, or .pdf file. The optional
// "source" form field overrides the file name as provenance.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(tooLarge.Limit, 1))
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	text, err := Extract(header.Filename, data)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = filepath.Base(header.Filename)
	}

	n, err := h.sys.Ingest(r.Context(), Document{Source: source, Text: text})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, IngestResult{Source: source, Chunks: n})
}

// Search returns the chunks most similar to the query text.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.K < 1 {
		req.K = defaultSearchK
	}

	chunks, err := h.sys.SimilaritySearch(r.Context(), req.Query, req.K)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, chunks)
}

// Sources lists every ingested source with its chunk count.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sys.Sources(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sources)
}

// DeleteSource removes every chunk ingested from a source.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sys.DeleteSource(r.Context(), r.PathValue("source")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondNoContent(w)
}
