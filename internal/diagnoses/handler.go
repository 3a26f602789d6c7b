package diagnoses

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/formatting"
	"github.com/JaimeStill/floracare/pkg/handlers"
	"github.com/JaimeStill/floracare/pkg/routes"
)

// Handler provides HTTP endpoints for diagnosis operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "diagnoses"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for diagnosis endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/diagnoses",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Diagnose},
			{Method: "POST", Pattern: "/chat", Handler: h.Chat},
			{Method: "POST", Pattern: "/annotate", Handler: h.Annotate},
			{Method: "GET", Pattern: "/images/{key...}", Handler: h.Image},
		},
	}
}

// Diagnose accepts a multipart "image" upload with optional "location",
// "plant_name", and "user_query" fields and returns the diagnosis report.
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := h.readImage(w, r)
	if !ok {
		return
	}

	report, err := h.sys.Diagnose(r.Context(), DiagnoseCommand{
		Data:      data,
		Filename:  filename,
		Location:  r.FormValue("location"),
		PlantName: r.FormValue("plant_name"),
		UserQuery: r.FormValue("user_query"),
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// Chat answers a follow-up question about a previously returned report.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	resp, err := h.sys.Chat(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Annotate accepts a multipart "image" upload and an "analysis" field
// holding the JSON analysis of that image, and responds with the image
// outlined at each detected object.
func (h *Handler) Annotate(w http.ResponseWriter, r *http.Request) {
	data, _, ok := h.readImage(w, r)
	if !ok {
		return
	}

	var analysis workflow.ImageAnalysis
	if err := json.Unmarshal([]byte(r.FormValue("analysis")), &analysis); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	out, mime, err := h.sys.Annotate(data, &analysis)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// Image streams a stored upload by its storage key.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.sys.Image(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(tooLarge.Limit, 1))
		} else {
			err = fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidImage, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidImage, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, "", false
	}

	return data, header.Filename, true
}
