package prompts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/handlers"
	"github.com/JaimeStill/floracare/pkg/pagination"
	"github.com/JaimeStill/floracare/pkg/routes"
)

// Handler serves prompt overrides and the effective text of each stage.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the body of POST /prompts/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent is the effective instructions or spec of a stage.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prompts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/stages", Handler: h.Stages},
			{Method: "GET", Pattern: "/{stage}/instructions", Handler: h.withStage(h.sys.Instructions)},
			{Method: "GET", Pattern: "/{stage}/spec", Handler: h.withStage(h.sys.Spec)},
			{Method: "GET", Pattern: "/{id}", Handler: h.withID(h.find)},
			{Method: "PUT", Pattern: "/{id}", Handler: h.withID(h.update)},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.withID(h.delete)},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.withID(h.setActive(true))},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.withID(h.setActive(false))},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.list(w, r, page, FiltersFromQuery(r.URL.Query()))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.respond(w, http.StatusCreated)(h.sys.Create(r.Context(), cmd))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	page.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	h.respond(w, http.StatusOK)(h.sys.Find(r.Context(), id))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Update(r.Context(), id, cmd))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondNoContent(w)
}

func (h *Handler) setActive(active bool) func(http.ResponseWriter, *http.Request, uuid.UUID) {
	return func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		h.respond(w, http.StatusOK)(h.sys.SetActive(r.Context(), id, active))
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(*Prompt, error) {
	return func(p *Prompt, err error) {
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, status, p)
	}
}

func (h *Handler) withID(fn func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
			return
		}
		fn(w, r, id)
	}
}

// withStage serves the text resolve returns for the {stage} path value.
func (h *Handler) withStage(resolve func(ctx context.Context, stage Stage) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage, err := ParseStage(r.PathValue("stage"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		text, err := resolve(r.Context(), stage)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, StageContent{Stage: stage, Content: text})
	}
}
