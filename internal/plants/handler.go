package plants

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/floracare/pkg/handlers"
	"github.com/JaimeStill/floracare/pkg/pagination"
	"github.com/JaimeStill/floracare/pkg/routes"
)

const (
	defaultHistoryLimit = 5
	maxHistoryLimit     = 100
)

// Handler provides HTTP endpoints for plants and their diagnosis history.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// ResetResult reports the outcome of deleting every plant.
type ResetResult struct {
	Status  string `json:"status"`
	Deleted int64  `json:"plants_deleted"`
}

// DeleteResult reports the outcome of a history deletion.
type DeleteResult struct {
	Status  string `json:"status"`
	Name    string `json:"plant_name"`
	Deleted int64  `json:"deleted"`
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "plants"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for plant endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/plants",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "DELETE", Pattern: "", Handler: h.DeleteAll},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
			{Method: "GET", Pattern: "/{name}/history", Handler: h.History},
			{Method: "DELETE", Pattern: "/{name}/history", Handler: h.DeleteHistory},
		},
	}
}

// List pages through plants using query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	h.list(w, r, pagination.PageRequestFromQuery(values, h.pagination), FiltersFromQuery(values))
}

// Search is List with the page and filters in a JSON body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	req.Normalize(h.pagination)
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a plant by name.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	plant, err := h.sys.FindPlantByName(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, plant)
}

// History returns the newest diagnosis log entries for a plant.
// Unknown plants yield an empty list. The limit query parameter
// defaults to 5 and is capped at 100.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.sys.Logs(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

// DeleteHistory removes every diagnosis log for a plant. The plant itself is kept.
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	n, err := h.sys.DeleteHistory(r.Context(), name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, DeleteResult{Status: "deleted", Name: name, Deleted: n})
}

// DeleteAll wipes every plant together with its history.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.sys.DeleteAll(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ResetResult{Status: "all_data_wiped", Deleted: n})
}
