package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/api/response"
	"github.com/daap14/blueprints/internal/api/validation"
	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/geometry"
)

// pointBody is a point in a request body. Pointers distinguish a missing
// coordinate from zero.
type pointBody struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// createBlueprintRequest is the request body for POST /api/v1/blueprints.
type createBlueprintRequest struct {
	Author string      `json:"author"`
	Name   string      `json:"name"`
	Points []pointBody `json:"points"`
}

// blueprintResponse is the API representation of a blueprint.
type blueprintResponse struct {
	ID        string           `json:"id"`
	Author    string           `json:"author"`
	Name      string           `json:"name"`
	Points    []geometry.Point `json:"points"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

func toBlueprintResponse(bp *blueprint.Blueprint) blueprintResponse {
	points := bp.Points
	if points == nil {
		points = []geometry.Point{}
	}
	return blueprintResponse{
		ID:        bp.ID.String(),
		Author:    bp.Author,
		Name:      bp.Name,
		Points:    points,
		CreatedAt: bp.CreatedAt.UTC().Format(response.TimestampLayout),
		UpdatedAt: bp.UpdatedAt.UTC().Format(response.TimestampLayout),
	}
}

func toBlueprintResponses(bps []blueprint.Blueprint) []blueprintResponse {
	items := make([]blueprintResponse, 0, len(bps))
	for i := range bps {
		items = append(items, toBlueprintResponse(&bps[i]))
	}
	return items
}

// pathParams returns the named URL parameters, percent-decoded. chi matches on
// r.URL.RawPath when it is set, which happens when the client escaped
// characters such as '&' or ':', so only then do the parameters still carry
// escapes. A malformed escape writes a 400 and returns false.
func pathParams(w http.ResponseWriter, r *http.Request, requestID string, keys ...string) ([]string, bool) {
	values := make([]string, len(keys))
	for i, key := range keys {
		v := chi.URLParam(r, key)
		if r.URL.RawPath == "" {
			values[i] = v
			continue
		}
		v, err := url.PathUnescape(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_PATH", fmt.Sprintf("Path parameter %q is not a valid escape sequence", key), requestID)
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// BlueprintHandler handles blueprint endpoints.
type BlueprintHandler struct {
	service *blueprint.Service
}

// NewBlueprintHandler creates a new BlueprintHandler.
func NewBlueprintHandler(service *blueprint.Service) *BlueprintHandler {
	return &BlueprintHandler{service: service}
}

// Create handles POST /api/v1/blueprints.
func (h *BlueprintHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createBlueprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Author = strings.TrimSpace(req.Author)
	req.Name = strings.TrimSpace(req.Name)

	inputs := make([]validation.PointInput, len(req.Points))
	for i, p := range req.Points {
		inputs[i] = validation.PointInput{X: p.X, Y: p.Y}
	}
	fieldErrors := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: req.Author,
		Name:   req.Name,
		Points: inputs,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	points := make([]geometry.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = geometry.Pt(*p.X, *p.Y)
	}

	bp, err := h.service.AddBlueprint(r.Context(), req.Author, req.Name, points)
	if err != nil {
		if errors.Is(err, blueprint.ErrBlueprintAlreadyExists) {
			response.Err(w, http.StatusConflict, "DUPLICATE_BLUEPRINT",
				fmt.Sprintf("A blueprint named %q by %q already exists", req.Name, req.Author), requestID)
			return
		}
		slog.Error("failed to create blueprint", "error", err, "author", req.Author, "name", req.Name)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create blueprint", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toBlueprintResponse(bp), requestID)
}

// List handles GET /api/v1/blueprints.
func (h *BlueprintHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	blueprints, err := h.service.GetAllBlueprints(r.Context())
	if err != nil {
		slog.Error("failed to list blueprints", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list blueprints", requestID)
		return
	}

	items := toBlueprintResponses(blueprints)
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// ListByAuthor handles GET /api/v1/blueprints/{author}.
func (h *BlueprintHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	params, ok := pathParams(w, r, requestID, "author")
	if !ok {
		return
	}
	author := params[0]

	blueprints, err := h.service.GetBlueprintsByAuthor(r.Context(), author)
	if err != nil {
		if errors.Is(err, blueprint.ErrBlueprintNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("No blueprints found for author %q", author), requestID)
			return
		}
		slog.Error("failed to list blueprints by author", "error", err, "author", author)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list blueprints", requestID)
		return
	}

	items := toBlueprintResponses(blueprints)
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Get handles GET /api/v1/blueprints/{author}/{name}. The configured filter
// is applied to the returned points.
func (h *BlueprintHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	params, ok := pathParams(w, r, requestID, "author", "name")
	if !ok {
		return
	}
	author, name := params[0], params[1]

	bp, err := h.service.GetBlueprint(r.Context(), author, name)
	if err != nil {
		if errors.Is(err, blueprint.ErrBlueprintNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Blueprint not found", requestID)
			return
		}
		slog.Error("failed to get blueprint", "error", err, "author", author, "name", name)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get blueprint", requestID)
		return
	}

	response.Success(w, http.StatusOK, toBlueprintResponse(bp), requestID)
}

// AddPoint handles PUT /api/v1/blueprints/{author}/{name}/points.
func (h *BlueprintHandler) AddPoint(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	params, ok := pathParams(w, r, requestID, "author", "name")
	if !ok {
		return
	}
	author, name := params[0], params[1]

	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	var req pointBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAddPointRequest(validation.PointInput{X: req.X, Y: req.Y})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.service.AddPoint(r.Context(), author, name, *req.X, *req.Y); err != nil {
		if errors.Is(err, blueprint.ErrBlueprintNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Blueprint not found", requestID)
			return
		}
		slog.Error("failed to add point", "error", err, "author", author, "name", name)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add point", requestID)
		return
	}

	response.Success(w, http.StatusCreated, geometry.Pt(*req.X, *req.Y), requestID)
}
