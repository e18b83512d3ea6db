package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"chatform/internal/model"
	"chatform/internal/service"
	"chatform/internal/transport/rest/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ResponseHandler handles survey submissions and owner response listing
type ResponseHandler struct {
	responseSvc *service.ResponseService
	log         zerolog.Logger
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc *service.ResponseService, log zerolog.Logger) *ResponseHandler {
	return &ResponseHandler{
		responseSvc: responseSvc,
		log:         log,
	}
}

// Submit handles POST /v1/surveys/{slug}
// @Summary Record a survey response
// @Tags surveys
// @Accept json
// @Produce json
// @Param slug path string true "survey slug"
// @Param body body model.SubmitRequest true "encoded answers"
// @Success 201 {object} model.SubmitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{slug} [post]
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var req model.SubmitRequest
	if !decodeJSON(w, r, &req) {
		submissionsRejectedTotal.WithLabelValues("malformed").Inc()
		return
	}

	resp, err := h.responseSvc.Record(r.Context(), slug, &req)
	if err != nil {
		submissionsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		writeServiceError(w, h.log, err)
		return
	}

	responsesRecordedTotal.WithLabelValues(modeLabel(req.ConversationalAI)).Inc()
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /v1/surveys/{slug}/responses
// @Summary List decoded responses of an owned survey
// @Tags owner
// @Produce json
// @Security BearerAuth
// @Param slug path string true "survey slug"
// @Param limit query int false "max responses (default 50)"
// @Success 200 {object} map[string][]model.DecodedResponse
// @Failure 403 {object} ErrorResponse
// @Router /surveys/{slug}/responses [get]
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := int64(defaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	responses, err := h.responseSvc.List(r.Context(), mux.Vars(r)["slug"], ownerID, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}

func rejectReason(err error) string {
	var invalid *service.InvalidSubmissionError
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, service.ErrSurveyNotFound):
		return "not_found"
	case errors.As(err, &invalid):
		return "invalid"
	default:
		return "error"
	}
}
