package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"chatform/internal/model"
	"chatform/internal/service"
	"chatform/internal/transport/rest/middleware"
)

// SurveyHandler handles survey endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
	log       zerolog.Logger
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, log zerolog.Logger) *SurveyHandler {
	return &SurveyHandler{
		surveySvc: surveySvc,
		log:       log,
	}
}

// Get handles GET /v1/surveys/{slug}
// @Summary Survey with usage limits
// @Tags surveys
// @Produce json
// @Param slug path string true "survey slug"
// @Success 200 {object} model.SurveyPayload
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{slug} [get]
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	survey, err := h.surveySvc.GetBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	limits, err := h.surveySvc.Limits(r.Context(), survey)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SurveyPayload{Survey: survey, Limits: limits})
}

// Questions handles GET /v1/surveys/{slug}/questions
// @Summary Normalized question list
// @Tags surveys
// @Produce json
// @Param slug path string true "survey slug"
// @Success 200 {object} map[string][]model.Question
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{slug}/questions [get]
func (h *SurveyHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.surveySvc.Questions(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

// LimitsUsage handles GET /v1/surveys/{slug}/limits-usage
// @Summary Response usage against the owner's plan
// @Tags surveys
// @Produce json
// @Param slug path string true "survey slug"
// @Success 200 {object} model.Limits
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{slug}/limits-usage [get]
func (h *SurveyHandler) LimitsUsage(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	limits, err := h.surveySvc.Limits(r.Context(), survey)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

// Create handles POST /v1/surveys
// @Summary Create a survey
// @Tags owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateSurveyRequest true "survey"
// @Success 201 {object} model.Survey
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /surveys [post]
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateSurveyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// List handles GET /v1/surveys
// @Summary List the owner's surveys
// @Tags owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]model.SurveySummary
// @Router /surveys [get]
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	surveys, err := h.surveySvc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}
