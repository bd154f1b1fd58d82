package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"practicecoach/internal/model"
	"practicecoach/internal/transport/rest/middleware"
)

type Coaching interface {
	GenerateCoaching(ctx context.Context, sessionID string, caller model.Identity) (*model.CoachingResult, error)
	GetReport(ctx context.Context, sessionID string, caller model.Identity) (*model.Report, error)
}

type Capabilities interface {
	Capabilities(ctx context.Context) (*model.Capabilities, error)
}

type Reviews interface {
	GetSessionReview(ctx context.Context, sessionID string, caller model.Identity) (*model.SessionReview, error)
}

// CoachingHandler handles coaching, report, capability and review endpoints
type CoachingHandler struct {
	coaching     Coaching
	capabilities Capabilities
	reviews      Reviews
	logger       *zap.Logger
}

func NewCoachingHandler(coaching Coaching, capabilities Capabilities, reviews Reviews, logger *zap.Logger) *CoachingHandler {
	return &CoachingHandler{
		coaching:     coaching,
		capabilities: capabilities,
		reviews:      reviews,
		logger:       logger,
	}
}

// Generate handles POST /v1/sessions/{sessionId}/coaching. The call blocks
// until the report exists.
func (h *CoachingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	result, err := h.coaching.GenerateCoaching(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Report handles GET /v1/sessions/{sessionId}/report
func (h *CoachingHandler) Report(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	report, err := h.coaching.GetReport(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Capabilities handles GET /v1/capabilities
func (h *CoachingHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.capabilities.Capabilities(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, caps)
}

// Review handles GET /v1/reviews/sessions/{sessionId}
func (h *CoachingHandler) Review(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	review, err := h.reviews.GetSessionReview(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}
