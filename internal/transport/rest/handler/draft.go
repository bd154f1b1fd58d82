package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"practicecoach/internal/model"
	"practicecoach/internal/transport/rest/middleware"
)

type Drafts interface {
	SaveDraft(ctx context.Context, sessionID string, caller model.Identity, payload model.DraftPayload) (*model.DraftSnapshot, error)
	LoadDraft(ctx context.Context, sessionID string, caller model.Identity) (*model.DraftSnapshot, error)
	ClearDraft(ctx context.Context, sessionID string, caller model.Identity) error
}

// DraftHandler handles resume-state endpoints
type DraftHandler struct {
	drafts Drafts
	logger *zap.Logger
}

func NewDraftHandler(drafts Drafts, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

// Save handles PUT /v1/sessions/{sessionId}/draft
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var payload model.DraftPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	snapshot, err := h.drafts.SaveDraft(r.Context(), sessionID, middleware.GetIdentity(r.Context()), payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DraftResponse{Draft: snapshot})
}

// Load handles GET /v1/sessions/{sessionId}/draft
func (h *DraftHandler) Load(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	snapshot, err := h.drafts.LoadDraft(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DraftResponse{Draft: snapshot})
}

// Clear handles DELETE /v1/sessions/{sessionId}/draft
func (h *DraftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.drafts.ClearDraft(r.Context(), sessionID, middleware.GetIdentity(r.Context())); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DraftResponse{})
}
