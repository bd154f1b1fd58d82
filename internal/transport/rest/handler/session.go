package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"practicecoach/internal/model"
	"practicecoach/internal/transport/rest/middleware"
)

// Sessions is the session registry as seen by the HTTP layer
type Sessions interface {
	CreateSession(ctx context.Context, req model.CreateSessionRequest, caller model.Identity) (*model.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string, caller model.Identity) (*model.Session, error)
}

type Questions interface {
	EnsureQuestions(ctx context.Context, sessionID string, caller model.Identity) ([]*model.Question, error)
}

type Answers interface {
	SubmitAnswer(ctx context.Context, sessionID string, req model.SubmitAnswerRequest, caller model.Identity) (string, error)
}

// SessionHandler handles session, question and answer endpoints
type SessionHandler struct {
	sessions  Sessions
	questions Questions
	answers   Answers
	logger    *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions Sessions, questions Questions, answers Answers, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.sessions.CreateSession(r.Context(), req, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.sessions.GetSession(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Questions handles GET and POST /v1/sessions/{sessionId}/questions
func (h *SessionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	questions, err := h.questions.EnsureQuestions(r.Context(), sessionID, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	views := make([]model.QuestionView, len(questions))
	for i, q := range questions {
		views[i] = q.View()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": views})
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/answers
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req model.SubmitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answerID, err := h.answers.SubmitAnswer(r.Context(), sessionID, req, middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"answerId": answerID})
}
