package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"practicecoach/internal/transport/rest/handler"
	"practicecoach/internal/transport/rest/middleware"
	"practicecoach/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Auth         middleware.TokenValidator
	Sessions     handler.Sessions
	Questions    handler.Questions
	Answers      handler.Answers
	Drafts       handler.Drafts
	Coaching     handler.Coaching
	Capabilities handler.Capabilities
	Reviews      handler.Reviews
	WSHub        *ws.Hub

	// AllowedOrigins is "*" or a comma separated list of origins.
	AllowedOrigins string
	Logger         *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	origins := newOriginPolicy(c.AllowedOrigins)

	sessionHandler := handler.NewSessionHandler(c.Sessions, c.Questions, c.Answers, c.Logger)
	draftHandler := handler.NewDraftHandler(c.Drafts, c.Logger)
	coachingHandler := handler.NewCoachingHandler(c.Coaching, c.Capabilities, c.Reviews, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.Auth, c.Sessions, origins.allows, c.Logger)

	authMW := middleware.NewAuthMiddleware(c.Auth)

	// CORS middleware (apply first)
	r.Use(origins.middleware)
	r.Use(middleware.AccessLog(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.SessionWS).Methods("GET")

	// Everything else resolves the caller from the Authorization header;
	// no header means guest.
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.Identify)

	api.HandleFunc("/capabilities", coachingHandler.Capabilities).Methods("GET", "OPTIONS")

	api.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/questions", sessionHandler.Questions).Methods("GET", "POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/answers", sessionHandler.SubmitAnswer).Methods("POST", "OPTIONS")

	api.HandleFunc("/sessions/{sessionId}/draft", draftHandler.Load).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/draft", draftHandler.Save).Methods("PUT", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/draft", draftHandler.Clear).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/sessions/{sessionId}/coaching", coachingHandler.Generate).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/report", coachingHandler.Report).Methods("GET", "OPTIONS")

	// Reviewer routes (role checked by the review service)
	api.HandleFunc("/reviews/sessions/{sessionId}", coachingHandler.Review).Methods("GET", "OPTIONS")

	return r
}

type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginPolicy(list string) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{})}
	for _, origin := range strings.Split(list, ",") {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			p.any = true
		default:
			p.allowed[origin] = struct{}{}
		}
	}
	if len(p.allowed) == 0 {
		p.any = true
	}
	return p
}

func (p *originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

func (p *originPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case p.any:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.allows(origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
