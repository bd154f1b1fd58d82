package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"practicecoach/internal/service"
)

// maxBodyBytes caps request bodies; the largest legitimate body is a draft
// with a few answers.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind service.Kind, message string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": string(kind)})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	case service.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as a client error, or logs it and writes a
// bare 500 when it is an infrastructure failure.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeError(w, status, "internal_error", "internal error")
		return
	}
	if status == http.StatusBadGateway {
		logger.Warn("upstream failure", zap.Error(err))
	}
	writeError(w, status, kind, service.MessageOf(err))
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, service.KindValidation, "request body is required")
		return false
	}
	writeError(w, http.StatusBadRequest, service.KindValidation, "invalid request body")
	return false
}
