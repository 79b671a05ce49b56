package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matchday-app/notify-api/internal/application/pushtoken"
	"github.com/matchday-app/notify-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CountEnvelope wraps responses that report how many records an operation touched.
type CountEnvelope struct {
	Updated int    `json:"updated"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to HTTP status codes. Token lifecycle
// errors arrive pre-translated as UserError: their message is user-safe by
// construction, so it is passed through.
func httpError(w http.ResponseWriter, err error) {
	var ue *pushtoken.UserError
	if errors.As(err, &ue) {
		writeError(w, http.StatusUnprocessableEntity, ue.Message)
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad request")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
