package handler

import (
	"encoding/json"
	"net/http"

	"github.com/matchday-app/notify-api/internal/application/notification"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/validate"
	"github.com/matchday-app/notify-api/internal/transport/http/middleware"
)

// EventRequest is one domain event to fan out. Either TargetUserIDs names
// the recipients directly, or the group's full membership is used minus
// ExcludeUserIDs (the acting user excludes themself this way).
type EventRequest struct {
	domain.Payload
	TargetUserIDs  []string `json:"target_user_ids"`
	ExcludeUserIDs []string `json:"exclude_user_ids"`
}

// EventHandler ingests domain events and triggers fan-out.
type EventHandler struct {
	svc notification.Service
}

func NewEventHandler(svc notification.Service) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req.Payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	if len(req.TargetUserIDs) > 0 {
		err = h.svc.Notify(r.Context(), req.TargetUserIDs, req.Payload)
	} else {
		err = h.svc.NotifyGroupMembers(r.Context(), req.GroupID, req.Payload, req.ExcludeUserIDs)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "event accepted"})
}
