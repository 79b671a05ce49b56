package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/matchday-app/notify-api/internal/application/pushtoken"
	"github.com/matchday-app/notify-api/internal/bridge"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/pkg/validate"
	"github.com/matchday-app/notify-api/internal/transport/http/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// EnableRequest carries the device token and the user's answer to the
// platform permission prompt.
type EnableRequest struct {
	DeviceToken       string `json:"device_token" validate:"required"`
	PermissionGranted bool   `json:"permission_granted"`
}

// SyncRequest optionally carries a fresh device token for silent re-acquisition.
type SyncRequest struct {
	DeviceToken string `json:"device_token"`
}

// IncomingMessage is the push edge's callback body, rendered to foreground
// clients through the bridge.
type IncomingMessage struct {
	UserID string `json:"user_id" validate:"required"`
	Type   string `json:"type"`
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body"`
	Link   string `json:"link"`
}

// PushHandler handles token lifecycle and delivery-bridge endpoints.
type PushHandler struct {
	tokens pushtoken.Service
	hub    *bridge.Hub
}

func NewPushHandler(tokens pushtoken.Service, hub *bridge.Hub) *PushHandler {
	return &PushHandler{tokens: tokens, hub: hub}
}

func (h *PushHandler) Enable(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.tokens.Enable(r.Context(), claims.UserID, req.DeviceToken, req.PermissionGranted); err != nil {
		// Unsupported platforms downgrade silently rather than error at the UI.
		if errors.Is(err, domain.ErrUnsupported) {
			writeJSON(w, http.StatusOK, MessageEnvelope{Message: "push not available"})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "push enabled"})
}

func (h *PushHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.tokens.Disable(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "push disabled"})
}

func (h *PushHandler) Sync(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req SyncRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.tokens.SyncOnSignIn(r.Context(), claims.UserID, req.DeviceToken); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "push synced"})
}

// Connect upgrades to a websocket and attaches it to the bridge for the
// duration of the connection.
func (h *PushHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already wrote the error response
	}
	h.hub.Attach(claims.UserID, conn)

	// Reads are only pumped to detect the close; clients never send data.
	go func() {
		defer h.hub.Detach(claims.UserID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Incoming receives a delivered push message from the edge and renders it to
// the recipient's foreground connections. The durable record already exists;
// nothing is re-persisted here.
func (h *PushHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	var msg IncomingMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.hub.Deliver(msg.UserID, bridge.Message{
		Type:  msg.Type,
		Title: msg.Title,
		Body:  msg.Body,
		Link:  msg.Link,
	})
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "delivered"})
}
