package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/krshsl/interviewprep/models"
	ws "github.com/krshsl/interviewprep/websocket"
)

// readLimitSlack covers the JSON envelope and lets moderately oversized
// answers through to the flow, which rejects them without closing the socket.
const readLimitSlack = 1 << 20

// frameReadLimit caps one inbound frame at twice the base64 size of the
// largest accepted answer. Zero means no cap, matching an unlimited audio size.
func frameReadLimit(maxAudioBytes int) int64 {
	if maxAudioBytes <= 0 {
		return 0
	}
	return int64(base64.StdEncoding.EncodedLen(maxAudioBytes))*2 + readLimitSlack
}

// LiveInterviewHandler upgrades a student's request and runs one
// InterviewFlow over the connection.
type LiveInterviewHandler struct {
	hub      *ws.Hub
	deps     FlowDeps
	timeouts *SessionTimeoutService
	upgrader websocket.Upgrader
}

func NewLiveInterviewHandler(hub *ws.Hub, deps FlowDeps, timeouts *SessionTimeoutService, allowedOrigins string) *LiveInterviewHandler {
	return &LiveInterviewHandler{
		hub:      hub,
		deps:     deps,
		timeouts: timeouts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, allowedOrigins)
			},
		},
	}
}

// RegisterRoutes expects to be mounted behind the auth middleware.
func (h *LiveInterviewHandler) RegisterRoutes(r chi.Router) {
	r.With(RequireRole(models.RoleStudent)).Get("/live", h.ServeHTTP)
}

func (h *LiveInterviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	courseID := strings.TrimSpace(r.URL.Query().Get("course_id"))
	if courseID == "" {
		http.Error(w, "course_id is required", http.StatusBadRequest)
		return
	}

	sessionID := uuid.New().String()
	var client *ws.Client
	send := func(msg OutboundMessage) {
		if client != nil {
			client.SendJSON(msg)
		}
	}

	// The flow is built before the upgrade so a bad course is a plain HTTP error.
	flow, err := NewInterviewFlow(r.Context(), h.deps, sessionID, user.ID, courseID, send)
	switch {
	case errors.Is(err, ErrCourseNotFound):
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrNoQuestions):
		http.Error(w, NoQuestionsText, http.StatusConflict)
		return
	case err != nil:
		slog.Error("Failed to prepare interview", "error", err, "course_id", courseID)
		http.Error(w, "Failed to start interview", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	slog.Info("WebSocket connection established", "user_id", user.ID, "session_id", sessionID, "course_id", courseID)

	// The request context ends with this handler; the flow outlives it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))

	client = h.hub.RegisterClient(conn, user.ID, sessionID)
	client.MessageHandler = func(c *ws.Client, data []byte) {
		h.timeouts.UpdateActivity(c.SessionID)

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendJSON(OutboundMessage{Type: MsgError, State: flow.State(), Content: "Invalid message format"})
			return
		}
		flow.Handle(ctx, msg)
	}
	client.OnClose = func(c *ws.Client) {
		cancel()
		flow.End()
		h.timeouts.EndSession(c.SessionID)
	}
	h.timeouts.RegisterSession(sessionID, user.ID, client.Close)

	go client.WritePump()
	flow.Announce()
	client.ReadPump(frameReadLimit(h.deps.Config.MaxAudioBytes))
}

// CheckOrigin validates the origin of WebSocket connections against a
// comma-separated allow list. An empty list denies everything.
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	for _, allowed := range strings.Split(allowedOriginsStr, ",") {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}
