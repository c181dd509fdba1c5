package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sahayak-edu/sahayak/internal/model"
	"github.com/sahayak-edu/sahayak/internal/store"
)

// processor runs one chat turn against a session state.
type processor interface {
	Process(ctx context.Context, st *model.State, text string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	agent   processor
	appName string
}

// New creates a new Handler.
func New(s *store.Store, agent processor, appName string) *Handler {
	return &Handler{store: s, agent: agent, appName: appName}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/api/sessions/{userID}", h.handleListSessions)
	r.Post("/api/sessions/{userID}", h.handleCreateSession)
	r.Get("/api/sessions/{userID}/{sessionID}", h.handleSessionDetails)
	r.Delete("/api/sessions/{userID}/{sessionID}", h.handleDeleteSession)
	r.Get("/api/database/health", h.handleDatabaseHealth)
	r.Post("/api/chat/{userID}", h.handleChat)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": msg})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"message":  "Sahayak educational agent server is running",
		"app_name": h.appName,
	})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sessions, err := h.store.List(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve sessions: "+err.Error())
		return
	}

	summaries := make([]model.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summary())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"total_sessions": len(summaries),
		"sessions":       summaries,
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	forceNew := r.URL.Query().Get("force_new") == "true"

	var sess model.Session
	var err error
	if forceNew {
		sess, err = h.store.Create(userID, model.NewState())
	} else {
		sess, err = h.store.Resolve(userID, "")
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create or get session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"session_id": sess.ID,
		"message":    "Session ready",
	})
}

func (h *Handler) handleSessionDetails(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.store.Get(userID, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve session details: "+err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session "+sessionID+" not found for user "+userID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"app_name":   sess.AppName,
		"user_id":    userID,
		"session_id": sess.ID,
		"state":      sess.State,
		"created_at": sess.CreatedAt,
		"message":    "Session details retrieved successfully",
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sessionID := chi.URLParam(r, "sessionID")

	err := h.store.Delete(userID, sessionID)
	if errors.Is(err, store.ErrNotImplemented) {
		writeJSON(w, http.StatusNotImplemented, map[string]any{
			"message": "Session deletion not implemented",
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete session: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Session deleted"})
}

func (h *Handler) handleDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	ts := time.Now().UTC().Format(time.RFC3339)
	if err := h.store.Health(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "error",
			"message":   "Database health check failed: " + err.Error(),
			"timestamp": ts,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"message":   "Database connection is working properly",
		"timestamp": ts,
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	sess, err := h.store.Resolve(userID, req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve session: "+err.Error())
		return
	}

	reply, err := h.agent.Process(r.Context(), sess.State, req.Message)
	if err != nil {
		slog.Error("chat turn failed", "user_id", userID, "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message: "+err.Error())
		return
	}

	if err := h.store.SaveState(userID, sess.ID, sess.State); err != nil {
		slog.Error("save state failed", "user_id", userID, "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session state: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"session_id": sess.ID,
		"reply":      reply,
	})
}
