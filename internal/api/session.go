package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/session"
)

// sessionInfo is the session metadata envelope.
type sessionInfo struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	Turns        int    `json:"turns"`
}

// turnInfo is one conversation turn in the messages listing.
type turnInfo struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
}

type sessionHandler struct {
	store  *session.Store
	logger log.Logger
}

func sessionToInfo(s *session.Session) sessionInfo {
	return sessionInfo{
		ID:           s.ID.String(),
		CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		LastActivity: s.LastActivity().Format("2006-01-02T15:04:05Z07:00"),
		Turns:        s.History().Len(),
	}
}

// list handles GET /api/v1/sessions.
func (h *sessionHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions := h.store.List()
	infos := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, sessionToInfo(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": infos}, h.logger)
}

// create handles POST /api/v1/sessions.
func (h *sessionHandler) create(w http.ResponseWriter, _ *http.Request) {
	s := h.store.Create()
	h.logger.Debug("session created", "session_id", s.ID)
	writeJSON(w, http.StatusCreated, sessionToInfo(s), h.logger)
}

// get handles GET /api/v1/sessions/{id}.
func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionToInfo(s), h.logger)
}

// messages handles GET /api/v1/sessions/{id}/messages.
func (h *sessionHandler) messages(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	turns := s.History().Turns()
	infos := make([]turnInfo, 0, len(turns))
	for _, t := range turns {
		infos = append(infos, turnInfo{
			Role:      string(t.Role),
			Content:   t.Content,
			Payload:   t.Payload,
			Timestamp: t.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": infos}, h.logger)
}

// reset handles POST /api/v1/sessions/{id}/reset. Clears conversation
// memory but keeps the session alive.
func (h *sessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.Reset(id); err != nil {
		h.notFound(w, err)
		return
	}
	h.logger.Debug("session reset", "session_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"}, h.logger)
}

// delete handles DELETE /api/v1/sessions/{id}.
func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.notFound(w, err)
		return
	}
	h.logger.Debug("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "session id is not a valid UUID", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *sessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := h.parseID(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.store.Get(id)
	if err != nil {
		h.notFound(w, err)
		return nil, false
	}
	return s, true
}

func (h *sessionHandler) notFound(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session_not_found", "session not found", h.logger)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
}
