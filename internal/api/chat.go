package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/victoruno/victoruno/internal/backend"
	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/router"
	"github.com/victoruno/victoruno/internal/synth"
)

// maxChatBodySize bounds the chat request body (64 KB).
const maxChatBodySize = 64 * 1024

// chatRequest is the POST /api/v1/chat body. An empty session_id starts a
// new session.
type chatRequest struct {
	SessionID      string `json:"session_id,omitempty"`
	Message        string `json:"message"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

// chatResponse is the chat reply envelope.
type chatResponse struct {
	SessionID      string           `json:"session_id"`
	Text           string           `json:"text"`
	Intent         string           `json:"intent"`
	Degraded       bool             `json:"degraded"`
	DegradedReason string           `json:"degraded_reason,omitempty"`
	Citations      []synth.Citation `json:"citations,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Model          string           `json:"model,omitempty"`
}

type chatHandler struct {
	router *router.Router
	logger log.Logger
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				"body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	if req.Message == "" && req.AttachmentPath == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message is required", h.logger)
		return
	}

	sessionID := uuid.New()
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "session_id is not a valid UUID", h.logger)
			return
		}
		sessionID = parsed
	}

	resp, err := h.router.Handle(r.Context(), router.Request{
		SessionID:      sessionID,
		Utterance:      req.Message,
		AttachmentPath: req.AttachmentPath,
	})
	if err != nil {
		h.writeHandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:      sessionID.String(),
		Text:           resp.Text,
		Intent:         resp.Intent,
		Degraded:       resp.Degraded,
		DegradedReason: resp.DegradedReason,
		Citations:      resp.Citations,
		Summary:        resp.Summary,
		Model:          resp.Model,
	}, h.logger)
}

// writeHandleError maps core failures onto HTTP status codes.
func (h *chatHandler) writeHandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, router.ErrUnsupportedAttachment):
		writeError(w, http.StatusUnprocessableEntity,
			"unsupported_attachment", err.Error(), h.logger)
	case errors.Is(err, router.ErrEmptyUtterance):
		writeError(w, http.StatusBadRequest, "empty_message", "message is required", h.logger)
	default:
		var be *backend.Error
		if errors.As(err, &be) {
			h.logger.Error("backend failure",
				"kind", string(be.Kind),
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusBadGateway,
				"backend_"+string(be.Kind), "model backend failed", h.logger)
			return
		}
		h.logger.Error("chat handling failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError,
			"internal_error", "internal server error", h.logger)
	}
}
