package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/duneview/booking-assistant/internal/conversation"
	"github.com/duneview/booking-assistant/pkg/logging"
)

type advancer interface {
	Advance(ctx context.Context, sessionKey, message string) (conversation.Reply, error)
}

// ChatHandler forwards guest messages to the conversation machine.
type ChatHandler struct {
	machine advancer
	logger  *logging.Logger
}

// NewChatHandler creates the handler.
func NewChatHandler(machine advancer, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{machine: machine, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID  string                 `json:"session_id"`
	Kind       conversation.ReplyKind `json:"kind"`
	Text       string                 `json:"text"`
	Handoff    bool                   `json:"handoff,omitempty"`
	Candidates []candidateDTO         `json:"candidates,omitempty"`
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.machine.Advance(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("conversation turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "conversation turn failed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:  req.SessionID,
		Kind:       reply.Kind,
		Text:       reply.Text,
		Handoff:    reply.Handoff,
		Candidates: toCandidateDTOs(reply.Candidates),
	})
}
