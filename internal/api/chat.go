package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/impactdesk/impactdesk/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []chatMessage `json:"conversationHistory"`
}

type chatResponse struct {
	Response  string    `json:"response"`
	HasData   bool      `json:"hasData"`
	Timestamp time.Time `json:"timestamp"`
}

func handleAssistantChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "ASSISTANT_NOT_CONFIGURED", "AI assistant is not configured", false, nil)
		return
	}

	var request chatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chat request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "MESSAGE_REQUIRED", "message is required", false, nil)
		return
	}

	history, err := historyMessages(request.History)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_HISTORY", err.Error(), false, nil)
		return
	}

	outcome, err := deps.Assistant.Answer(r.Context(), history, request.Message)
	if err != nil {
		writeChatError(deps, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  outcome.Response,
		HasData:   outcome.HasData,
		Timestamp: outcome.Timestamp,
	})
}

func handleAssistantHealth(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"configured": deps.Assistant != nil,
		"model":      deps.AssistantModel,
	})
}

func historyMessages(entries []chatMessage) ([]llm.Message, error) {
	history := make([]llm.Message, 0, len(entries))
	for _, entry := range entries {
		switch entry.Role {
		case llm.RoleUser, llm.RoleAssistant:
		default:
			return nil, errors.New("history roles must be user or assistant")
		}
		history = append(history, llm.Message{Role: entry.Role, Content: entry.Content})
	}
	return history, nil
}

// writeChatError maps assistant failures onto the response envelope.
// Only upstream model failures reach this point; query failures are
// narrated inside a successful turn.
func writeChatError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode == http.StatusTooManyRequests {
		writeError(r.Context(), w, http.StatusTooManyRequests, "ASSISTANT_BUSY", "the AI assistant is receiving too many requests, please try again in a moment", true, nil)
		return
	}
	if deps.Logger != nil {
		deps.Logger.ErrorContext(r.Context(), "assistant turn failed", "error", err)
	}
	writeError(r.Context(), w, http.StatusInternalServerError, "ASSISTANT_ERROR", "failed to process your request", true, nil)
}
