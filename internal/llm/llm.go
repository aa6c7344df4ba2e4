// Package llm talks to an OpenAI-compatible chat-completion service.
// The assistant treats the service as a black box returning plain text;
// the only contract is that instructions in the system message are
// followed, including the [SQL_QUERY] delimiter convention.
package llm

import (
	"context"
	"strconv"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// UpstreamError reports an HTTP-level failure from the model service.
// These are infrastructure failures, not query-generation misses, and
// the API layer maps them to error statuses.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return "model service returned status " + strconv.Itoa(e.StatusCode)
}
