package assistant

import (
	"github.com/impactdesk/impactdesk/internal/llm"
)

const defaultHistoryLimit = 10

// Composer assembles the message lists sent to the model. Incoming
// history is truncated to the most recent historyLimit turns at every
// composition, so token cost stays bounded across repair attempts.
type Composer struct {
	historyLimit int
}

func NewComposer(historyLimit int) *Composer {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Composer{historyLimit: historyLimit}
}

// Initial builds the first prompt of a turn: system instructions, the
// bounded trailing window of conversation history, then the user's
// message.
func (c *Composer) Initial(history []llm.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, c.historyLimit+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt()})
	messages = append(messages, c.truncate(history)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}

// Repair extends a prior prompt with the model's failed attempt and the
// error text verbatim, asking for a corrected query that keeps the
// original intent.
func (c *Composer) Repair(prior []llm.Message, assistantText, errorMessage string) []llm.Message {
	messages := append([]llm.Message{}, prior...)
	messages = append(messages,
		llm.Message{Role: llm.RoleAssistant, Content: assistantText},
		llm.Message{Role: llm.RoleUser, Content: "The query failed with this error:\n\n" + errorMessage +
			"\n\nPlease fix only the identified problem without changing what the query is trying to answer. " +
			"Output the corrected query in the same " + queryOpenMarker + "..." + queryCloseMarker + " format, " +
			"again without a trailing semicolon."},
	)
	return messages
}

// Interpretation extends a prior prompt with the retrieved rows and
// asks for a narrative answer with no further embedded query.
func (c *Composer) Interpretation(prior []llm.Message, assistantText, rowsJSON string) []llm.Message {
	messages := append([]llm.Message{}, prior...)
	messages = append(messages,
		llm.Message{Role: llm.RoleAssistant, Content: assistantText},
		llm.Message{Role: llm.RoleUser, Content: "Here are the query results:\n\n" + rowsJSON +
			"\n\nPlease provide a clear, insightful response based on these results. Do not include SQL queries in your response."},
	)
	return messages
}

func (c *Composer) truncate(history []llm.Message) []llm.Message {
	if len(history) <= c.historyLimit {
		return history
	}
	return history[len(history)-c.historyLimit:]
}
