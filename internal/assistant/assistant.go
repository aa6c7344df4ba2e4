// Package assistant implements the portal's "ask the database" chat
// turn: prompt the model, extract and run an embedded read-only query,
// repair once on failure, and narrate the results.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/impactdesk/impactdesk/internal/dbquery"
	"github.com/impactdesk/impactdesk/internal/llm"
	"github.com/impactdesk/impactdesk/internal/observability"
)

// QueryRunner executes a read-only query. Implementations re-validate
// the text themselves; every error returned here is a query-level
// failure (validation or execution) eligible for the repair path.
type QueryRunner interface {
	Execute(ctx context.Context, sqlText string) (dbquery.Result, error)
}

// Outcome is the single structure a turn returns to the caller. Query
// failures never surface here as errors; they become explanatory text
// with HasData false. Only model-service failures make Answer return a
// non-nil error.
type Outcome struct {
	Response  string
	HasData   bool
	Timestamp time.Time
}

type Config struct {
	HistoryLimit int
}

type Assistant struct {
	model    llm.Client
	runner   QueryRunner
	composer *Composer
	logger   *slog.Logger
}

func New(model llm.Client, runner QueryRunner, logger *slog.Logger, cfg Config) *Assistant {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assistant{
		model:    model,
		runner:   runner,
		composer: NewComposer(cfg.HistoryLimit),
		logger:   logger,
	}
}

const (
	noRepairCandidateReply = "I wasn't able to put together a working query for that question. " +
		"Could you try rephrasing it, or ask about something more specific?"
	repairExhaustedReply = "I tried two different queries for that question and both failed against the database. " +
		"Please rephrase your question or narrow its scope and I'll try again."
)

// Answer runs one complete chat turn. history is the caller-supplied
// conversation so far; the assistant keeps no state between turns.
//
// The turn makes at most three model calls and at most two execution
// attempts. A failed first attempt earns exactly one repair round-trip;
// the repaired attempt gets no further retry regardless of outcome.
func (a *Assistant) Answer(ctx context.Context, history []llm.Message, userMessage string) (Outcome, error) {
	prompt := a.composer.Initial(history, userMessage)

	assistantText, err := a.complete(ctx, prompt)
	if err != nil {
		return Outcome{}, err
	}

	candidate, found := extractQuery(assistantText)
	if !found {
		// The model chose not to query; its text is the final answer.
		a.logger.DebugContext(ctx, "assistant answered without querying")
		return a.finish(assistantText, false), nil
	}

	result, runErr := a.runner.Execute(ctx, candidate)
	observability.IncrementAssistantQueryAttempt(runErr == nil)

	repairAttempted := false
	if runErr != nil {
		repairAttempted = true
		observability.IncrementAssistantRepair()
		a.logger.InfoContext(ctx, "query attempt failed, requesting repair",
			slog.String("error", runErr.Error()),
		)

		repairPrompt := a.composer.Repair(prompt, assistantText, runErr.Error())
		repairText, err := a.complete(ctx, repairPrompt)
		if err != nil {
			return Outcome{}, err
		}

		repaired, found := extractQuery(repairText)
		if !found {
			return a.finish(noRepairCandidateReply, false), nil
		}

		result, runErr = a.runner.Execute(ctx, repaired)
		observability.IncrementAssistantQueryAttempt(runErr == nil)
		if runErr != nil {
			a.logger.InfoContext(ctx, "repaired query failed, giving up",
				slog.String("error", runErr.Error()),
			)
			return a.finish(repairExhaustedReply, false), nil
		}

		prompt = repairPrompt
		assistantText = repairText
	}

	observability.ObserveAssistantQueryRows(result.RowCount)

	rowsJSON, err := serializeRows(result)
	if err != nil {
		return Outcome{}, fmt.Errorf("serialize query results: %w", err)
	}
	if result.Truncated {
		rowsJSON += fmt.Sprintf("\n\n(results truncated to the first %d rows; mention this in your answer)", result.RowCount)
	}

	finalText, err := a.complete(ctx, a.composer.Interpretation(prompt, assistantText, rowsJSON))
	if err != nil {
		return Outcome{}, err
	}

	a.logger.DebugContext(ctx, "assistant answered with data",
		slog.Int("row_count", result.RowCount),
		slog.Bool("repaired", repairAttempted),
	)
	return a.finish(finalText, true), nil
}

func (a *Assistant) complete(ctx context.Context, messages []llm.Message) (string, error) {
	start := time.Now()
	text, err := a.model.Complete(ctx, messages)
	observability.ObserveAssistantModelLatency(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}
	return text, nil
}

func (a *Assistant) finish(text string, hasData bool) Outcome {
	observability.IncrementAssistantTurn(hasData)
	return Outcome{
		Response:  stripQueryBlocks(text),
		HasData:   hasData,
		Timestamp: time.Now().UTC(),
	}
}

func serializeRows(result dbquery.Result) (string, error) {
	body, err := json.MarshalIndent(result.Rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(body), nil
}
