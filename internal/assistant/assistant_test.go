package assistant

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/impactdesk/impactdesk/internal/dbquery"
	"github.com/impactdesk/impactdesk/internal/llm"
)

// scriptedModel returns canned completions in order and records the
// prompts it was called with.
type scriptedModel struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (m *scriptedModel) Complete(_ context.Context, messages []llm.Message) (string, error) {
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return "", m.err
	}
	if len(m.calls) > len(m.replies) {
		return "", errors.New("scripted model exhausted")
	}
	return m.replies[len(m.calls)-1], nil
}

type scriptedRunner struct {
	results []dbquery.Result
	errs    []error
	queries []string
}

func (r *scriptedRunner) Execute(_ context.Context, sqlText string) (dbquery.Result, error) {
	index := len(r.queries)
	r.queries = append(r.queries, sqlText)
	if index < len(r.errs) && r.errs[index] != nil {
		return dbquery.Result{}, r.errs[index]
	}
	if index < len(r.results) {
		return r.results[index], nil
	}
	return dbquery.Result{}, nil
}

func countResult(total float64) dbquery.Result {
	return dbquery.Result{
		Columns:  []string{"total"},
		Rows:     []dbquery.Row{{"total": dbquery.Number(total)}},
		RowCount: 1,
	}
}

func TestAnswerHappyPathWithQuery(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Let me look that up.\n[SQL_QUERY]\nSELECT COUNT(*) AS total FROM \"Participant\"\n[/SQL_QUERY]",
		"There are **156 participants** currently enrolled in the program.",
	}}
	runner := &scriptedRunner{results: []dbquery.Result{countResult(156)}}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "How many participants do we have?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !outcome.HasData {
		t.Fatal("HasData = false, want true")
	}
	if outcome.Response != "There are **156 participants** currently enrolled in the program." {
		t.Fatalf("Response = %q", outcome.Response)
	}
	if outcome.Timestamp.IsZero() {
		t.Fatal("Timestamp is zero")
	}
	if len(runner.queries) != 1 {
		t.Fatalf("executed queries = %d", len(runner.queries))
	}
	if runner.queries[0] != `SELECT COUNT(*) AS total FROM "Participant"` {
		t.Fatalf("executed query = %q", runner.queries[0])
	}
	if len(model.calls) != 2 {
		t.Fatalf("model calls = %d", len(model.calls))
	}
	interpretation := model.calls[1][len(model.calls[1])-1]
	if !strings.Contains(interpretation.Content, `"total": 156`) {
		t.Fatalf("interpretation prompt missing row data: %q", interpretation.Content)
	}
}

func TestAnswerNotesTruncatedResults(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"[SQL_QUERY]SELECT \"ParticipantEmail\" FROM \"Participant\"[/SQL_QUERY]",
		"Here are the first participants on file (the list was cut off).",
	}}
	capped := countResult(1)
	capped.Truncated = true
	runner := &scriptedRunner{results: []dbquery.Result{capped}}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "List every participant email")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !outcome.HasData {
		t.Fatal("HasData = false, want true")
	}
	interpretation := model.calls[1][len(model.calls[1])-1]
	if !strings.Contains(interpretation.Content, "results truncated to the first 1 rows") {
		t.Fatalf("interpretation prompt missing truncation note: %q", interpretation.Content)
	}
}

func TestAnswerWithoutQueryBlockIsSingleModelCall(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Ella Rises is a nonprofit that supports young women in STEAM.",
	}}
	runner := &scriptedRunner{}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "What is this program about?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if outcome.HasData {
		t.Fatal("HasData = true, want false")
	}
	if outcome.Response != "Ella Rises is a nonprofit that supports young women in STEAM." {
		t.Fatalf("Response = %q", outcome.Response)
	}
	if len(model.calls) != 1 {
		t.Fatalf("model calls = %d", len(model.calls))
	}
	if len(runner.queries) != 0 {
		t.Fatalf("executed queries = %d", len(runner.queries))
	}
}

func TestAnswerRepairsFailedQueryOnce(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"[SQL_QUERY]SELECT \"Wrong\" FROM \"Participant\"[/SQL_QUERY]",
		"[SQL_QUERY]SELECT COUNT(*) AS total FROM \"Participant\"[/SQL_QUERY]",
		"After correcting the query, there are 156 participants.",
	}}
	runner := &scriptedRunner{
		errs:    []error{errors.New(`database query failed: column "Wrong" does not exist`), nil},
		results: []dbquery.Result{{}, countResult(156)},
	}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "How many participants?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !outcome.HasData {
		t.Fatal("HasData = false, want true")
	}
	if len(runner.queries) != 2 {
		t.Fatalf("executed queries = %d", len(runner.queries))
	}
	if len(model.calls) != 3 {
		t.Fatalf("model calls = %d", len(model.calls))
	}
	repairTurn := model.calls[1][len(model.calls[1])-1]
	if !strings.Contains(repairTurn.Content, `column "Wrong" does not exist`) {
		t.Fatalf("repair prompt missing database error: %q", repairTurn.Content)
	}
	if strings.Contains(outcome.Response, "[SQL_QUERY]") {
		t.Fatalf("response leaks query markers: %q", outcome.Response)
	}
}

func TestAnswerGivesUpAfterSecondFailure(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"[SQL_QUERY]SELECT bad[/SQL_QUERY]",
		"[SQL_QUERY]SELECT still_bad[/SQL_QUERY]",
	}}
	runner := &scriptedRunner{
		errs: []error{errors.New("boom one"), errors.New("boom two")},
	}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if outcome.HasData {
		t.Fatal("HasData = true, want false")
	}
	if outcome.Response != repairExhaustedReply {
		t.Fatalf("Response = %q", outcome.Response)
	}
	if len(runner.queries) != 2 {
		t.Fatalf("executed queries = %d, want exactly 2", len(runner.queries))
	}
	if len(model.calls) != 2 {
		t.Fatalf("model calls = %d", len(model.calls))
	}
}

func TestAnswerHandlesRepairWithoutQueryBlock(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"[SQL_QUERY]SELECT bad[/SQL_QUERY]",
		"I am not sure how to fix that query.",
	}}
	runner := &scriptedRunner{errs: []error{errors.New("boom")}}
	a := New(model, runner, nil, Config{})

	outcome, err := a.Answer(context.Background(), nil, "question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if outcome.HasData {
		t.Fatal("HasData = true, want false")
	}
	if outcome.Response != noRepairCandidateReply {
		t.Fatalf("Response = %q", outcome.Response)
	}
	if len(runner.queries) != 1 {
		t.Fatalf("executed queries = %d", len(runner.queries))
	}
}

func TestAnswerPropagatesModelFailure(t *testing.T) {
	upstream := &llm.UpstreamError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}
	model := &scriptedModel{err: upstream}
	a := New(model, &scriptedRunner{}, nil, Config{})

	_, err := a.Answer(context.Background(), nil, "question")
	if err == nil {
		t.Fatal("Answer() error = nil")
	}
	var got *llm.UpstreamError
	if !errors.As(err, &got) || got.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("error = %v", err)
	}
}

func TestAnswerForwardsHistory(t *testing.T) {
	model := &scriptedModel{replies: []string{"plain answer"}}
	a := New(model, &scriptedRunner{}, nil, Config{})

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}
	if _, err := a.Answer(context.Background(), history, "follow-up"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	prompt := model.calls[0]
	if len(prompt) != 4 {
		t.Fatalf("len(prompt) = %d", len(prompt))
	}
	if prompt[1].Content != "earlier question" || prompt[2].Content != "earlier answer" {
		t.Fatalf("history not forwarded: %#v", prompt[1:3])
	}
}
