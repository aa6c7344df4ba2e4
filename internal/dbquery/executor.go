// Package dbquery runs validated read-only SQL against the portal
// database and returns typed rows.
package dbquery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/impactdesk/impactdesk/internal/sqlguard"
)

// Row maps column names to tagged scalar values. Column order lives in
// Result.Columns; map iteration order is not meaningful.
type Row map[string]Value

type Result struct {
	Columns  []string
	Rows     []Row
	RowCount int
	// Truncated reports that the result set had more rows than the
	// executor's cap and the remainder was not read.
	Truncated bool
}

// ExecError wraps a database-level rejection of an otherwise valid
// query (unknown column, type mismatch, bad syntax past the guard).
// Only the driver's message text leaks out, never driver internals.
type ExecError struct {
	Message string
}

func (e *ExecError) Error() string {
	return "database query failed: " + e.Message
}

type ExecutorConfig struct {
	// QueryTimeout bounds a single query. Zero falls back to 15s.
	QueryTimeout time.Duration
	// MaxRows caps the rows read from a result set. Zero falls back
	// to 500. The cap keeps a runaway aggregate from flooding the
	// model prompt downstream.
	MaxRows int
}

// Executor runs read-only queries. It never retries; recovery from a
// failed query is the caller's decision.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	maxRows int
}

func NewExecutor(db *sql.DB, cfg ExecutorConfig) *Executor {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}
	return &Executor{db: db, timeout: timeout, maxRows: maxRows}
}

// Execute re-validates sqlText and runs it as a single read query. A
// query handed in from elsewhere is never trusted without revalidation.
// Database failures come back as *ExecError; validation failures as
// *sqlguard.Violation.
func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	if err := sqlguard.Validate(sqlText); err != nil {
		return Result{}, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(queryCtx, sqlText)
	if err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}

	result := Result{Columns: columns, Rows: make([]Row, 0)}
	for rows.Next() {
		if len(result.Rows) >= e.maxRows {
			result.Truncated = true
			break
		}
		cells := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range cells {
			targets[i] = &cells[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return Result{}, &ExecError{Message: fmt.Sprintf("scan row: %v", err)}
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = fromDriver(cells[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, &ExecError{Message: err.Error()}
	}

	result.RowCount = len(result.Rows)
	return result, nil
}
