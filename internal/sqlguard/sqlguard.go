// Package sqlguard decides whether a piece of SQL text is safe to run
// against the portal database. Safe means: a single read-only statement
// starting with SELECT or WITH, free of data- and schema-mutating
// keywords. The deny list below and the query rules embedded in the
// assistant's system prompt describe the same contract and must be
// changed together.
package sqlguard

import (
	"errors"
	"regexp"
	"strings"
)

// Violation describes why a piece of SQL was rejected. It is the only
// error type Validate returns; malformed input is an expected rejection,
// never a panic.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return "query validation failed: " + v.Reason
}

var denyKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE",
	"TRUNCATE", "REPLACE", "MERGE", "GRANT", "REVOKE",
	"EXEC", "EXECUTE", "CALL", "PROCEDURE",
}

var (
	lineCommentPattern  = regexp.MustCompile(`--[^\n]*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	denyPatterns        = buildDenyPatterns()
)

func buildDenyPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(denyKeywords))
	for _, keyword := range denyKeywords {
		patterns[keyword] = regexp.MustCompile(`\b` + keyword + `\b`)
	}
	return patterns
}

// Validate reports whether sqlText is a single read-only statement.
// It returns nil for valid input and a *Violation otherwise. All checks
// run on uppercased copies; callers execute the original text unchanged.
func Validate(sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return &Violation{Reason: "invalid format"}
	}

	// The deny scan runs on the raw text so a mutation keyword smuggled
	// inside a comment is still caught.
	upper := strings.ToUpper(sqlText)
	for _, keyword := range denyKeywords {
		if denyPatterns[keyword].MatchString(upper) {
			return &Violation{Reason: "forbidden keyword: " + keyword}
		}
	}

	cleaned := lineCommentPattern.ReplaceAllString(upper, "")
	cleaned = blockCommentPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return &Violation{Reason: "invalid format"}
	}

	// One trailing terminator is tolerated; any other terminator means
	// statement stacking.
	body := strings.TrimRight(cleaned, " \t\r\n")
	body = strings.TrimSuffix(body, ";")
	if strings.Contains(body, ";") {
		return &Violation{Reason: "multiple statements not allowed"}
	}

	if !strings.HasPrefix(cleaned, "SELECT") && !strings.HasPrefix(cleaned, "WITH") {
		return &Violation{Reason: "must start with SELECT or WITH"}
	}

	return nil
}

// IsViolation reports whether err is a validation rejection, as opposed
// to an execution failure or infrastructure error.
func IsViolation(err error) bool {
	var violation *Violation
	return errors.As(err, &violation)
}
