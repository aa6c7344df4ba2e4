package assistant

import "strings"

// Wire format between the model and the orchestrator: a query the model
// wants executed appears wrapped exactly in these markers, with no
// trailing semicolon inside. The system prompt and this parser must
// agree on the markers.
const (
	queryOpenMarker  = "[SQL_QUERY]"
	queryCloseMarker = "[/SQL_QUERY]"
)

// extractQuery locates the first delimiter-marked block in the model's
// response. It returns the trimmed block body and true, or "" and false
// when no usable block exists: no opening marker, an unterminated
// block, or a nested opener inside the block.
func extractQuery(text string) (string, bool) {
	open := strings.Index(text, queryOpenMarker)
	if open < 0 {
		return "", false
	}
	rest := text[open+len(queryOpenMarker):]

	closing := strings.Index(rest, queryCloseMarker)
	if closing < 0 {
		return "", false
	}
	body := rest[:closing]
	if strings.Contains(body, queryOpenMarker) {
		return "", false
	}

	query := strings.TrimSpace(body)
	if query == "" {
		return "", false
	}
	return query, true
}

// stripQueryBlocks removes every delimiter-marked block (and any stray
// unpaired markers) from text. The user must never see raw query
// syntax in a final answer.
func stripQueryBlocks(text string) string {
	for {
		open := strings.Index(text, queryOpenMarker)
		if open < 0 {
			break
		}
		rest := text[open+len(queryOpenMarker):]
		closing := strings.Index(rest, queryCloseMarker)
		if closing < 0 {
			text = text[:open] + rest
			continue
		}
		text = text[:open] + rest[closing+len(queryCloseMarker):]
	}
	text = strings.ReplaceAll(text, queryCloseMarker, "")
	return strings.TrimSpace(text)
}
