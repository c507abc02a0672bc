package session

import "strings"

// Command tags the leading token of an inbound text. Parsing once into a
// closed set keeps the per-command authorization rules in one exhaustive
// switch instead of scattered prefix checks.
type Command int

const (
	// CommandNone marks ordinary text with no leading slash.
	CommandNone Command = iota
	// CommandStart opens (or re-arms) an ordering session.
	CommandStart
	// CommandSummary requests the aggregated summary. Coordinator only.
	CommandSummary
	// CommandReset clears the ledger and ends the session. Coordinator only.
	CommandReset
	// CommandUnknown is any other slash-leading text, ignored entirely.
	CommandUnknown
)

// Matching is case-sensitive prefix matching at string start, so Telegram
// forms like "/start@TiraBot" resolve to their command.
const (
	startPrefix   = "/start"
	summaryPrefix = "/summary"
	resetPrefix   = "/reset"
)

// ParseCommand tags a full inbound text.
func ParseCommand(text string) Command {
	if !strings.HasPrefix(text, "/") {
		return CommandNone
	}
	switch {
	case strings.HasPrefix(text, startPrefix):
		return CommandStart
	case strings.HasPrefix(text, summaryPrefix):
		return CommandSummary
	case strings.HasPrefix(text, resetPrefix):
		return CommandReset
	default:
		return CommandUnknown
	}
}

// isCommandLine reports whether a single line inside ordinary text is
// command-like and must be skipped rather than classified.
func isCommandLine(line string) bool {
	return strings.HasPrefix(line, "/")
}
