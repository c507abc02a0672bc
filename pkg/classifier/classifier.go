// Package classifier maps free-text order lines onto the fixed category
// vocabulary. Two interchangeable strategies exist: deterministic keyword
// matching, and delegation to an LLM provider with a keyword fallback.
// Classification is total — every line gets a valid category, always.
package classifier

import (
	"context"
	"strings"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
)

// Classifier assigns exactly one category to a line of text. Implementations
// never fail visibly; any internal error resolves to a valid category.
type Classifier interface {
	Classify(ctx context.Context, line string) orders.Category
}

// ---------------------------------------------------------------------------
// Fallback reasons — why a delegated classification fell back to keywords
// ---------------------------------------------------------------------------

// FallbackReason enumerates the distinct ways a delegated classification can
// fail. Logged, never surfaced to users.
type FallbackReason string

const (
	FallbackTimeout      FallbackReason = "timeout"
	FallbackTransport    FallbackReason = "transport_error"
	FallbackInvalidLabel FallbackReason = "label_not_in_vocabulary"
	FallbackEmpty        FallbackReason = "empty_response"
)

func (r FallbackReason) String() string { return string(r) }

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// normalize prepares a line for keyword matching: trimmed, lower-cased,
// newlines collapsed to single spaces.
func normalize(line string) string {
	s := strings.ReplaceAll(line, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// matchLabel validates a raw provider response against the vocabulary.
// It accepts the response if it exactly equals a vocabulary entry, or if it
// contains exactly one vocabulary entry as a substring. Anything else is
// rejected and the caller falls back to keywords.
func matchLabel(raw string) (orders.Category, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if c := orders.Category(trimmed); c.Valid() {
		return c, true
	}
	var found orders.Category
	count := 0
	for _, c := range orders.AllCategories() {
		if strings.Contains(trimmed, string(c)) {
			found = c
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return "", false
}
