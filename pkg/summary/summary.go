// Package summary renders the per-category order summary and splits it into
// transport-safe chunks.
package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
)

// NoOrders is the sentinel returned for an empty ledger instead of an empty
// aggregation.
const NoOrders = "אין הזמנות כרגע"

// DefaultChunkSize is a conservative ceiling safely below Telegram's 4096
// character message limit.
const DefaultChunkSize = 3500

// Build renders the grouped records as text. Categories appear in their
// fixed declared order, not insertion order; empty categories are omitted;
// sections are separated by a blank line. Within a section every record gets
// one "- name: text" line in append order.
func Build(groups map[orders.Category][]orders.OrderRecord) string {
	var sections []string
	for _, category := range orders.AllCategories() {
		records := groups[category]
		if len(records) == 0 {
			continue
		}
		var sb strings.Builder
		sb.WriteString(category.String())
		sb.WriteString(":")
		for _, rec := range records {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", rec.SenderName, rec.Text))
		}
		sections = append(sections, sb.String())
	}
	if len(sections) == 0 {
		return NoOrders
	}
	return strings.Join(sections, "\n\n")
}

// Chunk splits s into contiguous pieces of at most max bytes whose
// concatenation reconstructs s exactly. Pieces break on rune boundaries so
// multi-byte text survives transport, unless max is smaller than a single
// rune. max <= 0 means no splitting.
func Chunk(s string, max int) []string {
	if max <= 0 || len(s) <= max {
		return []string{s}
	}
	var chunks []string
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	if len(s) > 0 {
		chunks = append(chunks, s)
	}
	return chunks
}
