// Package orders defines the order-taking domain: the fixed category
// vocabulary, the immutable order record, and the per-session ledger.
package orders

// ---------------------------------------------------------------------------
// Category value object
// ---------------------------------------------------------------------------

// Category is one label from the fixed closed vocabulary. The declaration
// order below is the summary display order.
type Category string

const (
	CategoryHummus      Category = "חומוס"
	CategoryShawarma    Category = "שווארמה"
	CategoryBakery      Category = "מאפיה"
	CategoryGrocery     Category = "מכולת"
	CategoryMeat        Category = "בשר"
	CategoryFish        Category = "דגים"
	CategoryNursery     Category = "משתלה"
	CategoryGreengrocer Category = "ירקניה"
)

// DefaultCategory is the catch-all assigned when nothing else matches.
const DefaultCategory = CategoryGrocery

// AllCategories returns the vocabulary in display order.
func AllCategories() []Category {
	return []Category{
		CategoryHummus, CategoryShawarma, CategoryBakery, CategoryGrocery,
		CategoryMeat, CategoryFish, CategoryNursery, CategoryGreengrocer,
	}
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Valid returns true if the category is part of the vocabulary.
func (c Category) Valid() bool {
	for _, v := range AllCategories() {
		if v == c {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// OrderRecord value object
// ---------------------------------------------------------------------------

// OrderRecord is a single classified order line. Immutable once appended;
// records only ever leave the ledger through a whole-ledger clear.
type OrderRecord struct {
	SenderID   string   `json:"sender_id"`
	SenderName string   `json:"sender_name"`
	Text       string   `json:"text"`
	Category   Category `json:"category"`
	MessageID  string   `json:"message_id"`
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

// Ledger is the ordered collection of order records for the current session
// generation. It is not internally synchronized: the session controller's
// mutex is the single mutual-exclusion domain covering session state and
// ledger together.
type Ledger struct {
	records []OrderRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: make([]OrderRecord, 0)}
}

// Append adds a record at the end of the ledger.
func (l *Ledger) Append(rec OrderRecord) {
	l.records = append(l.records, rec)
}

// Clear removes all records. This is the only way records are destroyed.
func (l *Ledger) Clear() {
	l.records = l.records[:0]
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Records returns a copy of all records in append order.
func (l *Ledger) Records() []OrderRecord {
	out := make([]OrderRecord, len(l.records))
	copy(out, l.records)
	return out
}

// GroupByCategory returns the records grouped by category, append order
// preserved within each group. Categories with no records have no key.
func (l *Ledger) GroupByCategory() map[Category][]OrderRecord {
	groups := make(map[Category][]OrderRecord)
	for _, rec := range l.records {
		groups[rec.Category] = append(groups[rec.Category], rec)
	}
	return groups
}
