package classifier

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
)

// Rule binds a category to the keywords that select it. Rules are evaluated
// in order and the first hit wins, so specific merchant rules must come
// before the grocery catch-all.
type Rule struct {
	Category orders.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// DefaultRules returns the built-in keyword rules. The grocery rule is
// deliberately last: its staples (milk, eggs, flour) show up inside longer
// requests that a more specific rule should claim first.
func DefaultRules() []Rule {
	return []Rule{
		{Category: orders.CategoryHummus, Keywords: []string{
			"חומוס", "פול", "מסבחה",
		}},
		{Category: orders.CategoryShawarma, Keywords: []string{
			"שווארמה", "שוארמה", "לאפה",
		}},
		{Category: orders.CategoryBakery, Keywords: []string{
			"לחם", "חלה", "מאפה", "פיתה", "פיתות", "לחמניות", "בורקס", "קרואסון",
		}},
		{Category: orders.CategoryMeat, Keywords: []string{
			"בשר", "עוף", "סטייק", "קבב", "נקניק", "שניצל", "כנפיים", "הודו", "טחון",
		}},
		{Category: orders.CategoryFish, Keywords: []string{
			"דג", "דגים", "סלמון", "טונה", "אמנון", "דניס", "בורי",
		}},
		{Category: orders.CategoryNursery, Keywords: []string{
			"עציץ", "פרח", "פרחים", "שתיל", "אדמה", "צמח", "דשן",
		}},
		{Category: orders.CategoryGreengrocer, Keywords: []string{
			"ירקות", "פירות", "עגבניות", "מלפפון", "תפוחים", "בננה", "אבוקדו", "בצל", "פלפל", "חסה",
		}},
		{Category: orders.CategoryGrocery, Keywords: []string{
			"חלב", "ביצים", "גבינה", "סוכר", "קמח", "שמן", "אורז", "מלח", "קפה", "תה",
		}},
	}
}

// LoadRules reads a rule file (ordered list of category/keywords entries)
// and validates every category against the vocabulary. The file replaces the
// built-in rules wholesale.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}
	for i, r := range rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
	}
	return rules, nil
}

// ---------------------------------------------------------------------------
// Keyword strategy
// ---------------------------------------------------------------------------

// KeywordClassifier is the deterministic strategy: ordered substring rules
// over a normalized copy of the line, with a catch-all default.
type KeywordClassifier struct {
	rules []Rule
}

// NewKeywordClassifier creates a keyword classifier. A nil or empty rule set
// selects the built-in rules.
func NewKeywordClassifier(rules []Rule) *KeywordClassifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &KeywordClassifier{rules: rules}
}

// Classify returns the category of the first rule whose keyword set
// intersects the normalized line, or the default catch-all category.
func (k *KeywordClassifier) Classify(_ context.Context, line string) orders.Category {
	text := normalize(line)
	for _, rule := range k.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return rule.Category
			}
		}
	}
	return orders.DefaultCategory
}

var _ Classifier = (*KeywordClassifier)(nil)
