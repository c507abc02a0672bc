package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/orders"
)

// requestTimeout bounds a single provider call. Failure or expiry falls back
// to the keyword strategy, it never propagates to the caller.
const requestTimeout = 5 * time.Second

// labeler issues one text-classification request to an external provider and
// returns its raw textual answer.
type labeler interface {
	label(ctx context.Context, line string) (string, error)
}

// DelegatedClassifier asks an LLM provider for a label constrained to the
// category vocabulary and falls back to keyword matching whenever the
// provider fails, times out, or answers outside the vocabulary.
type DelegatedClassifier struct {
	provider string
	labeler  labeler
	fallback *KeywordClassifier
	timeout  time.Duration
}

// Classify implements Classifier. Total: all provider failures resolve
// through the keyword fallback on the same line.
func (d *DelegatedClassifier) Classify(ctx context.Context, line string) orders.Category {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.labeler.label(reqCtx, line)
	if err != nil {
		reason := FallbackTransport
		if errors.Is(err, context.DeadlineExceeded) {
			reason = FallbackTimeout
		}
		d.fallBack(reason, err)
		return d.fallback.Classify(ctx, line)
	}
	if strings.TrimSpace(raw) == "" {
		d.fallBack(FallbackEmpty, nil)
		return d.fallback.Classify(ctx, line)
	}
	category, ok := matchLabel(raw)
	if !ok {
		d.fallBack(FallbackInvalidLabel, fmt.Errorf("provider answered %q", raw))
		return d.fallback.Classify(ctx, line)
	}
	return category
}

func (d *DelegatedClassifier) fallBack(reason FallbackReason, err error) {
	fields := map[string]interface{}{
		"provider": d.provider,
		"reason":   reason.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.WarnCF("classifier", "Delegated classification failed, using keyword fallback", fields)
}

// classificationPrompt enumerates the vocabulary for the provider, in the
// same Hebrew register the bot speaks.
func classificationPrompt() (system, userPrefix string) {
	labels := make([]string, 0, len(orders.AllCategories()))
	for _, c := range orders.AllCategories() {
		labels = append(labels, string(c))
	}
	system = "אתה עוזר שבוחר קטגוריות רק מתוך הרשימה הנתונה."
	userPrefix = fmt.Sprintf("אנא החזר רק קטגוריה אחת מתוך הרשימה: %s. הטקסט: ", strings.Join(labels, ", "))
	return system, userPrefix
}

var _ Classifier = (*DelegatedClassifier)(nil)
