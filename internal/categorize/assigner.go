// Package categorize assigns a professional category to a work-log entry.
package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/metrics"
	"github.com/starford/lumina/internal/models"
)

const systemPrompt = "You classify work-log entries. Reply with the category name only, no punctuation, no explanation."

// Assigner asks the AI service for a single category label.
type Assigner struct {
	ai     ai.Completer
	logger *slog.Logger
}

// New creates an Assigner.
func New(c ai.Completer, logger *slog.Logger) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assigner{ai: c, logger: logger}
}

// Assign returns the category for an entry being saved. previous is the
// category currently stored for an edited entry, empty for a new one.
//
// Assign never fails: if the AI call errors or the reply is not exactly one
// known label, it returns previous, or models.CategoryOther when previous is
// empty.
func (a *Assigner) Assign(ctx context.Context, title, content, previous string) string {
	reply, err := a.ai.Complete(ctx, ai.Request{
		Operation: ai.OpClassify,
		System:    systemPrompt,
		Prompt:    buildPrompt(title, content),
	})
	if err != nil {
		return a.fallback(previous, "ai call failed", err.Error())
	}
	label, ok := parseLabel(reply)
	if !ok {
		return a.fallback(previous, "unexpected label", truncate(reply, 80))
	}
	return label
}

func (a *Assigner) fallback(previous, reason, detail string) string {
	metrics.CategoryFallbacks.Inc()
	label := previous
	if label == "" {
		label = models.CategoryOther
	}
	a.logger.Warn("categorize: using fallback",
		slog.String("reason", reason),
		slog.String("detail", detail),
		slog.String("category", label))
	return label
}

func buildPrompt(title, content string) string {
	var b strings.Builder
	b.WriteString("Classify the following work log into exactly ONE of these categories:\n")
	for _, c := range models.Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("Use \"" + models.CategoryOther + "\" if none fits. Return ONLY the category name.\n\n")
	fmt.Fprintf(&b, "Title: %s\nContent: %s\n", title, content)
	return b.String()
}

// parseLabel accepts a single-line reply naming one known category,
// tolerating surrounding whitespace, quotes and a trailing period.
func parseLabel(reply string) (string, bool) {
	s := strings.TrimSpace(reply)
	if s == "" || strings.ContainsAny(s, "\r\n") {
		return "", false
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.Trim(s, "\"'`*")
	return models.MatchCategory(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
