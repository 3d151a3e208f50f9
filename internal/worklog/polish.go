package worklog

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
)

const polishSystemPrompt = "You are an editor of professional work logs."

const polishInstructions = `Professionalize and polish the following work log content. Keep a calm and formal tone.
Correct grammar and improve flow while keeping it concise. Answer in the same language as the content.
Return ONLY the polished text, without any preamble.

Content:
`

// Polish rewrites text in a calm, formal register through one AI call. The
// caller's text is never modified; on failure the error is returned and the
// caller keeps its original.
func (s *Service) Polish(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("text to polish is empty")
	}
	out, err := s.ai.Complete(ctx, ai.Request{
		Operation: ai.OpPolish,
		System:    polishSystemPrompt,
		Prompt:    polishInstructions + text,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty polish result", apperr.ErrSchemaMismatch)
	}
	return out, nil
}
