package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/lumina/internal/ai"
)

// ResponseSchema is declared to the AI service for synthesis calls.
var ResponseSchema = &ai.Schema{
	Name: "work_summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"coreContent":  map[string]any{"type": "string"},
			"outcomes":     stringArray,
			"pendingItems": stringArray,
			"blockers":     map[string]any{"type": "string"},
			"solutions":    map[string]any{"type": "string"},
			"keywords":     stringArray,
			"fullMarkdown": map[string]any{"type": "string"},
		},
		"required":             requiredFields,
		"additionalProperties": false,
	},
}

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

var requiredFields = []string{"coreContent", "outcomes", "pendingItems", "blockers", "solutions", "keywords", "fullMarkdown"}

// Response is a validated synthesis reply.
type Response struct {
	CoreContent  string
	Outcomes     []string
	PendingItems []string
	Blockers     string
	Solutions    string
	Keywords     []string
	FullMarkdown string
}

// wireResponse uses pointers so missing and null fields can be told apart
// from empty ones.
type wireResponse struct {
	CoreContent  *string    `json:"coreContent"`
	Outcomes     *[]*string `json:"outcomes"`
	PendingItems *[]*string `json:"pendingItems"`
	Blockers     *string    `json:"blockers"`
	Solutions    *string    `json:"solutions"`
	Keywords     *[]*string `json:"keywords"`
	FullMarkdown *string    `json:"fullMarkdown"`
}

// ParseResponse decodes raw and checks that every required field is present.
// A single Markdown code fence around the object is tolerated.
func ParseResponse(raw string) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal([]byte(stripFence(raw)), &w); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("coreContent", w.CoreContent != nil)
	check("outcomes", w.Outcomes != nil)
	check("pendingItems", w.PendingItems != nil)
	check("blockers", w.Blockers != nil)
	check("solutions", w.Solutions != nil)
	check("keywords", w.Keywords != nil)
	check("fullMarkdown", w.FullMarkdown != nil)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	outcomes, err := stringsOf("outcomes", *w.Outcomes)
	if err != nil {
		return nil, err
	}
	pending, err := stringsOf("pendingItems", *w.PendingItems)
	if err != nil {
		return nil, err
	}
	keywords, err := stringsOf("keywords", *w.Keywords)
	if err != nil {
		return nil, err
	}

	return &Response{
		CoreContent:  *w.CoreContent,
		Outcomes:     outcomes,
		PendingItems: pending,
		Blockers:     *w.Blockers,
		Solutions:    *w.Solutions,
		Keywords:     keywords,
		FullMarkdown: *w.FullMarkdown,
	}, nil
}

// stringsOf rejects null elements, which the schema does not allow.
func stringsOf(field string, in []*string) ([]string, error) {
	out := make([]string, 0, len(in))
	for i, p := range in {
		if p == nil {
			return nil, fmt.Errorf("%s[%d]: null element", field, i)
		}
		out = append(out, *p)
	}
	return out, nil
}

func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(t[3:], "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(t[:i]), "{") {
		t = t[i+1:] // language tag line
	}
	return t
}
