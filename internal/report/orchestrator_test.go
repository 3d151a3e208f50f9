package report

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/testutil"
)

const validReply = `{
  "coreContent": "Shipped the importer.",
  "outcomes": ["Importer released", "Docs updated"],
  "pendingItems": ["Benchmark"],
  "blockers": "Flaky CI",
  "solutions": "Pinned runner image",
  "keywords": ["go", "importer"],
  "fullMarkdown": "# Weekly report\n\n- Importer released\n"
}`

var fixedNow = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

func sampleEntries() []models.Entry {
	return []models.Entry{
		{ID: "1", Date: "2023-12-31", Title: "Old", Content: "outside"},
		{ID: "2", Date: "2024-01-01", Title: "Importer", Category: models.CategoryEngineering, Content: "Wrote parser",
			Tasks: []models.TaskItem{{Text: "parse", Completed: true}, {Text: "bench"}}},
		{ID: "3", Date: "2024-01-07", Title: "Docs", Content: "Updated docs"},
		{ID: "4", Date: "2024-01-08", Title: "Next week", Content: "outside"},
	}
}

func newOrchestrator(fake ai.Completer) *Orchestrator {
	return New(fake, WithClock(func() time.Time { return fixedNow }), WithIDs(func() string { return "sum-1" }))
}

func TestSynthesize_Success(t *testing.T) {
	fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, validReply, nil)
	tmpl := &models.SummaryTemplate{ID: "tpl-1", Structure: "Focus on growth."}

	s, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
		Entries: sampleEntries(), Start: "2024-01-01", End: "2024-01-07",
		RangeType: models.RangeWeekly, Template: tmpl,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if s.ID != "sum-1" || !s.CreatedAt.Equal(fixedNow) {
		t.Errorf("id/created = %q %v", s.ID, s.CreatedAt)
	}
	if s.StartDate != "2024-01-01" || s.EndDate != "2024-01-07" || s.RangeType != models.RangeWeekly {
		t.Errorf("range = %s..%s %s", s.StartDate, s.EndDate, s.RangeType)
	}
	if !reflect.DeepEqual(s.Outcomes, []string{"Importer released", "Docs updated"}) {
		t.Errorf("outcomes = %v", s.Outcomes)
	}
	if !reflect.DeepEqual(s.PendingItems, []string{"Benchmark"}) {
		t.Errorf("pending = %v", s.PendingItems)
	}
	if !reflect.DeepEqual(s.Keywords, []string{"go", "importer"}) {
		t.Errorf("keywords = %v", s.Keywords)
	}
	if s.RawMarkdown != "# Weekly report\n\n- Importer released\n" {
		t.Errorf("raw markdown = %q", s.RawMarkdown)
	}
	if s.Blockers != "Flaky CI" || s.Solutions != "Pinned runner image" || s.CoreContent != "Shipped the importer." {
		t.Errorf("text fields = %+v", s)
	}
	if s.TemplateID != "tpl-1" {
		t.Errorf("template id = %q", s.TemplateID)
	}
	if fake.Calls(ai.OpSynthesize) != 1 {
		t.Errorf("calls = %d, want exactly 1", fake.Calls(ai.OpSynthesize))
	}
}

func TestSynthesize_PromptContents(t *testing.T) {
	fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, validReply, nil)
	_, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
		Entries: sampleEntries(), Start: "2024-01-01", End: "2024-01-07",
	})
	if err != nil {
		t.Fatal(err)
	}
	req, _ := fake.LastRequest(ai.OpSynthesize)
	if req.Schema != ResponseSchema {
		t.Error("synthesis request must declare the response schema")
	}
	for _, want := range []string{
		"from 2024-01-01 to 2024-01-07",
		"Title: Importer",
		"Category: " + models.CategoryEngineering,
		"Category: " + models.CategoryUncategorized,
		"Tasks: [x] parse, [ ] bench",
		DefaultInstructions,
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, unwanted := range []string{"Title: Old", "Title: Next week"} {
		if strings.Contains(req.Prompt, unwanted) {
			t.Errorf("prompt contains out-of-range entry %q", unwanted)
		}
	}
}

func TestSynthesize_TemplateInstructionsReplaceDefault(t *testing.T) {
	fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, validReply, nil)
	tmpl := &models.SummaryTemplate{ID: "x", Structure: "Reflect on skills learned."}
	if _, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
		Entries: sampleEntries(), Start: "2024-01-01", End: "2024-01-07", Template: tmpl,
	}); err != nil {
		t.Fatal(err)
	}
	req, _ := fake.LastRequest(ai.OpSynthesize)
	if !strings.Contains(req.Prompt, "Reflect on skills learned.") {
		t.Error("template structure not in prompt")
	}
	if strings.Contains(req.Prompt, DefaultInstructions) {
		t.Error("default instructions used despite template")
	}
}

func TestSynthesize_EmptyRangeMakesNoCall(t *testing.T) {
	fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, validReply, nil)
	_, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
		Entries: sampleEntries(), Start: "2025-01-01", End: "2025-01-31",
	})
	if !errors.Is(err, apperr.ErrEmptyRange) {
		t.Fatalf("err = %v, want ErrEmptyRange", err)
	}
	if !errors.Is(err, apperr.ErrValidation) {
		t.Error("empty range should be a validation error")
	}
	if n := fake.Calls(ai.OpSynthesize); n != 0 {
		t.Errorf("AI calls = %d, want 0", n)
	}
}

func TestSynthesize_ServiceFailure(t *testing.T) {
	fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, "", errors.New("timeout"))
	s, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
		Entries: sampleEntries(), Start: "2024-01-01", End: "2024-01-07",
	})
	if s != nil {
		t.Error("no summary expected on failure")
	}
	var synth *apperr.SynthesisError
	if !errors.As(err, &synth) {
		t.Fatalf("err = %v, want *SynthesisError", err)
	}
	if !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
	if fake.Calls(ai.OpSynthesize) != 1 {
		t.Error("failed call must not be retried")
	}
}

func TestSynthesize_SchemaMismatchKeepsRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "Sorry, I cannot help with that."},
		{name: "missing field", raw: `{"coreContent":"x","outcomes":[],"pendingItems":[],"blockers":"","solutions":"","keywords":[]}`},
		{name: "null array", raw: `{"coreContent":"x","outcomes":null,"pendingItems":[],"blockers":"","solutions":"","keywords":[],"fullMarkdown":""}`},
		{name: "null element", raw: `{"coreContent":"x","outcomes":[null,"a"],"pendingItems":[],"blockers":"","solutions":"","keywords":[],"fullMarkdown":""}`},
		{name: "wrong type", raw: `{"coreContent":"x","outcomes":"a","pendingItems":[],"blockers":"","solutions":"","keywords":[],"fullMarkdown":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeCompleter().On(ai.OpSynthesize, tt.raw, nil)
			s, err := newOrchestrator(fake).Synthesize(context.Background(), Request{
				Entries: sampleEntries(), Start: "2024-01-01", End: "2024-01-07",
			})
			if s != nil {
				t.Error("partial summary returned")
			}
			var synth *apperr.SynthesisError
			if !errors.As(err, &synth) {
				t.Fatalf("err = %v, want *SynthesisError", err)
			}
			if !errors.Is(err, apperr.ErrSchemaMismatch) {
				t.Errorf("err = %v, want ErrSchemaMismatch", err)
			}
			if synth.Raw != tt.raw {
				t.Errorf("raw = %q, want %q", synth.Raw, tt.raw)
			}
		})
	}
}

func TestParseResponse_FencedAndEmptyArrays(t *testing.T) {
	raw := "```json\n" + `{"coreContent":"c","outcomes":[],"pendingItems":[],"blockers":"","solutions":"","keywords":[],"fullMarkdown":"md"}` + "\n```"
	resp, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.FullMarkdown != "md" || resp.Outcomes == nil || len(resp.Outcomes) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestParseResponse_NullElement(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"outcomes", `{"coreContent":"c","outcomes":[null,"a"],"pendingItems":[],"blockers":"","solutions":"","keywords":["k"],"fullMarkdown":"md"}`},
		{"pendingItems", `{"coreContent":"c","outcomes":[],"pendingItems":["p",null],"blockers":"","solutions":"","keywords":["k"],"fullMarkdown":"md"}`},
		{"keywords", `{"coreContent":"c","outcomes":["a"],"pendingItems":[],"blockers":"","solutions":"","keywords":[null],"fullMarkdown":"md"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(tt.raw)
			if err == nil {
				t.Fatalf("resp = %+v, want error", resp)
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("err = %v, want it to name %s", err, tt.name)
			}
		})
	}
}

func TestInstructions_BlankTemplateFallsBack(t *testing.T) {
	if got := Instructions(&models.SummaryTemplate{Structure: "   "}); got != DefaultInstructions {
		t.Errorf("blank template instructions = %q", got)
	}
	if got := Instructions(nil); got != DefaultInstructions {
		t.Errorf("nil template instructions = %q", got)
	}
}
