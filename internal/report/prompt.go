package report

import (
	"fmt"
	"strings"

	"github.com/starford/lumina/internal/models"
)

const systemPrompt = "Act as a senior professional assistant. You write structured, factual work summaries from work logs."

// DefaultInstructions shape the summary when no template is selected.
const DefaultInstructions = `The summary should include:
1. Core Work Content: High-level overview.
2. Key Accomplishments: Bullet points of major results.
3. Pending/Next Steps: Future tasks.
4. Challenges & Solutions: Any blockers encountered and how they were/can be resolved.
5. Keywords: 5-8 relevant industry/professional tags.`

// OutputContract describes the JSON object the AI service must return.
const OutputContract = `Output the result as a JSON object matching this schema:
{
  "coreContent": "Overview string (summarize core activities based on the instructions)",
  "outcomes": ["result 1", "result 2"],
  "pendingItems": ["task 1", "task 2"],
  "blockers": "Description of blockers",
  "solutions": "Description of solutions",
  "keywords": ["tag1", "tag2"],
  "fullMarkdown": "A complete, well formatted Markdown version of the summary for export"
}
All fields are required.`

// Instructions returns the structural instructions for tmpl, or
// DefaultInstructions when tmpl is nil or has no structure.
func Instructions(tmpl *models.SummaryTemplate) string {
	if tmpl == nil || strings.TrimSpace(tmpl.Structure) == "" {
		return DefaultInstructions
	}
	return "Specific template instructions to follow: " + tmpl.Structure
}

// BuildPrompt renders the user prompt for a synthesis request.
func BuildPrompt(entries []models.Entry, start, end, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following work logs from %s to %s and generate a professional, structured work summary.\n\n", start, end)
	b.WriteString(instructions)
	b.WriteString("\n\nStrictly follow these output requirements:\n")
	b.WriteString(OutputContract)
	b.WriteString("\n\nWork Logs Data:\n")
	b.WriteString(RenderEntries(entries))
	return b.String()
}

// RenderEntries serializes entries as text blocks separated by "---" lines.
func RenderEntries(entries []models.Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		category := e.Category
		if category == "" {
			category = models.CategoryUncategorized
		}
		blocks = append(blocks, fmt.Sprintf("Date: %s\nTitle: %s\nCategory: %s\nContent: %s\nTasks: %s",
			e.Date, e.Title, category, e.Content, renderTasks(e.Tasks)))
	}
	return strings.Join(blocks, "\n---\n")
}

func renderTasks(tasks []models.TaskItem) string {
	parts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", mark, t.Text))
	}
	return strings.Join(parts, ", ")
}
