// Package parser turns Markdown documents into work-log entry drafts.
//
// Two shapes are understood: a single entry with YAML front matter, and the
// compilation produced by the Markdown exporter ("## date | title" sections).
package parser

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	taskRe    = regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]\s+(.*)$`)
	tagRe     = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	sectionRe = regexp.MustCompile(`^##\s+(\d{4}-\d{2}-\d{2})\s+\|\s+(.*)$`)
)

// ChecklistHeading introduces the task list of a section in exported documents.
const ChecklistHeading = "### Checklist"

// Task is a parsed checklist line.
type Task struct {
	Text      string
	Completed bool
}

// Result holds one parsed entry draft.
type Result struct {
	Frontmatter map[string]interface{}
	Date        string
	Title       string
	Category    string
	Tags        []string
	Content     string
	Tasks       []Task
}

// Parse extracts a single entry from Markdown with optional front matter.
// Checklist lines become tasks and are removed from the content.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	content, tasks := extractTasks(body)
	res := &Result{
		Frontmatter: fm,
		Date:        stringField(fm, "date"),
		Title:       deriveTitle(fm, content),
		Category:    stringField(fm, "category"),
		Tags:        extractTags(content, fm),
		Content:     strings.TrimSpace(content),
		Tasks:       tasks,
	}
	return res, nil
}

// ParseCompilation splits an exported compilation into entries. It returns
// nil when data contains no "## date | title" section.
func ParseCompilation(data []byte) []*Result {
	var (
		out     []*Result
		current *Result
		body    []string
	)
	flush := func() {
		if current == nil {
			return
		}
		text := strings.Join(body, "\n")
		text = strings.TrimSpace(text)
		text = strings.TrimSuffix(text, "---")
		text = strings.Replace(text, ChecklistHeading, "", 1)
		content, tasks := extractTasks(text)
		current.Content = strings.TrimSpace(content)
		current.Tasks = tasks
		current.Tags = extractTags(current.Content, nil)
		out = append(out, current)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if m := sectionRe.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			flush()
			current = &Result{Date: m[1], Title: strings.TrimSpace(m[2])}
			body = body[:0]
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return out
}

// splitFrontmatter separates YAML front matter (between leading --- delimiters)
// from the Markdown body. If no front matter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: treat whole content as body.
		return nil, string(data), nil
	}
	return fm, body, nil
}

// extractTasks removes checklist lines from body and returns them as tasks.
func extractTasks(body string) (string, []Task) {
	var (
		kept  []string
		tasks []Task
	)
	for _, line := range strings.Split(body, "\n") {
		if m := taskRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			if text != "" {
				tasks = append(tasks, Task{Text: text, Completed: m[1] != " "})
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), tasks
}

// extractTags collects tags from the front matter "tags" list and inline #tags.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	if fm != nil {
		if v, ok := fm["tags"].([]interface{}); ok {
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the front matter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if t := stringField(fm, "title"); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// stringField reads a scalar front matter value. YAML dates decode as
// time.Time and are formatted back to YYYY-MM-DD.
func stringField(fm map[string]interface{}, key string) string {
	switch v := fm[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return ""
	}
}
