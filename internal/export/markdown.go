package export

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/parser"
)

// CompilationTitle heads a Markdown entry export.
const CompilationTitle = "# Work Log Compilation"

// Markdown writes entries as a single compilation document, newest first.
// The output can be imported again with parser.ParseCompilation.
func Markdown(w io.Writer, entries []models.Entry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", CompilationTitle)
	for _, e := range newestFirst(entries) {
		fmt.Fprintf(bw, "## %s | %s\n\n", e.Date, e.Title)
		fmt.Fprintf(bw, "%s\n\n", e.Content)
		if len(e.Tasks) > 0 {
			fmt.Fprintf(bw, "%s\n", parser.ChecklistHeading)
			for _, t := range e.Tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				fmt.Fprintf(bw, "- [%s] %s\n", mark, t.Text)
			}
			bw.WriteString("\n")
		}
		bw.WriteString("---\n\n")
	}
	return bw.Flush()
}

// SummaryMarkdown writes the summary's rendered narrative verbatim.
func SummaryMarkdown(w io.Writer, s models.Summary) error {
	_, err := io.WriteString(w, s.RawMarkdown)
	return err
}

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, linkify, task lists
	),
)

var page = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// SummaryHTML renders the summary's narrative as a standalone HTML page.
func SummaryHTML(w io.Writer, s models.Summary, title string) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(s.RawMarkdown), &body); err != nil {
		return fmt.Errorf("export: convert markdown: %w", err)
	}
	if title == "" {
		title = fmt.Sprintf("Work summary %s to %s", s.StartDate, s.EndDate)
	}
	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body.String()), //nolint:gosec // goldmark escapes raw HTML by default
	})
}
