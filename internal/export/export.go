// Package export renders work-log entries and summaries into downloadable
// documents: Markdown, CSV and XLSX for entries, Markdown and HTML for
// summaries.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/starford/lumina/internal/models"
)

// Format is an entry export format.
type Format string

// Supported entry export formats.
const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat maps a user supplied format name to a Format. The empty string
// selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Entries writes entries to w in format f.
func Entries(w io.Writer, f Format, entries []models.Entry) error {
	switch f {
	case FormatCSV:
		return CSV(w, entries)
	case FormatXLSX:
		return XLSX(w, entries)
	case FormatMarkdown:
		return Markdown(w, entries)
	default:
		return fmt.Errorf("export: unknown format %q", f)
	}
}

// EntriesFilename is the download name for an entry export made at now.
func EntriesFilename(f Format, now time.Time) string {
	return fmt.Sprintf("work-logs-%s.%s", now.Format(models.DateLayout), f)
}

// SummaryFilename is the download name for a summary export with extension ext.
func SummaryFilename(s models.Summary, ext string) string {
	return fmt.Sprintf("summary-%s_%s.%s", s.StartDate, s.EndDate, ext)
}

// newestFirst returns a copy of entries ordered by date descending. Entries
// sharing a date keep their relative order.
func newestFirst(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// row is the tabular rendering shared by CSV and XLSX.
func row(e models.Entry) []string {
	texts := make([]string, 0, len(e.Tasks))
	for _, t := range e.Tasks {
		texts = append(texts, t.Text)
	}
	return []string{
		e.Date,
		e.Title,
		strings.ReplaceAll(e.Content, "\n", " "),
		strings.Join(texts, "; "),
		fmt.Sprintf("%d/%d", e.CompletedTasks(), len(e.Tasks)),
	}
}

var header = []string{"Date", "Title", "Content", "Tasks", "Completed"}
