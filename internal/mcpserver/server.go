// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lumina tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/worklog"
)

// Server wraps the MCP server with Lumina tools.
type Server struct {
	mcp *server.MCPServer
	svc *worklog.Service
}

// New creates a new MCP server with all Lumina tools registered.
func New(svc *worklog.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Lumina",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Dashboard statistics for the entries dated within an inclusive range: "+
			"totals, task completion rate, active days, most productive weekday, daily activity "+
			"and category distribution."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Range start (YYYY-MM-DD)")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Range end (YYYY-MM-DD)")),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Search work-log entries by text, optionally within a date range."),
		mcp.WithString("query", mcp.Description("Search text matched against titles and content")),
		mcp.WithString("start", mcp.Description("Optional range start (YYYY-MM-DD)")),
		mcp.WithString("end", mcp.Description("Optional range end (YYYY-MM-DD)")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("list_summaries",
		mcp.WithDescription("List generated summaries, newest first."),
		mcp.WithString("start", mcp.Description("Keep summaries starting on or after this date")),
		mcp.WithString("end", mcp.Description("Keep summaries ending on or before this date")),
	), s.listSummaries)

	s.mcp.AddTool(mcp.NewTool("read_summary",
		mcp.WithDescription("Read the full Markdown narrative of a summary."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Summary id")),
	), s.readSummary)

	s.mcp.AddTool(mcp.NewTool("generate_summary",
		mcp.WithDescription("Generate and store a new summary of the entries dated within a range. "+
			"Read the lumina://report-format resource for the structure of the result."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Range start (YYYY-MM-DD)")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Range end (YYYY-MM-DD)")),
		mcp.WithString("range_type", mcp.Description("daily, weekly, monthly, quarterly, yearly or custom (default weekly)")),
		mcp.WithString("template_id", mcp.Description("Optional template id from list_templates")),
	), s.generateSummary)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the summary templates."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("get_report_format",
		mcp.WithDescription("Returns the summary structure and the Markdown entry import format."),
	), s.getReportFormat)

	s.mcp.AddTool(mcp.NewTool("import_entries",
		mcp.WithDescription("Import work-log entries from Markdown. Pass either the document in "+
			"content, or a url (http/https or a base64 data: URI) to fetch it from. "+
			"Read get_report_format first for the accepted structure."),
		mcp.WithString("content", mcp.Description("Markdown document")),
		mcp.WithString("url", mcp.Description("Location of the Markdown document")),
	), s.importEntries)

	// Resource: report format.
	s.mcp.AddResource(
		mcp.NewResource(ReportFormatURI, "Report Format",
			mcp.WithResourceDescription("Summary structure and Markdown entry import format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReportFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult turns a service error into a tool error with a short prefix
// naming its kind.
func errorResult(err error) *mcp.CallToolResult {
	kind := "error"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		kind = "invalid request"
	case errors.Is(err, apperr.ErrNotFound):
		kind = "not found"
	case errors.Is(err, apperr.ErrBusy):
		kind = "busy"
	case errors.Is(err, apperr.ErrServiceUnavailable), errors.Is(err, apperr.ErrSchemaMismatch):
		kind = "ai service"
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

func (s *Server) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.Stats(ctx, start, end)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(st)
}

type entryHit struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
	Tasks    string `json:"tasks,omitempty"`
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.ListEntries(ctx, worklog.EntryFilter{
		Query: req.GetString("query", ""),
		Start: req.GetString("start", ""),
		End:   req.GetString("end", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no entries found"), nil
	}
	const maxHits = 50
	if len(entries) > maxHits {
		entries = entries[:maxHits]
	}
	hits := make([]entryHit, len(entries))
	for i, e := range entries {
		hits[i] = entryHit{
			ID:       e.ID,
			Date:     e.Date,
			Title:    e.Title,
			Category: e.Category,
			Content:  e.Content,
		}
		if len(e.Tasks) > 0 {
			hits[i].Tasks = fmt.Sprintf("%d/%d completed", e.CompletedTasks(), len(e.Tasks))
		}
	}
	return jsonResult(hits)
}

type summaryItem struct {
	ID         string           `json:"id"`
	RangeType  models.RangeType `json:"range_type"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
	Keywords   []string         `json:"keywords"`
	TemplateID string           `json:"template_id,omitempty"`
}

func (s *Server) listSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListSummaries(ctx, req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return errorResult(err), nil
	}
	out := make([]summaryItem, len(items))
	for i, it := range items {
		out[i] = summaryItem{
			ID:         it.ID,
			RangeType:  it.RangeType,
			StartDate:  it.StartDate,
			EndDate:    it.EndDate,
			Keywords:   it.Keywords,
			TemplateID: it.TemplateID,
		}
	}
	return jsonResult(out)
}

func (s *Server) readSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetSummary(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(d.RawMarkdown), nil
}

func (s *Server) generateSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.svc.GenerateSummary(ctx, worklog.GenerateRequest{
		RangeType:  models.RangeType(req.GetString("range_type", "")),
		Start:      start,
		End:        end,
		TemplateID: req.GetString("template_id", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(sum)
}

func (s *Server) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListTemplates(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(items)
}

func (s *Server) getReportFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ReportFormat), nil
}

func (s *Server) readReportFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ReportFormatURI,
			MIMEType: "text/markdown",
			Text:     ReportFormat,
		},
	}, nil
}
