package api

import (
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/worklog"
)

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Date    string            `json:"date" example:"2024-03-04" validate:"required"`
	Title   string            `json:"title" example:"Release prep" validate:"required"`
	Content string            `json:"content" example:"Cut the release branch." validate:"required"`
	Tasks   []models.TaskItem `json:"tasks"`
	Tags    []string          `json:"tags" example:"release"`
}

// Entry is the entry response type (aliased from the domain layer).
type Entry = models.Entry

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []Entry `json:"entries" validate:"required"`
	Total   int     `json:"total" example:"42" validate:"required"`
}

// DeleteEntriesRequest is the request body for a batch delete.
type DeleteEntriesRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// DeleteEntriesResponse reports how many entries were removed.
type DeleteEntriesResponse struct {
	Deleted int `json:"deleted" example:"2" validate:"required"`
}

// ImportRequest is the JSON form of a Markdown import.
type ImportRequest struct {
	Content string `json:"content" example:"---\ndate: 2024-03-04\n---\n# Title\nBody" validate:"required"`
}

// ImportResponse lists the entries created by an import.
type ImportResponse struct {
	Entries []Entry `json:"entries" validate:"required"`
}

// PolishRequest is the request body for text polishing.
type PolishRequest struct {
	Text string `json:"text" example:"fixed bug, deployed" validate:"required"`
}

// PolishResponse carries the polished text.
type PolishResponse struct {
	Text string `json:"text" example:"Fixed the defect and deployed the change." validate:"required"`
}

// GenerateSummaryRequest is the request body for summary generation.
type GenerateSummaryRequest = worklog.GenerateRequest

// Summary is the stored summary (aliased from the domain layer).
type Summary = models.Summary

// SummaryDetail is a summary with its template name resolved.
type SummaryDetail = worklog.SummaryDetail

// SummaryListResponse wraps summary listings.
type SummaryListResponse struct {
	Summaries []Summary `json:"summaries" validate:"required"`
}

// TemplateRequest is the request body for creating or updating a template.
type TemplateRequest struct {
	Name        string `json:"name" example:"Sprint review" validate:"required"`
	Description string `json:"description" example:"Two-week sprint recap"`
	Structure   string `json:"structure" example:"1. Goals\n2. Delivered\n3. Carry-over" validate:"required"`
}

// Template is a summary template (aliased from the domain layer).
type Template = models.SummaryTemplate

// TemplateListResponse wraps template listings.
type TemplateListResponse struct {
	Templates []Template `json:"templates" validate:"required"`
}

// Settings is the user's display preferences (aliased from the domain layer).
type Settings = models.Settings

// DashboardStats is the stats response (aliased from the domain layer).
type DashboardStats = models.DashboardStats
