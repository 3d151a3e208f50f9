package models

import "time"

// RangeType labels the period a summary covers. Informational only.
type RangeType string

const (
	RangeDaily     RangeType = "daily"
	RangeWeekly    RangeType = "weekly"
	RangeMonthly   RangeType = "monthly"
	RangeQuarterly RangeType = "quarterly"
	RangeYearly    RangeType = "yearly"
	RangeCustom    RangeType = "custom"
)

// RangeTypes lists the accepted RangeType values.
var RangeTypes = []RangeType{RangeDaily, RangeWeekly, RangeMonthly, RangeQuarterly, RangeYearly, RangeCustom}

// Valid reports whether r is one of RangeTypes.
func (r RangeType) Valid() bool {
	for _, v := range RangeTypes {
		if r == v {
			return true
		}
	}
	return false
}

// SummaryTemplate holds reusable structural instructions for report synthesis.
type SummaryTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Structure   string `json:"structure"`
	IsDefault   bool   `json:"is_default"`
}

// Summary is the immutable output of one report synthesis.
// TemplateID is a plain lookup key; the template may no longer exist.
type Summary struct {
	ID           string    `json:"id"`
	RangeType    RangeType `json:"range_type"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	CoreContent  string    `json:"core_content"`
	Outcomes     []string  `json:"outcomes"`
	PendingItems []string  `json:"pending_items"`
	Blockers     string    `json:"blockers"`
	Solutions    string    `json:"solutions"`
	Keywords     []string  `json:"keywords"`
	RawMarkdown  string    `json:"raw_markdown"`
	TemplateID   string    `json:"template_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Settings holds the user's display preferences.
type Settings struct {
	SiteTitle  string `json:"site_title"`
	SiteLogo   string `json:"site_logo"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar"`
}

// DefaultSettings is returned when no settings were ever saved.
func DefaultSettings() Settings {
	return Settings{
		SiteTitle:  "Work Log",
		UserName:   "me",
		UserAvatar: "https://picsum.photos/32/32",
	}
}

// DefaultTemplates are seeded into the template collection on first load.
func DefaultTemplates() []SummaryTemplate {
	return []SummaryTemplate{
		{
			ID:          "default-pro",
			Name:        "Standard workplace report",
			Description: "Formal daily or weekly report covering results and open items.",
			Structure: "Distill the core work content, completed items, results, pending items, " +
				"progress, problems encountered and how they were approached. Keep it professional and concise.",
			IsDefault: true,
		},
		{
			ID:          "creative-growth",
			Name:        "Personal growth retrospective",
			Description: "Focuses on lessons learned, skills gained and experience.",
			Structure: "Beyond work output, reflect on new skills learned, shifts in thinking, " +
				"and thoughts about future development.",
			IsDefault: true,
		},
	}
}
