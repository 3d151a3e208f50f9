package models

// NoDataDay is reported as the most productive day when no entry is in range.
const NoDataDay = "-"

// DashboardStats is derived from entries in a range; never persisted.
type DashboardStats struct {
	TotalLogs            int             `json:"total_logs"`
	TotalTasks           int             `json:"total_tasks"`
	CompletedTasks       int             `json:"completed_tasks"`
	CompletionRate       int             `json:"completion_rate"`
	ActiveDays           int             `json:"active_days"`
	MostProductiveDay    string          `json:"most_productive_day"`
	DailyActivity        []DailyActivity `json:"daily_activity"`
	CategoryDistribution []CategoryShare `json:"category_distribution"`
}

// DailyActivity counts entries and tasks for one date.
type DailyActivity struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	TaskCount int    `json:"task_count"`
}

// CategoryShare is one slice of the category distribution.
type CategoryShare struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}
