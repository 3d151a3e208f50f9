package models

import "strings"

// Closed set of professional categories an entry can be classified into.
const (
	CategoryEngineering     = "Engineering"
	CategoryMeetings        = "Meetings & Communication"
	CategoryProjectMgmt     = "Project Management"
	CategoryAdministration  = "Administration"
	CategoryCustomerSupport = "Customer Support"
	CategoryLearning        = "Learning & Growth"
	CategoryMarketing       = "Marketing"

	// CategoryOther is the catch-all label and the fallback for new entries.
	CategoryOther = "Other Matters"

	// CategoryUncategorized labels entries without a category in aggregates.
	CategoryUncategorized = "Uncategorized"
)

// Categories lists every label the classifier may return, catch-all last.
var Categories = []string{
	CategoryEngineering,
	CategoryMeetings,
	CategoryProjectMgmt,
	CategoryAdministration,
	CategoryCustomerSupport,
	CategoryLearning,
	CategoryMarketing,
	CategoryOther,
}

// MatchCategory maps a free-form label onto the closed set, ignoring case and
// surrounding whitespace. ok is false when label is not a known category.
func MatchCategory(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, c := range Categories {
		if strings.EqualFold(label, c) {
			return c, true
		}
	}
	return "", false
}
