// Package models defines the domain types for Lumina.
package models

import "time"

// DateLayout is the calendar-date format of Entry.Date and every range bound.
// Zero-padded so that string order equals chronological order.
const DateLayout = "2006-01-02"

// Entry is one dated work-log record.
type Entry struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tasks     []TaskItem `json:"tasks"`
	Tags      []string   `json:"tags"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskItem is a checklist item owned by its Entry.
type TaskItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// CompletedTasks returns the number of completed tasks in e.
func (e Entry) CompletedTasks() int {
	n := 0
	for _, t := range e.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// InRange reports whether date lies within [start, end], inclusive at both
// bounds, using string comparison.
func InRange(date, start, end string) bool {
	return date >= start && date <= end
}

// FilterRange returns the entries dated within [start, end] in their original order.
func FilterRange(entries []Entry, start, end string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if InRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}
