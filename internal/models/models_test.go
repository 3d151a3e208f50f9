package models

import "testing"

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Engineering", CategoryEngineering, true},
		{"  meetings & communication \n", CategoryMeetings, true},
		{"OTHER MATTERS", CategoryOther, true},
		{"Uncategorized", "", false},
		{"Engineering.", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchCategory(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRangeTypeValid(t *testing.T) {
	for _, r := range RangeTypes {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if RangeType("fortnightly").Valid() || RangeType("").Valid() {
		t.Error("unknown range type accepted")
	}
}

func TestFilterRange(t *testing.T) {
	entries := []Entry{
		{ID: "a", Date: "2024-02-29"},
		{ID: "b", Date: "2024-03-01"},
		{ID: "c", Date: "2024-03-31"},
		{ID: "d", Date: "2024-04-01"},
	}
	got := FilterRange(entries, "2024-03-01", "2024-03-31")
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("FilterRange = %+v, want b and c (inclusive bounds)", got)
	}
	if got := FilterRange(entries, "2024-05-01", "2024-05-31"); len(got) != 0 {
		t.Errorf("empty range returned %d entries", len(got))
	}
}

func TestCompletedTasks(t *testing.T) {
	e := Entry{Tasks: []TaskItem{{Completed: true}, {}, {Completed: true}}}
	if got := e.CompletedTasks(); got != 2 {
		t.Errorf("CompletedTasks = %d, want 2", got)
	}
}

func TestDefaultTemplates(t *testing.T) {
	tpls := DefaultTemplates()
	if len(tpls) != 2 {
		t.Fatalf("default templates = %d, want 2", len(tpls))
	}
	seen := map[string]bool{}
	for _, tpl := range tpls {
		if tpl.ID == "" || tpl.Name == "" || tpl.Structure == "" || !tpl.IsDefault {
			t.Errorf("incomplete default template %+v", tpl)
		}
		if seen[tpl.ID] {
			t.Errorf("duplicate template id %q", tpl.ID)
		}
		seen[tpl.ID] = true
	}
}
