package audit

import (
	"testing"
	"time"
)

func sample() []Entry {
	return []Entry{
		{ID: 1, Actor: "jane hero", Action: "course.create", Target: "course:5", Detail: "Intro to Algebra"},
		{ID: 2, Actor: "john doe", Action: "enrollment.revoke", Target: "enrollment:9"},
		{ID: 3, Actor: "jane hero", Action: "section.delete", Target: "section:12", Detail: "old draft"},
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"empty returns all", "", []int{1, 2, 3}},
		{"actor", "JANE", []int{1, 3}},
		{"action", "revoke", []int{2}},
		{"target", "section:12", []int{3}},
		{"detail", "algebra", []int{1}},
		{"no duplicates on multi-attr hit", "course", []int{1}},
		{"no match", "zzz", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(sample(), tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) len = %d, want %d", tt.query, len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("Search(%q)[%d].ID = %d, want %d", tt.query, i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestQueryFilter(t *testing.T) {
	qf := QueryFilter{}
	if !qf.IsEmpty() {
		t.Error("zero filter should be empty")
	}

	qf = QueryFilter{Action: " Course.Create ", Actor: " jane hero "}
	qf.Clean()
	if qf.Action != "course.create" {
		t.Errorf("Action = %q, want cleaned and lowered", qf.Action)
	}
	if qf.Actor != "jane hero" {
		t.Errorf("Actor = %q, want trimmed", qf.Actor)
	}

	qf = QueryFilter{From: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	if qf.IsEmpty() {
		t.Error("filter with a time bound reported empty")
	}
}
