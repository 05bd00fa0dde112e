package course

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/darasa/core"
)

// fuzzyMinRatio is the minimum difflib similarity for a non-substring hit.
var fuzzyMinRatio = .75

// Search narrows an already-fetched page of courses with a secondary
// client-side match: case-insensitive substring over title, instructor and
// category, falling back to difflib similarity for near-misses (typos).
// Results keep substring hits first, then fuzzy hits by descending ratio.
func Search(courses []Course, query string) []Course {
	query = core.CleanString(query, true /* lower */)
	if query == "" {
		return courses
	}

	type hit struct {
		course Course
		exact  bool
		ratio  float64
	}
	hits := make([]hit, 0, len(courses))
	for _, c := range courses {
		attrs := []string{c.Title, c.Instructor, c.Category}
		var best float64
		var exact bool
		for _, attr := range attrs {
			attr = strings.ToLower(attr)
			if attr == "" {
				continue
			}
			if strings.Contains(attr, query) {
				exact = true
				break
			}
			ratio := difflib.NewMatcher(strings.Split(query, ""), strings.Split(attr, "")).QuickRatio()
			if ratio > best {
				best = ratio
			}
		}
		if exact || best >= fuzzyMinRatio {
			hits = append(hits, hit{course: c, exact: exact, ratio: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].exact != hits[j].exact {
			return hits[i].exact
		}
		return hits[i].ratio > hits[j].ratio
	})

	out := make([]Course, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.course)
	}
	return out
}

// Sort fields
const (
	SortByTitle   = "title"
	SortByPrice   = "price"
	SortByCreated = "created_at"
)

// Sort orders a page of courses in place by the given field.
func Sort(courses []Course, field string, ascending bool) {
	var less func(i, j int) bool
	switch field {
	case SortByPrice:
		less = func(i, j int) bool { return courses[i].Price < courses[j].Price }
	case SortByCreated:
		less = func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) }
	default:
		less = func(i, j int) bool {
			return strings.ToLower(courses[i].Title) < strings.ToLower(courses[j].Title)
		}
	}
	if !ascending {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(courses, less)
}
