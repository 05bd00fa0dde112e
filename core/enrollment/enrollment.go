package enrollment

import (
	"context"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Enrollment statuses
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusRevoked   = "revoked"
)

var Statuses = []string{StatusPending, StatusActive, StatusCompleted, StatusRevoked}

type (
	Enrollment struct {
		ID          int       `json:"id"`
		CourseID    int       `json:"course"`
		CourseTitle string    `json:"course_title"`
		Student     string    `json:"student"`
		Status      string    `json:"status"`
		Progress    float64   `json:"progress"`    // 0..100
		EnrolledAt  time.Time `json:"enrolled_at"` // UTC
	}

	// QueryFilter holds the server-side params of the admin enrollment list.
	QueryFilter struct {
		Search   string `query:"search"`
		Status   string `query:"status"`
		Course   int    `query:"course"`
		Page     int    `query:"page"`
		PageSize int    `query:"page_size"`
	}

	Page struct {
		Count    int          `json:"count"`
		Next     null.String  `json:"next"`
		Previous null.String  `json:"previous"`
		Results  []Enrollment `json:"results"`
	}

	Repository interface {
		Enroll(ctx context.Context, courseID int) (Enrollment, error)
		ListMine(ctx context.Context) ([]Enrollment, error)
		// ListAll applies AND operation on available QueryFilter fields. Admin only.
		ListAll(ctx context.Context, filter QueryFilter) (Page, error)
		SetStatus(ctx context.Context, id int, status string) (Enrollment, error)
	}
)

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.Course == 0 && qf.Page == 0 && qf.PageSize == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Search narrows an already-fetched page with a case-insensitive substring
// match on course title or student.
func Search(enrs []Enrollment, query string) []Enrollment {
	query = core.CleanString(query, true /* lower */)
	if query == "" {
		return enrs
	}
	out := make([]Enrollment, 0, len(enrs))
	for _, e := range enrs {
		if strings.Contains(strings.ToLower(e.CourseTitle), query) ||
			strings.Contains(strings.ToLower(e.Student), query) {
			out = append(out, e)
		}
	}
	return out
}

// FilterStatus keeps only enrollments in the given status.
func FilterStatus(enrs []Enrollment, status string) []Enrollment {
	if status == "" {
		return enrs
	}
	out := make([]Enrollment, 0, len(enrs))
	for _, e := range enrs {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}
