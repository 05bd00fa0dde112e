package audit

import (
	"context"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type (
	// Entry is one backend audit-log line. Read-only on the client.
	Entry struct {
		ID        int       `json:"id"`
		Actor     string    `json:"actor"`
		Action    string    `json:"action"`
		Target    string    `json:"target"`
		Detail    string    `json:"detail"`
		Timestamp time.Time `json:"timestamp"` // UTC
	}

	QueryFilter struct {
		Action   string    `query:"action"`
		Actor    string    `query:"actor"`
		From     time.Time `query:"from"`
		To       time.Time `query:"to"`
		Page     int       `query:"page"`
		PageSize int       `query:"page_size"`
	}

	Page struct {
		Count    int         `json:"count"`
		Next     null.String `json:"next"`
		Previous null.String `json:"previous"`
		Results  []Entry     `json:"results"`
	}

	Repository interface {
		// ListEntries applies AND operation on available QueryFilter fields. Admin only.
		ListEntries(ctx context.Context, filter QueryFilter) (Page, error)
	}
)

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Action == "" && qf.Actor == "" && qf.From.IsZero() && qf.To.IsZero() && qf.Page == 0 && qf.PageSize == 0
}

func (qf *QueryFilter) Clean() {
	qf.Action = core.CleanString(qf.Action, true /* lower */)
	qf.Actor = core.CleanString(qf.Actor)
}

// Search narrows an already-fetched page with a case-insensitive substring
// match on actor, action, target or detail.
func Search(entries []Entry, query string) []Entry {
	query = core.CleanString(query, true /* lower */)
	if query == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		for _, attr := range []string{e.Actor, e.Action, e.Target, e.Detail} {
			if strings.Contains(strings.ToLower(attr), query) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
