package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/darasa/core/audit"
)

var _ audit.Repository = (*Client)(nil)

func (c *Client) ListEntries(ctx context.Context, filter audit.QueryFilter) (audit.Page, error) {
	filter.Clean()
	resp, err := c.do(ctx, http.MethodGet, "/api/audit-log/", func(req *resty.Request) {
		if filter.Action != "" {
			req.SetQueryParam("action", filter.Action)
		}
		if filter.Actor != "" {
			req.SetQueryParam("actor", filter.Actor)
		}
		if !filter.From.IsZero() {
			req.SetQueryParam("from", filter.From.UTC().Format(time.RFC3339))
		}
		if !filter.To.IsZero() {
			req.SetQueryParam("to", filter.To.UTC().Format(time.RFC3339))
		}
		if filter.Page > 0 {
			req.SetQueryParam("page", strconv.Itoa(filter.Page))
		}
		if filter.PageSize > 0 {
			req.SetQueryParam("page_size", strconv.Itoa(filter.PageSize))
		}
	})
	if err != nil {
		return audit.Page{}, err
	}
	var page audit.Page
	if err := decode(resp, &page); err != nil {
		return audit.Page{}, err
	}
	return page, nil
}
