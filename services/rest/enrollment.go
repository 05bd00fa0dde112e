package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/darasa/core/enrollment"
)

var _ enrollment.Repository = (*Client)(nil)

func (c *Client) Enroll(ctx context.Context, courseID int) (enrollment.Enrollment, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/enrollment/", func(req *resty.Request) {
		req.SetBody(map[string]int{"course": courseID})
	})
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	var enr enrollment.Enrollment
	if err := decode(resp, &enr); err != nil {
		return enrollment.Enrollment{}, err
	}
	return enr, nil
}

func (c *Client) ListMine(ctx context.Context) ([]enrollment.Enrollment, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/enrollment/mine/", nil)
	if err != nil {
		return nil, err
	}
	var enrs []enrollment.Enrollment
	if err := decode(resp, &enrs); err != nil {
		return nil, err
	}
	return enrs, nil
}

func (c *Client) ListAll(ctx context.Context, filter enrollment.QueryFilter) (enrollment.Page, error) {
	filter.Clean()
	resp, err := c.do(ctx, http.MethodGet, "/api/enrollment/", func(req *resty.Request) {
		if filter.Search != "" {
			req.SetQueryParam("search", filter.Search)
		}
		if filter.Status != "" {
			req.SetQueryParam("status", filter.Status)
		}
		if filter.Course > 0 {
			req.SetQueryParam("course", strconv.Itoa(filter.Course))
		}
		if filter.Page > 0 {
			req.SetQueryParam("page", strconv.Itoa(filter.Page))
		}
		if filter.PageSize > 0 {
			req.SetQueryParam("page_size", strconv.Itoa(filter.PageSize))
		}
	})
	if err != nil {
		return enrollment.Page{}, err
	}
	var page enrollment.Page
	if err := decode(resp, &page); err != nil {
		return enrollment.Page{}, err
	}
	return page, nil
}

func (c *Client) SetStatus(ctx context.Context, id int, status string) (enrollment.Enrollment, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/enrollment/%d/", id), func(req *resty.Request) {
		req.SetBody(map[string]string{"status": status})
	})
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	var enr enrollment.Enrollment
	if err := decode(resp, &enr); err != nil {
		return enrollment.Enrollment{}, err
	}
	return enr, nil
}
