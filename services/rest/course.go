package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/darasa/core/course"
)

// ListCourses fetches one server-side page of the course catalog.
func (c *Client) ListCourses(ctx context.Context, filter course.CatalogFilter) (course.CoursePage, error) {
	filter.Clean()
	resp, err := c.do(ctx, http.MethodGet, "/api/course/", func(req *resty.Request) {
		if filter.Search != "" {
			req.SetQueryParam("search", filter.Search)
		}
		if filter.Category != "" {
			req.SetQueryParam("category", filter.Category)
		}
		if filter.Ordering != "" {
			req.SetQueryParam("ordering", filter.Ordering)
		}
		if filter.Page > 0 {
			req.SetQueryParam("page", strconv.Itoa(filter.Page))
		}
		if filter.PageSize > 0 {
			req.SetQueryParam("page_size", strconv.Itoa(filter.PageSize))
		}
	})
	if err != nil {
		return course.CoursePage{}, err
	}
	var page course.CoursePage
	if err := decode(resp, &page); err != nil {
		return course.CoursePage{}, err
	}
	return page, nil
}

func (c *Client) GetCourse(ctx context.Context, id int) (course.Course, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/course/%d/", id), nil)
	if err != nil {
		return course.Course{}, err
	}
	var crs course.Course
	if err := decode(resp, &crs); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}
