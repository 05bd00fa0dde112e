package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/darasa/core/course"
)

var _ course.Repository = (*Client)(nil)

// Sections

func (c *Client) ListSections(ctx context.Context, courseID int) ([]course.Section, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/section/", func(req *resty.Request) {
		req.SetQueryParam("course", strconv.Itoa(courseID))
	})
	if err != nil {
		return nil, err
	}
	var secs []course.Section
	if err := decode(resp, &secs); err != nil {
		return nil, err
	}
	return secs, nil
}

func (c *Client) CreateSection(ctx context.Context, ns course.NewSection) (course.Section, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/section/", func(req *resty.Request) {
		req.SetBody(ns)
	})
	if err != nil {
		return course.Section{}, err
	}
	var sec course.Section
	if err := decode(resp, &sec); err != nil {
		return course.Section{}, err
	}
	return sec, nil
}

func (c *Client) UpdateSection(ctx context.Context, id int, us course.UpdateSection) (course.Section, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/section/%d/", id), func(req *resty.Request) {
		req.SetBody(us.Values())
	})
	if err != nil {
		return course.Section{}, err
	}
	var sec course.Section
	if err := decode(resp, &sec); err != nil {
		return course.Section{}, err
	}
	return sec, nil
}

func (c *Client) DeleteSection(ctx context.Context, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/section/%d/", id), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Subsections

func (c *Client) ListSubsections(ctx context.Context, courseID int) ([]course.Subsection, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/subsection/", func(req *resty.Request) {
		req.SetQueryParam("course", strconv.Itoa(courseID))
	})
	if err != nil {
		return nil, err
	}
	var subs []course.Subsection
	if err := decode(resp, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *Client) CreateSubsection(ctx context.Context, ns course.NewSubsection) (course.Subsection, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/subsection/", func(req *resty.Request) {
		req.SetBody(ns)
	})
	if err != nil {
		return course.Subsection{}, err
	}
	var sub course.Subsection
	if err := decode(resp, &sub); err != nil {
		return course.Subsection{}, err
	}
	return sub, nil
}

func (c *Client) UpdateSubsection(ctx context.Context, id int, us course.UpdateSubsection) (course.Subsection, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/subsection/%d/", id), func(req *resty.Request) {
		req.SetBody(us.Values())
	})
	if err != nil {
		return course.Subsection{}, err
	}
	var sub course.Subsection
	if err := decode(resp, &sub); err != nil {
		return course.Subsection{}, err
	}
	return sub, nil
}

func (c *Client) DeleteSubsection(ctx context.Context, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/subsection/%d/", id), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Lessons

func (c *Client) ListLessons(ctx context.Context, subsectionID int) ([]course.Lesson, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/lesson/", func(req *resty.Request) {
		req.SetQueryParam("subsection", strconv.Itoa(subsectionID))
	})
	if err != nil {
		return nil, err
	}
	var lessons []course.Lesson
	if err := decode(resp, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// CreateLesson posts a lesson; multipart when a video file is attached,
// plain JSON otherwise.
func (c *Client) CreateLesson(ctx context.Context, nl course.NewLesson) (course.Lesson, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/lesson/", func(req *resty.Request) {
		if nl.VideoFile == nil {
			req.SetBody(nl)
			return
		}
		req.SetFileReader("video_file", nl.VideoFile.Name, bytes.NewReader(nl.VideoFile.Data)).
			SetFormData(map[string]string{
				"title":            nl.Title,
				"content":          nl.Content,
				"video_url":        nl.VideoURL,
				"duration_minutes": strconv.Itoa(nl.DurationMinutes),
				"is_preview":       strconv.FormatBool(nl.IsPreview),
				"subsection":       strconv.Itoa(nl.Subsection),
			})
	})
	if err != nil {
		return course.Lesson{}, err
	}
	var les course.Lesson
	if err := decode(resp, &les); err != nil {
		return course.Lesson{}, err
	}
	return les, nil
}

func (c *Client) UpdateLesson(ctx context.Context, id int, ul course.UpdateLesson) (course.Lesson, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/lesson/%d/", id), func(req *resty.Request) {
		req.SetBody(ul.Values())
	})
	if err != nil {
		return course.Lesson{}, err
	}
	var les course.Lesson
	if err := decode(resp, &les); err != nil {
		return course.Lesson{}, err
	}
	return les, nil
}

func (c *Client) DeleteLesson(ctx context.Context, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/lesson/%d/", id), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Resources

func (c *Client) ListResources(ctx context.Context, lessonID int) ([]course.Resource, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/lesson-resources/", func(req *resty.Request) {
		req.SetQueryParam("lesson", strconv.Itoa(lessonID))
	})
	if err != nil {
		return nil, err
	}
	var ress []course.Resource
	if err := decode(resp, &ress); err != nil {
		return nil, err
	}
	return ress, nil
}

// CreateResource posts a resource; multipart when a file is present,
// plain JSON otherwise.
func (c *Client) CreateResource(ctx context.Context, nr course.NewResource) (course.Resource, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/lesson-resources/", func(req *resty.Request) {
		if nr.File == nil {
			req.SetBody(nr)
			return
		}
		req.SetFileReader("file", nr.File.Name, bytes.NewReader(nr.File.Data)).
			SetFormData(map[string]string{
				"title":         nr.Title,
				"resource_type": nr.Type,
				"order":         strconv.Itoa(nr.Order),
				"lesson":        strconv.Itoa(nr.Lesson),
			})
	})
	if err != nil {
		return course.Resource{}, err
	}
	var res course.Resource
	if err := decode(resp, &res); err != nil {
		return course.Resource{}, err
	}
	return res, nil
}

func (c *Client) UpdateResource(ctx context.Context, id int, ur course.UpdateResource) (course.Resource, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/lesson-resources/%d/", id), func(req *resty.Request) {
		req.SetBody(ur.Values())
	})
	if err != nil {
		return course.Resource{}, err
	}
	var res course.Resource
	if err := decode(resp, &res); err != nil {
		return course.Resource{}, err
	}
	return res, nil
}

func (c *Client) DeleteResource(ctx context.Context, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/lesson-resources/%d/", id), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}
