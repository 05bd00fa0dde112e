package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
)

func (cli *commandLine) catalog(search, category, ordering string, page, pageSize int, sortBy string, desc bool) error {
	ctx := context.Background()
	filter := course.CatalogFilter{
		Search:   search,
		Category: category,
		Ordering: ordering,
		Page:     page,
		PageSize: pageSize,
	}
	res, err := cli.api.ListCourses(ctx, filter)
	if err != nil {
		return err
	}

	// secondary local narrowing & ordering over the fetched page
	courses := course.Search(res.Results, search)
	if sortBy != "" {
		course.Sort(courses, sortBy, !desc)
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tINSTRUCTOR\tCATEGORY\tPRICE")
	for _, c := range courses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\n", c.ID, c.Title, c.Instructor, c.Category, c.Price)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d of %d courses\n", len(courses), res.Count)
	return nil
}

func (cli *commandLine) myCourses(search string) error {
	ctx := context.Background()
	enrs, err := cli.api.ListMine(ctx)
	if err != nil {
		return err
	}
	enrs = enrollment.Search(enrs, search)

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tSTATUS\tPROGRESS")
	for _, e := range enrs {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\n", e.CourseTitle, e.Status, e.Progress)
	}
	return w.Flush()
}

func (cli *commandLine) enroll(courseID int) error {
	ctx := context.Background()
	enr, err := cli.api.Enroll(ctx, courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Enrolled in %q (%s)\n", enr.CourseTitle, enr.Status)
	return nil
}

func (cli *commandLine) enrollments(status string, courseID int, search string, approve, revoke int) error {
	ctx := context.Background()

	if approve != 0 {
		enr, err := cli.api.SetStatus(ctx, approve, enrollment.StatusActive)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Enrollment %d is now %s\n", enr.ID, enr.Status)
		return nil
	}
	if revoke != 0 {
		enr, err := cli.api.SetStatus(ctx, revoke, enrollment.StatusRevoked)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Enrollment %d is now %s\n", enr.ID, enr.Status)
		return nil
	}

	page, err := cli.api.ListAll(ctx, enrollment.QueryFilter{Status: status, Course: courseID})
	if err != nil {
		return err
	}
	enrs := enrollment.Search(page.Results, search)

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tCOURSE\tSTATUS\tPROGRESS")
	for _, e := range enrs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f%%\n", e.ID, e.Student, e.CourseTitle, e.Status, e.Progress)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d of %d enrollments\n", len(enrs), page.Count)
	return nil
}
