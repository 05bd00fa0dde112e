package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/services/rest"
	testutil "github.com/trezcool/darasa/tests"
)

func newTestCLI(t *testing.T) (*commandLine, *testutil.FakeAPI, *bytes.Buffer) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	out := new(bytes.Buffer)
	client := rest.NewClient(&rest.Options{
		Conf: &core.Config{
			AppName: "Darasa",
			Build:   "test",
			API:     core.APIConfig{BaseURL: api.Server.URL, Timeout: 5 * time.Second},
		},
		Session: session.NewMemStore(),
	})
	return &commandLine{api: client, log: core.NopLogger{}, out: out}, api, out
}

func loginCLI(t *testing.T, cli *commandLine, api *testutil.FakeAPI) {
	t.Helper()
	prev := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(api.Password), nil }
	t.Cleanup(func() { readPasswordFunc = prev })
	if err := cli.run([]string{"darasa", "login", "-username", api.Username}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	cli, _, out := newTestCLI(t)

	if err := cli.run([]string{"darasa"}); err != errHelp {
		t.Errorf("run() error = %v, want errHelp", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Error("usage not printed")
	}

	out.Reset()
	if err := cli.run([]string{"darasa", "nonsense"}); err != errHelp {
		t.Errorf("run(nonsense) error = %v, want errHelp", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Error("usage not printed for unknown command")
	}
}

func TestLoginCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)

	loginCLI(t, cli, api)
	if !strings.Contains(out.String(), "Welcome back, Hero!") {
		t.Errorf("output = %q, want a welcome", out.String())
	}
	if !cli.api.LoggedIn() {
		t.Error("not logged in after login command")
	}

	if err := cli.run([]string{"darasa", "logout"}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if cli.api.LoggedIn() {
		t.Error("still logged in after logout command")
	}
}

func TestStatusCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)

	if err := cli.run([]string{"darasa", "status"}); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out.String(), "Not logged in.") {
		t.Errorf("status output = %q", out.String())
	}

	loginCLI(t, cli, api)
	out.Reset()
	if err := cli.run([]string{"darasa", "status"}); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	// the fake issues opaque tokens, so no claims to show
	if !strings.Contains(out.String(), "Logged in.") {
		t.Errorf("status output = %q", out.String())
	}
}

func TestLoginRequiresUsername(t *testing.T) {
	cli, _, _ := newTestCLI(t)
	if err := cli.run([]string{"darasa", "login"}); err != errHelp {
		t.Errorf("run(login) error = %v, want errHelp", err)
	}
}

func TestCatalogCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)
	loginCLI(t, cli, api)
	out.Reset()

	api.Courses = []course.Course{
		{ID: 5, Title: "Intro to Algebra", Instructor: "Jane Hero", Category: "math", Price: 30},
		{ID: 6, Title: "Guitar Basics", Instructor: "Anna Strum", Category: "music", Price: 20},
	}

	if err := cli.run([]string{"darasa", "catalog"}); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Intro to Algebra") || !strings.Contains(got, "Guitar Basics") {
		t.Errorf("catalog output missing courses:\n%s", got)
	}
	if !strings.Contains(got, "2 of 2 courses") {
		t.Errorf("catalog output missing count:\n%s", got)
	}

	// local narrowing on top of the fetched page
	out.Reset()
	if err := cli.run([]string{"darasa", "catalog", "-search", "guitar"}); err != nil {
		t.Fatalf("catalog -search failed: %v", err)
	}
	got = out.String()
	if strings.Contains(got, "Intro to Algebra") || !strings.Contains(got, "Guitar Basics") {
		t.Errorf("catalog search output wrong:\n%s", got)
	}
}

func TestEnrollCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)
	loginCLI(t, cli, api)
	out.Reset()

	api.Courses = []course.Course{{ID: 5, Title: "Intro to Algebra"}}

	if err := cli.run([]string{"darasa", "enroll"}); err != errHelp {
		t.Errorf("enroll without -course error = %v, want errHelp", err)
	}

	if err := cli.run([]string{"darasa", "enroll", "-course", "5"}); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if !strings.Contains(out.String(), `Enrolled in "Intro to Algebra" (pending)`) {
		t.Errorf("enroll output = %q", out.String())
	}

	out.Reset()
	if err := cli.run([]string{"darasa", "mycourses"}); err != nil {
		t.Fatalf("mycourses failed: %v", err)
	}
	if !strings.Contains(out.String(), "Intro to Algebra") {
		t.Errorf("mycourses output = %q", out.String())
	}
}

func TestEnrollmentsAdminCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)
	loginCLI(t, cli, api)

	api.Enrollments = []enrollment.Enrollment{
		{ID: 9, CourseID: 5, CourseTitle: "Intro to Algebra", Student: "mwanafunzi", Status: enrollment.StatusPending},
	}

	out.Reset()
	if err := cli.run([]string{"darasa", "enrollments", "-approve", "9"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if !strings.Contains(out.String(), "Enrollment 9 is now active") {
		t.Errorf("approve output = %q", out.String())
	}

	out.Reset()
	if err := cli.run([]string{"darasa", "enrollments", "-status", "active"}); err != nil {
		t.Fatalf("enrollments failed: %v", err)
	}
	if !strings.Contains(out.String(), "mwanafunzi") {
		t.Errorf("enrollments output = %q", out.String())
	}
}

func TestProfileCommand(t *testing.T) {
	cli, api, out := newTestCLI(t)
	loginCLI(t, cli, api)
	out.Reset()

	if err := cli.run([]string{"darasa", "profile", "-name", "Shujaa Mkuu"}); err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Profile updated.") {
		t.Errorf("profile output = %q", got)
	}
	if !strings.Contains(got, "Shujaa Mkuu <hero@test.cd>") {
		t.Errorf("profile output = %q", got)
	}
	if api.Profile.Name != "Shujaa Mkuu" {
		t.Errorf("server profile name = %q", api.Profile.Name)
	}
}

func TestPrintTree(t *testing.T) {
	cli, api, out := newTestCLI(t)
	loginCLI(t, cli, api)

	api.Sections = []course.Section{{ID: 1, Title: "Basics", CourseID: 5}}
	api.Subsections = []course.Subsection{{ID: 2, Title: "Getting started", SectionID: 1}}
	api.Lessons = []course.Lesson{{ID: 3, Title: "Hello", SubsectionID: 2}}

	ed := course.NewEditor(cli.api, cli.log, nil)
	ed.SetCourse(5)
	if err := ed.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := ed.AddSection(); err != nil {
		t.Fatalf("AddSection() failed: %v", err)
	}

	out.Reset()
	cli.printTree(ed)
	got := out.String()
	if !strings.Contains(got, "+ [0] Basics") {
		t.Errorf("collapsed section line missing:\n%s", got)
	}
	if strings.Contains(got, "Getting started") {
		t.Errorf("collapsed section leaked its children:\n%s", got)
	}
	if !strings.Contains(got, "[1] Section 2 *new*") {
		t.Errorf("local-only section not tagged:\n%s", got)
	}

	ed.Expansion().ExpandAll(ed.Sections())
	out.Reset()
	cli.printTree(ed)
	got = out.String()
	if !strings.Contains(got, "- [0] Basics") {
		t.Errorf("expanded marker missing:\n%s", got)
	}
	if !strings.Contains(got, "[0.0] Getting started") {
		t.Errorf("subsection line missing:\n%s", got)
	}
	if !strings.Contains(got, "[0.0.0] Hello") {
		t.Errorf("lesson line missing:\n%s", got)
	}
}

func TestToggleRejectsOutOfRangeIndex(t *testing.T) {
	cli, api, _ := newTestCLI(t)
	loginCLI(t, cli, api)

	api.Sections = []course.Section{{ID: 1, Title: "Basics", CourseID: 5}}
	api.Subsections = []course.Subsection{{ID: 2, Title: "Getting started", SectionID: 1}}
	api.Lessons = []course.Lesson{{ID: 3, Title: "Hello", SubsectionID: 2}}

	ed := course.NewEditor(cli.api, cli.log, nil)
	ed.SetCourse(5)
	if err := ed.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"negative section", []string{"-1"}},
		{"section past end", []string{"1"}},
		{"negative subsection", []string{"0", "-1"}},
		{"negative lesson", []string{"0", "0", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.toggle(ed, tt.args); !errors.Is(err, course.ErrNotFound) {
				t.Errorf("toggle(%v) error = %v; want ErrNotFound", tt.args, err)
			}
		})
	}

	if err := cli.toggle(ed, []string{"0"}); err != nil {
		t.Errorf("toggle(0) failed: %v", err)
	}
	if !ed.Expansion().SectionExpanded(ed.Sections()[0]) {
		t.Error("valid toggle did not expand the section")
	}
}
