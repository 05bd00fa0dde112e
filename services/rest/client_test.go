package rest_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/services/rest"
	testutil "github.com/trezcool/darasa/tests"
)

type testClient struct {
	*rest.Client

	api     *testutil.FakeAPI
	sess    *session.MemStore
	expired int // times OnAuthExpired fired
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	tc := &testClient{api: api, sess: session.NewMemStore()}
	tc.Client = rest.NewClient(&rest.Options{
		Conf: &core.Config{
			AppName: "Darasa",
			Build:   "test",
			API:     core.APIConfig{BaseURL: api.Server.URL, Timeout: 5 * time.Second},
		},
		Session:       tc.sess,
		OnAuthExpired: func() { tc.expired++ },
	})
	return tc
}

func (tc *testClient) login(t *testing.T) {
	t.Helper()
	creds := account.Credentials{Username: tc.api.Username, Password: tc.api.Password}
	if err := tc.Login(context.Background(), creds); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)

	if tc.LoggedIn() {
		t.Error("LoggedIn() = true before login")
	}

	err := tc.Login(ctx, account.Credentials{Username: "hero", Password: "wrong"})
	if err == nil {
		t.Fatal("Login() error = nil, want authentication failure")
	}
	var apiErr *rest.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "authentication failed" {
		t.Errorf("Login() error = %v, want APIError %q", err, "authentication failed")
	}
	if tc.LoggedIn() {
		t.Error("LoggedIn() = true after failed login")
	}

	// empty credentials never reach the network
	calls := len(tc.api.Calls)
	if err := tc.Login(ctx, account.Credentials{}); err == nil {
		t.Error("Login() error = nil, want validation failure")
	}
	if len(tc.api.Calls) != calls {
		t.Error("invalid credentials were sent to the server")
	}

	tc.login(t)
	if !tc.LoggedIn() {
		t.Error("LoggedIn() = false after login")
	}
	if tc.sess.Access() == "" || tc.sess.Refresh() == "" {
		t.Error("token pair not stored")
	}

	if err := tc.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if tc.LoggedIn() {
		t.Error("LoggedIn() = true after logout")
	}
}

// A stale access token costs exactly one refresh and one replay; the fresh
// token is stored so subsequent requests go straight through.
func TestStaleTokenRefreshedOnce(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	tc.api.ExpireAccess()
	prof, err := tc.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if prof.Username != "hero" {
		t.Errorf("Username = %q, want %q", prof.Username, "hero")
	}
	if tc.api.RefreshCount != 1 {
		t.Errorf("RefreshCount = %d, want 1", tc.api.RefreshCount)
	}

	if _, err := tc.GetProfile(ctx); err != nil {
		t.Fatalf("second GetProfile() failed: %v", err)
	}
	if tc.api.RefreshCount != 1 {
		t.Errorf("RefreshCount after second request = %d, want still 1", tc.api.RefreshCount)
	}
	if tc.expired != 0 {
		t.Errorf("OnAuthExpired fired %d times, want 0", tc.expired)
	}
}

// A 401 on the replayed request means the session is truly dead: clear it,
// fire OnAuthExpired once, and do not refresh a second time.
func TestReplayStillUnauthorized(t *testing.T) {
	tc := newTestClient(t)
	tc.login(t)

	tc.api.RejectAll = true
	_, err := tc.GetProfile(context.Background())
	if !errors.Is(err, rest.ErrAuthExpired) {
		t.Fatalf("GetProfile() error = %v, want ErrAuthExpired", err)
	}
	if tc.api.RefreshCount != 1 {
		t.Errorf("RefreshCount = %d, want 1", tc.api.RefreshCount)
	}
	if tc.expired != 1 {
		t.Errorf("OnAuthExpired fired %d times, want 1", tc.expired)
	}
	if tc.sess.Access() != "" || tc.sess.Refresh() != "" {
		t.Error("session not cleared")
	}
}

func TestNoSessionAtAll(t *testing.T) {
	tc := newTestClient(t)

	_, err := tc.GetProfile(context.Background())
	if !errors.Is(err, rest.ErrAuthExpired) {
		t.Fatalf("GetProfile() error = %v, want ErrAuthExpired", err)
	}
	if tc.api.RefreshCount != 0 {
		t.Errorf("RefreshCount = %d, want 0 (nothing to refresh)", tc.api.RefreshCount)
	}
	if tc.expired != 1 {
		t.Errorf("OnAuthExpired fired %d times, want 1", tc.expired)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	t.Run("detail message", func(t *testing.T) {
		tc.api.FailCreateSubsection = true
		defer func() { tc.api.FailCreateSubsection = false }()

		_, err := tc.CreateSubsection(ctx, course.NewSubsection{Title: "SS", Section: 1})
		var apiErr *rest.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("CreateSubsection() error = %v, want APIError", err)
		}
		if apiErr.Status != 400 || apiErr.Message != "subsections are closed today" {
			t.Errorf("APIError = %+v", apiErr)
		}
	})

	t.Run("field errors", func(t *testing.T) {
		_, err := tc.CreateSection(ctx, course.NewSection{Course: 5})
		var apiErr *rest.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("CreateSection() error = %v, want APIError", err)
		}
		if apiErr.Fields["title"] != "This field is required." {
			t.Errorf("Fields = %v, want title error", apiErr.Fields)
		}
		if apiErr.Message != "title: This field is required." {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})

	t.Run("multiple field errors yield a stable message", func(t *testing.T) {
		// repeat so map-order variance would show up as a flake
		for i := 0; i < 10; i++ {
			_, err := tc.CreateSection(ctx, course.NewSection{})
			var apiErr *rest.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("CreateSection() error = %v, want APIError", err)
			}
			if len(apiErr.Fields) != 2 {
				t.Fatalf("Fields = %v, want title and course errors", apiErr.Fields)
			}
			if apiErr.Message != "course: This field is required." {
				t.Fatalf("Message = %q, want the first field alphabetically", apiErr.Message)
			}
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := tc.GetCourse(ctx, 999)
		var apiErr *rest.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("GetCourse() error = %v, want APIError", err)
		}
		if apiErr.Status != 404 {
			t.Errorf("Status = %d, want 404", apiErr.Status)
		}
	})
}

func TestStructureRoundTrip(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	sec, err := tc.CreateSection(ctx, course.NewSection{Title: "Basics", Course: 5})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	sub, err := tc.CreateSubsection(ctx, course.NewSubsection{Title: "Getting started", Section: sec.ID})
	if err != nil {
		t.Fatalf("CreateSubsection() failed: %v", err)
	}
	les, err := tc.CreateLesson(ctx, course.NewLesson{Title: "Hello", Subsection: sub.ID})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}

	secs, err := tc.ListSections(ctx, 5)
	if err != nil {
		t.Fatalf("ListSections() failed: %v", err)
	}
	if len(secs) != 1 || secs[0].ID != sec.ID {
		t.Errorf("ListSections() = %+v", secs)
	}
	lessons, err := tc.ListLessons(ctx, sub.ID)
	if err != nil {
		t.Fatalf("ListLessons() failed: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != les.ID {
		t.Errorf("ListLessons() = %+v", lessons)
	}

	if err := tc.DeleteLesson(ctx, les.ID); err != nil {
		t.Fatalf("DeleteLesson() failed: %v", err)
	}
	if lessons, _ = tc.ListLessons(ctx, sub.ID); len(lessons) != 0 {
		t.Errorf("lesson survived delete: %+v", lessons)
	}
}

func TestCreateLessonMultipart(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	nl := course.NewLesson{
		Title:      "With video",
		Subsection: 7,
		VideoFile:  &course.File{Name: "intro.mp4", Data: []byte("fake mp4 bytes")},
	}
	les, err := tc.CreateLesson(ctx, nl)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	if les.Title != "With video" || les.SubsectionID != 7 {
		t.Errorf("created lesson = %+v", les)
	}
}

// A multipart body must survive the refresh-and-replay: the request is
// rebuilt from scratch, not re-sent with a consumed reader.
func TestMultipartSurvivesReplay(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	tc.api.ExpireAccess()
	nr := course.NewResource{
		Title:  "Slides",
		Type:   course.ResourcePresentation,
		Lesson: 7,
		File:   &course.File{Name: "slides.pdf", Data: []byte("%PDF-fake")},
	}
	res, err := tc.CreateResource(ctx, nr)
	if err != nil {
		t.Fatalf("CreateResource() failed: %v", err)
	}
	if res.Title != "Slides" || res.LessonID != 7 {
		t.Errorf("created resource = %+v", res)
	}
	if tc.api.RefreshCount != 1 {
		t.Errorf("RefreshCount = %d, want 1", tc.api.RefreshCount)
	}
}

func TestEnrollments(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)
	tc.api.Courses = []course.Course{{ID: 5, Title: "Intro to Algebra"}}

	enr, err := tc.Enroll(ctx, 5)
	if assert.NoError(t, err) {
		assert.Equal(t, "Intro to Algebra", enr.CourseTitle)
		assert.Equal(t, enrollment.StatusPending, enr.Status)
	}

	mine, err := tc.ListMine(ctx)
	if assert.NoError(t, err) && assert.Len(t, mine, 1) {
		assert.Equal(t, enr.ID, mine[0].ID)
	}

	enr, err = tc.SetStatus(ctx, enr.ID, enrollment.StatusActive)
	if assert.NoError(t, err) {
		assert.Equal(t, enrollment.StatusActive, enr.Status)
	}

	page, err := tc.ListAll(ctx, enrollment.QueryFilter{Status: enrollment.StatusActive})
	if assert.NoError(t, err) {
		assert.Equal(t, 1, page.Count)
		assert.Len(t, page.Results, 1)
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)

	prof, err := tc.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if !prof.IsAdmin() {
		t.Errorf("profile not admin: %+v", prof)
	}

	up := account.UpdateProfile{Name: null.StringFrom("Shujaa")}
	prof, err = tc.UpdateProfile(ctx, up)
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if prof.Name != "Shujaa" {
		t.Errorf("Name = %q, want %q", prof.Name, "Shujaa")
	}
	// unset fields must not be clobbered
	if prof.Email != "hero@test.cd" {
		t.Errorf("Email = %q, want untouched", prof.Email)
	}
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	tc := newTestClient(t)
	tc.login(t)
	tc.api.AuditLog = []audit.Entry{
		{ID: 1, Actor: "hero", Action: "course.create"},
		{ID: 2, Actor: "hero", Action: "section.delete"},
	}

	page, err := tc.ListEntries(ctx, audit.QueryFilter{})
	if assert.NoError(t, err) {
		assert.Equal(t, 2, page.Count)
	}

	page, err = tc.ListEntries(ctx, audit.QueryFilter{Action: "section.delete"})
	if assert.NoError(t, err) && assert.Len(t, page.Results, 1) {
		assert.Equal(t, 2, page.Results[0].ID)
	}
}
