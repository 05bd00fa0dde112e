package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
)

// FakeAPI is an in-memory rendition of the backend REST API, just enough
// for client tests: bearer-token auth with refresh, the course-structure
// endpoints, catalog, enrollments, profile and audit logs.
type FakeAPI struct {
	Server *httptest.Server

	mu     sync.Mutex
	nextID int

	// auth state
	Username     string
	Password     string
	GoodAccess   string // the only access token the API currently accepts
	GoodRefresh  string
	RefreshCount int  // times /api/token/refresh/ was hit
	RejectAll    bool // reject every bearer token, even freshly refreshed ones

	// data
	Courses     []course.Course
	Sections    []course.Section
	Subsections []course.Subsection
	Lessons     []course.Lesson
	Resources   []course.Resource
	Enrollments []enrollment.Enrollment
	Profile     account.Profile
	AuditLog    []audit.Entry

	// failure injection
	FailCreateSubsection bool
	FailLessonsFor       map[int]bool // subsection ids whose lesson list 500s

	Calls []string // "METHOD /path" in arrival order
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		nextID:         100,
		Username:       "hero",
		Password:       "S3cret!pass",
		GoodAccess:     "access-0",
		GoodRefresh:    "refresh-0",
		FailLessonsFor: make(map[int]bool),
		Profile: account.Profile{
			ID: 1, Name: "Hero", Username: "hero", Email: "hero@test.cd",
			IsActive: true, Roles: []string{account.RoleAdmin},
		},
	}

	app := echo.New()
	app.Use(f.record)

	app.POST("/api/login/", f.login)
	app.POST("/api/token/refresh/", f.refresh)

	api := app.Group("", f.auth)
	api.GET("/api/course/", f.listCourses)
	api.GET("/api/course/:id/", f.getCourse)

	api.GET("/api/section/", f.listSections)
	api.POST("/api/section/", f.createSection)
	api.PATCH("/api/section/:id/", f.patchSection)
	api.DELETE("/api/section/:id/", f.deleteSection)

	api.GET("/api/subsection/", f.listSubsections)
	api.POST("/api/subsection/", f.createSubsection)
	api.DELETE("/api/subsection/:id/", f.deleteSubsection)

	api.GET("/api/lesson/", f.listLessons)
	api.POST("/api/lesson/", f.createLesson)
	api.DELETE("/api/lesson/:id/", f.deleteLesson)

	api.GET("/api/lesson-resources/", f.listResources)
	api.POST("/api/lesson-resources/", f.createResource)
	api.DELETE("/api/lesson-resources/:id/", f.deleteResource)

	api.POST("/api/enrollment/", f.enroll)
	api.GET("/api/enrollment/", f.listEnrollments)
	api.GET("/api/enrollment/mine/", f.listMyEnrollments)
	api.PATCH("/api/enrollment/:id/", f.patchEnrollment)

	api.GET("/api/profile/", f.getProfile)
	api.PATCH("/api/profile/", f.patchProfile)

	api.GET("/api/audit-log/", f.listAuditLog)

	f.Server = httptest.NewServer(app)
	t.Cleanup(f.Server.Close)
	return f
}

// ExpireAccess rotates the accepted access token so any stored one is stale.
func (f *FakeAPI) ExpireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GoodAccess = fmt.Sprintf("access-%d", time.Now().UnixNano())
}

func (f *FakeAPI) id() int {
	f.nextID++
	return f.nextID
}

// middleware

func (f *FakeAPI) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		f.mu.Lock()
		f.Calls = append(f.Calls, c.Request().Method+" "+c.Request().URL.Path)
		f.mu.Unlock()
		return next(c)
	}
}

func (f *FakeAPI) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		f.mu.Lock()
		ok := !f.RejectAll && tok == f.GoodAccess
		f.mu.Unlock()
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "token expired"})
		}
		return next(c)
	}
}

// auth handlers

func (f *FakeAPI) login(c echo.Context) error {
	var creds account.Credentials
	if err := c.Bind(&creds); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if creds.Username != f.Username || creds.Password != f.Password {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "authentication failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": f.GoodAccess, "refresh": f.GoodRefresh})
}

func (f *FakeAPI) refresh(c echo.Context) error {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefreshCount++
	if body.Refresh != f.GoodRefresh {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "refresh token invalid"})
	}
	f.GoodAccess = fmt.Sprintf("access-r%d", f.RefreshCount)
	return c.JSON(http.StatusOK, echo.Map{"access": f.GoodAccess})
}

// catalog handlers

func (f *FakeAPI) listCourses(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"count": len(f.Courses), "results": f.Courses})
}

func (f *FakeAPI) getCourse(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, crs := range f.Courses {
		if crs.ID == id {
			return c.JSON(http.StatusOK, crs)
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
}

// structure handlers

func (f *FakeAPI) listSections(c echo.Context) error {
	courseID, _ := strconv.Atoi(c.QueryParam("course"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]course.Section, 0)
	for _, s := range f.Sections {
		if s.CourseID == courseID {
			out = append(out, s)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) createSection(c echo.Context) error {
	var ns course.NewSection
	if err := c.Bind(&ns); err != nil {
		return err
	}
	fieldErrs := echo.Map{}
	if ns.Title == "" {
		fieldErrs["title"] = []string{"This field is required."}
	}
	if ns.Course == 0 {
		fieldErrs["course"] = []string{"This field is required."}
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, fieldErrs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sec := course.Section{ID: f.id(), Title: ns.Title, Description: ns.Description, Order: ns.Order, CourseID: ns.Course}
	f.Sections = append(f.Sections, sec)
	return c.JSON(http.StatusCreated, sec)
}

func (f *FakeAPI) patchSection(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Sections {
		if f.Sections[i].ID == id {
			if title, ok := body["title"].(string); ok {
				f.Sections[i].Title = title
			}
			return c.JSON(http.StatusOK, f.Sections[i])
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
}

func (f *FakeAPI) deleteSection(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.Sections[:0]
	for _, s := range f.Sections {
		if s.ID != id {
			out = append(out, s)
		}
	}
	f.Sections = out
	return c.NoContent(http.StatusNoContent)
}

func (f *FakeAPI) listSubsections(c echo.Context) error {
	courseID, _ := strconv.Atoi(c.QueryParam("course"))
	f.mu.Lock()
	defer f.mu.Unlock()
	secIDs := make(map[int]bool)
	for _, s := range f.Sections {
		if s.CourseID == courseID {
			secIDs[s.ID] = true
		}
	}
	out := make([]course.Subsection, 0)
	for _, ss := range f.Subsections {
		if secIDs[ss.SectionID] {
			out = append(out, ss)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) createSubsection(c echo.Context) error {
	if f.FailCreateSubsection {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "subsections are closed today"})
	}
	var ns course.NewSubsection
	if err := c.Bind(&ns); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := course.Subsection{ID: f.id(), Title: ns.Title, Description: ns.Description, Order: ns.Order, SectionID: ns.Section}
	f.Subsections = append(f.Subsections, sub)
	return c.JSON(http.StatusCreated, sub)
}

func (f *FakeAPI) deleteSubsection(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.Subsections[:0]
	for _, s := range f.Subsections {
		if s.ID != id {
			out = append(out, s)
		}
	}
	f.Subsections = out
	return c.NoContent(http.StatusNoContent)
}

func (f *FakeAPI) listLessons(c echo.Context) error {
	subID, _ := strconv.Atoi(c.QueryParam("subsection"))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailLessonsFor[subID] {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "lessons are on strike"})
	}
	out := make([]course.Lesson, 0)
	for _, l := range f.Lessons {
		if l.SubsectionID == subID {
			out = append(out, l)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) createLesson(c echo.Context) error {
	var nl course.NewLesson
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		nl.Title = c.FormValue("title")
		nl.Content = c.FormValue("content")
		nl.VideoURL = c.FormValue("video_url")
		nl.DurationMinutes, _ = strconv.Atoi(c.FormValue("duration_minutes"))
		nl.Subsection, _ = strconv.Atoi(c.FormValue("subsection"))
		if _, err := c.FormFile("video_file"); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"video_file": []string{"This field is required."}})
		}
	} else if err := c.Bind(&nl); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	les := course.Lesson{
		ID: f.id(), Title: nl.Title, Content: nl.Content, VideoURL: nl.VideoURL,
		DurationMinutes: nl.DurationMinutes, IsPreview: nl.IsPreview, SubsectionID: nl.Subsection,
	}
	f.Lessons = append(f.Lessons, les)
	return c.JSON(http.StatusCreated, les)
}

func (f *FakeAPI) deleteLesson(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.Lessons[:0]
	for _, l := range f.Lessons {
		if l.ID != id {
			out = append(out, l)
		}
	}
	f.Lessons = out
	return c.NoContent(http.StatusNoContent)
}

func (f *FakeAPI) listResources(c echo.Context) error {
	lessonID, _ := strconv.Atoi(c.QueryParam("lesson"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]course.Resource, 0)
	for _, r := range f.Resources {
		if r.LessonID == lessonID {
			out = append(out, r)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) createResource(c echo.Context) error {
	var nr course.NewResource
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		nr.Title = c.FormValue("title")
		nr.Type = c.FormValue("resource_type")
		nr.Order, _ = strconv.Atoi(c.FormValue("order"))
		nr.Lesson, _ = strconv.Atoi(c.FormValue("lesson"))
		if _, err := c.FormFile("file"); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"file": []string{"This field is required."}})
		}
	} else if err := c.Bind(&nr); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := course.Resource{ID: f.id(), Title: nr.Title, Type: nr.Type, Order: nr.Order, LessonID: nr.Lesson}
	f.Resources = append(f.Resources, res)
	return c.JSON(http.StatusCreated, res)
}

func (f *FakeAPI) deleteResource(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.Resources[:0]
	for _, r := range f.Resources {
		if r.ID != id {
			out = append(out, r)
		}
	}
	f.Resources = out
	return c.NoContent(http.StatusNoContent)
}

// enrollment handlers

func (f *FakeAPI) enroll(c echo.Context) error {
	var body struct {
		Course int `json:"course"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var title string
	for _, crs := range f.Courses {
		if crs.ID == body.Course {
			title = crs.Title
		}
	}
	enr := enrollment.Enrollment{
		ID: f.id(), CourseID: body.Course, CourseTitle: title,
		Student: f.Profile.Username, Status: enrollment.StatusPending, EnrolledAt: time.Now().UTC(),
	}
	f.Enrollments = append(f.Enrollments, enr)
	return c.JSON(http.StatusCreated, enr)
}

func (f *FakeAPI) listEnrollments(c echo.Context) error {
	status := c.QueryParam("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]enrollment.Enrollment, 0)
	for _, e := range f.Enrollments {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "results": out})
}

func (f *FakeAPI) listMyEnrollments(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]enrollment.Enrollment, 0)
	for _, e := range f.Enrollments {
		if e.Student == f.Profile.Username {
			out = append(out, e)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) patchEnrollment(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Enrollments {
		if f.Enrollments[i].ID == id {
			f.Enrollments[i].Status = body.Status
			return c.JSON(http.StatusOK, f.Enrollments[i])
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
}

// profile & audit handlers

func (f *FakeAPI) getProfile(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return c.JSON(http.StatusOK, f.Profile)
}

func (f *FakeAPI) patchProfile(c echo.Context) error {
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := body["name"].(string); ok {
		f.Profile.Name = name
	}
	if uname, ok := body["username"].(string); ok {
		f.Profile.Username = uname
	}
	if email, ok := body["email"].(string); ok {
		f.Profile.Email = email
	}
	return c.JSON(http.StatusOK, f.Profile)
}

func (f *FakeAPI) listAuditLog(c echo.Context) error {
	action := c.QueryParam("action")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audit.Entry, 0)
	for _, e := range f.AuditLog {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "results": out})
}
