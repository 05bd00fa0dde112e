package course

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Resource types
const (
	ResourceDocument     = "document"
	ResourcePresentation = "presentation"
	ResourceSpreadsheet  = "spreadsheet"
	ResourceImage        = "image"
	ResourceCode         = "code"
	ResourceLink         = "link"
)

var ResourceTypes = []string{
	ResourceDocument,
	ResourcePresentation,
	ResourceSpreadsheet,
	ResourceImage,
	ResourceCode,
	ResourceLink,
}

type (
	Course struct {
		ID          int       `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Instructor  string    `json:"instructor"`
		Category    string    `json:"category"`
		Price       float64   `json:"price"`
		IsPublished bool      `json:"is_published"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}

	// Section -> Subsection -> Lesson -> Resource is the course structure tree.
	// Parents hold children by value; a child's removal is a pure slice filter.
	//
	// Each node carries a stable local identity (uid) assigned once, so UI
	// state keyed on Key() survives reorders and deletions of siblings.
	// Existing is true iff the node holds a server-assigned ID and was not
	// freshly added in this editing session.

	Section struct {
		ID          int          `json:"id,omitempty"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Order       int          `json:"order"`
		CourseID    int          `json:"course"`
		Subsections []Subsection `json:"-"`

		UID      string `json:"-"`
		Existing bool   `json:"-"`
	}

	Subsection struct {
		ID          int      `json:"id,omitempty"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Order       int      `json:"order"`
		SectionID   int      `json:"section"`
		Lessons     []Lesson `json:"-"`

		UID      string `json:"-"`
		Existing bool   `json:"-"`
	}

	Lesson struct {
		ID              int        `json:"id,omitempty"`
		Title           string     `json:"title"`
		Content         string     `json:"content"`
		VideoURL        string     `json:"video_url"`
		DurationMinutes int        `json:"duration_minutes"`
		IsPreview       bool       `json:"is_preview"`
		SubsectionID    int        `json:"subsection"`
		Resources       []Resource `json:"-"`
		VideoFile       *File      `json:"-"` // staged for multipart upload

		UID      string `json:"-"`
		Existing bool   `json:"-"`
	}

	Resource struct {
		ID       int    `json:"id,omitempty"`
		Title    string `json:"title"`
		Type     string `json:"resource_type"`
		Order    int    `json:"order"`
		LessonID int    `json:"lesson"`
		File     *File  `json:"-"`

		UID      string `json:"-"`
		Existing bool   `json:"-"`
	}

	// File is an in-memory attachment destined for a multipart upload.
	File struct {
		Name string
		Data []byte
	}
)

func (c Course) Key() string { return strconv.Itoa(c.ID) }

// Key returns the node's stable identity: the server ID when assigned,
// the creation uid otherwise.
func (s Section) Key() string {
	if s.ID != 0 {
		return strconv.Itoa(s.ID)
	}
	return s.UID
}

func (s Subsection) Key() string {
	if s.ID != 0 {
		return strconv.Itoa(s.ID)
	}
	return s.UID
}

func (l Lesson) Key() string {
	if l.ID != 0 {
		return strconv.Itoa(l.ID)
	}
	return l.UID
}

func (r Resource) Key() string {
	if r.ID != 0 {
		return strconv.Itoa(r.ID)
	}
	return r.UID
}

func newUID() string { return uuid.NewString() }

// NewSection contains information needed to create a new Section.
type NewSection struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"min=0"`
	Course      int    `json:"course" validate:"required"`
}

func (ns *NewSection) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

type NewSubsection struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"min=0"`
	Section     int    `json:"section" validate:"required"`
}

func (ns *NewSubsection) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

type NewLesson struct {
	Title           string `json:"title" validate:"required"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0"`
	IsPreview       bool   `json:"is_preview"`
	Subsection      int    `json:"subsection" validate:"required"`
	VideoFile       *File  `json:"-"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	return core.Validate.Struct(nl)
}

type NewResource struct {
	Title  string `json:"title" validate:"required"`
	Type   string `json:"resource_type" validate:"required,oneof=document presentation spreadsheet image code link"`
	Order  int    `json:"order" validate:"min=0"`
	Lesson int    `json:"lesson" validate:"required"`
	File   *File  `json:"-"`
}

func (nr *NewResource) Validate() error {
	nr.Title = core.CleanString(nr.Title)
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	return core.Validate.Struct(nr)
}

// UpdateSection defines what information may be provided to modify a Section.
// Only set fields are applied locally and sent on PATCH.
type UpdateSection struct {
	Title       null.String `json:"title"`
	Description null.String `json:"description"`
	Order       null.Int    `json:"order"`
}

// Values returns the set fields as a PATCH body.
func (us UpdateSection) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	if us.Title.Valid {
		vals["title"] = us.Title.String
	}
	if us.Description.Valid {
		vals["description"] = us.Description.String
	}
	if us.Order.Valid {
		vals["order"] = us.Order.Int
	}
	return vals
}

type UpdateSubsection struct {
	Title       null.String `json:"title"`
	Description null.String `json:"description"`
	Order       null.Int    `json:"order"`
}

func (us UpdateSubsection) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	if us.Title.Valid {
		vals["title"] = us.Title.String
	}
	if us.Description.Valid {
		vals["description"] = us.Description.String
	}
	if us.Order.Valid {
		vals["order"] = us.Order.Int
	}
	return vals
}

type UpdateLesson struct {
	Title           null.String `json:"title"`
	Content         null.String `json:"content"`
	VideoURL        null.String `json:"video_url"`
	DurationMinutes null.Int    `json:"duration_minutes"`
	IsPreview       null.Bool   `json:"is_preview"`
}

func (ul UpdateLesson) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	if ul.Title.Valid {
		vals["title"] = ul.Title.String
	}
	if ul.Content.Valid {
		vals["content"] = ul.Content.String
	}
	if ul.VideoURL.Valid {
		vals["video_url"] = ul.VideoURL.String
	}
	if ul.DurationMinutes.Valid {
		vals["duration_minutes"] = ul.DurationMinutes.Int
	}
	if ul.IsPreview.Valid {
		vals["is_preview"] = ul.IsPreview.Bool
	}
	return vals
}

type UpdateResource struct {
	Title null.String `json:"title"`
	Type  null.String `json:"resource_type"`
	Order null.Int    `json:"order"`
}

func (ur UpdateResource) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	if ur.Title.Valid {
		vals["title"] = ur.Title.String
	}
	if ur.Type.Valid {
		vals["resource_type"] = ur.Type.String
	}
	if ur.Order.Valid {
		vals["order"] = ur.Order.Int
	}
	return vals
}

type (
	// CatalogFilter holds the server-side query params for the course list.
	CatalogFilter struct {
		Search   string `query:"search"`
		Category string `query:"category"`
		Ordering string `query:"ordering"`
		Page     int    `query:"page"`
		PageSize int    `query:"page_size"`
	}

	// CoursePage is one server-side page of catalog results.
	CoursePage struct {
		Count    int         `json:"count"`
		Next     null.String `json:"next"`
		Previous null.String `json:"previous"`
		Results  []Course    `json:"results"`
	}
)

func (cf *CatalogFilter) IsEmpty() bool {
	return cf.Search == "" && cf.Category == "" && cf.Ordering == "" && cf.Page == 0 && cf.PageSize == 0
}

func (cf *CatalogFilter) Clean() {
	cf.Search = core.CleanString(cf.Search)
	cf.Category = core.CleanString(cf.Category, true /* lower */)
}

// Repository abstracts the backend REST API the course domain depends on.
type Repository interface {
	ListCourses(ctx context.Context, filter CatalogFilter) (CoursePage, error)
	GetCourse(ctx context.Context, id int) (Course, error)

	ListSections(ctx context.Context, courseID int) ([]Section, error)
	CreateSection(ctx context.Context, ns NewSection) (Section, error)
	UpdateSection(ctx context.Context, id int, us UpdateSection) (Section, error)
	DeleteSection(ctx context.Context, id int) error

	ListSubsections(ctx context.Context, courseID int) ([]Subsection, error)
	CreateSubsection(ctx context.Context, ns NewSubsection) (Subsection, error)
	UpdateSubsection(ctx context.Context, id int, us UpdateSubsection) (Subsection, error)
	DeleteSubsection(ctx context.Context, id int) error

	ListLessons(ctx context.Context, subsectionID int) ([]Lesson, error)
	CreateLesson(ctx context.Context, nl NewLesson) (Lesson, error)
	UpdateLesson(ctx context.Context, id int, ul UpdateLesson) (Lesson, error)
	DeleteLesson(ctx context.Context, id int) error

	ListResources(ctx context.Context, lessonID int) ([]Resource, error)
	CreateResource(ctx context.Context, nr NewResource) (Resource, error)
	UpdateResource(ctx context.Context, id int, ur UpdateResource) (Resource, error)
	DeleteResource(ctx context.Context, id int) error
}
