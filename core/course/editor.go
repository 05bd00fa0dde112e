package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/darasa/core"
)

var (
	nowFunc = time.Now // mockable

	// addCooldown guards against duplicate rapid-fire "Add X" actions.
	// A debounce against double-submit, not a correctness mechanism.
	addCooldown = 300 * time.Millisecond

	// errors
	ErrNotFound     = errors.New("node not found")
	ErrAddThrottled = errors.New("node just added, hold on")
)

// ConfirmFunc gates destructive actions. Deleting a persisted node cascades
// to all its descendants on the server, so the user must confirm first.
type ConfirmFunc func(prompt string) bool

// Created reports how many nodes a Submit pass persisted per level.
type Created struct {
	Sections    int
	Subsections int
	Lessons     int
	Resources   int
}

func (c Created) Total() int { return c.Sections + c.Subsections + c.Lessons + c.Resources }

// Editor manages a course's structure tree: sections, subsections, lessons
// and resources, mixing nodes already persisted on the backend with nodes
// created locally in this session. Submit persists only the new nodes,
// parents before children. Not safe for concurrent use; it models the
// single UI thread of the original frontend.
type Editor struct {
	repo    Repository
	log     core.Logger
	confirm ConfirmFunc

	courseID int
	sections []Section
	exp      *Expansion

	lastAdd map[string]time.Time // per-level add debounce
}

func NewEditor(repo Repository, log core.Logger, confirm ConfirmFunc) *Editor {
	if log == nil {
		log = core.NopLogger{}
	}
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &Editor{
		repo:    repo,
		log:     log,
		confirm: confirm,
		exp:     NewExpansion(),
		lastAdd: make(map[string]time.Time),
	}
}

func (ed *Editor) CourseID() int         { return ed.courseID }
func (ed *Editor) Sections() []Section   { return ed.sections }
func (ed *Editor) Expansion() *Expansion { return ed.exp }

// SetCourse switches the editor to another course, dropping the current
// tree and all expansion state.
func (ed *Editor) SetCourse(courseID int) {
	ed.courseID = courseID
	ed.sections = nil
	ed.exp.Reset()
	ed.lastAdd = make(map[string]time.Time)
}

// Load fetches the course structure and assembles the tree client-side by
// matching foreign keys. Sections and subsections come in two course-wide
// calls; lessons and resources are fetched per parent with a parallel
// fan-out joined before assembly. A failed per-node fetch is logged and
// yields zero children for that node; it never fails the whole load.
func (ed *Editor) Load(ctx context.Context) error {
	secs, err := ed.repo.ListSections(ctx, ed.courseID)
	if err != nil {
		return err
	}
	subs, err := ed.repo.ListSubsections(ctx, ed.courseID)
	if err != nil {
		return err
	}

	// lessons per subsection: parallel fan-out, join, individually caught
	lessons := make([][]Lesson, len(subs))
	var g errgroup.Group
	for i := range subs {
		i := i
		g.Go(func() error {
			ls, err := ed.repo.ListLessons(ctx, subs[i].ID)
			if err != nil {
				ed.log.Warn(fmt.Sprintf("loading lessons of subsection %d failed", subs[i].ID), err)
				return nil
			}
			for j := range ls {
				rs, err := ed.repo.ListResources(ctx, ls[j].ID)
				if err != nil {
					ed.log.Warn(fmt.Sprintf("loading resources of lesson %d failed", ls[j].ID), err)
					continue
				}
				for k := range rs {
					rs[k].UID = newUID()
					rs[k].Existing = true
				}
				ls[j].Resources = rs
			}
			lessons[i] = ls
			return nil
		})
	}
	_ = g.Wait()

	for i := range subs {
		subs[i].UID = newUID()
		subs[i].Existing = true
		for j := range lessons[i] {
			lessons[i][j].UID = newUID()
			lessons[i][j].Existing = true
		}
		subs[i].Lessons = lessons[i]
	}

	tree := make([]Section, 0, len(secs))
	for _, sec := range secs {
		sec.UID = newUID()
		sec.Existing = true
		for _, sub := range subs {
			if sub.SectionID == sec.ID {
				sec.Subsections = append(sec.Subsections, sub)
			}
		}
		tree = append(tree, sec)
	}
	ed.sections = tree
	return nil
}

func (ed *Editor) throttleAdd(level string) error {
	now := nowFunc()
	if last, ok := ed.lastAdd[level]; ok && now.Sub(last) < addCooldown {
		return ErrAddThrottled
	}
	ed.lastAdd[level] = now
	return nil
}

// AddSection appends a new local-only section with a default title.
func (ed *Editor) AddSection() error {
	if err := ed.throttleAdd("section"); err != nil {
		return err
	}
	n := len(ed.sections)
	ed.sections = append(ed.sections, Section{
		Title:    fmt.Sprintf("Section %d", n+1),
		Order:    n,
		CourseID: ed.courseID,
		UID:      newUID(),
	})
	return nil
}

func (ed *Editor) AddSubsection(si int) error {
	if si < 0 || si >= len(ed.sections) {
		return ErrNotFound
	}
	if err := ed.throttleAdd("subsection"); err != nil {
		return err
	}
	sec := ed.sections[si]
	n := len(sec.Subsections)
	sub := Subsection{
		Title:     fmt.Sprintf("Subsection %d", n+1),
		Order:     n,
		SectionID: sec.ID,
		UID:       newUID(),
	}
	ed.sections = replaceSection(ed.sections, si, func(s Section) Section {
		s.Subsections = append(append([]Subsection{}, s.Subsections...), sub)
		return s
	})
	return nil
}

func (ed *Editor) AddLesson(si, ssi int) error {
	sub, err := ed.subsection(si, ssi)
	if err != nil {
		return err
	}
	if err := ed.throttleAdd("lesson"); err != nil {
		return err
	}
	n := len(sub.Lessons)
	les := Lesson{
		Title:        fmt.Sprintf("Lesson %d", n+1),
		SubsectionID: sub.ID,
		UID:          newUID(),
	}
	ed.sections = replaceSubsection(ed.sections, si, ssi, func(s Subsection) Subsection {
		s.Lessons = append(append([]Lesson{}, s.Lessons...), les)
		return s
	})
	return nil
}

func (ed *Editor) AddResource(si, ssi, li int, typ string) error {
	les, err := ed.lesson(si, ssi, li)
	if err != nil {
		return err
	}
	if err := ed.throttleAdd("resource"); err != nil {
		return err
	}
	n := len(les.Resources)
	res := Resource{
		Title:    fmt.Sprintf("Resource %d", n+1),
		Type:     typ,
		Order:    n,
		LessonID: les.ID,
		UID:      newUID(),
	}
	ed.sections = replaceLesson(ed.sections, si, ssi, li, func(l Lesson) Lesson {
		l.Resources = append(append([]Resource{}, l.Resources...), res)
		return l
	})
	return nil
}

// UpdateSection applies the set fields of `us` to the section at `si`.
// The update is local only; it reaches the backend on the next Submit
// (new nodes) or an explicit PATCH via the repository.
func (ed *Editor) UpdateSection(si int, us UpdateSection) error {
	if si < 0 || si >= len(ed.sections) {
		return ErrNotFound
	}
	ed.sections = replaceSection(ed.sections, si, func(s Section) Section {
		if us.Title.Valid {
			s.Title = us.Title.String
		}
		if us.Description.Valid {
			s.Description = us.Description.String
		}
		if us.Order.Valid {
			s.Order = us.Order.Int
		}
		return s
	})
	return nil
}

func (ed *Editor) UpdateSubsection(si, ssi int, us UpdateSubsection) error {
	if _, err := ed.subsection(si, ssi); err != nil {
		return err
	}
	ed.sections = replaceSubsection(ed.sections, si, ssi, func(s Subsection) Subsection {
		if us.Title.Valid {
			s.Title = us.Title.String
		}
		if us.Description.Valid {
			s.Description = us.Description.String
		}
		if us.Order.Valid {
			s.Order = us.Order.Int
		}
		return s
	})
	return nil
}

func (ed *Editor) UpdateLesson(si, ssi, li int, ul UpdateLesson) error {
	if _, err := ed.lesson(si, ssi, li); err != nil {
		return err
	}
	ed.sections = replaceLesson(ed.sections, si, ssi, li, func(l Lesson) Lesson {
		if ul.Title.Valid {
			l.Title = ul.Title.String
		}
		if ul.Content.Valid {
			l.Content = ul.Content.String
		}
		if ul.VideoURL.Valid {
			l.VideoURL = ul.VideoURL.String
		}
		if ul.DurationMinutes.Valid {
			l.DurationMinutes = ul.DurationMinutes.Int
		}
		if ul.IsPreview.Valid {
			l.IsPreview = ul.IsPreview.Bool
		}
		return l
	})
	return nil
}

func (ed *Editor) UpdateResource(si, ssi, li, ri int, ur UpdateResource) error {
	if _, err := ed.resource(si, ssi, li, ri); err != nil {
		return err
	}
	ed.sections = replaceResource(ed.sections, si, ssi, li, ri, func(r Resource) Resource {
		if ur.Title.Valid {
			r.Title = ur.Title.String
		}
		if ur.Type.Valid {
			r.Type = ur.Type.String
		}
		if ur.Order.Valid {
			r.Order = ur.Order.Int
		}
		return r
	})
	return nil
}

// AttachLessonVideo stages a video file on a lesson for multipart upload.
func (ed *Editor) AttachLessonVideo(si, ssi, li int, f *File) error {
	if _, err := ed.lesson(si, ssi, li); err != nil {
		return err
	}
	ed.sections = replaceLesson(ed.sections, si, ssi, li, func(l Lesson) Lesson {
		l.VideoFile = f
		return l
	})
	return nil
}

// AttachResourceFile stages a file on a resource for multipart upload.
func (ed *Editor) AttachResourceFile(si, ssi, li, ri int, f *File) error {
	if _, err := ed.resource(si, ssi, li, ri); err != nil {
		return err
	}
	ed.sections = replaceResource(ed.sections, si, ssi, li, ri, func(r Resource) Resource {
		r.File = f
		return r
	})
	return nil
}

// MoveSection swaps the section at `si` with its previous/next sibling and
// renumbers their Order fields. Expansion state is unaffected: it is keyed
// by node identity, not position.
func (ed *Editor) MoveSection(si int, up bool) error {
	sj, err := swapIndex(si, up, len(ed.sections))
	if err != nil {
		return err
	}
	secs := append([]Section{}, ed.sections...)
	secs[si], secs[sj] = secs[sj], secs[si]
	secs[si].Order, secs[sj].Order = si, sj
	ed.sections = secs
	return nil
}

func (ed *Editor) MoveSubsection(si, ssi int, up bool) error {
	sec, err := ed.section(si)
	if err != nil {
		return err
	}
	ssj, err := swapIndex(ssi, up, len(sec.Subsections))
	if err != nil {
		return err
	}
	ed.sections = replaceSection(ed.sections, si, func(s Section) Section {
		subs := append([]Subsection{}, s.Subsections...)
		subs[ssi], subs[ssj] = subs[ssj], subs[ssi]
		subs[ssi].Order, subs[ssj].Order = ssi, ssj
		s.Subsections = subs
		return s
	})
	return nil
}

func (ed *Editor) MoveLesson(si, ssi, li int, up bool) error {
	sub, err := ed.subsection(si, ssi)
	if err != nil {
		return err
	}
	lj, err := swapIndex(li, up, len(sub.Lessons))
	if err != nil {
		return err
	}
	ed.sections = replaceSubsection(ed.sections, si, ssi, func(s Subsection) Subsection {
		ls := append([]Lesson{}, s.Lessons...)
		ls[li], ls[lj] = ls[lj], ls[li]
		s.Lessons = ls
		return s
	})
	return nil
}

func (ed *Editor) MoveResource(si, ssi, li, ri int, up bool) error {
	les, err := ed.lesson(si, ssi, li)
	if err != nil {
		return err
	}
	rj, err := swapIndex(ri, up, len(les.Resources))
	if err != nil {
		return err
	}
	ed.sections = replaceLesson(ed.sections, si, ssi, li, func(l Lesson) Lesson {
		rs := append([]Resource{}, l.Resources...)
		rs[ri], rs[rj] = rs[rj], rs[ri]
		rs[ri].Order, rs[rj].Order = ri, rj
		l.Resources = rs
		return l
	})
	return nil
}

// DeleteSection removes the section at `si`. A persisted section requires
// confirmation (the server delete cascades to all descendants) and leaves
// local state only once the server call succeeds; a local-only section is
// removed immediately with no network call.
func (ed *Editor) DeleteSection(ctx context.Context, si int) error {
	sec, err := ed.section(si)
	if err != nil {
		return err
	}
	if sec.Existing {
		if !ed.confirm(fmt.Sprintf("Delete section %q and everything under it?", sec.Title)) {
			return nil
		}
		if err := ed.repo.DeleteSection(ctx, sec.ID); err != nil {
			return err
		}
	}
	ed.exp.Forget(sec)
	ed.sections = append(append([]Section{}, ed.sections[:si]...), ed.sections[si+1:]...)
	return nil
}

func (ed *Editor) DeleteSubsection(ctx context.Context, si, ssi int) error {
	sub, err := ed.subsection(si, ssi)
	if err != nil {
		return err
	}
	if sub.Existing {
		if !ed.confirm(fmt.Sprintf("Delete subsection %q and everything under it?", sub.Title)) {
			return nil
		}
		if err := ed.repo.DeleteSubsection(ctx, sub.ID); err != nil {
			return err
		}
	}
	ed.exp.ForgetSubsection(sub)
	ed.sections = replaceSection(ed.sections, si, func(s Section) Section {
		s.Subsections = append(append([]Subsection{}, s.Subsections[:ssi]...), s.Subsections[ssi+1:]...)
		return s
	})
	return nil
}

func (ed *Editor) DeleteLesson(ctx context.Context, si, ssi, li int) error {
	les, err := ed.lesson(si, ssi, li)
	if err != nil {
		return err
	}
	if les.Existing {
		if !ed.confirm(fmt.Sprintf("Delete lesson %q and its resources?", les.Title)) {
			return nil
		}
		if err := ed.repo.DeleteLesson(ctx, les.ID); err != nil {
			return err
		}
	}
	ed.exp.ForgetLesson(les)
	ed.sections = replaceSubsection(ed.sections, si, ssi, func(s Subsection) Subsection {
		s.Lessons = append(append([]Lesson{}, s.Lessons[:li]...), s.Lessons[li+1:]...)
		return s
	})
	return nil
}

func (ed *Editor) DeleteResource(ctx context.Context, si, ssi, li, ri int) error {
	res, err := ed.resource(si, ssi, li, ri)
	if err != nil {
		return err
	}
	if res.Existing {
		if !ed.confirm(fmt.Sprintf("Delete resource %q?", res.Title)) {
			return nil
		}
		if err := ed.repo.DeleteResource(ctx, res.ID); err != nil {
			return err
		}
	}
	ed.sections = replaceLesson(ed.sections, si, ssi, li, func(l Lesson) Lesson {
		l.Resources = append(append([]Resource{}, l.Resources[:ri]...), l.Resources[ri+1:]...)
		return l
	})
	return nil
}

// Submit walks the tree top-down and persists every node still local-only,
// threading freshly assigned parent ids down before children are created.
// Nodes are promoted to existing as their creations succeed, so a failed
// pass can be resumed: the next Submit picks up from the failure point
// instead of re-creating ancestors. On full success the tree is reloaded
// from the server.
func (ed *Editor) Submit(ctx context.Context) (Created, error) {
	var created Created
	for si := range ed.sections {
		sec := &ed.sections[si]
		if !sec.Existing {
			ns := NewSection{Title: sec.Title, Description: sec.Description, Order: sec.Order, Course: ed.courseID}
			if err := ns.Validate(); err != nil {
				return created, err
			}
			out, err := ed.repo.CreateSection(ctx, ns)
			if err != nil {
				return created, err
			}
			sec.ID = out.ID
			sec.Existing = true
			created.Sections++
		}
		for ssi := range sec.Subsections {
			sub := &sec.Subsections[ssi]
			sub.SectionID = sec.ID
			if !sub.Existing {
				ns := NewSubsection{Title: sub.Title, Description: sub.Description, Order: sub.Order, Section: sec.ID}
				if err := ns.Validate(); err != nil {
					return created, err
				}
				out, err := ed.repo.CreateSubsection(ctx, ns)
				if err != nil {
					return created, err
				}
				sub.ID = out.ID
				sub.Existing = true
				created.Subsections++
			}
			for li := range sub.Lessons {
				les := &sub.Lessons[li]
				les.SubsectionID = sub.ID
				if !les.Existing {
					nl := NewLesson{
						Title:           les.Title,
						Content:         les.Content,
						VideoURL:        les.VideoURL,
						DurationMinutes: les.DurationMinutes,
						IsPreview:       les.IsPreview,
						Subsection:      sub.ID,
						VideoFile:       les.VideoFile,
					}
					if err := nl.Validate(); err != nil {
						return created, err
					}
					out, err := ed.repo.CreateLesson(ctx, nl)
					if err != nil {
						return created, err
					}
					les.ID = out.ID
					les.Existing = true
					created.Lessons++
				}
				for ri := range les.Resources {
					res := &les.Resources[ri]
					res.LessonID = les.ID
					if !res.Existing {
						nr := NewResource{Title: res.Title, Type: res.Type, Order: res.Order, Lesson: les.ID, File: res.File}
						if err := nr.Validate(); err != nil {
							return created, err
						}
						out, err := ed.repo.CreateResource(ctx, nr)
						if err != nil {
							return created, err
						}
						res.ID = out.ID
						res.Existing = true
						created.Resources++
					}
				}
			}
		}
	}
	if err := ed.Load(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// index helpers

func (ed *Editor) section(si int) (Section, error) {
	if si < 0 || si >= len(ed.sections) {
		return Section{}, ErrNotFound
	}
	return ed.sections[si], nil
}

func (ed *Editor) subsection(si, ssi int) (Subsection, error) {
	sec, err := ed.section(si)
	if err != nil {
		return Subsection{}, err
	}
	if ssi < 0 || ssi >= len(sec.Subsections) {
		return Subsection{}, ErrNotFound
	}
	return sec.Subsections[ssi], nil
}

func (ed *Editor) lesson(si, ssi, li int) (Lesson, error) {
	sub, err := ed.subsection(si, ssi)
	if err != nil {
		return Lesson{}, err
	}
	if li < 0 || li >= len(sub.Lessons) {
		return Lesson{}, ErrNotFound
	}
	return sub.Lessons[li], nil
}

func (ed *Editor) resource(si, ssi, li, ri int) (Resource, error) {
	les, err := ed.lesson(si, ssi, li)
	if err != nil {
		return Resource{}, err
	}
	if ri < 0 || ri >= len(les.Resources) {
		return Resource{}, ErrNotFound
	}
	return les.Resources[ri], nil
}

func swapIndex(i int, up bool, length int) (int, error) {
	if i < 0 || i >= length {
		return 0, ErrNotFound
	}
	j := i + 1
	if up {
		j = i - 1
	}
	if j < 0 || j >= length {
		return 0, ErrNotFound
	}
	return j, nil
}

// immutable map-and-replace helpers: rebuild the path to the changed node,
// leaving untouched siblings as-is.

func replaceSection(secs []Section, si int, fn func(Section) Section) []Section {
	out := append([]Section{}, secs...)
	out[si] = fn(out[si])
	return out
}

func replaceSubsection(secs []Section, si, ssi int, fn func(Subsection) Subsection) []Section {
	return replaceSection(secs, si, func(s Section) Section {
		subs := append([]Subsection{}, s.Subsections...)
		subs[ssi] = fn(subs[ssi])
		s.Subsections = subs
		return s
	})
}

func replaceLesson(secs []Section, si, ssi, li int, fn func(Lesson) Lesson) []Section {
	return replaceSubsection(secs, si, ssi, func(s Subsection) Subsection {
		ls := append([]Lesson{}, s.Lessons...)
		ls[li] = fn(ls[li])
		s.Lessons = ls
		return s
	})
}

func replaceResource(secs []Section, si, ssi, li, ri int, fn func(Resource) Resource) []Section {
	return replaceLesson(secs, si, ssi, li, func(l Lesson) Lesson {
		rs := append([]Resource{}, l.Resources...)
		rs[ri] = fn(rs[ri])
		l.Resources = rs
		return l
	})
}
