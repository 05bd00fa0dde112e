package course

// Expansion tracks which tree nodes are visually expanded.
// Keys are stable node identities (Section.Key() etc), never positional
// indices, so reordering or deleting a sibling cannot shift the mapping.
// Purely local state; never persisted, reset on course change.
type Expansion struct {
	sections    map[string]struct{}
	subsections map[string]struct{}
	lessons     map[string]struct{}
}

func NewExpansion() *Expansion {
	exp := new(Expansion)
	exp.Reset()
	return exp
}

func (exp *Expansion) Reset() {
	exp.sections = make(map[string]struct{})
	exp.subsections = make(map[string]struct{})
	exp.lessons = make(map[string]struct{})
}

func (exp *Expansion) SectionExpanded(sec Section) bool {
	_, ok := exp.sections[sec.Key()]
	return ok
}

func (exp *Expansion) SubsectionExpanded(sub Subsection) bool {
	_, ok := exp.subsections[sub.Key()]
	return ok
}

func (exp *Expansion) LessonExpanded(les Lesson) bool {
	_, ok := exp.lessons[les.Key()]
	return ok
}

// ToggleSection flips a section open or closed.
// Collapsing cascades: all descendant subsection/lesson keys are dropped
// so re-expanding starts from a collapsed subtree.
func (exp *Expansion) ToggleSection(sec Section) {
	key := sec.Key()
	if _, ok := exp.sections[key]; ok {
		delete(exp.sections, key)
		for _, sub := range sec.Subsections {
			delete(exp.subsections, sub.Key())
			for _, les := range sub.Lessons {
				delete(exp.lessons, les.Key())
			}
		}
		return
	}
	exp.sections[key] = struct{}{}
}

func (exp *Expansion) ToggleSubsection(sub Subsection) {
	key := sub.Key()
	if _, ok := exp.subsections[key]; ok {
		delete(exp.subsections, key)
		for _, les := range sub.Lessons {
			delete(exp.lessons, les.Key())
		}
		return
	}
	exp.subsections[key] = struct{}{}
}

func (exp *Expansion) ToggleLesson(les Lesson) {
	key := les.Key()
	if _, ok := exp.lessons[key]; ok {
		delete(exp.lessons, key)
		return
	}
	exp.lessons[key] = struct{}{}
}

// ExpandAll opens every node of the given tree.
func (exp *Expansion) ExpandAll(sections []Section) {
	for _, sec := range sections {
		exp.sections[sec.Key()] = struct{}{}
		for _, sub := range sec.Subsections {
			exp.subsections[sub.Key()] = struct{}{}
			for _, les := range sub.Lessons {
				exp.lessons[les.Key()] = struct{}{}
			}
		}
	}
}

func (exp *Expansion) CollapseAll() { exp.Reset() }

// Forget drops any keys belonging to the given section subtree.
// Called when a section is deleted.
func (exp *Expansion) Forget(sec Section) {
	delete(exp.sections, sec.Key())
	for _, sub := range sec.Subsections {
		exp.ForgetSubsection(sub)
	}
}

func (exp *Expansion) ForgetSubsection(sub Subsection) {
	delete(exp.subsections, sub.Key())
	for _, les := range sub.Lessons {
		delete(exp.lessons, les.Key())
	}
}

func (exp *Expansion) ForgetLesson(les Lesson) {
	delete(exp.lessons, les.Key())
}

// Len reports the sizes of the three key sets; mostly useful in tests.
func (exp *Expansion) Len() (sections, subsections, lessons int) {
	return len(exp.sections), len(exp.subsections), len(exp.lessons)
}
