package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/course"
)

// structure runs the interactive course-structure editor. The tree lives in
// memory for the lifetime of the session; `submit` persists new nodes and
// reloads from the server.
func (cli *commandLine) structure(courseID int) error {
	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)

	confirm := func(prompt string) bool {
		fmt.Fprintf(cli.out, "%s [y/N] ", prompt)
		if !in.Scan() {
			return false
		}
		ans := strings.ToLower(strings.TrimSpace(in.Text()))
		return ans == "y" || ans == "yes"
	}

	ed := course.NewEditor(cli.api, cli.log, confirm)
	ed.SetCourse(courseID)
	if err := ed.Load(ctx); err != nil {
		return err
	}
	cli.printTree(ed)
	cli.printEditorUsage()

	for {
		fmt.Fprint(cli.out, "> ")
		if !in.Scan() {
			return nil
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "quit", "q":
			return nil
		case "help":
			cli.printEditorUsage()
			continue
		case "tree":
		case "reload":
			err = ed.Load(ctx)
		case "expand":
			ed.Expansion().ExpandAll(ed.Sections())
		case "collapse":
			ed.Expansion().CollapseAll()
		case "open":
			err = cli.toggle(ed, fields[1:])
		case "add":
			err = cli.addNode(ed, fields[1:])
		case "title":
			err = cli.retitle(ed, fields[1:])
		case "move":
			err = cli.move(ed, fields[1:])
		case "del":
			err = cli.deleteNode(ctx, ed, fields[1:])
		case "submit":
			var created course.Created
			if created, err = ed.Submit(ctx); err == nil {
				fmt.Fprintf(cli.out, "Created %d sections, %d subsections, %d lessons, %d resources.\n",
					created.Sections, created.Subsections, created.Lessons, created.Resources)
			} else if created.Total() > 0 {
				// non-transactional: some ancestors are already persisted;
				// the next submit resumes from the failure point.
				fmt.Fprintf(cli.out, "Partially saved (%d nodes); fix the error and `submit` again.\n", created.Total())
			}
		default:
			fmt.Fprintf(cli.out, "unknown command %q\n", fields[0])
			continue
		}
		if err != nil {
			fmt.Fprintf(cli.out, "error: %s\n", err)
			continue
		}
		cli.printTree(ed)
	}
}

func (cli *commandLine) printEditorUsage() {
	fmt.Fprintln(cli.out, `commands:
  tree                                  - reprint the tree
  open <si> [ssi] [li]                  - toggle a node open/closed
  expand | collapse                     - expand/collapse everything
  add section | add <si> | add <si> <ssi> | add <si> <ssi> <li> <type>
  title <si> [ssi] [li] [ri] <text...>  - rename a node
  move <si> [ssi] [li] [ri] up|down     - reorder a node among its siblings
  del <si> [ssi] [li] [ri]              - delete a node
  submit                                - persist new nodes, then reload
  reload | quit`)
}

func (cli *commandLine) printTree(ed *course.Editor) {
	exp := ed.Expansion()
	for si, sec := range ed.Sections() {
		fmt.Fprintf(cli.out, "%s [%d] %s%s\n", marker(exp.SectionExpanded(sec)), si, sec.Title, newTag(sec.Existing))
		if !exp.SectionExpanded(sec) {
			continue
		}
		for ssi, sub := range sec.Subsections {
			fmt.Fprintf(cli.out, "  %s [%d.%d] %s%s\n", marker(exp.SubsectionExpanded(sub)), si, ssi, sub.Title, newTag(sub.Existing))
			if !exp.SubsectionExpanded(sub) {
				continue
			}
			for li, les := range sub.Lessons {
				fmt.Fprintf(cli.out, "    %s [%d.%d.%d] %s%s\n", marker(exp.LessonExpanded(les)), si, ssi, li, les.Title, newTag(les.Existing))
				if !exp.LessonExpanded(les) {
					continue
				}
				for ri, res := range les.Resources {
					fmt.Fprintf(cli.out, "        [%d.%d.%d.%d] (%s) %s%s\n", si, ssi, li, ri, res.Type, res.Title, newTag(res.Existing))
				}
			}
		}
	}
}

func marker(expanded bool) string {
	if expanded {
		return "-"
	}
	return "+"
}

func newTag(existing bool) string {
	if existing {
		return ""
	}
	return " *new*"
}

func (cli *commandLine) toggle(ed *course.Editor, args []string) error {
	idx, err := atois(args)
	if err != nil {
		return err
	}
	exp, secs := ed.Expansion(), ed.Sections()
	switch len(idx) {
	case 1:
		if idx[0] < 0 || idx[0] >= len(secs) {
			return course.ErrNotFound
		}
		exp.ToggleSection(secs[idx[0]])
	case 2:
		if idx[0] < 0 || idx[0] >= len(secs) ||
			idx[1] < 0 || idx[1] >= len(secs[idx[0]].Subsections) {
			return course.ErrNotFound
		}
		exp.ToggleSubsection(secs[idx[0]].Subsections[idx[1]])
	case 3:
		if idx[0] < 0 || idx[0] >= len(secs) ||
			idx[1] < 0 || idx[1] >= len(secs[idx[0]].Subsections) ||
			idx[2] < 0 || idx[2] >= len(secs[idx[0]].Subsections[idx[1]].Lessons) {
			return course.ErrNotFound
		}
		exp.ToggleLesson(secs[idx[0]].Subsections[idx[1]].Lessons[idx[2]])
	default:
		return fmt.Errorf("open takes 1 to 3 indices")
	}
	return nil
}

func (cli *commandLine) addNode(ed *course.Editor, args []string) error {
	if len(args) == 1 && args[0] == "section" {
		return ed.AddSection()
	}
	// resource type rides along as the last arg
	typ := course.ResourceDocument
	if len(args) == 4 {
		typ = args[len(args)-1]
		args = args[:len(args)-1]
	}
	idx, err := atois(args)
	if err != nil {
		return err
	}
	switch len(idx) {
	case 1:
		return ed.AddSubsection(idx[0])
	case 2:
		return ed.AddLesson(idx[0], idx[1])
	case 3:
		return ed.AddResource(idx[0], idx[1], idx[2], typ)
	}
	return fmt.Errorf("add takes `section` or 1 to 3 indices")
}

func (cli *commandLine) retitle(ed *course.Editor, args []string) error {
	idx, rest := leadingInts(args)
	title := strings.Join(rest, " ")
	if title == "" {
		return fmt.Errorf("missing new title")
	}
	switch len(idx) {
	case 1:
		return ed.UpdateSection(idx[0], course.UpdateSection{Title: null.StringFrom(title)})
	case 2:
		return ed.UpdateSubsection(idx[0], idx[1], course.UpdateSubsection{Title: null.StringFrom(title)})
	case 3:
		return ed.UpdateLesson(idx[0], idx[1], idx[2], course.UpdateLesson{Title: null.StringFrom(title)})
	case 4:
		return ed.UpdateResource(idx[0], idx[1], idx[2], idx[3], course.UpdateResource{Title: null.StringFrom(title)})
	}
	return fmt.Errorf("title takes 1 to 4 indices then the new title")
}

func (cli *commandLine) move(ed *course.Editor, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("move takes indices then up|down")
	}
	up := args[len(args)-1] == "up"
	idx, err := atois(args[:len(args)-1])
	if err != nil {
		return err
	}
	switch len(idx) {
	case 1:
		return ed.MoveSection(idx[0], up)
	case 2:
		return ed.MoveSubsection(idx[0], idx[1], up)
	case 3:
		return ed.MoveLesson(idx[0], idx[1], idx[2], up)
	case 4:
		return ed.MoveResource(idx[0], idx[1], idx[2], idx[3], up)
	}
	return fmt.Errorf("move takes 1 to 4 indices then up|down")
}

func (cli *commandLine) deleteNode(ctx context.Context, ed *course.Editor, args []string) error {
	idx, err := atois(args)
	if err != nil {
		return err
	}
	switch len(idx) {
	case 1:
		return ed.DeleteSection(ctx, idx[0])
	case 2:
		return ed.DeleteSubsection(ctx, idx[0], idx[1])
	case 3:
		return ed.DeleteLesson(ctx, idx[0], idx[1], idx[2])
	case 4:
		return ed.DeleteResource(ctx, idx[0], idx[1], idx[2], idx[3])
	}
	return fmt.Errorf("del takes 1 to 4 indices")
}

func atois(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not an index", a)
		}
		out = append(out, n)
	}
	return out, nil
}

// leadingInts splits args into the leading run of integers and the rest.
func leadingInts(args []string) ([]int, []string) {
	var idx []int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return idx, args[i:]
		}
		idx = append(idx, n)
	}
	return idx, nil
}
