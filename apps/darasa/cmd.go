package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/rest"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	api *rest.Client
	log core.Logger
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME|EMAIL          - log in (password prompted)")
	fmt.Fprintln(cli.out, "  logout                                  - drop the stored session")
	fmt.Fprintln(cli.out, "  status                                  - show the stored session")
	fmt.Fprintln(cli.out, "  catalog [-search Q] [-page N] ...       - browse the course catalog")
	fmt.Fprintln(cli.out, "  mycourses [-search Q]                   - list enrolled courses")
	fmt.Fprintln(cli.out, "  enroll -course ID                       - enroll in a course")
	fmt.Fprintln(cli.out, "  enrollments [-status S] [-course ID]    - manage enrollments (admin)")
	fmt.Fprintln(cli.out, "  profile [-name N] [-username U] ...     - show or update your profile")
	fmt.Fprintln(cli.out, "  audit [-action A] [-actor U] [-search Q]- view audit logs (admin)")
	fmt.Fprintln(cli.out, "  structure -course ID                    - edit a course structure (interactive)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		cmd := flag.NewFlagSet("login", flag.ExitOnError)
		uname := cmd.String("username", "", "Your username or email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.login(*uname, string(pwd))

	case "logout":
		return cli.api.Logout()

	case "status":
		return cli.status()

	case "catalog":
		cmd := flag.NewFlagSet("catalog", flag.ExitOnError)
		search := cmd.String("search", "", "Search query (server-side + local narrowing).")
		category := cmd.String("category", "", "Category filter.")
		ordering := cmd.String("ordering", "", "Server-side ordering field.")
		page := cmd.Int("page", 0, "Page number.")
		pageSize := cmd.Int("page-size", 0, "Page size.")
		sortBy := cmd.String("sort", "", "Local sort field: title|price|created_at.")
		desc := cmd.Bool("desc", false, "Sort descending.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.catalog(*search, *category, *ordering, *page, *pageSize, *sortBy, *desc)

	case "mycourses":
		cmd := flag.NewFlagSet("mycourses", flag.ExitOnError)
		search := cmd.String("search", "", "Narrow the list locally.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.myCourses(*search)

	case "enroll":
		cmd := flag.NewFlagSet("enroll", flag.ExitOnError)
		courseID := cmd.Int("course", 0, "The course to enroll in.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *courseID == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.enroll(*courseID)

	case "enrollments":
		cmd := flag.NewFlagSet("enrollments", flag.ExitOnError)
		status := cmd.String("status", "", "Filter by status.")
		courseID := cmd.Int("course", 0, "Filter by course.")
		search := cmd.String("search", "", "Narrow the list locally.")
		approve := cmd.Int("approve", 0, "Approve (activate) the given enrollment.")
		revoke := cmd.Int("revoke", 0, "Revoke the given enrollment.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.enrollments(*status, *courseID, *search, *approve, *revoke)

	case "profile":
		cmd := flag.NewFlagSet("profile", flag.ExitOnError)
		name := cmd.String("name", "", "New full name.")
		uname := cmd.String("username", "", "New username.")
		email := cmd.String("email", "", "New email.")
		password := cmd.Bool("password", false, "Change password (prompted).")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.profile(*name, *uname, *email, *password)

	case "audit":
		cmd := flag.NewFlagSet("audit", flag.ExitOnError)
		action := cmd.String("action", "", "Filter by action.")
		actor := cmd.String("actor", "", "Filter by actor.")
		search := cmd.String("search", "", "Narrow the list locally.")
		page := cmd.Int("page", 0, "Page number.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.audit(*action, *actor, *search, *page)

	case "structure":
		cmd := flag.NewFlagSet("structure", flag.ExitOnError)
		courseID := cmd.Int("course", 0, "The course whose structure to edit.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *courseID == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.structure(*courseID)

	default:
		cli.printUsage()
		return errHelp
	}
}
