package main

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/audit"
)

func (cli *commandLine) profile(name, uname, email string, changePwd bool) error {
	ctx := context.Background()
	prof, err := cli.api.GetProfile(ctx)
	if err != nil {
		return err
	}

	up := account.UpdateProfile{}
	if name != "" {
		up.Name = null.StringFrom(name)
	}
	if uname != "" {
		up.Username = null.StringFrom(uname)
	}
	if email != "" {
		up.Email = null.StringFrom(email)
	}
	if changePwd {
		fmt.Fprint(cli.out, "New password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		fmt.Fprint(cli.out, "Confirm password:")
		confirm, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		up.Password = string(pwd)
		up.PasswordConfirm = string(confirm)
	}

	if len(up.Values()) > 0 {
		if err := up.Validate(prof); err != nil {
			return err
		}
		if prof, err = cli.api.UpdateProfile(ctx, up); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Profile updated.")
	}

	fmt.Fprintf(cli.out, "%s <%s>\n", prof.Name, prof.Email)
	fmt.Fprintf(cli.out, "username: %s\n", prof.Username)
	fmt.Fprintf(cli.out, "roles:    %s\n", strings.Join(prof.Roles, ", "))
	return nil
}

func (cli *commandLine) audit(action, actor, search string, page int) error {
	ctx := context.Background()
	res, err := cli.api.ListEntries(ctx, audit.QueryFilter{Action: action, Actor: actor, Page: page})
	if err != nil {
		return err
	}
	entries := audit.Search(res.Results, search)

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tTARGET\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.Actor, e.Action, e.Target, e.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d of %d entries\n", len(entries), res.Count)
	return nil
}
