package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/darasa/core/account"
)

func (cli *commandLine) login(uname, pwd string) error {
	ctx := context.Background()
	creds := account.Credentials{Username: uname, Password: pwd}
	if err := cli.api.Login(ctx, creds); err != nil {
		return err
	}
	prof, err := cli.api.GetProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome back, %s!\n", prof.Name)
	return nil
}

// status reports the stored session without touching the network.
func (cli *commandLine) status() error {
	if !cli.api.LoggedIn() {
		fmt.Fprintln(cli.out, "Not logged in.")
		return nil
	}
	claims, err := cli.api.Whoami()
	if err != nil {
		// opaque access token; the pair is still usable
		fmt.Fprintln(cli.out, "Logged in.")
		return nil
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", claims.Username, strings.Join(claims.Roles, ", "))
	if cli.api.AccessExpired() {
		fmt.Fprintln(cli.out, "Access token expired; it will be refreshed on the next call.")
	}
	return nil
}
