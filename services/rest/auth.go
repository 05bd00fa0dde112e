package rest

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/session"
)

// Login authenticates against the backend and stores the returned token
// pair in the session store. No bearer token is attached and no refresh is
// attempted for this call.
func (c *Client) Login(ctx context.Context, creds account.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(creds).
		Post("/api/login/")
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	if resp.IsError() {
		return apiError(resp)
	}
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return errors.Wrap(err, "decoding login response")
	}
	return c.session.Set(out.Access, out.Refresh)
}

// Logout drops the stored tokens. Purely local; the backend keeps no
// session state beyond token expiry.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// LoggedIn reports whether a usable token pair is stored.
func (c *Client) LoggedIn() bool {
	return c.session.Refresh() != ""
}

// Whoami peeks at the stored access token's claims without a network call.
func (c *Client) Whoami() (*session.Claims, error) {
	return session.PeekClaims(c.session.Access())
}

// AccessExpired reports whether the stored access token is past its expiry.
// An expired token is not fatal; the next request refreshes it.
func (c *Client) AccessExpired() bool {
	return session.Expired(c.session.Access())
}
