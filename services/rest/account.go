package rest

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/darasa/core/account"
)

var _ account.Repository = (*Client)(nil)

func (c *Client) GetProfile(ctx context.Context) (account.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/profile/", nil)
	if err != nil {
		return account.Profile{}, err
	}
	var prof account.Profile
	if err := decode(resp, &prof); err != nil {
		return account.Profile{}, err
	}
	return prof, nil
}

// UpdateProfile PATCHes only the fields set on `up`. Validation (including
// the password policy) is expected to have run already via
// UpdateProfile.Validate.
func (c *Client) UpdateProfile(ctx context.Context, up account.UpdateProfile) (account.Profile, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/profile/", func(req *resty.Request) {
		req.SetBody(up.Values())
	})
	if err != nil {
		return account.Profile{}, err
	}
	var prof account.Profile
	if err := decode(resp, &prof); err != nil {
		return account.Profile{}, err
	}
	return prof, nil
}
