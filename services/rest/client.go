package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

var (
	// ErrCannotConnect wraps transport-level failures (no response at all).
	ErrCannotConnect = errors.New("cannot connect to the server")
	// ErrAuthExpired is returned once the session has been cleared: the
	// refresh failed, or a refreshed request still came back 401/403.
	ErrAuthExpired = errors.New("session expired, please log in again")
)

type (
	Options struct {
		Conf    *core.Config
		Session session.Store
		Logger  core.Logger
		// OnAuthExpired runs after the session has been cleared. The browser
		// frontend hard-redirected to /login here; callers map it to their
		// own re-login flow.
		OnAuthExpired func()
	}

	// Client talks to the backend REST API. It attaches the bearer token
	// from the session store to every request and transparently refreshes
	// an expired access token, at most once per original request.
	Client struct {
		http          *resty.Client
		session       session.Store
		log           core.Logger
		onAuthExpired func()
	}
)

func NewClient(opts *Options) *Client {
	log := opts.Logger
	if log == nil {
		log = core.NopLogger{}
	}
	onExpired := opts.OnAuthExpired
	if onExpired == nil {
		onExpired = func() {}
	}
	h := resty.New().
		SetBaseURL(opts.Conf.API.BaseURL).
		SetTimeout(opts.Conf.API.Timeout).
		SetHeader("User-Agent", opts.Conf.AppName+"/"+opts.Conf.Build)
	return &Client{
		http:          h,
		session:       opts.Session,
		log:           log,
		onAuthExpired: onExpired,
	}
}

// do sends an authenticated request. On a 401 it refreshes the access token
// exactly once and replays the request (rebuilt from scratch, so multipart
// bodies survive the replay); a refresh failure, or a 401/403 on the
// replayed request, clears the session and fires OnAuthExpired. There is no
// linearization across concurrent requests: each 401'd request refreshes on
// its own.
func (c *Client) do(ctx context.Context, method, path string, build func(req *resty.Request)) (*resty.Response, error) {
	attempt := func() (*resty.Response, error) {
		req := c.http.R().SetContext(ctx)
		if build != nil {
			build(req)
		}
		if tok := c.session.Access(); tok != "" {
			req.SetAuthToken(tok)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, errors.Wrap(ErrCannotConnect, err.Error())
		}
		return resp, nil
	}

	resp, err := attempt()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		if err := c.refreshAccess(ctx); err != nil {
			c.log.Debug("token refresh failed", err)
			return nil, c.expire()
		}
		if resp, err = attempt(); err != nil {
			return nil, err
		}
		if sc := resp.StatusCode(); sc == http.StatusUnauthorized || sc == http.StatusForbidden {
			return nil, c.expire()
		}
	}
	return resp, nil
}

// refreshAccess trades the stored refresh token for a new access token.
func (c *Client) refreshAccess(ctx context.Context) error {
	rtok := c.session.Refresh()
	if rtok == "" {
		return errors.New("no refresh token")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh": rtok}).
		Post("/api/token/refresh/")
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	if resp.IsError() {
		return apiError(resp)
	}
	var out struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return errors.Wrap(err, "decoding refresh response")
	}
	return c.session.SetAccess(out.Access)
}

func (c *Client) expire() error {
	if err := c.session.Clear(); err != nil {
		c.log.Error("clearing session failed", err)
	}
	c.onAuthExpired()
	return ErrAuthExpired
}

// decode surfaces API errors or unmarshals the response body into out.
func decode(resp *resty.Response, out interface{}) error {
	if resp.IsError() {
		return apiError(resp)
	}
	if out == nil || resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	return errors.Wrap(json.Unmarshal(resp.Body(), out), "decoding response")
}

// APIError is a non-2xx backend response, carrying the first available
// message among `detail`, `message` and field-specific error arrays.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

func apiError(resp *resty.Response) error {
	apiErr := &APIError{Status: resp.StatusCode()}

	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return apiErr
	}
	if detail, ok := body["detail"].(string); ok {
		apiErr.Message = detail
		return apiErr
	}
	if msg, ok := body["message"].(string); ok {
		apiErr.Message = msg
		return apiErr
	}
	// field-specific arrays: {"title": ["This field is required."]};
	// fields are walked in sorted order so the surfaced message is stable
	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msgs, ok := body[field].([]interface{})
		if !ok || len(msgs) == 0 {
			continue
		}
		msg, ok := msgs[0].(string)
		if !ok {
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string]string)
		}
		apiErr.Fields[field] = msg
		if apiErr.Message == "" {
			apiErr.Message = field + ": " + msg
		}
	}
	return apiErr
}
