// Package client talks to the photofeed gateway on behalf of one session.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"photofeed/internal/engagement"
	"photofeed/internal/feed"
)

const DefaultTimeout = 10 * time.Second

// SessionCookie must match the gateway's cookie name.
const SessionCookie = "session_id"

var ErrUnauthorized = errors.New("must be logged in")

// StatusError is any non-2xx answer from the gateway.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway status %d", e.Code)
	}
	return fmt.Sprintf("gateway status %d: %s", e.Code, e.Message)
}

type Client struct {
	base    string
	session string
	hc      *http.Client
}

// New returns a client for base. An empty session makes the client anonymous.
func New(base, session string) *Client {
	if base == "" {
		base = getenv("PHOTOFEED_URL", "http://localhost:8080")
	}
	return &Client{
		base:    base,
		session: session,
		hc: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// LoggedIn reports whether requests carry a session.
func (c *Client) LoggedIn() bool { return c.session != "" }

// Like implements engagement.API.
func (c *Client) Like(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodPost, "/api/likes/"+strconv.FormatInt(postID, 10), nil, nil)
}

func (c *Client) Unlike(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/likes/"+strconv.FormatInt(postID, 10), nil, nil)
}

func (c *Client) Status(ctx context.Context, postID int64) (engagement.State, error) {
	var out struct {
		IsLiked bool  `json:"isLiked"`
		Count   int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/likes/"+strconv.FormatInt(postID, 10)+"/check", nil, &out); err != nil {
		return engagement.State{}, err
	}
	return engagement.State{Liked: out.IsLiked, Count: out.Count}, nil
}

// FeedOptions mirrors the feed endpoint's query parameters.
type FeedOptions struct {
	Limit        int
	Cursor       string
	FollowedOnly bool
	Sort         string
	Order        string
}

func (o FeedOptions) values() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Cursor != "" {
		q.Set("cursor", o.Cursor)
	}
	if o.FollowedOnly {
		q.Set("followedOnly", "true")
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	return q
}

// Feed fetches one page of the feed.
func (c *Client) Feed(ctx context.Context, opts FeedOptions) (*feed.Page, error) {
	var page feed.Page
	if err := c.do(ctx, http.MethodGet, "/api/feed", opts.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ engagement.API = (*Client)(nil)
