package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gramflow/gramflow/internal/model"
	"github.com/gramflow/gramflow/internal/proxy"
)

// listingPageSize is the number of entries requested per listing page.
const listingPageSize = 50

// HTTPClient is a Client backed by a JSON-over-HTTP API. Requests are
// routed through a proxy pool when one is configured; a proxy failure
// evicts the proxy and the request is retried directly.
type HTTPClient struct {
	baseURL string
	direct  *http.Client
	pool    *proxy.Pool
	timeout time.Duration
	logger  *slog.Logger

	// populated after Login
	sessionToken string
}

// NewHTTPClient creates a client for the API at baseURL. pool may be
// nil, in which case every request connects directly.
func NewHTTPClient(baseURL string, pool *proxy.Pool, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		direct: &http.Client{
			Timeout: timeout,
		},
		pool:    pool,
		timeout: timeout,
		logger:  logger,
	}
}

// Login authenticates with the API and stores the session token for
// subsequent requests.
func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp sessionResponse
	if err := c.post(ctx, "/api/v1/session", body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.sessionToken = resp.Token
	return nil
}

// FetchProfile implements Client.
func (c *HTTPClient) FetchProfile(ctx context.Context, username string) (*model.Profile, error) {
	if c.sessionToken == "" {
		return nil, ErrNotAuthenticated
	}

	var p model.Profile
	err := c.get(ctx, "/api/v1/users/"+url.PathEscape(username), nil, &p)
	if err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
		}
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return &p, nil
}

// ListFollowers implements Client.
func (c *HTTPClient) ListFollowers(ctx context.Context, username string) (Listing, error) {
	if c.sessionToken == "" {
		return nil, ErrNotAuthenticated
	}
	return &pagedListing{
		client: c,
		path:   "/api/v1/users/" + url.PathEscape(username) + "/followers",
	}, nil
}

// ListFollowing implements Client.
func (c *HTTPClient) ListFollowing(ctx context.Context, username string) (Listing, error) {
	if c.sessionToken == "" {
		return nil, ErrNotAuthenticated
	}
	return &pagedListing{
		client: c,
		path:   "/api/v1/users/" + url.PathEscape(username) + "/following",
	}, nil
}

// pagedListing walks a cursor-paginated listing endpoint, fetching the
// next page when the buffered entries run out.
type pagedListing struct {
	client *HTTPClient
	path   string

	buf    []model.AccountRef
	cursor string
	done   bool
}

// Next implements Listing.
func (l *pagedListing) Next(ctx context.Context) (*model.AccountRef, error) {
	if len(l.buf) == 0 {
		if l.done {
			return nil, ErrEndOfList
		}
		if err := l.fetchPage(ctx); err != nil {
			return nil, err
		}
		if len(l.buf) == 0 {
			return nil, ErrEndOfList
		}
	}

	ref := l.buf[0]
	l.buf = l.buf[1:]
	return &ref, nil
}

// Cursor implements Listing.
func (l *pagedListing) Cursor() string {
	return l.cursor
}

func (l *pagedListing) fetchPage(ctx context.Context) error {
	params := url.Values{}
	params.Set("count", fmt.Sprint(listingPageSize))
	if l.cursor != "" {
		params.Set("cursor", l.cursor)
	}

	var page listingPage
	if err := l.client.get(ctx, l.path, params, &page); err != nil {
		return fmt.Errorf("fetch listing page: %w", err)
	}

	l.buf = page.Users
	l.cursor = page.NextCursor
	// An empty cursor on a fetched page means this was the last one.
	l.done = page.NextCursor == "" || !page.HasMore
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, result any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

// do sends the request, preferring a pooled proxy. If the proxied
// attempt fails at the transport level the proxy is evicted and the
// request is retried on a direct connection.
func (c *HTTPClient) do(req *http.Request, result any) error {
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	if c.pool != nil {
		if p, ok := c.pool.Next(); ok {
			client, err := proxy.HTTPClient(p, c.timeout)
			if err != nil {
				c.pool.ReportFailure(p)
			} else {
				if err := c.doWith(client, req, result); err == nil {
					return nil
				} else if _, ok := err.(*apiError); ok {
					// The proxy delivered the request; the API
					// itself rejected it. Not the proxy's fault.
					return err
				}
				c.pool.ReportFailure(p)
				c.logger.Debug("proxied request failed, retrying direct")
			}
		}
	}

	return c.doWith(c.direct, req, result)
}

func (c *HTTPClient) doWith(client *http.Client, req *http.Request, result any) error {
	// The request may be retried on a second transport, so each attempt
	// gets a fresh clone with a rewound body.
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("rewind request body: %w", err)
		}
		attempt.Body = body
	}

	resp, err := client.Do(attempt)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// apiError is a non-2xx API response.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.status, e.body)
}

type sessionResponse struct {
	Token string `json:"token"`
}

type listingPage struct {
	Users      []model.AccountRef `json:"users"`
	NextCursor string             `json:"next_cursor"`
	HasMore    bool               `json:"has_more"`
}
