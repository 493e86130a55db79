package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIVersion is the Zotero Web API version this client speaks.
const APIVersion = "3"

// DefaultBaseURL is the public Zotero Web API.
const DefaultBaseURL = "https://api.zotero.org"

// pageSize is the largest page the API serves.
const pageSize = 100

// ErrThrottled matches every *ThrottledError.
var ErrThrottled = errors.New("zotero api rate limit exceeded")

// errNotFound marks a 404. Single-object lookups turn it into a nil result.
var errNotFound = errors.New("not found")

// StatusError is a non-2xx response other than 404 and 429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// ThrottledError is a 429 response. The client never retries by itself;
// callers should wait RetryAfter before the next request.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %s", ErrThrottled, e.RetryAfter)
	}
	return ErrThrottled.Error()
}

// Is makes errors.Is(err, ErrThrottled) work.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	APIKey            string
	UserID            string
	GroupID           string
	DefaultLimit      int
	MaxLimit          int
	MaxFullTextLength int
	Timeout           time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client is the remote backend. It talks to the Zotero Web API v3.
type Client struct {
	BaseURL string
	APIKey  string
	prefix  string
	opts    Options
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Client for a user or a group library.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var prefix string
	switch {
	case opts.UserID != "" && opts.GroupID != "":
		return nil, fmt.Errorf("user id and group id are mutually exclusive")
	case opts.UserID != "":
		prefix = "/users/" + opts.UserID
	case opts.GroupID != "":
		prefix = "/groups/" + opts.GroupID
	default:
		return nil, fmt.Errorf("user id or group id is required")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 25
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = pageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		BaseURL: strings.TrimRight(opts.BaseURL, "/"),
		APIKey:  opts.APIKey,
		prefix:  prefix,
		opts:    opts,
		client:  httpClient,
		logger:  slog.Default(),
	}, nil
}

// response is a successful API response.
type response struct {
	header http.Header
	body   []byte
}

// total returns the Total-Results header, or -1 when it is absent.
func (r *response) total() int {
	v := r.header.Get("Total-Results")
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// hasNext reports whether the Link header advertises a next page.
func (r *response) hasNext() bool {
	for _, link := range r.header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if strings.Contains(part, `rel="next"`) {
				return true
			}
		}
	}
	return false
}

// get performs a GET against the library prefix.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*response, error) {
	return c.do(ctx, c.prefix+path, query)
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (*response, error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Zotero-API-Key", c.APIKey)
	req.Header.Set("Zotero-API-Version", APIVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.DebugContext(ctx, "zotero api request",
		"path", path,
		"query", query.Encode(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ThrottledError{RetryAfter: retryAfter(resp.Header, time.Now())}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{header: resp.Header, body: body}, nil
}

// retryAfter reads Retry-After (seconds or an HTTP date), then Backoff (seconds).
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil {
			if d := t.Sub(now); d > 0 {
				return d
			}
			return 0
		}
	}
	if v := strings.TrimSpace(h.Get("Backoff")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// Ping checks that the key can read the library.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/collections", url.Values{"limit": {"1"}})
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("library %s not found", c.prefix)
	}
	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
