// Package apiclient is a typed client for the blog generation backend.
//
// Every method returns the decoded success payload or one of *NetworkError,
// *HTTPError or *ValidationError. Nothing is retried. The session token is
// read from the injected TokenSource on each call and sent as a bearer
// credential when present; calls without a token go out anonymously and the
// backend decides whether to accept them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxResponseSize = 8 << 20

// TokenSource yields the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// Client issues requests against the backend API rooted at baseURL.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. It must not carry its own
// Timeout if generation requests are expected to run long.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRequestTimeout bounds every call except GenerateBlog, which is left
// unbounded because generation routinely takes tens of seconds.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a Client for baseURL that authenticates with tokens.
// tokens may be nil, in which case every request is anonymous.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup creates an account. The caller is responsible for storing the
// returned token in the session.
func (c *Client) Signup(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "signup", "/auth/signup", email, password)
}

// Login exchanges credentials for a token. The caller is responsible for
// storing the returned token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "login", "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, op, path, email, password string) (AuthResponse, error) {
	body := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validateStruct(body); err != nil {
		return AuthResponse{}, err
	}
	var out AuthResponse
	err := c.do(ctx, request{
		op:        op,
		method:    http.MethodPost,
		path:      path,
		body:      body,
		anonymous: true,
	}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	if out.AccessToken == "" {
		return AuthResponse{}, &HTTPError{Op: op, Status: http.StatusOK, Message: "No access token in response"}
	}
	return out, nil
}

// Me returns the account that owns the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, request{op: "me", method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// PreviewContent fetches the backend's analysis of url without creating
// anything. It is safe to call repeatedly.
func (c *Client) PreviewContent(ctx context.Context, rawURL string) (ContentPreview, error) {
	body := previewRequest{URL: strings.TrimSpace(rawURL)}
	if err := validateStruct(body); err != nil {
		return ContentPreview{}, err
	}
	var out struct {
		Preview ContentPreview `json:"preview"`
	}
	err := c.do(ctx, request{op: "preview", method: http.MethodPost, path: "/blog/preview", body: body}, &out)
	if err != nil {
		return ContentPreview{}, err
	}
	return out.Preview, nil
}

// GenerateBlog asks the backend to write and store a new post. Each call may
// create a record, so it is never retried.
func (c *Client) GenerateBlog(ctx context.Context, req GenerationRequest) (GeneratedBlog, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := req.Validate(); err != nil {
		return GeneratedBlog{}, err
	}
	var out struct {
		Blog GeneratedBlog `json:"blog"`
	}
	err := c.do(ctx, request{
		op:        "generate",
		method:    http.MethodPost,
		path:      "/blog/generate",
		body:      req,
		unbounded: true,
	}, &out)
	if err != nil {
		return GeneratedBlog{}, err
	}
	if out.Blog.ID == "" {
		return GeneratedBlog{}, &HTTPError{Op: "generate", Status: http.StatusOK, Message: "No blog id in response"}
	}
	return out.Blog, nil
}

// GetHistory returns the slice [offset, offset+limit) of the user's posts.
func (c *Client) GetHistory(ctx context.Context, limit, offset int) (HistoryPage, error) {
	if limit <= 0 {
		return HistoryPage{}, newValidationError("limit", "must be greater than 0")
	}
	if offset < 0 {
		return HistoryPage{}, newValidationError("offset", "must be greater than or equal to 0")
	}
	var out struct {
		History []BlogRecord `json:"history"`
		Total   int          `json:"total"`
		Limit   *int         `json:"limit"`
		Skip    *int         `json:"skip"`
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(offset))
	err := c.do(ctx, request{op: "history", method: http.MethodGet, path: "/blog/history", query: q}, &out)
	if err != nil {
		return HistoryPage{}, err
	}
	page := HistoryPage{
		Items:  out.History,
		Total:  out.Total,
		Offset: offset,
		Limit:  limit,
	}
	// The backend clamps out-of-range values and echoes what it used.
	if out.Limit != nil && *out.Limit > 0 {
		page.Limit = *out.Limit
	}
	if out.Skip != nil && *out.Skip >= 0 {
		page.Offset = *out.Skip
	}
	if page.Items == nil {
		page.Items = []BlogRecord{}
	}
	return page, nil
}

// GetBlogByID returns one stored post. An unknown id yields an *HTTPError
// with a 404 status.
func (c *Client) GetBlogByID(ctx context.Context, id string) (BlogRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return BlogRecord{}, newValidationError("id", "is required")
	}
	var out struct {
		Blog BlogRecord `json:"blog"`
	}
	path := "/blog/history/" + url.PathEscape(id)
	if err := c.do(ctx, request{op: "blog", method: http.MethodGet, path: path}, &out); err != nil {
		return BlogRecord{}, err
	}
	return out.Blog, nil
}

type request struct {
	op        string
	method    string
	path      string
	query     url.Values
	body      any
	anonymous bool // never attach the bearer token
	unbounded bool // skip the per-request timeout
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.timeout > 0 && !r.unbounded {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if r.body != nil {
		blob, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", r.op, err)
		}
		body = bytes.NewReader(blob)
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "op", r.op, "error", err)
		return &NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &NetworkError{Op: r.op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("api request", "op", r.op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{Op: r.op, Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(blob, &eb) == nil {
			he.Code = eb.Error
			he.Message = eb.Message
		}
		c.logger.Warn("api request rejected", "op", r.op, "status", resp.StatusCode, "code", he.Code)
		return he
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return &HTTPError{Op: r.op, Status: resp.StatusCode, Message: "Unexpected response from server", cause: err}
	}
	return nil
}
