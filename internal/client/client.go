// Package client talks to the booking API and keeps the paginated view of
// the results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/domain"
)

const (
	DefaultPageSize = 100
	DefaultTimeout  = 30 * time.Second

	maxBodyBytes = 32 << 20
)

var ErrNoSession = errors.New("no active session")

// Config is built once at startup and handed to New.
type Config struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// ConfigFromEnv reads CRM_API_URL, CRM_PAGE_SIZE and CRM_TIMEOUT.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:  strings.TrimSpace(os.Getenv("CRM_API_URL")),
		PageSize: DefaultPageSize,
		Timeout:  DefaultTimeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if v := strings.TrimSpace(os.Getenv("CRM_PAGE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("CRM_PAGE_SIZE must be a positive integer, got %q", v)
		}
		cfg.PageSize = n
	}
	if v := strings.TrimSpace(os.Getenv("CRM_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("CRM_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// HTTPError is returned for any non-2xx answer.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api returned status %d", e.StatusCode)
}

// Page is one normalized result set.
type Page struct {
	Records     []domain.Booking
	TotalPages  int
	CurrentPage int
	Total       int
}

type Client struct {
	baseURL  *url.URL
	pageSize int
	http     *http.Client
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  base,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) PageSize() int { return c.pageSize }

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.Session{}, err
	}

	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	body, err := c.do(ctx, http.MethodPost, "/user/login", nil, payload, nil)
	if err != nil {
		return domain.Session{}, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.Session{}, fmt.Errorf("decode login response: %w", err)
	}

	s := domain.Session{Token: out.Token, UserID: out.User.ID, Name: out.User.Name, Role: out.User.Role}
	if !s.Valid() {
		return domain.Session{}, fmt.Errorf("%w: login response carried no token", ErrUnexpectedShape)
	}
	return s, nil
}

// Query runs q and returns one normalized page. page is clamped to 1 and a
// non-positive limit means the configured page size.
func (c *Client) Query(ctx context.Context, session domain.Session, q Query, page, limit int) (Page, error) {
	if !session.Valid() {
		return Page{}, ErrNoSession
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = c.pageSize
	}

	var (
		path   string
		params url.Values
	)
	switch q.Mode() {
	case ModeIDLookup:
		path = "/user/" + url.PathEscape(q.Target())
		params = url.Values{}
	case ModePatternLookup:
		path = "/user/"
		params = url.Values{"pattern": {q.Target()}}
	default:
		path = "/booking/bookings/filter"
		params = q.Params()
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(limit))
	}
	params.Set("userId", session.UserID)
	params.Set("userRole", string(session.Role))

	body, err := c.do(ctx, http.MethodGet, path, params, nil, &session)
	if err != nil {
		return Page{}, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return Page{}, err
	}
	env = env.normalize()
	return Page{Records: env.records, TotalPages: env.totalPages, CurrentPage: env.currentPage, Total: env.total}, nil
}

// FetchAll loads the whole dataset the session may see, ignoring filters and
// pages. Privileged roles get every booking, others their own.
func (c *Client) FetchAll(ctx context.Context, session domain.Session) ([]domain.Booking, error) {
	if !session.Valid() {
		return nil, ErrNoSession
	}
	path := "/booking/all"
	if !session.IsPrivileged() {
		path = "/user/bookings/" + url.PathEscape(session.UserID)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil, nil, &session)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	return env.normalize().records, nil
}

func (c *Client) Trash(ctx context.Context, session domain.Session, id string) error {
	return c.mutate(ctx, session, http.MethodPatch, "/booking/trash/", id)
}

func (c *Client) Restore(ctx context.Context, session domain.Session, id string) error {
	return c.mutate(ctx, session, http.MethodPatch, "/booking/restore/", id)
}

func (c *Client) Purge(ctx context.Context, session domain.Session, id string) error {
	return c.mutate(ctx, session, http.MethodDelete, "/booking/deletebooking/", id)
}

func (c *Client) mutate(ctx context.Context, session domain.Session, method, prefix, id string) error {
	if !session.Valid() {
		return ErrNoSession
	}
	if !domain.IsBookingID(id) {
		return fmt.Errorf("%w: %q is not a booking id", ErrInvalidCriteria, id)
	}
	_, err := c.do(ctx, method, prefix+id, nil, nil, &session)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload []byte, session *domain.Session) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.Header.Set("Authorization", "Bearer "+session.Token)
		req.Header.Set("user-role", string(session.Role))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
		if e.Message == "" {
			e.Message = env.Message
		}
	}
	return e
}
