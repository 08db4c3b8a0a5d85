package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/notice"
)

var (
	// ErrStaleResponse is returned to a fetch whose answer arrived after a
	// newer fetch had already started. Its result is dropped.
	ErrStaleResponse = errors.New("response superseded by a newer request")
	ErrInvalidPage   = errors.New("page must be at least 1")
)

// Fetcher runs one query. *Client implements it.
type Fetcher interface {
	Query(ctx context.Context, session domain.Session, q Query, page, limit int) (Page, error)
}

// State is a snapshot of the controller.
type State struct {
	Criteria   Criteria
	Query      Query
	Page       int
	PageSize   int
	TotalPages int
	Total      int
	Records    []domain.Booking
	Loading    bool
	Err        error
}

// Controller owns the page state of one booking list view.
type Controller struct {
	fetcher  Fetcher
	session  domain.Session
	notifier notice.Notifier
	debounce *Debouncer

	mu    sync.Mutex
	seq   uint64
	state State
}

type ControllerOption func(*Controller)

func WithNotifier(n notice.Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

func WithQuietPeriod(d time.Duration) ControllerOption {
	return func(c *Controller) { c.debounce = NewDebouncer(d) }
}

func NewController(f Fetcher, session domain.Session, pageSize int, opts ...ControllerOption) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	c := &Controller{
		fetcher:  f,
		session:  session,
		notifier: notice.Discard{},
		state: State{
			Page:       1,
			PageSize:   pageSize,
			TotalPages: 1,
			Records:    []domain.Booking{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.debounce == nil {
		c.debounce = NewDebouncer(DefaultQuietPeriod)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Records = append([]domain.Booking(nil), c.state.Records...)
	return s
}

// Apply replaces the criteria and fetches page 1.
func (c *Controller) Apply(ctx context.Context, crit Criteria) error {
	q, err := BuildQuery(crit)
	if err != nil {
		c.notifier.Notify(notice.Warning, err.Error())
		return err
	}

	c.mu.Lock()
	c.state.Criteria = crit
	c.state.Query = q
	c.mu.Unlock()

	return c.fetch(ctx, 1)
}

// Reset clears every criterion and fetches page 1.
func (c *Controller) Reset(ctx context.Context) error {
	return c.Apply(ctx, Criteria{})
}

// GoToPage keeps the criteria and fetches page n.
func (c *Controller) GoToPage(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, n)
	}
	return c.fetch(ctx, n)
}

func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.Page
	c.mu.Unlock()
	return c.fetch(ctx, page)
}

// SearchAsYouType schedules a search for text once typing pauses. The other
// criteria are kept but a non-empty search overrides them.
func (c *Controller) SearchAsYouType(ctx context.Context, text string) {
	c.debounce.Trigger(func() {
		c.mu.Lock()
		crit := c.state.Criteria
		c.mu.Unlock()
		crit.Search = text
		if err := c.Apply(ctx, crit); err != nil && !errors.Is(err, ErrStaleResponse) {
			log.Printf("search_error text=%q error=%q", text, err.Error())
		}
	})
}

// Close stops pending searches. Results of requests already in flight are
// still applied if they are the latest.
func (c *Controller) Close() {
	c.debounce.Stop()
}

func (c *Controller) fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.state.Query
	limit := c.state.PageSize
	c.state.Page = page
	c.state.Loading = true
	c.state.Err = nil
	c.mu.Unlock()

	res, err := c.fetcher.Query(ctx, c.session, q, page, limit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStaleResponse
	}
	c.state.Loading = false

	if err != nil {
		c.state.Records = []domain.Booking{}
		c.state.TotalPages = 1
		c.state.Total = 0
		c.state.Err = err
		log.Printf("fetch_error query=%s page=%d error=%q", q, page, err.Error())
		c.notifier.Notify(notice.Error, "Failed to fetch bookings")
		return err
	}

	c.state.Records = res.Records
	c.state.TotalPages = res.TotalPages
	c.state.Total = res.Total
	if res.CurrentPage >= 1 {
		c.state.Page = res.CurrentPage
	}
	return nil
}
