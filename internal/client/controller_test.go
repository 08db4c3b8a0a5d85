package client

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/notice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Query(ctx context.Context, session domain.Session, q Query, page, limit int) (Page, error) {
	args := m.Called(ctx, session, q, page, limit)
	return args.Get(0).(Page), args.Error(1)
}

func pageOf(ids ...string) Page {
	p := Page{TotalPages: 5, CurrentPage: 1}
	for _, id := range ids {
		p.Records = append(p.Records, domain.Booking{ID: id})
	}
	p.Total = len(ids)
	return p
}

func TestController_FilterChangeResetsPage(t *testing.T) {
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{"bookings": []any{}, "totalPages": 9, "currentPage": page})
	})
	ctrl := NewController(c, bdm, 10)
	ctx := context.Background()

	require.NoError(t, ctrl.Reset(ctx))
	require.NoError(t, ctrl.GoToPage(ctx, 4))
	assert.Equal(t, "4", stub.last().Query.Get("page"))
	assert.Equal(t, 4, ctrl.State().Page)

	require.NoError(t, ctrl.Apply(ctx, Criteria{Status: "Completed"}))
	assert.Equal(t, "1", stub.last().Query.Get("page"))
	assert.Equal(t, "Completed", stub.last().Query.Get("status"))
	assert.Equal(t, 1, ctrl.State().Page)

	require.NoError(t, ctrl.GoToPage(ctx, 2))
	require.NoError(t, ctrl.Reset(ctx))
	assert.Equal(t, "1", stub.last().Query.Get("page"))
	assert.NotContains(t, stub.last().Query, "status")
	assert.Equal(t, "10", stub.last().Query.Get("limit"))
}

func TestController_SearchPrecedence(t *testing.T) {
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	ctrl := NewController(c, bdm, 10)

	require.NoError(t, ctrl.Apply(context.Background(), Criteria{Search: "Acme", Status: "Pending"}))

	q := stub.last().Query
	assert.Equal(t, "Acme", q.Get("pattern"))
	assert.NotContains(t, q, "status")
}

func TestController_FetchErrorClearsState(t *testing.T) {
	f := &mockFetcher{}
	rec := &notice.Recorder{}
	ctrl := NewController(f, bdm, 10, WithNotifier(rec))
	ctx := context.Background()

	f.On("Query", ctx, bdm, mock.Anything, 1, 10).Return(pageOf("a", "b"), nil).Once()
	require.NoError(t, ctrl.Reset(ctx))
	assert.Len(t, ctrl.State().Records, 2)

	boom := errors.New("connection reset")
	f.On("Query", ctx, bdm, mock.Anything, 2, 10).Return(Page{}, boom).Once()
	err := ctrl.GoToPage(ctx, 2)

	assert.ErrorIs(t, err, boom)
	st := ctrl.State()
	assert.Empty(t, st.Records)
	assert.NotNil(t, st.Records)
	assert.False(t, st.Loading)
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, notice.Error, rec.Last().Level)
	f.AssertExpectations(t)
}

func TestController_AdoptsServerPage(t *testing.T) {
	f := &mockFetcher{}
	ctrl := NewController(f, bdm, 10)
	ctx := context.Background()

	clamped := pageOf("z")
	clamped.TotalPages = 3
	clamped.CurrentPage = 3
	f.On("Query", ctx, bdm, mock.Anything, 1, 10).Return(pageOf("a"), nil).Once()
	f.On("Query", ctx, bdm, mock.Anything, 7, 10).Return(clamped, nil).Once()
	f.On("Query", ctx, bdm, mock.Anything, 2, 10).Return(Page{Records: []domain.Booking{{ID: "b"}}, TotalPages: 3}, nil).Once()

	require.NoError(t, ctrl.Reset(ctx))
	require.NoError(t, ctrl.GoToPage(ctx, 7))
	assert.Equal(t, 3, ctrl.State().Page)

	require.NoError(t, ctrl.GoToPage(ctx, 2))
	assert.Equal(t, 2, ctrl.State().Page)
	f.AssertExpectations(t)
}

func TestController_InvalidCriteriaSkipsFetch(t *testing.T) {
	f := &mockFetcher{}
	rec := &notice.Recorder{}
	ctrl := NewController(f, bdm, 10, WithNotifier(rec))

	err := ctrl.Apply(context.Background(), Criteria{Status: "Archived"})

	assert.ErrorIs(t, err, ErrInvalidCriteria)
	assert.Equal(t, notice.Warning, rec.Last().Level)
	f.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_GoToPageRejectsZero(t *testing.T) {
	ctrl := NewController(&mockFetcher{}, bdm, 10)
	assert.ErrorIs(t, ctrl.GoToPage(context.Background(), 0), ErrInvalidPage)
}

// gatedFetcher blocks the first call until release is closed.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedFetcher) Query(_ context.Context, _ domain.Session, q Query, _, _ int) (Page, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	if n == 1 {
		close(g.started)
		<-g.release
		return pageOf("stale"), nil
	}
	return pageOf("fresh"), nil
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	g := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	ctrl := NewController(g, bdm, 10)
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() { firstErr <- ctrl.Apply(ctx, Criteria{Status: "Pending"}) }()
	<-g.started

	require.NoError(t, ctrl.Apply(ctx, Criteria{Status: "Completed"}))
	close(g.release)

	assert.ErrorIs(t, <-firstErr, ErrStaleResponse)
	st := ctrl.State()
	require.Len(t, st.Records, 1)
	assert.Equal(t, "fresh", st.Records[0].ID)
	assert.Equal(t, "Completed", st.Criteria.Status)
	assert.False(t, st.Loading)
}

func TestController_SearchAsYouTypeDebounces(t *testing.T) {
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	ctrl := NewController(c, bdm, 10, WithQuietPeriod(30*time.Millisecond))
	defer ctrl.Close()
	ctx := context.Background()

	for _, s := range []string{"A", "Ac", "Acm", "Acme"} {
		ctrl.SearchAsYouType(ctx, s)
	}

	require.Eventually(t, func() bool { return stub.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, stub.count())
	assert.Equal(t, "Acme", stub.last().Query.Get("pattern"))
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var mu sync.Mutex
	ran := 0
	d.Trigger(func() { mu.Lock(); ran++; mu.Unlock() })
	d.Stop()
	d.Trigger(func() { mu.Lock(); ran++; mu.Unlock() })

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, ran)
}
