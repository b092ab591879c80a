package places

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

type stubLookup struct {
	mu      sync.Mutex
	queries []string
	items   []kundali.PlaceSuggestion
	err     error
}

func (s *stubLookup) SuggestPlaces(_ context.Context, query string) ([]kundali.PlaceSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.items, s.err
}

type mapCache struct {
	mu    sync.Mutex
	items map[string][]kundali.PlaceSuggestion
}

func (c *mapCache) Get(_ context.Context, query string) ([]kundali.PlaceSuggestion, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.items[query]
	return items, ok, nil
}

func (c *mapCache) Set(_ context.Context, query string, items []kundali.PlaceSuggestion, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string][]kundali.PlaceSuggestion{}
	}
	c.items[query] = items
	return nil
}

var delhi = kundali.PlaceSuggestion{DisplayName: "Delhi, India", Lat: "28.61", Lon: "77.20"}

func newTestService(lookup Lookup, cache Cache) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{Debounce: time.Millisecond, MinQueryLength: 1, CacheTTL: time.Minute}
	return NewService(cfg, lookup, cache, nil, logger)
}

func TestSuggestEmptyQueryHidesWithoutLookup(t *testing.T) {
	lookup := &stubLookup{items: []kundali.PlaceSuggestion{delhi}}
	svc := newTestService(lookup, nil)

	list, err := svc.Suggest(context.Background(), "s1", "")
	require.NoError(t, err)
	require.False(t, list.Visible)
	require.Empty(t, list.Items)
	require.Empty(t, lookup.queries)
}

func TestSuggestShowsResultsAndCaches(t *testing.T) {
	lookup := &stubLookup{items: []kundali.PlaceSuggestion{delhi}}
	cache := &mapCache{}
	svc := newTestService(lookup, cache)

	list, err := svc.Suggest(context.Background(), "s1", "Delhi")
	require.NoError(t, err)
	require.True(t, list.Visible)
	require.Equal(t, []kundali.PlaceSuggestion{delhi}, list.Items)

	list, err = svc.Suggest(context.Background(), "s1", "  delhi ")
	require.NoError(t, err)
	require.True(t, list.Visible)
	require.Equal(t, []string{"Delhi"}, lookup.queries)
}

func TestSuggestEmptyResultHidesList(t *testing.T) {
	svc := newTestService(&stubLookup{}, nil)
	list, err := svc.Suggest(context.Background(), "s1", "zzzz")
	require.NoError(t, err)
	require.False(t, list.Visible)
}

func TestSuggestLookupFailureYieldsEmptyList(t *testing.T) {
	svc := newTestService(&stubLookup{err: errors.New("connection refused")}, nil)
	list, err := svc.Suggest(context.Background(), "s1", "Delhi")
	require.NoError(t, err)
	require.False(t, list.Visible)
	require.Empty(t, list.Items)
}

func TestSuggestSupersededMapsToAppError(t *testing.T) {
	clock := newFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lookup := &stubLookup{items: []kundali.PlaceSuggestion{delhi}}
	svc := NewService(Config{MinQueryLength: 1}, lookup, nil, NewDebouncer(300*time.Millisecond, clock), logger)

	errs := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(context.Background(), "s1", "De")
		errs <- err
	}()
	<-clock.scheduled

	done := make(chan Autocomplete, 1)
	go func() {
		list, _ := svc.Suggest(context.Background(), "s1", "Del")
		done <- list
	}()
	<-clock.scheduled

	require.True(t, apperrors.IsCode(<-errs, apperrors.CodeSuperseded))
	require.True(t, clock.fire(1))
	list := <-done
	require.True(t, list.Visible)
	require.Equal(t, []string{"Del"}, lookup.queries)
}

type gatedLookup struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedLookup) SuggestPlaces(ctx context.Context, _ string) ([]kundali.PlaceSuggestion, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
		return []kundali.PlaceSuggestion{pune}, nil
	}
}

var pune = kundali.PlaceSuggestion{DisplayName: "Pune, India", Lat: "18.52", Lon: "73.85"}

func TestSuggestSharedLookupSurvivesOtherCallerCancel(t *testing.T) {
	lookup := &gatedLookup{started: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(lookup, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errsA := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(ctxA, "session-a", "Pune")
		errsA <- err
	}()
	<-lookup.started

	type result struct {
		list Autocomplete
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		list, err := svc.Suggest(context.Background(), "session-b", "pune")
		resB <- result{list: list, err: err}
	}()

	cancelA()
	require.True(t, apperrors.IsCode(<-errsA, apperrors.CodeSuperseded))

	close(lookup.release)
	got := <-resB
	require.NoError(t, got.err)
	require.True(t, got.list.Visible)
	require.Equal(t, []kundali.PlaceSuggestion{pune}, got.list.Items)
}

func TestChooseSelectsFromCachedList(t *testing.T) {
	mumbai := kundali.PlaceSuggestion{DisplayName: "Mumbai, India", Lat: "19.07", Lon: "72.87"}
	lookup := &stubLookup{items: []kundali.PlaceSuggestion{delhi, mumbai}}
	svc := newTestService(lookup, &mapCache{})

	_, err := svc.Suggest(context.Background(), "s1", "India")
	require.NoError(t, err)

	got, err := svc.Choose(context.Background(), "India", 1)
	require.NoError(t, err)
	require.Equal(t, mumbai, got)
	require.Len(t, lookup.queries, 1)

	_, err = svc.Choose(context.Background(), "India", 5)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestAutocompleteSelectAndDismiss(t *testing.T) {
	var list Autocomplete
	list.Show([]kundali.PlaceSuggestion{delhi})
	require.True(t, list.Visible)

	item, ok := list.Select(0)
	require.True(t, ok)
	require.Equal(t, delhi, item)
	require.False(t, list.Visible)

	list.Show([]kundali.PlaceSuggestion{delhi})
	list.Dismiss()
	require.False(t, list.Visible)
	require.Empty(t, list.Items)

	_, ok = list.Select(0)
	require.False(t, ok)
}
