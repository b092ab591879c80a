package places

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

// Config controls autocomplete behaviour.
type Config struct {
	Debounce       time.Duration
	MinQueryLength int
	CacheTTL       time.Duration
}

// Lookup resolves free text to place candidates.
type Lookup interface {
	SuggestPlaces(ctx context.Context, query string) ([]kundali.PlaceSuggestion, error)
}

// Cache stores lookup results by normalised query.
type Cache interface {
	Get(ctx context.Context, query string) ([]kundali.PlaceSuggestion, bool, error)
	Set(ctx context.Context, query string, items []kundali.PlaceSuggestion, ttl time.Duration) error
}

// Service exposes the place autocomplete use cases.
type Service interface {
	Suggest(ctx context.Context, key, query string) (Autocomplete, error)
	Choose(ctx context.Context, query string, index int) (kundali.PlaceSuggestion, error)
	Cancel(key string)
}

type service struct {
	cfg       Config
	lookup    Lookup
	cache     Cache
	debouncer *Debouncer
	group     singleflight.Group
	logger    *slog.Logger
}

// NewService wires the autocomplete service. cache may be nil.
func NewService(cfg Config, lookup Lookup, cache Cache, debouncer *Debouncer, logger *slog.Logger) Service {
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 1
	}
	if debouncer == nil {
		debouncer = NewDebouncer(cfg.Debounce, nil)
	}
	return &service{
		cfg:       cfg,
		lookup:    lookup,
		cache:     cache,
		debouncer: debouncer,
		logger:    logger.With("component", "places.service"),
	}
}

// Suggest debounces per key. A short query hides the list and cancels any
// pending lookup. Lookup failures are logged and yield an empty list.
func (s *service) Suggest(ctx context.Context, key, query string) (Autocomplete, error) {
	list := Autocomplete{Query: query}
	if len([]rune(strings.TrimSpace(query))) < s.cfg.MinQueryLength {
		s.debouncer.Cancel(key)
		return list, nil
	}

	items, err := Do(ctx, s.debouncer, key, func(ctx context.Context) ([]kundali.PlaceSuggestion, error) {
		return s.resolve(ctx, query)
	})
	switch {
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrStale):
		return list, apperrors.Wrap(apperrors.CodeSuperseded, "suggestion superseded", err)
	case errors.Is(err, context.Canceled):
		return list, apperrors.Wrap(apperrors.CodeSuperseded, "suggestion canceled", err)
	case err != nil:
		s.logger.Warn("place lookup failed", "query", query, "error", err)
		return list, nil
	}
	list.Show(items)
	return list, nil
}

// Choose resolves query again without debouncing and returns item index.
func (s *service) Choose(ctx context.Context, query string, index int) (kundali.PlaceSuggestion, error) {
	items, err := s.resolve(ctx, query)
	if err != nil {
		return kundali.PlaceSuggestion{}, apperrors.Wrap(apperrors.CodeBackendUnavailable, "place lookup failed", err)
	}
	list := Autocomplete{Query: query}
	list.Show(items)
	item, ok := list.Select(index)
	if !ok {
		return kundali.PlaceSuggestion{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown suggestion", nil)
	}
	return item, nil
}

func (s *service) Cancel(key string) {
	s.debouncer.Cancel(key)
}

func (s *service) resolve(ctx context.Context, query string) ([]kundali.PlaceSuggestion, error) {
	norm := normalize(query)
	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, norm)
		if err != nil {
			s.logger.Warn("place cache read failed", "query", norm, "error", err)
		} else if ok {
			return items, nil
		}
	}

	// The shared lookup outlives any single caller; each caller waits on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(norm, func() (any, error) {
		items, err := s.lookup.SuggestPlaces(shared, query)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.cfg.CacheTTL > 0 {
			if err := s.cache.Set(shared, norm, items, s.cfg.CacheTTL); err != nil {
				s.logger.Warn("place cache write failed", "query", norm, "error", err)
			}
		}
		return items, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]kundali.PlaceSuggestion), nil
	}
}

func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
