package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
	"github.com/yanqian/kundali-web/pkg/util"
)

// Config controls session lifetime.
type Config struct {
	TTL time.Duration
}

// Manager is the explicit home of the retained form data. Analysis and chat
// read it through Snapshot; only RecordSubmission writes it.
type Manager struct {
	cfg    Config
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager wires a session manager over a store.
func NewManager(cfg Config, store Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "session.manager"),
		now:    util.NowUTC,
	}
}

// Load returns the session or an empty one carrying the id when none exists.
func (m *Manager) Load(ctx context.Context, id string) (Session, error) {
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Session{ID: id}, nil
	}
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeSessionError, "session unavailable", err)
	}
	return s, nil
}

// Snapshot returns a copy of the retained form data captured now.
func (m *Manager) Snapshot(ctx context.Context, id string) (kundali.BirthFormData, bool, error) {
	s, err := m.Load(ctx, id)
	if err != nil {
		return kundali.BirthFormData{}, false, err
	}
	form, ok := s.FormSnapshot()
	return form, ok, nil
}

// RecordSubmission overwrites the retained form and the dasha table after a
// successful chart. Every dasha row starts collapsed.
func (m *Manager) RecordSubmission(ctx context.Context, id string, form kundali.BirthFormData, dasha []kundali.DashaPeriod) error {
	_, err := m.Update(ctx, id, func(s *Session) error {
		copied := form
		s.LastForm = &copied
		s.Dasha = &DashaState{Periods: append([]kundali.DashaPeriod(nil), dasha...)}
		s.SubmittedAt = m.now()
		return nil
	})
	return err
}

// Update mutates the session under the store's update semantics.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	s, err := m.store.Update(ctx, id, m.cfg.TTL, func(s *Session) error {
		s.ID = id
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return Session{}, err
		}
		m.logger.Error("session update failed", "session", id, "error", err)
		return Session{}, apperrors.Wrap(apperrors.CodeSessionError, "session unavailable", err)
	}
	return s, nil
}
