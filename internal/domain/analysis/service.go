package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

// Service exposes the on-demand analysis panel.
type Service interface {
	Analyze(ctx context.Context, sessionID string) (View, error)
}

// Backend is the analysis endpoint of the chart backend.
type Backend interface {
	Analyze(ctx context.Context, form kundali.BirthFormData) (kundali.AnalysisResponse, error)
}

// Sessions yields the retained form data captured at call time.
type Sessions interface {
	Snapshot(ctx context.Context, id string) (kundali.BirthFormData, bool, error)
}

type service struct {
	backend  Backend
	sessions Sessions
	logger   *slog.Logger
}

// NewService wires up the analysis domain.
func NewService(backend Backend, sessions Sessions, logger *slog.Logger) Service {
	return &service{
		backend:  backend,
		sessions: sessions,
		logger:   logger.With("component", "analysis.service"),
	}
}

func (s *service) Analyze(ctx context.Context, sessionID string) (View, error) {
	form, ok, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, apperrors.Wrap(apperrors.CodeNoChart, "Generate a chart before requesting analysis.", nil)
	}

	resp, err := s.backend.Analyze(ctx, form)
	if err != nil {
		s.logger.Warn("analysis request failed", "session", sessionID, "error", err)
		if errors.Is(err, kundali.ErrAnalysisFailed) {
			return View{}, apperrors.Wrap(apperrors.CodeAnalysisFailed, "Analysis failed", err)
		}
		return View{}, apperrors.Wrap(apperrors.CodeBackendUnavailable, "Analysis failed", err)
	}
	s.logger.Info("analysis rendered", "session", sessionID, "yogas", len(resp.Yogas.Value))
	return Render(resp), nil
}
