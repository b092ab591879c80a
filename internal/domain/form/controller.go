package form

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/chart"
	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
	"github.com/yanqian/kundali-web/pkg/util"
)

// Config holds runtime knobs for form submission.
type Config struct {
	DefaultTimezone string
	SignPolicy      kundali.SignPolicy
}

// ChartBackend is the chart generation endpoint.
type ChartBackend interface {
	GetChart(ctx context.Context, form kundali.BirthFormData) (kundali.ChartResponse, error)
}

// SubmissionRecorder retains the submitted payload for later analysis and
// chat, along with the dasha periods the table toggles over.
type SubmissionRecorder interface {
	RecordSubmission(ctx context.Context, sessionID string, form kundali.BirthFormData, dasha []kundali.DashaPeriod) error
}

// SubmitResult describes the page state after a successful submission.
type SubmitResult struct {
	Form              kundali.BirthFormData `json:"form"`
	Chart             chart.View            `json:"chart"`
	AnalyzeVisible    bool                  `json:"analyzeVisible"`
	AnalysisHidden    bool                  `json:"analysisHidden"`
	ChatToggleVisible bool                  `json:"chatToggleVisible"`
	ScrollTo          string                `json:"scrollTo"`
}

// Controller handles birth-details submission.
type Controller struct {
	cfg      Config
	backend  ChartBackend
	recorder SubmissionRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewController wires the form controller.
func NewController(cfg Config, backend ChartBackend, recorder SubmissionRecorder, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:      cfg,
		backend:  backend,
		recorder: recorder,
		logger:   logger.With("component", "form.controller"),
		now:      util.NowUTC,
	}
}

// Submit validates the payload, requests the chart, renders it and retains
// the payload in the session. Nothing is retained when any step fails.
func (c *Controller) Submit(ctx context.Context, sessionID string, data kundali.BirthFormData) (SubmitResult, error) {
	if err := data.Validate(); err != nil {
		return SubmitResult{}, err
	}
	payload := data.WithDefaultTimezone(c.cfg.DefaultTimezone)

	resp, err := c.backend.GetChart(ctx, payload)
	if err != nil {
		if be, ok := kundali.AsBackendError(err); ok {
			c.logger.Warn("chart backend reported error", "session", sessionID, "error", be.Message)
			return SubmitResult{}, apperrors.Wrap(apperrors.CodeChartError, "Error: "+be.Message, err)
		}
		c.logger.Error("chart request failed", "session", sessionID, "error", err)
		return SubmitResult{}, apperrors.Wrap(apperrors.CodeBackendUnavailable, "Failed to generate chart", err)
	}

	view, err := chart.Render(resp, chart.Options{SignPolicy: c.cfg.SignPolicy, Now: c.now()})
	if err != nil {
		if errors.Is(err, kundali.ErrUnknownSign) {
			return SubmitResult{}, apperrors.Wrap(apperrors.CodeChartError, "Error: "+err.Error(), err)
		}
		return SubmitResult{}, apperrors.Wrap(apperrors.CodeBackendUnavailable, "Failed to generate chart", err)
	}

	if err := c.recorder.RecordSubmission(ctx, sessionID, payload, resp.Vimshottari); err != nil {
		return SubmitResult{}, err
	}
	c.logger.Info("chart rendered", "session", sessionID, "dasha_rows", len(view.Dasha.Rows))

	return SubmitResult{
		Form:              payload,
		Chart:             view,
		AnalyzeVisible:    true,
		AnalysisHidden:    true,
		ChatToggleVisible: true,
		ScrollTo:          "results",
	}, nil
}
