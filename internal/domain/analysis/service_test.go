package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

func TestServiceAnalyzeWithoutChart(t *testing.T) {
	backend := &stubBackend{}
	svc := NewService(backend, &stubSessions{}, newTestLogger())

	_, err := svc.Analyze(context.Background(), "s1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoChart))
	require.Zero(t, backend.calls)
}

func TestServiceAnalyzeUsesSnapshot(t *testing.T) {
	form := kundali.BirthFormData{Name: "Asha", Lat: "1", Lon: "2", TZ: "5.5"}
	backend := &stubBackend{resp: kundali.AnalysisResponse{
		NakshatraAnalysis: kundali.Some(kundali.NakshatraTraits{Nakshatra: "Pushya", Traits: "Nurturing."}),
	}}
	svc := NewService(backend, &stubSessions{form: &form}, newTestLogger())

	view, err := svc.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, form, backend.lastForm)
	require.Equal(t, "Pushya", view.Nakshatra.Name)
}

func TestServiceAnalyzeNon2xx(t *testing.T) {
	form := kundali.BirthFormData{Lat: "1", Lon: "2"}
	backend := &stubBackend{err: fmt.Errorf("%w: status=500", kundali.ErrAnalysisFailed)}
	svc := NewService(backend, &stubSessions{form: &form}, newTestLogger())

	_, err := svc.Analyze(context.Background(), "s1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeAnalysisFailed))
	require.Equal(t, "Analysis failed", apperrors.UserMessage(err))
}

func TestServiceAnalyzeTransportFailure(t *testing.T) {
	cases := map[string]error{
		"refused":  errors.New("connection refused"),
		"timeout":  fmt.Errorf("post analyze: %w", context.DeadlineExceeded),
		"canceled": fmt.Errorf("post analyze: %w", context.Canceled),
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			form := kundali.BirthFormData{Lat: "1", Lon: "2"}
			backend := &stubBackend{err: cause}
			svc := NewService(backend, &stubSessions{form: &form}, newTestLogger())

			_, err := svc.Analyze(context.Background(), "s1")
			require.True(t, apperrors.IsCode(err, apperrors.CodeBackendUnavailable))
			require.Equal(t, "Analysis failed", apperrors.UserMessage(err))
		})
	}
}

type stubBackend struct {
	resp     kundali.AnalysisResponse
	err      error
	calls    int
	lastForm kundali.BirthFormData
}

func (s *stubBackend) Analyze(_ context.Context, form kundali.BirthFormData) (kundali.AnalysisResponse, error) {
	s.calls++
	s.lastForm = form
	if s.err != nil {
		return kundali.AnalysisResponse{}, s.err
	}
	return s.resp, nil
}

type stubSessions struct {
	form *kundali.BirthFormData
}

func (s *stubSessions) Snapshot(context.Context, string) (kundali.BirthFormData, bool, error) {
	if s.form == nil {
		return kundali.BirthFormData{}, false, nil
	}
	return *s.form, true, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
