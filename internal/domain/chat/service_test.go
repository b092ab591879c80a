package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/session"
	"github.com/yanqian/kundali-web/internal/infra/sessionstore"
)

type stubBackend struct {
	calls  []kundali.ChatRequest
	resp   kundali.ChatResponse
	err    error
	during func()
}

func (s *stubBackend) Chat(_ context.Context, req kundali.ChatRequest) (kundali.ChatResponse, error) {
	s.calls = append(s.calls, req)
	if s.during != nil {
		s.during()
	}
	return s.resp, s.err
}

var birth = kundali.BirthFormData{Name: "Asha", DOB: "1990-01-01", TOB: "10:30", Lat: "12.97", Lon: "77.59", TZ: "5.5"}

func setup(t *testing.T, backend *stubBackend) (Service, *session.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.Config{TTL: time.Hour}, sessionstore.NewMemoryStore(), logger)
	return NewService(backend, mgr, logger), mgr
}

func TestOpenCloseTogglesButton(t *testing.T) {
	svc, mgr := setup(t, &stubBackend{})
	ctx := context.Background()

	w, err := svc.State(ctx, "s1")
	require.NoError(t, err)
	require.False(t, w.Open)
	require.False(t, w.ToggleVisible)

	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))
	w, err = svc.State(ctx, "s1")
	require.NoError(t, err)
	require.True(t, w.ToggleVisible)

	w, err = svc.Open(ctx, "s1")
	require.NoError(t, err)
	require.True(t, w.Open)
	require.False(t, w.ToggleVisible)

	w, err = svc.Close(ctx, "s1")
	require.NoError(t, err)
	require.False(t, w.Open)
	require.True(t, w.ToggleVisible)
}

func TestSendBlankIsNoop(t *testing.T) {
	backend := &stubBackend{}
	svc, _ := setup(t, backend)

	w, err := svc.Send(context.Background(), "s1", "   ")
	require.NoError(t, err)
	require.Empty(t, w.Messages)
	require.Empty(t, backend.calls)
}

func TestSendWithoutChart(t *testing.T) {
	backend := &stubBackend{}
	svc, _ := setup(t, backend)

	w, err := svc.Send(context.Background(), "s1", "How is my career?")
	require.NoError(t, err)
	require.Empty(t, backend.calls)
	require.Len(t, w.Messages, 2)
	require.Equal(t, SenderUser, w.Messages[0].Sender)
	require.Equal(t, "How is my career?", w.Messages[0].HTML)
	require.Equal(t, SenderBot, w.Messages[1].Sender)
	require.Equal(t, NoChartText, w.Messages[1].HTML)
	require.False(t, w.Messages[1].Pending)
}

func TestSendFormatsAnswer(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "**Aspect:** Career\nGood", Topic: "Career"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	w, err := svc.Send(ctx, "s1", " <b>career</b> ")
	require.NoError(t, err)
	require.Len(t, backend.calls, 1)
	require.Equal(t, "<b>career</b>", backend.calls[0].Question)
	require.Equal(t, birth, backend.calls[0].ChartParams)

	require.Equal(t, "&lt;b&gt;career&lt;/b&gt;", w.Messages[0].HTML)
	require.Equal(t, "<strong>Aspect:</strong> Career<br>Good", w.Messages[1].HTML)
}

func TestSendReplies(t *testing.T) {
	cases := map[string]struct {
		backend *stubBackend
		want    string
	}{
		"empty answer":  {backend: &stubBackend{}, want: EmptyAnswerText},
		"backend error": {backend: &stubBackend{err: &kundali.BackendError{Endpoint: "chat", Message: "Missing inputs"}}, want: "Error: Missing inputs"},
		"transport":     {backend: &stubBackend{err: errors.New("dial tcp: connection refused")}, want: ConnectionErrorText},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, mgr := setup(t, tc.backend)
			ctx := context.Background()
			require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

			w, err := svc.Send(ctx, "s1", "hello")
			require.NoError(t, err)
			require.Len(t, w.Messages, 2)
			require.Equal(t, tc.want, w.Messages[1].HTML)
			require.False(t, w.Messages[1].Pending)
		})
	}
}

func TestSendKeepsConcurrentSubmission(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "Stars align"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	next := birth
	next.Name = "Ravi"
	backend.during = func() {
		require.NoError(t, mgr.RecordSubmission(ctx, "s1", next, nil))
	}

	w, err := svc.Send(ctx, "s1", "hello")
	require.NoError(t, err)
	require.Equal(t, "Asha", backend.calls[0].ChartParams.Name)
	require.Equal(t, "Stars align", w.Messages[1].HTML)

	form, ok, err := mgr.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Ravi", form.Name)
}

func TestMessagesAccumulate(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "ok"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, "s1", "again")
		require.NoError(t, err)
	}
	w, err := svc.State(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, w.Messages, 6)
	require.Equal(t, int64(6), w.Messages[5].ID)
}

func TestAskShowsQuestionBeforeAnswer(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "Stars align"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	w, err := svc.Ask(ctx, "s1", "How is my career?")
	require.NoError(t, err)
	require.Empty(t, backend.calls)
	require.Len(t, w.Messages, 2)
	require.Equal(t, "How is my career?", w.Messages[0].HTML)
	require.Equal(t, PendingText, w.Messages[1].HTML)
	require.True(t, w.Messages[1].Pending)

	w, err = svc.Resolve(ctx, "s1", w.Messages[1].ID)
	require.NoError(t, err)
	require.Len(t, backend.calls, 1)
	require.Equal(t, "How is my career?", backend.calls[0].Question)
	require.Equal(t, "Stars align", w.Messages[1].HTML)
	require.False(t, w.Messages[1].Pending)

	sess, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, sess.Chat.Asks)
}

func TestResolveUsesFormCapturedAtAsk(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "ok"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	w, err := svc.Ask(ctx, "s1", "hello")
	require.NoError(t, err)

	next := birth
	next.Name = "Ravi"
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", next, nil))

	_, err = svc.Resolve(ctx, "s1", w.Messages[1].ID)
	require.NoError(t, err)
	require.Equal(t, "Asha", backend.calls[0].ChartParams.Name)
}

func TestResolveTwiceCallsBackendOnce(t *testing.T) {
	backend := &stubBackend{resp: kundali.ChatResponse{Answer: "ok"}}
	svc, mgr := setup(t, backend)
	ctx := context.Background()
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	w, err := svc.Ask(ctx, "s1", "hello")
	require.NoError(t, err)
	id := w.Messages[1].ID

	_, err = svc.Resolve(ctx, "s1", id)
	require.NoError(t, err)
	w, err = svc.Resolve(ctx, "s1", id)
	require.NoError(t, err)
	require.Len(t, backend.calls, 1)
	require.Equal(t, "ok", w.Messages[1].HTML)
}

func TestResolveWithoutChartAtAsk(t *testing.T) {
	backend := &stubBackend{}
	svc, mgr := setup(t, backend)
	ctx := context.Background()

	w, err := svc.Ask(ctx, "s1", "hello")
	require.NoError(t, err)
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", birth, nil))

	w, err = svc.Resolve(ctx, "s1", w.Messages[1].ID)
	require.NoError(t, err)
	require.Empty(t, backend.calls)
	require.Equal(t, NoChartText, w.Messages[1].HTML)
}
