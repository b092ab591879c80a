package session_test

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
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

func newManager(store session.Store) *session.Manager {
	return session.NewManager(session.Config{TTL: time.Hour}, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestManagerLoadUnknownReturnsEmpty(t *testing.T) {
	mgr := newManager(sessionstore.NewMemoryStore())
	s, err := mgr.Load(context.Background(), "fresh")
	require.NoError(t, err)
	require.Equal(t, "fresh", s.ID)
	require.Nil(t, s.LastForm)
}

func TestManagerSnapshotIsCapturedAtCallTime(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(sessionstore.NewMemoryStore())

	_, ok, err := mgr.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)

	first := kundali.BirthFormData{Name: "First", Lat: "1", Lon: "2", TZ: "5.5"}
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", first, nil))

	captured, ok, err := mgr.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	second := kundali.BirthFormData{Name: "Second", Lat: "3", Lon: "4", TZ: "1"}
	require.NoError(t, mgr.RecordSubmission(ctx, "s1", second, nil))

	require.Equal(t, first, captured)
	latest, _, err := mgr.Snapshot(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, second, latest)
}

func TestManagerUpdatePropagatesDomainErrors(t *testing.T) {
	mgr := newManager(sessionstore.NewMemoryStore())
	_, err := mgr.Update(context.Background(), "s1", func(*session.Session) error {
		return apperrors.Wrap(apperrors.CodeNoChart, "Please generate your birth chart first!", nil)
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoChart))
}

func TestManagerWrapsStoreFailures(t *testing.T) {
	mgr := newManager(failingStore{})
	_, err := mgr.Load(context.Background(), "s1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeSessionError))

	err = mgr.RecordSubmission(context.Background(), "s1", kundali.BirthFormData{}, nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeSessionError))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (session.Session, error) {
	return session.Session{}, errors.New("connection reset")
}

func (failingStore) Save(context.Context, session.Session, time.Duration) error {
	return errors.New("connection reset")
}

func (failingStore) Update(context.Context, string, time.Duration, func(*session.Session) error) (session.Session, error) {
	return session.Session{}, errors.New("connection reset")
}
