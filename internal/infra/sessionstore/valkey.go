package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/kundali-web/internal/domain/session"
)

// ValkeyStore persists sessions as JSON documents in Valkey.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "kundali:session"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// ErrConflict is returned when an update keeps losing to concurrent writers.
var ErrConflict = errors.New("session update conflict")

const maxUpdateAttempts = 10

var conflictBackoff = 5 * time.Millisecond

func (s *ValkeyStore) Get(ctx context.Context, id string) (session.Session, error) {
	cmd := s.client.B().Get().Key(s.key(id)).Build()
	return decodeSession(s.client.Do(ctx, cmd))
}

func (s *ValkeyStore) Save(ctx context.Context, sess session.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.key(sess.ID)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = builder.Ex(clampTTL(ttl)).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Update is optimistic: the key is WATCHed while fn runs and the write is
// retried when another writer commits first.
func (s *ValkeyStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*session.Session) error) (session.Session, error) {
	return retryOnConflict(ctx, maxUpdateAttempts, func() (session.Session, bool, error) {
		return s.tryUpdate(ctx, id, ttl, fn)
	})
}

func (s *ValkeyStore) tryUpdate(ctx context.Context, id string, ttl time.Duration, fn func(*session.Session) error) (session.Session, bool, error) {
	key := s.key(id)
	var (
		out       session.Session
		committed bool
	)
	err := s.client.Dedicated(func(c valkey.DedicatedClient) error {
		if err := c.Do(ctx, c.B().Watch().Key(key).Build()).Error(); err != nil {
			return err
		}
		unwatch := func() { _ = c.Do(ctx, c.B().Unwatch().Build()).Error() }

		current, err := decodeSession(c.Do(ctx, c.B().Get().Key(key).Build()))
		switch {
		case errors.Is(err, session.ErrNotFound):
			current = session.Session{ID: id}
		case err != nil:
			unwatch()
			return err
		}
		if err := fn(&current); err != nil {
			unwatch()
			return err
		}
		payload, err := json.Marshal(current)
		if err != nil {
			unwatch()
			return err
		}

		builder := c.B().Set().Key(key).Value(string(payload))
		var set valkey.Completed
		if ttl > 0 {
			set = builder.Ex(clampTTL(ttl)).Build()
		} else {
			set = builder.Build()
		}
		resps := c.DoMulti(ctx, c.B().Multi().Build(), set, c.B().Exec().Build())
		if err := resps[0].Error(); err != nil {
			return err
		}
		if err := resps[2].Error(); err != nil {
			if valkey.IsValkeyNil(err) {
				return nil
			}
			return err
		}
		out, committed = current, true
		return nil
	})
	if err != nil {
		return session.Session{}, false, err
	}
	return out, committed, nil
}

// retryOnConflict runs attempt until it commits, fails or runs out of tries.
func retryOnConflict(ctx context.Context, attempts int, attempt func() (session.Session, bool, error)) (session.Session, error) {
	for i := 0; i < attempts; i++ {
		if i > 0 && conflictBackoff > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(i) * conflictBackoff):
			}
		}
		if err := ctx.Err(); err != nil {
			return session.Session{}, err
		}
		out, committed, err := attempt()
		if err != nil {
			return session.Session{}, err
		}
		if committed {
			return out, nil
		}
	}
	return session.Session{}, ErrConflict
}

func decodeSession(res valkey.ValkeyResult) (session.Session, error) {
	payload, err := res.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}
	var out session.Session
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return out, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (s *ValkeyStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

var _ session.Store = (*ValkeyStore)(nil)
