package placecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/places"
)

// ValkeyCache stores suggestion lists as JSON strings in Valkey.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "kundali:places"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, query string) ([]kundali.PlaceSuggestion, bool, error) {
	cmd := c.client.B().Get().Key(c.key(query)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []kundali.PlaceSuggestion
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, false, fmt.Errorf("decode suggestions: %w", err)
	}
	return items, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, query string, items []kundali.PlaceSuggestion, ttl time.Duration) error {
	if items == nil {
		items = []kundali.PlaceSuggestion{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(query)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(query string) string {
	return fmt.Sprintf("%s:%s", c.prefix, query)
}

var _ places.Cache = (*ValkeyCache)(nil)
