package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/kundali-web/internal/domain/form"
	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/places"
	"github.com/yanqian/kundali-web/internal/domain/session"
	"github.com/yanqian/kundali-web/internal/infra/astroapi"
	"github.com/yanqian/kundali-web/internal/infra/config"
	"github.com/yanqian/kundali-web/internal/infra/placecache"
	"github.com/yanqian/kundali-web/internal/infra/sessionstore"
	httpiface "github.com/yanqian/kundali-web/internal/interface/http"
)

// valkeyConn holds the shared Valkey client; client is nil when disabled or unreachable.
type valkeyConn struct {
	client valkey.Client
}

func provideAstroClient(cfg *config.Config) *astroapi.Client {
	return astroapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
}

func provideFormConfig(cfg *config.Config) (form.Config, error) {
	policy, err := kundali.ParseSignPolicy(cfg.Chart.SignPolicy)
	if err != nil {
		return form.Config{}, err
	}
	return form.Config{
		DefaultTimezone: cfg.Form.DefaultTimezone,
		SignPolicy:      policy,
	}, nil
}

func providePlacesConfig(cfg *config.Config) places.Config {
	return places.Config{
		Debounce:       cfg.Places.Debounce,
		MinQueryLength: cfg.Places.MinQueryLength,
		CacheTTL:       cfg.Places.CacheTTL,
	}
}

func provideDebouncer(cfg *config.Config) *places.Debouncer {
	return places.NewDebouncer(cfg.Places.Debounce, nil)
}

func provideSessionConfig(cfg *config.Config) session.Config {
	return session.Config{TTL: cfg.Session.TTL}
}

func provideSessionCookies(cfg *config.Config) *httpiface.SessionCookies {
	return httpiface.NewSessionCookies(cfg.Session)
}

func noCleanup() {}

func provideValkey(cfg *config.Config, logger *slog.Logger) (*valkeyConn, func()) {
	if !cfg.Session.Redis.Enabled {
		return &valkeyConn{}, noCleanup
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return &valkeyConn{}, noCleanup
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return &valkeyConn{}, noCleanup
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return &valkeyConn{}, noCleanup
	}
	logger.Info("valkey enabled", "addr", cfg.Session.Redis.Addr)
	return &valkeyConn{client: client}, client.Close
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger, vk *valkeyConn) (session.Store, func()) {
	if store, pool := providePostgresSessionStore(cfg, logger); store != nil {
		return store, pool.Close
	}
	if vk.client != nil {
		logger.Info("session valkey store enabled")
		return sessionstore.NewValkeyStore(vk.client, cfg.Session.Redis.Prefix+":session"), noCleanup
	}
	logger.Info("session store not configured, using memory store")
	return sessionstore.NewMemoryStore(), noCleanup
}

func providePostgresSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, *pgxpool.Pool) {
	dsn := strings.TrimSpace(cfg.Session.Postgres.DSN)
	if dsn == "" {
		return nil, nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, skipping postgres session store", "error", err)
		return nil, nil
	}
	if cfg.Session.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Session.Postgres.MaxConns
	}
	if cfg.Session.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Session.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, skipping postgres session store", "error", err)
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, skipping postgres session store", "error", err)
		pool.Close()
		return nil, nil
	}
	store := sessionstore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, skipping postgres session store", "error", err)
		pool.Close()
		return nil, nil
	}
	logger.Info("session postgres store enabled")
	return store, pool
}

func providePlaceCache(cfg *config.Config, vk *valkeyConn) places.Cache {
	if vk.client != nil {
		return placecache.NewValkeyCache(vk.client, cfg.Session.Redis.Prefix+":places")
	}
	return placecache.NewMemoryCache()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Session.Redis.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Session.Redis.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Session.Redis.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
