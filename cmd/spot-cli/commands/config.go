package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	devenv "spotifier-core/dev/env"
	"spotifier-core/lib/cache"
	"spotifier-core/lib/configutil"
	"spotifier-core/lib/platforms/spot/core"
	"spotifier-core/lib/platforms/spot/model"
	"spotifier-core/lib/platforms/spot/student"
	"spotifier-core/lib/restyutil"
	"spotifier-core/lib/util/serviceutil"
)

type CacheConfig struct {
	// one of "file", "memory", "redis", "sqlite" or empty for no cache
	Kind          string `json:"kind"`
	Dir           string `json:"dir"`
	Size          int    `json:"size"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDb       int    `json:"redis_db"`
	SqliteUrl     string `json:"sqlite_url"`
}

type Config struct {
	Nim         string             `json:"nim"`
	Password    string             `json:"password"`
	PortalUrl   string             `json:"portal_url"`
	SsoUrl      string             `json:"sso_url"`
	Delay       *model.DelayConfig `json:"delay"`
	Cache       CacheConfig        `json:"cache"`
	SessionFile string             `json:"session_file"`
	DumpDir     string             `json:"dump_dir"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the configured backend, nil when caching is disabled.
func (c CacheConfig) Open(ctx context.Context) (cache.Backend, io.Closer, error) {
	switch c.Kind {
	case "":
		return nil, nopCloser{}, nil
	case "memory":
		return cache.NewMemoryCache(c.Size), nopCloser{}, nil
	case "file":
		dir := c.Dir
		if dir == "" {
			dir = "<dev_state>/cache"
		}
		path, err := devenv.ResolvePath(dir)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewFileCache(path), nopCloser{}, nil
	case "redis":
		backend, err := cache.DialRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDb)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	case "sqlite":
		url := c.SqliteUrl
		if url == "" {
			url = "<dev_state>/cache.db"
		}
		backend, err := cache.OpenSqlite(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache kind %q", c.Kind)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadRecursively[Config](configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using environment", "path", configPath)
	} else if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	if nim, ok := os.LookupEnv("SPOT_NIM"); ok {
		cfg.Nim = nim
	}
	if password, ok := os.LookupEnv("SPOT_PASSWORD"); ok {
		cfg.Password = password
	}
	if cfg.SessionFile != "" {
		cfg.SessionFile, err = devenv.ResolvePath(cfg.SessionFile)
		if err != nil {
			serviceutil.Fatal("failed to resolve session file", err)
		}
	}
	return cfg
}

type session struct {
	config Config
	client *student.Client
	closer io.Closer
}

func (s session) Close() {
	err := s.closer.Close()
	if err != nil {
		slog.Warn("failed to close cache", "err", err)
	}
}

// persist writes the session cookies to every configured store.
func (s session) persist(ctx context.Context) {
	if s.config.SessionFile != "" {
		err := s.client.Core().SaveSession(s.config.SessionFile)
		if err != nil {
			slog.WarnContext(ctx, "failed to write session file", "err", err)
		}
	}
	err := s.client.SaveSession(ctx)
	if err != nil && !errors.Is(err, student.ErrNoCache) {
		slog.WarnContext(ctx, "failed to cache session", "err", err)
	}
}

func (s session) login(ctx context.Context) {
	if s.config.Nim == "" || s.config.Password == "" {
		serviceutil.Fatal("missing credentials", errors.New("set nim and password in the config or SPOT_NIM and SPOT_PASSWORD"))
	}
	slog.InfoContext(ctx, "logging in", "nim", s.config.Nim)
	err := s.client.Core().Login(ctx, s.config.Nim, s.config.Password)
	if err != nil {
		serviceutil.Fatal("failed to login", err)
	}
	s.persist(ctx)
}

// resume reuses a saved session when there is one, logging in otherwise.
func (s session) resume(ctx context.Context) {
	ok, err := s.client.RestoreSession(ctx)
	if err != nil && !errors.Is(err, student.ErrNoCache) {
		slog.WarnContext(ctx, "failed to restore cached session", "err", err)
	}
	if ok {
		slog.DebugContext(ctx, "restored cached session")
		return
	}
	if s.config.SessionFile != "" {
		err = s.client.Core().LoadSession(s.config.SessionFile)
		if err == nil {
			slog.DebugContext(ctx, "restored session file", "path", s.config.SessionFile)
			return
		}
		slog.DebugContext(ctx, "no usable session file", "err", err)
	}
	s.login(ctx)
}

func openSession(ctx context.Context) session {
	cfg := readConfig()

	opts := core.ClientOptions{
		PortalUrl: cfg.PortalUrl,
		SsoUrl:    cfg.SsoUrl,
		DispatcherOptions: core.DispatcherOptions{
			Delay: cfg.Delay,
		},
	}
	if debug {
		dumpDir := cfg.DumpDir
		if dumpDir == "" {
			dumpDir = "<dev_state>/resty/spot"
		}
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			serviceutil.Fatal("failed to create dump directory", err)
		}
		opts.Diagnostics = output
	}

	coreClient, err := core.NewClient(opts)
	if err != nil {
		serviceutil.Fatal("failed to initialize core client", err)
	}
	backend, closer, err := cfg.Cache.Open(ctx)
	if err != nil {
		serviceutil.Fatal("failed to open cache", err)
	}

	return session{
		config: cfg,
		client: student.NewClient(coreClient, student.ClientOptions{
			Cache:       backend,
			CachePrefix: cfg.Nim,
		}),
		closer: closer,
	}
}

// withClient runs fn with a logged in client, logging in again once if a
// restored session turns out to have expired.
func withClient(ctx context.Context, fn func(client *student.Client) error) {
	s := openSession(ctx)
	defer s.Close()

	s.resume(ctx)
	err := fn(s.client)
	if errors.Is(err, core.ErrSessionExpired) {
		slog.InfoContext(ctx, "session expired, logging in again")
		s.login(ctx)
		err = fn(s.client)
	}
	if err != nil {
		serviceutil.Fatal("command failed", err)
	}
}
