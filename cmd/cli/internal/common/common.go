// Package common holds the state shared by every command: the loaded
// configuration, the logger, the keyring and the connection to the active
// profile.
package common

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/database"
	"github.com/redbco/redb-cql/pkg/database/cassandra"
	"github.com/redbco/redb-cql/pkg/engine"
	"github.com/redbco/redb-cql/pkg/keyring"
	"github.com/redbco/redb-cql/pkg/logger"
	"github.com/redbco/redb-cql/pkg/overlay"
)

const (
	serviceName = "redb-cql"

	minCellWidth = 20
)

var (
	cfg     *config.Config
	log     *logger.Logger
	secrets *keyring.Manager

	profileOverride string
)

// Init loads the configuration and sets up logging. levelOverride, when not
// empty, replaces the configured log level.
func Init(path, profile, levelOverride, version string) error {
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	logCfg := c.Settings().Logging
	if levelOverride != "" {
		logCfg.Level = levelOverride
	}
	l, err := logger.NewWithConfig(serviceName, version, logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %v", err)
	}

	cfg = c
	log = l
	profileOverride = profile
	return nil
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the command logger.
func Logger() *logger.Logger {
	if log == nil {
		return logger.NewNop()
	}
	return log
}

// Keyring returns the password store, created on first use.
func Keyring() *keyring.Manager {
	if secrets == nil {
		secrets = keyring.NewFromEnv()
	}
	return secrets
}

// ActiveProfile resolves the --profile flag or the last used profile.
func ActiveProfile() (config.Profile, error) {
	p, ok := cfg.Profile(profileOverride)
	if !ok {
		if profileOverride != "" {
			return config.Profile{}, fmt.Errorf("profile '%s' not found. Use 'redb-cql profiles list' to see available profiles", profileOverride)
		}
		return config.Profile{}, fmt.Errorf("no profile selected. Use 'redb-cql profiles add <name>' to create one")
	}
	return p, nil
}

// Session is an engine bound to the active profile.
type Session struct {
	Profile config.Profile
	Engine  *engine.Engine

	closers []func()
}

// Close disconnects the engine and releases the overlay store.
func (s *Session) Close() {
	if err := s.Engine.Disconnect(); err != nil {
		Logger().Warnf("Disconnect failed: %v", err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	_ = Logger().Sync()
}

// Connect opens the active profile and builds an engine over it. The
// profile becomes the last used one.
func Connect(ctx context.Context) (*Session, error) {
	p, err := ActiveProfile()
	if err != nil {
		return nil, err
	}
	password, err := Keyring().Lookup(keyring.ProfileUser(p.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to read password for profile '%s': %v", p.Name, err)
	}

	cs, err := cassandra.Connect(ctx, p, password, Logger())
	if err != nil {
		return nil, err
	}
	s := &Session{Profile: p}

	store, closeStore, err := OverlayStore(ctx)
	if err != nil {
		_ = cs.Close()
		return nil, err
	}
	if closeStore != nil {
		s.closers = append(s.closers, closeStore)
	}

	s.Engine = engine.New(cs,
		engine.WithLogger(Logger()),
		engine.WithPreferences(cfg),
		engine.WithOverlays(overlay.NewManager(store, Logger())),
		engine.WithPageSize(cfg.Settings().PageSize),
	)
	if err := cfg.SetLastProfile(p.Name); err != nil {
		Logger().Warnf("Failed to remember profile: %v", err)
	}
	return s, nil
}

// OverlayStore opens the configured overlay store. The returned func, when
// not nil, releases its connection.
func OverlayStore(ctx context.Context) (overlay.Store, func(), error) {
	settings := cfg.Settings().Overlays
	switch strings.ToLower(settings.Backend) {
	case "", config.BackendFile:
		return overlay.NewFileStore(cfg), nil, nil

	case config.BackendRedis:
		rc, err := database.RedisFromSettings(settings.Redis, Keyring())
		if err != nil {
			return nil, nil, err
		}
		r, err := database.NewRedis(ctx, rc)
		if err != nil {
			return nil, nil, err
		}
		Logger().Debugf("Overlays stored in redis at %s:%d", rc.Host, rc.Port)
		return overlay.NewRedisStore(r.Client(), settings.Redis.KeyPrefix), r.Close, nil

	case config.BackendPostgres:
		pc, err := database.PostgresFromSettings(settings.Postgres, Keyring())
		if err != nil {
			return nil, nil, err
		}
		db, err := database.NewPostgreSQL(ctx, pc)
		if err != nil {
			return nil, nil, err
		}
		store := overlay.NewPostgresStore(db.Pool())
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		Logger().Debugf("Overlays stored in postgres at %s:%d/%s", pc.Host, pc.Port, pc.Database)
		return store, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown overlay store backend %q", settings.Backend)
}

// SplitTable resolves "keyspace.table", or a bare table in the profile's
// default keyspace.
func SplitTable(name, defaultKeyspace string) (string, string, error) {
	ks, table, ok := strings.Cut(name, ".")
	if !ok {
		ks, table = defaultKeyspace, name
	}
	ks, table = strings.TrimSpace(ks), strings.TrimSpace(table)
	if table == "" {
		return "", "", fmt.Errorf("table name is required")
	}
	if ks == "" {
		return "", "", fmt.Errorf("table %q has no keyspace and the profile has no default keyspace", name)
	}
	return ks, table, nil
}

// WithTable connects, selects the table and runs fn.
func WithTable(ctx context.Context, name string, fn func(*Session) error) error {
	s, err := Connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ks, table, err := SplitTable(name, s.Profile.DefaultKeyspace)
	if err != nil {
		return err
	}
	if _, err := s.Engine.SelectTable(ctx, ks, table); err != nil {
		return err
	}
	return fn(s)
}

// CellWidth is the value width used when --max-width is not given: a third
// of the terminal, or no limit when stdout is not a terminal.
func CellWidth(flag int) int {
	if flag > 0 {
		return flag
	}
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return max(w/3, minCellWidth)
}
