package overlays

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redbco/redb-cql/cmd/cli/internal/args"
	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/keyring"
	"github.com/redbco/redb-cql/pkg/overlay"
)

// List prints the overlays of a table.
func List(ctx context.Context, table string) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		list, err := s.Engine.Overlays(ctx)
		if err != nil {
			return err
		}
		return output.Overlays(os.Stdout, list)
	})
}

// Define declares the keys of a map column from key:type[:required] specs.
func Define(ctx context.Context, table, column string, specs []string, strict bool) error {
	fields, err := args.OverlayFields(specs)
	if err != nil {
		return err
	}
	return common.WithTable(ctx, table, func(s *common.Session) error {
		o, err := s.Engine.DefineOverlay(ctx, &overlay.Overlay{Column: column, Fields: fields, Strict: strict})
		if err != nil {
			return err
		}
		fmt.Printf("Overlay for %s.%s saved with %d keys.\n", o.Table, o.Column, len(o.Fields))
		return nil
	})
}

// Remove deletes the overlay of a map column.
func Remove(ctx context.Context, table, column string) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		if err := s.Engine.RemoveOverlay(ctx, column); err != nil {
			return err
		}
		fmt.Printf("Overlay for %s removed.\n", column)
		return nil
	})
}

// StoreOptions configure a networked overlay store.
type StoreOptions struct {
	Host        string
	Port        int
	DB          int
	KeyPrefix   string
	Database    string
	User        string
	SSLMode     string
	AskPassword bool
}

// ShowStore prints where overlays are kept.
func ShowStore() error {
	s := common.Config().Settings().Overlays
	switch s.Backend {
	case config.BackendRedis:
		fmt.Printf("Overlays are stored in redis at %s:%d (db %d, prefix %q)\n",
			s.Redis.Host, s.Redis.Port, s.Redis.DB, s.Redis.KeyPrefix)
	case config.BackendPostgres:
		fmt.Printf("Overlays are stored in postgres at %s:%d/%s as %s\n",
			s.Postgres.Host, s.Postgres.Port, s.Postgres.Database, s.Postgres.User)
	default:
		fmt.Printf("Overlays are stored in %s\n", common.Config().Path())
	}
	return nil
}

// UseStore selects the overlay store backend and checks that it answers.
func UseStore(ctx context.Context, backend string, opts StoreOptions) error {
	backend = strings.ToLower(backend)
	switch backend {
	case config.BackendFile, config.BackendRedis, config.BackendPostgres:
	default:
		return fmt.Errorf("unknown overlay store %q, expected file, redis or postgres", backend)
	}
	err := common.Config().Update(func(s *config.Settings) {
		s.Overlays.Backend = backend
		switch backend {
		case config.BackendRedis:
			s.Overlays.Redis = config.RedisStore{Host: opts.Host, Port: opts.Port, DB: opts.DB, KeyPrefix: opts.KeyPrefix}
		case config.BackendPostgres:
			s.Overlays.Postgres = config.PostgresStore{
				Host:     opts.Host,
				Port:     opts.Port,
				Database: opts.Database,
				User:     opts.User,
				SSLMode:  opts.SSLMode,
			}
		}
	})
	if err != nil {
		return err
	}

	if opts.AskPassword && backend != config.BackendFile {
		pw, err := args.ReadPassword(fmt.Sprintf("%s password: ", backend))
		if err != nil {
			return err
		}
		if err := common.Keyring().Set(keyring.StoreUser(backend), pw); err != nil {
			return fmt.Errorf("failed to store password: %v", err)
		}
	}

	_, closeStore, err := common.OverlayStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		closeStore()
	}
	return ShowStore()
}
