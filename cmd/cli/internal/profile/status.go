package profile

import (
	"context"
	"fmt"
	"os"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/database/cassandra"
	"github.com/redbco/redb-cql/pkg/health"
	"github.com/redbco/redb-cql/pkg/keyring"
)

// TestProfile checks the named profile (or the active one): its password in
// the keyring, the cluster and the overlay store. It fails unless every
// check passes.
func TestProfile(ctx context.Context, name string) error {
	p, err := common.ActiveProfile()
	if name != "" {
		var ok bool
		if p, ok = common.Config().Profile(name); !ok {
			return fmt.Errorf("profile '%s' not found", name)
		}
		err = nil
	}
	if err != nil {
		return err
	}

	checker := health.NewChecker()
	var password string
	checker.RunCheck(ctx, "keyring", func(context.Context) (string, error) {
		pw, err := common.Keyring().Lookup(keyring.ProfileUser(p.Name))
		if err != nil {
			return "", err
		}
		password = pw
		if pw == "" {
			return "no password stored", nil
		}
		return "password found", nil
	})
	checker.RunCheck(ctx, "cluster", func(ctx context.Context) (string, error) {
		return clusterVersion(ctx, p, password)
	})
	checker.RunCheck(ctx, "overlay-store", func(ctx context.Context) (string, error) {
		_, closeStore, err := common.OverlayStore(ctx)
		if err != nil {
			return "", err
		}
		if closeStore != nil {
			closeStore()
		}
		backend := common.Config().Settings().Overlays.Backend
		if backend == "" {
			backend = config.BackendFile
		}
		return backend, nil
	})

	fmt.Printf("Profile '%s':\n", p.Name)
	if err := output.Checks(os.Stdout, checker.GetAllChecks()); err != nil {
		return err
	}
	if status := checker.GetOverallStatus(); status != health.StatusHealthy {
		return fmt.Errorf("profile '%s' is %s", p.Name, status)
	}
	return nil
}

func clusterVersion(ctx context.Context, p config.Profile, password string) (string, error) {
	s, err := cassandra.Connect(ctx, p, password, common.Logger())
	if err != nil {
		return "", err
	}
	defer s.Close()

	version, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return "cassandra " + version, nil
}
