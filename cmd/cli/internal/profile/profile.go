package profile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redbco/redb-cql/cmd/cli/internal/args"
	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/keyring"
)

// Options are the profile fields given as flags. Empty fields are prompted
// for when Interactive is set.
type Options struct {
	Hosts           string
	Port            int
	Username        string
	DefaultKeyspace string
	Consistency     string
	TimeoutSeconds  int
	ProtoVersion    int
	SSL             bool
	CAPath          string
	CertPath        string
	KeyPath         string
	VerifyHost      bool
	AskPassword     bool
	Interactive     bool
}

// ListProfiles prints every profile.
func ListProfiles() error {
	cfg := common.Config()
	return output.Profiles(os.Stdout, cfg.Profiles(), cfg.Settings().LastProfile)
}

// AddProfile creates or replaces a profile. The password goes to the keyring.
func AddProfile(name string, opts Options) error {
	cfg := common.Config()
	p := config.Profile{Name: name}
	if existing, ok := cfg.Profile(name); ok {
		p = existing
	}
	reader := bufio.NewReader(os.Stdin)

	hosts := opts.Hosts
	if hosts == "" && opts.Interactive {
		hosts = args.PromptDefault(reader, "Hosts (comma separated)", strings.Join(p.Hosts, ","))
	}
	if hosts != "" {
		p.Hosts = splitHosts(hosts)
	}
	if len(p.Hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}

	if opts.Port != 0 {
		p.Port = opts.Port
	} else if opts.Interactive {
		def := ""
		if p.Port != 0 {
			def = strconv.Itoa(p.Port)
		}
		if s := args.PromptDefault(reader, "Port (empty for 9042)", def); s != "" {
			port, err := strconv.Atoi(s)
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", s)
			}
			p.Port = port
		}
	}

	if opts.Username != "" {
		p.Username = opts.Username
	} else if opts.Interactive {
		p.Username = args.PromptDefault(reader, "Username (optional)", p.Username)
	}
	if opts.DefaultKeyspace != "" {
		p.DefaultKeyspace = opts.DefaultKeyspace
	} else if opts.Interactive {
		p.DefaultKeyspace = args.PromptDefault(reader, "Default keyspace (optional)", p.DefaultKeyspace)
	}
	if opts.Consistency != "" {
		p.Consistency = strings.ToUpper(opts.Consistency)
	}
	if opts.TimeoutSeconds > 0 {
		p.TimeoutSeconds = opts.TimeoutSeconds
	}
	if opts.ProtoVersion > 0 {
		p.ProtoVersion = opts.ProtoVersion
	}
	if opts.SSL {
		p.SSL = config.SSL{
			Enabled:    true,
			CAPath:     opts.CAPath,
			CertPath:   opts.CertPath,
			KeyPath:    opts.KeyPath,
			VerifyHost: opts.VerifyHost,
		}
	}

	if err := cfg.SaveProfile(p); err != nil {
		return fmt.Errorf("failed to save profile: %v", err)
	}

	if p.Username != "" && (opts.AskPassword || opts.Interactive) {
		pw, err := args.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		if err := common.Keyring().Set(keyring.ProfileUser(p.Name), pw); err != nil {
			return fmt.Errorf("failed to store password: %v", err)
		}
	}

	if cfg.Settings().LastProfile == "" {
		if err := cfg.SetLastProfile(p.Name); err != nil {
			return err
		}
	}
	fmt.Printf("Profile '%s' saved.\n", p.Name)
	return nil
}

// RemoveProfile deletes a profile and its stored password.
func RemoveProfile(name string) error {
	found, err := common.Config().DeleteProfile(name)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %v", err)
	}
	if !found {
		return fmt.Errorf("profile '%s' not found", name)
	}
	if err := common.Keyring().Delete(keyring.ProfileUser(name)); err != nil {
		common.Logger().Warnf("Failed to remove stored password: %v", err)
	}
	fmt.Printf("Profile '%s' deleted.\n", name)
	return nil
}

// UseProfile makes name the default profile.
func UseProfile(name string) error {
	cfg := common.Config()
	if _, ok := cfg.Profile(name); !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}
	if err := cfg.SetLastProfile(name); err != nil {
		return err
	}
	fmt.Printf("Using profile '%s'.\n", name)
	return nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
