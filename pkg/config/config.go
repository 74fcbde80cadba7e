// Package config reads and writes the YAML settings file: connection
// profiles, logging, the overlay store backend and per-table column
// annotations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/redbco/redb-cql/pkg/logger"
)

// Overlay store backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultPath returns $HOME/.redb-cql/config.yaml, or a relative path when
// the home directory is unknown.
func DefaultPath() string {
	if path := os.Getenv("REDB_CQL_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".redb-cql", "config.yaml")
	}
	return filepath.Join(home, ".redb-cql", "config.yaml")
}

// Profile describes how to reach a cluster. The password is kept in the
// keyring under the profile name.
type Profile struct {
	Name            string   `yaml:"name"`
	Hosts           []string `yaml:"hosts"`
	Port            int      `yaml:"port,omitempty"`
	Username        string   `yaml:"username,omitempty"`
	DefaultKeyspace string   `yaml:"default_keyspace,omitempty"`
	Consistency     string   `yaml:"consistency,omitempty"`
	TimeoutSeconds  int      `yaml:"timeout_seconds,omitempty"`
	ProtoVersion    int      `yaml:"proto_version,omitempty"`
	SSL             SSL      `yaml:"ssl,omitempty"`
}

// SSL holds client TLS options.
type SSL struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	CAPath     string `yaml:"ca_path,omitempty"`
	CertPath   string `yaml:"cert_path,omitempty"`
	KeyPath    string `yaml:"key_path,omitempty"`
	VerifyHost bool   `yaml:"verify_host,omitempty"`
}

// OverlayStore selects where map column overlays are persisted.
type OverlayStore struct {
	Backend  string        `yaml:"backend"`
	Redis    RedisStore    `yaml:"redis,omitempty"`
	Postgres PostgresStore `yaml:"postgres,omitempty"`
}

// RedisStore is the Redis overlay backend. The password comes from the
// keyring.
type RedisStore struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

// PostgresStore is the PostgreSQL overlay backend. The password comes from
// the keyring.
type PostgresStore struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`
}

// MapField is one declared key of a map column.
type MapField struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required,omitempty"`
}

// MapSchema is the stored shape of a map column.
type MapSchema struct {
	Strict bool       `yaml:"strict,omitempty"`
	Fields []MapField `yaml:"fields"`
}

// Column holds local annotations for one column.
type Column struct {
	Hide      bool       `yaml:"hide,omitempty"`
	MapSchema *MapSchema `yaml:"map_schema,omitempty"`
}

// Table holds local annotations keyed by column name.
type Table struct {
	Columns map[string]*Column `yaml:"columns,omitempty"`
}

// Settings is the document stored in the settings file.
type Settings struct {
	LastProfile string            `yaml:"last_profile,omitempty"`
	PageSize    int               `yaml:"page_size,omitempty"`
	Profiles    []Profile         `yaml:"profiles,omitempty"`
	Logging     logger.Config     `yaml:"logging"`
	Overlays    OverlayStore      `yaml:"overlays"`
	Tables      map[string]*Table `yaml:"tables,omitempty"`
}

// Defaults returns the settings written when no file exists.
func Defaults() Settings {
	return Settings{
		PageSize: 50,
		Logging:  logger.Config{Level: "info", OutputType: logger.OutputConsole},
		Overlays: OverlayStore{Backend: BackendFile},
	}
}

// Config is the loaded settings file. All methods are safe for concurrent use;
// mutating methods write the file before returning.
type Config struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// Load reads the settings at path, creating the file with defaults when it
// does not exist.
func Load(path string) (*Config, error) {
	c := &Config{path: path, settings: Defaults()}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	//nolint:gosec // path is chosen by the user running the tool
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c.settings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := c.save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return c, nil
}

// InMemory returns settings that are never written to disk.
func InMemory(s Settings) *Config {
	return &Config{settings: s}
}

// Path returns the settings file path, empty for in-memory settings.
func (c *Config) Path() string {
	return c.path
}

// Settings returns a copy of the current settings. Nested maps are shared and
// must not be modified.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Update applies fn to the settings and saves them.
func (c *Config) Update(fn func(*Settings)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.settings)
	return c.save()
}

// save writes the file through a temporary file and rename. The caller holds
// the write lock.
func (c *Config) save() error {
	if c.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&c.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Profiles returns the profiles sorted by name.
func (c *Config) Profiles() []Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]Profile(nil), c.settings.Profiles...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Profile returns the named profile. An empty name selects the last used one.
func (c *Config) Profile(name string) (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name == "" {
		name = c.settings.LastProfile
	}
	for _, p := range c.settings.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// SaveProfile adds p or replaces the profile with the same name.
func (c *Config) SaveProfile(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(p.Hosts) == 0 {
		return fmt.Errorf("profile %s: at least one host is required", p.Name)
	}
	return c.Update(func(s *Settings) {
		for i := range s.Profiles {
			if s.Profiles[i].Name == p.Name {
				s.Profiles[i] = p
				return
			}
		}
		s.Profiles = append(s.Profiles, p)
	})
}

// DeleteProfile removes the named profile. It reports whether one existed.
func (c *Config) DeleteProfile(name string) (bool, error) {
	found := false
	err := c.Update(func(s *Settings) {
		kept := s.Profiles[:0]
		for _, p := range s.Profiles {
			if p.Name == name {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		s.Profiles = kept
		if s.LastProfile == name {
			s.LastProfile = ""
		}
	})
	return found, err
}

// SetLastProfile records the profile used for the most recent connection.
func (c *Config) SetLastProfile(name string) error {
	return c.Update(func(s *Settings) { s.LastProfile = name })
}

// HiddenColumns returns the sorted columns of table ("keyspace.table") marked
// hidden.
func (c *Config) HiddenColumns(table string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := c.settings.Tables[table]
	if t == nil {
		return nil
	}
	var hidden []string
	for name, col := range t.Columns {
		if col != nil && col.Hide {
			hidden = append(hidden, name)
		}
	}
	sort.Strings(hidden)
	return hidden
}

// SetColumnHidden marks column of table hidden or visible.
func (c *Config) SetColumnHidden(table, column string, hidden bool) error {
	return c.Update(func(s *Settings) {
		col := s.column(table, column, hidden)
		if col == nil {
			return
		}
		col.Hide = hidden
		s.prune(table, column)
	})
}

// MapSchema returns the stored shape of a map column, or nil.
func (c *Config) MapSchema(table, column string) *MapSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := c.settings.Tables[table]
	if t == nil || t.Columns[column] == nil || t.Columns[column].MapSchema == nil {
		return nil
	}
	return cloneMapSchema(t.Columns[column].MapSchema)
}

// MapSchemas returns every stored map column shape of table keyed by column.
func (c *Config) MapSchemas(table string) map[string]*MapSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*MapSchema)
	t := c.settings.Tables[table]
	if t == nil {
		return out
	}
	for name, col := range t.Columns {
		if col != nil && col.MapSchema != nil {
			out[name] = cloneMapSchema(col.MapSchema)
		}
	}
	return out
}

// SetMapSchema stores the shape of a map column. A nil ms removes it.
func (c *Config) SetMapSchema(table, column string, ms *MapSchema) error {
	return c.Update(func(s *Settings) {
		col := s.column(table, column, ms != nil)
		if col == nil {
			return
		}
		if ms == nil {
			col.MapSchema = nil
		} else {
			col.MapSchema = cloneMapSchema(ms)
		}
		s.prune(table, column)
	})
}

// column returns the annotation entry, creating it when create is set.
func (s *Settings) column(table, column string, create bool) *Column {
	if s.Tables == nil {
		if !create {
			return nil
		}
		s.Tables = make(map[string]*Table)
	}
	t := s.Tables[table]
	if t == nil {
		if !create {
			return nil
		}
		t = &Table{}
		s.Tables[table] = t
	}
	if t.Columns == nil {
		t.Columns = make(map[string]*Column)
	}
	col := t.Columns[column]
	if col == nil {
		if !create {
			return nil
		}
		col = &Column{}
		t.Columns[column] = col
	}
	return col
}

// prune drops empty annotation entries so the file stays small.
func (s *Settings) prune(table, column string) {
	t := s.Tables[table]
	if t == nil {
		return
	}
	if col := t.Columns[column]; col != nil && !col.Hide && col.MapSchema == nil {
		delete(t.Columns, column)
	}
	if len(t.Columns) == 0 {
		delete(s.Tables, table)
	}
}

func cloneMapSchema(ms *MapSchema) *MapSchema {
	out := *ms
	out.Fields = append([]MapField(nil), ms.Fields...)
	return &out
}
