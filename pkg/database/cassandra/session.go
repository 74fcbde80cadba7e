// Package cassandra implements adapter.Session on top of gocql.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/logger"
)

const (
	// DefaultPort is the native protocol port.
	DefaultPort = 9042

	// DefaultTimeout applies to connecting and to each request.
	DefaultTimeout = 10 * time.Second
)

// Session is an open gocql session bound to one profile.
type Session struct {
	session *gocql.Session
	hosts   []string
	port    int
	logger  *logger.Logger
}

var _ adapter.Session = (*Session)(nil)
var _ adapter.Closer = (*Session)(nil)

// NewCluster builds the gocql cluster configuration for a profile.
func NewCluster(p config.Profile, password string) (*gocql.ClusterConfig, error) {
	if len(p.Hosts) == 0 {
		return nil, fmt.Errorf("profile %q has no hosts", p.Name)
	}

	cluster := gocql.NewCluster(p.Hosts...)
	cluster.Port = p.Port
	if cluster.Port == 0 {
		cluster.Port = DefaultPort
	}
	if p.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: p.Username,
			Password: password,
		}
	}
	if p.DefaultKeyspace != "" {
		cluster.Keyspace = p.DefaultKeyspace
	}
	if p.SSL.Enabled {
		cluster.SslOpts = sslOptions(p.SSL)
	}

	cluster.Consistency = gocql.Quorum
	if p.Consistency != "" {
		c, err := gocql.ParseConsistencyWrapper(p.Consistency)
		if err != nil {
			return nil, fmt.Errorf("invalid consistency %q: %w", p.Consistency, err)
		}
		cluster.Consistency = c
	}

	cluster.Timeout = DefaultTimeout
	if p.TimeoutSeconds > 0 {
		cluster.Timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	cluster.ConnectTimeout = cluster.Timeout
	// zero lets the driver negotiate
	cluster.ProtoVersion = p.ProtoVersion
	return cluster, nil
}

func sslOptions(s config.SSL) *gocql.SslOptions {
	opts := &gocql.SslOptions{
		EnableHostVerification: s.VerifyHost,
		CaPath:                 s.CAPath,
	}
	if s.CertPath != "" && s.KeyPath != "" {
		opts.CertPath = s.CertPath
		opts.KeyPath = s.KeyPath
	}
	return opts
}

// Connect opens a session for the profile and checks that the cluster
// answers. Failures are ConnectionErrors.
func Connect(ctx context.Context, p config.Profile, password string, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.NewNop()
	}
	cluster, err := NewCluster(p, password)
	if err != nil {
		return nil, err
	}

	log.Infof("Connecting to cassandra at %s (port %d)", strings.Join(p.Hosts, ","), cluster.Port)
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, adapter.NewConnectionError(p.Hosts, cluster.Port, err)
	}

	s := &Session{session: session, hosts: p.Hosts, port: cluster.Port, logger: log}
	if _, err := s.Version(ctx); err != nil {
		session.Close()
		return nil, adapter.NewConnectionError(p.Hosts, cluster.Port, err)
	}
	return s, nil
}

// Version returns the release version of the coordinator.
func (s *Session) Version(ctx context.Context) (string, error) {
	var version string
	if err := s.session.Query("SELECT release_version FROM system.local").WithContext(ctx).Scan(&version); err != nil {
		return "", fmt.Errorf("error fetching version: %w", err)
	}
	return version, nil
}

// Ping checks that the cluster still answers.
func (s *Session) Ping(ctx context.Context) error {
	if _, err := s.Version(ctx); err != nil {
		return s.wrap("SELECT release_version FROM system.local", err)
	}
	return nil
}

// Close releases the session.
func (s *Session) Close() error {
	s.session.Close()
	return nil
}

// Execute runs the statement and reads at most one page. Driver paging is
// always manual so a page state never fetches more than was asked for.
func (s *Session) Execute(ctx context.Context, stmt *adapter.Statement) (*adapter.ResultSet, error) {
	text, args := stmt.CQL()
	q := s.session.Query(text, args...).WithContext(ctx)
	if stmt.IsPaged() {
		q = q.PageSize(stmt.PageSize).PageState(stmt.PageState)
	}

	iter := q.Iter()
	rs := &adapter.ResultSet{}
	for _, c := range iter.Columns() {
		rs.Columns = append(rs.Columns, adapter.ColumnInfo{Name: c.Name, Type: TypeText(c.TypeInfo)})
	}
	for {
		row := make(map[string]interface{}, len(rs.Columns))
		if !iter.MapScan(row) {
			break
		}
		rs.Rows = append(rs.Rows, adapter.Row(row))
	}
	if state := iter.PageState(); len(state) > 0 {
		rs.PageState = append([]byte(nil), state...)
	}
	if err := iter.Close(); err != nil {
		return nil, s.wrap(text, err)
	}

	switch {
	case len(rs.Columns) == 0:
		rs.Applied = true
	case len(rs.Rows) == 1 && rs.Columns[0].Name == "[applied]":
		rs.Applied, _ = rs.Rows[0]["[applied]"].(bool)
	}
	return rs, nil
}

// wrap reports lost connectivity as ConnectionError and everything else as
// ExecutionError.
func (s *Session) wrap(statement string, err error) error {
	if isConnectionError(err) {
		s.logger.Warnf("Lost connection to cluster: %v", err)
		return adapter.NewConnectionError(s.hosts, s.port, err)
	}
	return adapter.WrapExecutionError(statement, err)
}

func isConnectionError(err error) bool {
	return errors.Is(err, gocql.ErrNoConnections) ||
		errors.Is(err, gocql.ErrSessionClosed) ||
		errors.Is(err, gocql.ErrConnectionClosed)
}
