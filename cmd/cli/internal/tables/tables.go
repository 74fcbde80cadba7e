package tables

import (
	"context"
	"fmt"
	"os"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
)

// ListKeyspaces prints the user keyspaces.
func ListKeyspaces(ctx context.Context) error {
	s, err := common.Connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	keyspaces, err := s.Engine.Keyspaces(ctx)
	if err != nil {
		return err
	}
	output.Names(os.Stdout, keyspaces, "No keyspaces found.")
	return nil
}

// ListTables prints the tables of keyspace, or of the profile's default
// keyspace.
func ListTables(ctx context.Context, keyspace string) error {
	s, err := common.Connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if keyspace == "" {
		keyspace = s.Profile.DefaultKeyspace
	}
	if keyspace == "" {
		return fmt.Errorf("keyspace is required, the profile has no default keyspace")
	}
	tables, err := s.Engine.Tables(ctx, keyspace)
	if err != nil {
		return err
	}
	output.Names(os.Stdout, tables, fmt.Sprintf("No tables found in keyspace %s.", keyspace))
	return nil
}

// Describe prints the structure of a table. With refresh the cached schema
// is dropped first.
func Describe(ctx context.Context, table string, refresh bool) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		if refresh {
			if _, err := s.Engine.Refresh(ctx); err != nil {
				return err
			}
		}
		tv, err := s.Engine.Describe(ctx)
		if err != nil {
			return err
		}
		return output.Table(os.Stdout, tv)
	})
}

// Form prints the input fields for inserting into a table.
func Form(ctx context.Context, table string) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		fields, err := s.Engine.Fields(ctx, nil)
		if err != nil {
			return err
		}
		return output.Fields(os.Stdout, fields)
	})
}

// SetHidden hides or shows columns of a table in grid output.
func SetHidden(ctx context.Context, table string, columns []string, hidden bool) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		for _, c := range columns {
			if _, err := s.Engine.SetColumnHidden(c, hidden); err != nil {
				return err
			}
		}
		schema := s.Engine.Table()
		var shown []string
		for _, c := range schema.VisibleColumns() {
			shown = append(shown, c.Name)
		}
		fmt.Printf("Visible columns of %s: %v\n", schema.QualifiedName(), shown)
		return nil
	})
}
