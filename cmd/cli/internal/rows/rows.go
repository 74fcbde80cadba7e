package rows

import (
	"context"
	"fmt"
	"os"

	"github.com/redbco/redb-cql/cmd/cli/internal/args"
	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/engine"
)

// ListOptions selects the page to print.
type ListOptions struct {
	Where     []string
	FullScan  bool
	PageSize  int
	PageToken string
	Extended  bool
	MaxWidth  int
}

// List prints one page of a table.
func List(ctx context.Context, table string, opts ListOptions) error {
	filters, err := args.Filters(opts.Where)
	if err != nil {
		return err
	}
	return common.WithTable(ctx, table, func(s *common.Session) error {
		if opts.PageSize > 0 {
			if _, err := s.Engine.SetPageSize(ctx, opts.PageSize); err != nil {
				return err
			}
		}

		var page *engine.Page
		switch {
		case opts.PageToken != "":
			page, err = s.Engine.ResumePage(ctx, filters, opts.FullScan, opts.PageToken)
		case len(filters) > 0:
			page, err = s.Engine.ApplyFilters(ctx, filters, opts.FullScan)
		default:
			page, err = s.Engine.Browse(ctx)
		}
		if adapter.IsFullScanError(err) {
			return fmt.Errorf("%v\nRe-run with --allow-filtering to scan every partition", err)
		}
		if err != nil {
			return err
		}
		return output.Page(os.Stdout, page, opts.Extended, common.CellWidth(opts.MaxWidth))
	})
}

// Insert writes one row from column=value pairs.
func Insert(ctx context.Context, table string, set []string) error {
	values, err := args.Assignments(set)
	if err != nil {
		return err
	}
	return common.WithTable(ctx, table, func(s *common.Session) error {
		res, err := s.Engine.Insert(ctx, values)
		if res != nil {
			output.Mutation(os.Stdout, "inserted", res)
		}
		return err
	})
}

// Delete removes the row with the given primary key.
func Delete(ctx context.Context, table string, key []string) error {
	values, err := args.Assignments(key)
	if err != nil {
		return err
	}
	return common.WithTable(ctx, table, func(s *common.Session) error {
		res, err := s.Engine.Delete(ctx, values)
		if res != nil {
			output.Mutation(os.Stdout, "deleted", res)
		}
		return err
	})
}

// Count prints a row count bounded by limit.
func Count(ctx context.Context, table string, limit int) error {
	return common.WithTable(ctx, table, func(s *common.Session) error {
		c, err := s.Engine.EstimateRowCount(ctx, limit)
		if err != nil {
			return err
		}
		output.Count(os.Stdout, s.Engine.Table().QualifiedName(), c)
		return nil
	})
}
