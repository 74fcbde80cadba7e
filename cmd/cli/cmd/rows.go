package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/rows"
)

// rowsCmd represents the rows command
var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Browse and edit rows",
	Long:  "Page through the rows of a table, insert rows and delete them by primary key",
}

// rowsListCmd prints one page of a table
var rowsListCmd = &cobra.Command{
	Use:   "list <[keyspace.]table> [--where col=value]... [--page-token=<token>]",
	Short: "List rows",
	Long: "Print one page of rows. Filters are equality matches on columns. Filters that leave part of the " +
		"partition key open need --allow-filtering. Use the printed --page-token to fetch the next page.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts rows.ListOptions
		opts.Where, _ = cmd.Flags().GetStringArray("where")
		opts.FullScan, _ = cmd.Flags().GetBool("allow-filtering")
		opts.PageSize, _ = cmd.Flags().GetInt("page-size")
		opts.PageToken, _ = cmd.Flags().GetString("page-token")
		opts.Extended, _ = cmd.Flags().GetBool("extended")
		opts.MaxWidth, _ = cmd.Flags().GetInt("max-width")
		return rows.List(context.Background(), args[0], opts)
	},
}

// rowsInsertCmd writes a row
var rowsInsertCmd = &cobra.Command{
	Use:   "insert <[keyspace.]table> --set col=value...",
	Short: "Insert a row",
	Long: "Insert a row from column=value pairs. Values use CQL literal syntax for collections, " +
		"e.g. --set 'tags={a, b}'. Blank uuid and timeuuid key columns are generated.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, _ := cmd.Flags().GetStringArray("set")
		return rows.Insert(context.Background(), args[0], set)
	},
}

// rowsDeleteCmd deletes a row by primary key
var rowsDeleteCmd = &cobra.Command{
	Use:   "delete <[keyspace.]table> --key col=value...",
	Short: "Delete a row",
	Long:  "Delete the row identified by every primary key column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetStringArray("key")
		return rows.Delete(context.Background(), args[0], key)
	},
}

// rowsCountCmd counts rows up to a limit
var rowsCountCmd = &cobra.Command{
	Use:   "count <[keyspace.]table>",
	Short: "Count rows",
	Long:  "Count the rows of a table. The count stops at --limit so large tables do not time out.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return rows.Count(context.Background(), args[0], limit)
	},
}

func init() {
	rowsListCmd.Flags().StringArrayP("where", "w", nil, "Filter as column=value, repeatable")
	rowsListCmd.Flags().Bool("allow-filtering", false, "Allow filters that scan every partition")
	addPageFlags(rowsListCmd)

	rowsInsertCmd.Flags().StringArrayP("set", "s", nil, "Column value as column=value, repeatable")
	_ = rowsInsertCmd.MarkFlagRequired("set")

	rowsDeleteCmd.Flags().StringArrayP("key", "k", nil, "Primary key value as column=value, repeatable")
	_ = rowsDeleteCmd.MarkFlagRequired("key")

	rowsCountCmd.Flags().Int("limit", 0, "Stop counting at this many rows (default 10000)")

	rowsCmd.AddCommand(rowsListCmd)
	rowsCmd.AddCommand(rowsInsertCmd)
	rowsCmd.AddCommand(rowsDeleteCmd)
	rowsCmd.AddCommand(rowsCountCmd)
}

// addPageFlags registers the paging and display flags shared by listing commands.
func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page-size", 0, "Rows per page (10, 25, 50 or 100)")
	cmd.Flags().String("page-token", "", "Continue from a page token printed by an earlier call")
	cmd.Flags().BoolP("extended", "x", false, "Print one block per row")
	cmd.Flags().Int("max-width", 0, "Truncate values to this many characters (default a third of the terminal width)")
}
