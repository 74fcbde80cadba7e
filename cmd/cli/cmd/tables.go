package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/interactive"
	"github.com/redbco/redb-cql/cmd/cli/internal/tables"
)

// keyspacesCmd lists keyspaces
var keyspacesCmd = &cobra.Command{
	Use:   "keyspaces",
	Short: "List keyspaces",
	Long:  "List the keyspaces of the cluster, without system keyspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tables.ListKeyspaces(context.Background())
	},
}

// tablesCmd lists the tables of a keyspace
var tablesCmd = &cobra.Command{
	Use:   "tables [keyspace]",
	Short: "List tables",
	Long:  "List the tables of a keyspace, or of the profile's default keyspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyspace := ""
		if len(args) == 1 {
			keyspace = args[0]
		}
		return tables.ListTables(context.Background(), keyspace)
	},
}

// describeCmd shows the structure of a table
var describeCmd = &cobra.Command{
	Use:   "describe <[keyspace.]table>",
	Short: "Describe a table",
	Long:  "Show the columns, primary key, hidden columns and overlays of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		return tables.Describe(context.Background(), args[0], refresh)
	},
}

// formCmd shows the insert form of a table
var formCmd = &cobra.Command{
	Use:   "form <[keyspace.]table>",
	Short: "Show the insert form",
	Long:  "Show the input fields used to insert into a table, with their widgets, ranges and overlay keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tables.Form(context.Background(), args[0])
	},
}

// columnsCmd represents the columns command
var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Hide or show columns",
	Long:  "Hide or show columns in grid output. Hidden columns are remembered per table in the config file.",
}

var columnsHideCmd = &cobra.Command{
	Use:   "hide <[keyspace.]table> <column>...",
	Short: "Hide columns",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tables.SetHidden(context.Background(), args[0], args[1:], true)
	},
}

var columnsShowCmd = &cobra.Command{
	Use:   "show <[keyspace.]table> <column>...",
	Short: "Show hidden columns",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tables.SetHidden(context.Background(), args[0], args[1:], false)
	},
}

// shellCmd starts the interactive shell
var shellCmd = &cobra.Command{
	Use:   "shell [[keyspace.]table]",
	Short: "Start an interactive shell",
	Long: "Start a shell that keeps the connection open, so the selected table, filters and page position " +
		"carry over between commands. Type 'help' in the shell for its commands.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := ""
		if len(args) == 1 {
			table = args[0]
		}
		return interactive.Start(context.Background(), table)
	},
}

func init() {
	describeCmd.Flags().Bool("refresh", false, "Reload the schema from the cluster")

	columnsCmd.AddCommand(columnsHideCmd)
	columnsCmd.AddCommand(columnsShowCmd)
}
