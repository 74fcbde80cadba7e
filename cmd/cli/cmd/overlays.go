package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/overlays"
)

// overlaysCmd represents the overlays command
var overlaysCmd = &cobra.Command{
	Use:   "overlays",
	Short: "Manage map column overlays",
	Long: "An overlay declares the keys a map column is expected to hold and the type of each value. " +
		"Inserts are checked against it and the form shows one input per key.",
}

var overlaysListCmd = &cobra.Command{
	Use:   "list <[keyspace.]table>",
	Short: "List the overlays of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return overlays.List(context.Background(), args[0])
	},
}

var overlaysDefineCmd = &cobra.Command{
	Use:   "define <[keyspace.]table> <column> --field key:type[:required]...",
	Short: "Define the overlay of a map column",
	Long: "Define or replace the overlay of a map column. Each --field is key:type, with ':required' " +
		"appended for keys every row must carry. With --strict, keys outside the overlay are rejected.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, _ := cmd.Flags().GetStringArray("field")
		strict, _ := cmd.Flags().GetBool("strict")
		return overlays.Define(context.Background(), args[0], args[1], fields, strict)
	},
}

var overlaysRemoveCmd = &cobra.Command{
	Use:   "remove <[keyspace.]table> <column>",
	Short: "Remove the overlay of a map column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return overlays.Remove(context.Background(), args[0], args[1])
	},
}

// overlaysStoreCmd represents the overlays store command
var overlaysStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Choose where overlays are kept",
	Long:  "Overlays are kept in the config file by default, or shared through redis or postgres.",
}

var overlaysStoreShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the overlay store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return overlays.ShowStore()
	},
}

var overlaysStoreUseCmd = &cobra.Command{
	Use:       "use <file|redis|postgres>",
	Short:     "Select the overlay store",
	Long:      "Select the overlay store and check that it answers. Passwords are kept in the system keyring.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"file", "redis", "postgres"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts overlays.StoreOptions
		opts.Host, _ = cmd.Flags().GetString("host")
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.DB, _ = cmd.Flags().GetInt("db")
		opts.KeyPrefix, _ = cmd.Flags().GetString("key-prefix")
		opts.Database, _ = cmd.Flags().GetString("database")
		opts.User, _ = cmd.Flags().GetString("user")
		opts.SSLMode, _ = cmd.Flags().GetString("sslmode")
		opts.AskPassword, _ = cmd.Flags().GetBool("password")
		return overlays.UseStore(context.Background(), args[0], opts)
	},
}

func init() {
	overlaysDefineCmd.Flags().StringArrayP("field", "f", nil, "Overlay key as key:type[:required], repeatable")
	overlaysDefineCmd.Flags().Bool("strict", false, "Reject keys not declared in the overlay")
	_ = overlaysDefineCmd.MarkFlagRequired("field")

	overlaysStoreUseCmd.Flags().String("host", "localhost", "Store host")
	overlaysStoreUseCmd.Flags().Int("port", 0, "Store port (default 6379 for redis, 5432 for postgres)")
	overlaysStoreUseCmd.Flags().Int("db", 0, "Redis database number")
	overlaysStoreUseCmd.Flags().String("key-prefix", "redb-cql", "Redis key prefix")
	overlaysStoreUseCmd.Flags().String("database", "redb_cql", "Postgres database")
	overlaysStoreUseCmd.Flags().String("user", "", "Postgres user")
	overlaysStoreUseCmd.Flags().String("sslmode", "disable", "Postgres sslmode (disable, require or verify-full)")
	overlaysStoreUseCmd.Flags().Bool("password", false, "Prompt for the store password")

	overlaysStoreCmd.AddCommand(overlaysStoreShowCmd)
	overlaysStoreCmd.AddCommand(overlaysStoreUseCmd)

	overlaysCmd.AddCommand(overlaysListCmd)
	overlaysCmd.AddCommand(overlaysDefineCmd)
	overlaysCmd.AddCommand(overlaysRemoveCmd)
	overlaysCmd.AddCommand(overlaysStoreCmd)
}
