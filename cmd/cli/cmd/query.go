package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/query"
)

// queryCmd runs a free-form statement
var queryCmd = &cobra.Command{
	Use:   "query <statement|->",
	Short: "Run a CQL statement",
	Long: "Run a free-form CQL statement against the active profile. Pass '-' to read the statement from " +
		"stdin; lines starting with '--' are skipped. Schema changes drop cached table definitions.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts query.Options
		opts.PageSize, _ = cmd.Flags().GetInt("page-size")
		opts.PageToken, _ = cmd.Flags().GetString("page-token")
		opts.Extended, _ = cmd.Flags().GetBool("extended")
		opts.MaxWidth, _ = cmd.Flags().GetInt("max-width")
		return query.Run(context.Background(), args[0], opts)
	},
}

func init() {
	addPageFlags(queryCmd)
}
