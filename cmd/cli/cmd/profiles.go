package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/profile"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage connection profiles",
	Long:  "Manage connection profiles for Cassandra clusters",
}

// profilesListCmd lists all profiles
var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Long:  "List all connection profiles. The last used profile is marked with '*'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return profile.ListProfiles()
	},
}

// profilesAddCmd creates or replaces a profile
var profilesAddCmd = &cobra.Command{
	Use:   "add <name> [--hosts=<h1,h2>] [--port=<port>] [--username=<user>] [--password]",
	Short: "Add a profile",
	Long: "Add or replace a connection profile. The password is kept in the system keyring, never in the " +
		"config file. Use --interactive to be prompted for every setting.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts profile.Options
		opts.Hosts, _ = cmd.Flags().GetString("hosts")
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.Username, _ = cmd.Flags().GetString("username")
		opts.DefaultKeyspace, _ = cmd.Flags().GetString("keyspace")
		opts.Consistency, _ = cmd.Flags().GetString("consistency")
		opts.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout")
		opts.ProtoVersion, _ = cmd.Flags().GetInt("proto-version")
		opts.SSL, _ = cmd.Flags().GetBool("ssl")
		opts.CAPath, _ = cmd.Flags().GetString("ca")
		opts.CertPath, _ = cmd.Flags().GetString("cert")
		opts.KeyPath, _ = cmd.Flags().GetString("key")
		opts.VerifyHost, _ = cmd.Flags().GetBool("verify-host")
		opts.AskPassword, _ = cmd.Flags().GetBool("password")
		opts.Interactive, _ = cmd.Flags().GetBool("interactive")
		return profile.AddProfile(args[0], opts)
	},
}

// profilesRemoveCmd deletes a profile
var profilesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a profile",
	Long:  "Remove a connection profile and its stored password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return profile.RemoveProfile(args[0])
	},
}

// profilesUseCmd makes a profile the default
var profilesUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Use a profile by default",
	Long:  "Make a profile the one used when --profile is not given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return profile.UseProfile(args[0])
	},
}

// profilesTestCmd checks that a profile connects
var profilesTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Test a profile",
	Long:  "Check the stored password, the cluster and the overlay store of a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return profile.TestProfile(context.Background(), name)
	},
}

func init() {
	profilesAddCmd.Flags().String("hosts", "", "Comma separated contact points")
	profilesAddCmd.Flags().Int("port", 0, "Native protocol port (default 9042)")
	profilesAddCmd.Flags().String("username", "", "Username for password authentication")
	profilesAddCmd.Flags().String("keyspace", "", "Default keyspace")
	profilesAddCmd.Flags().String("consistency", "", "Consistency level (default QUORUM)")
	profilesAddCmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	profilesAddCmd.Flags().Int("proto-version", 0, "Native protocol version, 0 to negotiate")
	profilesAddCmd.Flags().Bool("ssl", false, "Connect with TLS")
	profilesAddCmd.Flags().String("ca", "", "CA certificate file")
	profilesAddCmd.Flags().String("cert", "", "Client certificate file")
	profilesAddCmd.Flags().String("key", "", "Client key file")
	profilesAddCmd.Flags().Bool("verify-host", false, "Verify the server host name")
	profilesAddCmd.Flags().Bool("password", false, "Prompt for a password and store it in the keyring")
	profilesAddCmd.Flags().BoolP("interactive", "i", false, "Prompt for settings not given as flags")

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesAddCmd)
	profilesCmd.AddCommand(profilesRemoveCmd)
	profilesCmd.AddCommand(profilesUseCmd)
	profilesCmd.AddCommand(profilesTestCmd)
}
