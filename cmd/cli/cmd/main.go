package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
	"github.com/redbco/redb-cql/cmd/cli/internal/output"
	"github.com/redbco/redb-cql/pkg/config"
)

var (
	configFile  string
	profileName string
	logLevel    string
	// Build information, set with -ldflags at release time
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("redb-cql %s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redb-cql",
	Short: "Browse and edit Cassandra tables",
	Long: "A schema-driven client for Cassandra: list keyspaces and tables, page through rows with filters, " +
		"insert and delete rows, describe map columns with overlays, and run free-form CQL.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version") != nil && cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Profile to use instead of the last used one")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	cobra.OnInitialize(func() {
		if err := common.Init(configFile, profileName, logLevel, Version); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
			os.Exit(1)
		}
	})

	setupCommands()

	setupCompletion()
}

func main() {
	Execute()
}
