package main

import (
	"os"

	"github.com/spf13/cobra"
)

// setupCommands initializes all commands and their relationships
func setupCommands() {
	// Connection profiles
	rootCmd.AddCommand(profilesCmd)

	// Schema browsing
	rootCmd.AddCommand(keyspacesCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(columnsCmd)

	// Data
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(overlaysCmd)

	rootCmd.AddCommand(shellCmd)
}

// setupCompletion adds shell completion support
func setupCompletion() {
	// Add completion command
	rootCmd.AddCommand(completionCmd)

	// Setup custom completions
	setupCustomCompletions()
}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(redb-cql completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ redb-cql completion bash > /etc/bash_completion.d/redb-cql
  # macOS:
  $ redb-cql completion bash > /usr/local/etc/bash_completion.d/redb-cql

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it, see https://zsh.sourceforge.io/Doc/Release/Options.html#index-COMPLETE_005fALIASES

  $ source <(redb-cql completion zsh)

  # To load completions for each session, execute once:
  $ redb-cql completion zsh > "${fpath[1]}/_redb-cql"

Fish:
  $ redb-cql completion fish | source

  # To load completions for each session, execute once:
  $ redb-cql completion fish > ~/.config/fish/completions/redb-cql.fish

PowerShell:
  PS> redb-cql completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> redb-cql completion powershell > redb-cql.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletion(os.Stdout)
		}
	},
}
