package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-cql/cmd/cli/internal/common"
)

const completionTimeout = 3 * time.Second

// profileNameCompletion completes profile names from the config file
func profileNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || common.Config() == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, p := range common.Config().Profiles() {
		if strings.HasPrefix(p.Name, toComplete) {
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// keyspaceCompletion completes keyspace names from the cluster
func keyspaceCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	s, err := common.Connect(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()

	keyspaces, err := s.Engine.Keyspaces(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterPrefix(keyspaces, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// tableNameCompletion completes the table argument. Bare names come from
// the profile's default keyspace, "ks." lists the tables of ks.
func tableNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	s, err := common.Connect(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()

	var names []string
	if ks, _, ok := strings.Cut(toComplete, "."); ok {
		tables, err := s.Engine.Tables(ctx, ks)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		for _, t := range tables {
			names = append(names, ks+"."+t)
		}
		return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
	}

	keyspaces, err := s.Engine.Keyspaces(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	for _, ks := range keyspaces {
		names = append(names, ks+".")
	}
	if ks := s.Profile.DefaultKeyspace; ks != "" {
		if tables, err := s.Engine.Tables(ctx, ks); err == nil {
			names = append(names, tables...)
		}
	}
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func filterPrefix(list []string, prefix string) []string {
	var out []string
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// setupCustomCompletions wires name completion into commands
func setupCustomCompletions() {
	// Profile name completions
	profilesRemoveCmd.ValidArgsFunction = profileNameCompletion
	profilesUseCmd.ValidArgsFunction = profileNameCompletion
	profilesTestCmd.ValidArgsFunction = profileNameCompletion
	_ = rootCmd.RegisterFlagCompletionFunc("profile", profileNameCompletion)

	// Keyspace completions
	tablesCmd.ValidArgsFunction = keyspaceCompletion

	// Table name completions
	for _, c := range []*cobra.Command{
		describeCmd, formCmd, columnsHideCmd, columnsShowCmd, shellCmd,
		rowsListCmd, rowsInsertCmd, rowsDeleteCmd, rowsCountCmd,
		overlaysListCmd, overlaysDefineCmd, overlaysRemoveCmd,
	} {
		c.ValidArgsFunction = tableNameCompletion
	}
}
