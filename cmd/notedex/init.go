package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a notedex workspace",
		Long:  `Create a .notedex directory with a default config and an empty data directory.`,
		RunE:  runInit,
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.notedex)")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	isGlobal, _ := cmd.Flags().GetBool("global")

	resolver := internal.NewScopeResolver()

	var scope internal.Scope
	if isGlobal {
		scope = resolver.Global()
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		scope = resolver.ProjectAt(cwd)
	}

	if _, err := os.Stat(scope.WorkspacePath); err == nil {
		return fmt.Errorf("already initialized at %s", scope.WorkspacePath)
	}

	if err := os.MkdirAll(scope.WorkspacePath, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	cfg := internal.DefaultConfig()
	if err := internal.SaveConfig(scope, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	dataDir := cfg.ResolveDataDir(scope)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized notedex workspace at %s\n", scope.WorkspacePath)
	fmt.Fprintf(cmd.OutOrStdout(), "Drop .txt notes into %s and run 'notedex ingest'\n", dataDir)
	return nil
}
