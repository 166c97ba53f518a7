package main

import (
	"encoding/json"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notedex",
		Short:         "Semantic index for meeting notes and chat logs",
		Long:          `Chunk, embed and index free-text notes, then query them by meaning with sentiment annotations.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		}
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().String("index-path", "", "Index location (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	ingest := func() (*internal.IngestUseCase, error) {
		emb, err := a.Embedder()
		if err != nil {
			return nil, err
		}
		return internal.NewIngestUseCase(emb, a.Logger()), nil
	}
	query := func() *internal.QueryUseCase { return internal.NewQueryUseCase(a.Session) }
	appendDocs := func() *internal.AppendUseCase { return internal.NewAppendUseCase(a.Session) }
	status := func() *internal.StatusUseCase { return internal.NewStatusUseCase(a.Session) }
	diff := func() *internal.DiffUseCase { return internal.NewDiffUseCase(a.Session) }

	root.AddCommand(
		NewInitCmd(),
		NewIngestCmd(ingest, a.Config, a.Scope),
		NewQueryCmd(query, a.Config),
		NewAppendCmd(appendDocs),
		NewStatusCmd(status),
		NewDiffCmd(diff),
		NewWatchCmd(appendDocs, a.Config, a.Scope),
	)
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
