package main

import (
	"fmt"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewStatusCmd(uc func() *internal.StatusUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long:  `Show the index dimension, embedding model, entry count and indexed documents.`,
		Args:  cobra.NoArgs,
		RunE:  makeStatusRunner(uc),
	}

	cmd.Flags().BoolP("verbose", "v", false, "List indexed documents")
	return cmd
}

func makeStatusRunner(uc func() *internal.StatusUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		out, err := uc().Execute(cmd.Context())
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return outputJSON(cmd, out.IndexStatus)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Index:     %s (%s)\n", out.Location, out.Format)
		fmt.Fprintf(w, "Model:     %s\n", out.Model)
		fmt.Fprintf(w, "Dimension: %d\n", out.Dimension)
		fmt.Fprintf(w, "Entries:   %d\n", out.Entries)
		fmt.Fprintf(w, "Documents: %d\n", out.Documents)

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			for _, d := range out.Sources {
				fmt.Fprintf(w, "  %s  %s (%d chunks)\n", d.ID[:8], d.Source, d.Chunks)
			}
		}
		return nil
	}
}
