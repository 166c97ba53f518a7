package main

import (
	"fmt"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewAppendCmd(uc func() *internal.AppendUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <file>...",
		Short: "Add documents to the existing index",
		Long:  `Chunk and embed the given files and append them to the index without re-embedding existing chunks.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeAppendRunner(uc),
	}

	cmd.Flags().Bool("skip-existing", false, "Skip files whose current content is already indexed")
	return cmd
}

func makeAppendRunner(uc func() *internal.AppendUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetBool("skip-existing")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), internal.AppendInput{Paths: args, SkipExisting: skip})
		if out != nil {
			printAppendResults(cmd, out, asJSON)
		}
		if err != nil {
			return fmt.Errorf("append: %w", err)
		}
		return nil
	}
}

func printAppendResults(cmd *cobra.Command, out *internal.AppendOutput, asJSON bool) {
	if asJSON {
		_ = outputJSON(cmd, out.Results)
		return
	}
	for _, r := range out.Results {
		if r.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped  %s (already indexed)\n", r.Source)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "appended %s (%d chunks)\n", r.Source, r.Chunks)
	}
}
