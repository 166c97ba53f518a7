package main

import (
	"fmt"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd(uc func() *internal.DiffUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show changes since a file was last indexed",
		Long:  `Compare a file with the text of its most recently indexed version.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeDiffRunner(uc),
	}

	return cmd
}

func makeDiffRunner(uc func() *internal.DiffUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, err := uc().Execute(cmd.Context(), internal.DiffInput{Path: args[0]})
		if err != nil {
			return fmt.Errorf("get diff: %w", err)
		}

		w := cmd.OutOrStdout()
		switch {
		case !out.Indexed:
			fmt.Fprintf(w, "%s is not indexed yet.\n", out.Source)
		case !out.Changed:
			fmt.Fprintln(w, "No changes.")
		default:
			fmt.Fprint(w, out.Diff)
			fmt.Fprintf(w, "%d lines added, %d lines removed\n", out.Inserted, out.Deleted)
		}
		return nil
	}
}
