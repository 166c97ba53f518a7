package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewQueryCmd(uc func() *internal.QueryUseCase, cfg func() *internal.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Find the notes most relevant to a question",
		Long: `Embed the query, return the closest chunks and label each with its sentiment.
Use --context or --context-file to blend in extra text such as an uploaded note.`,
		Args: cobra.MinimumNArgs(1),
		RunE: makeQueryRunner(uc, cfg),
	}

	cmd.Flags().IntP("k", "k", 0, "Number of results (default from config)")
	cmd.Flags().String("context", "", "Auxiliary text appended to the query")
	cmd.Flags().String("context-file", "", "File whose content is appended to the query")
	cmd.MarkFlagsMutuallyExclusive("context", "context-file")
	return cmd
}

func makeQueryRunner(uc func() *internal.QueryUseCase, cfg func() *internal.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		asJSON, _ := cmd.Flags().GetBool("json")

		k, _ := cmd.Flags().GetInt("k")
		if k <= 0 {
			k = cfg().Query.K
		}

		aux, _ := cmd.Flags().GetString("context")
		if path, _ := cmd.Flags().GetString("context-file"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read context file: %w", err)
			}
			aux = string(data)
		}

		out, err := uc().Execute(cmd.Context(), internal.QueryInput{Text: text, Context: aux, K: k})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		if asJSON {
			return outputJSON(cmd, out.Hits)
		}

		if len(out.Hits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Top %d results for %q\n", len(out.Hits), text)
		for i, hit := range out.Hits {
			fmt.Fprintf(w, "\nResult %d  (score %.4f, %s #%d)\n", i+1, hit.Score, hit.Source, hit.ChunkIndex)
			fmt.Fprintln(w, strings.TrimSpace(hit.ChunkText))
			fmt.Fprintf(w, "Sentiment: %s (score: %.2f)\n", hit.SentimentLabel, hit.SentimentPolarity)
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
		return nil
	}
}
