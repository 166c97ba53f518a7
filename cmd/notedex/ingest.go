package main

import (
	"fmt"

	"github.com/4thel00z/notedex/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(
	uc func() (*internal.IngestUseCase, error),
	cfg func() *internal.Config,
	scope func() internal.Scope,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [data_dir] [index_path]",
		Short: "Build the index from a directory of notes",
		Long: `Read every .txt file in the data directory, split it into overlapping
chunks, embed them and save a fresh index. Nothing is written if any step fails.`,
		Args: cobra.MaximumNArgs(2),
		RunE: makeIngestRunner(uc, cfg, scope),
	}

	cmd.Flags().String("data-dir", "", "Directory of .txt notes (default from config)")
	cmd.Flags().String("format", "", "Index format (bundle|sqlite)")
	cmd.Flags().Int("size", 0, "Chunk size in characters (default from config)")
	cmd.Flags().Int("overlap", -1, "Chunk overlap in characters (default from config)")
	return cmd
}

func makeIngestRunner(
	uc func() (*internal.IngestUseCase, error),
	cfg func() *internal.Config,
	scope func() internal.Scope,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		conf := cfg()
		sc := scope()

		dataDir := conf.ResolveDataDir(sc)
		if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
			dataDir = d
		}
		indexPath := conf.ResolveIndexPath(sc)
		if p, _ := cmd.Flags().GetString("index-path"); p != "" {
			indexPath = p
		}
		if len(args) > 0 {
			dataDir = args[0]
		}
		if len(args) > 1 {
			indexPath = args[1]
		}

		format := conf.Store.Format
		if cmd.Flags().Changed("format") || indexPath != conf.ResolveIndexPath(sc) {
			format, _ = cmd.Flags().GetString("format")
		}

		size := conf.Chunking.Size
		if s, _ := cmd.Flags().GetInt("size"); s > 0 {
			size = s
		}
		overlap := conf.Chunking.Overlap
		if o, _ := cmd.Flags().GetInt("overlap"); o >= 0 {
			overlap = o
		}

		ingestUC, err := uc()
		if err != nil {
			return err
		}

		out, err := ingestUC.Execute(cmd.Context(), internal.IngestInput{
			DataDir:   dataDir,
			IndexPath: indexPath,
			Format:    format,
			Size:      size,
			Overlap:   overlap,
		})
		if err != nil {
			return fmt.Errorf("ingest %s: %w", dataDir, err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return outputJSON(cmd, map[string]any{
				"documents": out.Documents,
				"chunks":    out.Chunks,
				"location":  out.Location,
				"format":    out.Format,
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d documents into %s (%s)\n",
			out.Chunks, out.Documents, out.Location, out.Format)
		return nil
	}
}
