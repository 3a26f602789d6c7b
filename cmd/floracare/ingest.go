package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/floracare/internal/knowledge"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Load reference documents into the knowledge store",
		Long: `Walk a directory and ingest every .txt, .md, and .pdf file it contains.
Each document is split into paragraph chunks; the source recorded for a
chunk is the file's path relative to the directory. Ingesting the same
file twice stores its chunks twice; remove the source first to replace it.`,
		Example: `  floracare ingest ./knowledge_base`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			docs, err := knowledge.LoadDir(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No supported documents found.")
				return nil
			}

			s, err := openModels(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			total := 0
			for _, doc := range docs {
				n, err := s.knowledge.Ingest(ctx, doc)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", doc.Source, err)
				}
				total += n
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d chunks\n", doc.Source, n)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d documents.\n", total, len(docs))
			return nil
		},
	}
}
