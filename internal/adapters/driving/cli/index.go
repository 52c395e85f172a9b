package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-assist/internal/connectors/filesystem"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the embedding table from the documents directory",
	Long: `Loads every supported file in the documents directory (plain text,
Markdown, HTML and PDF), splits it into chunks, embeds each chunk and
replaces the embedding table.

If any chunk fails to embed the previous table is kept.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if loader == nil {
		return errors.New("documents directory not configured")
	}
	assistant, err := requireAssistant()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	docs, skipped, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	printSkipped(cmd, skipped)
	if len(docs) == 0 {
		return fmt.Errorf("no documents to index in %s", loader.Dir())
	}

	cmd.Printf("Indexing %d documents from %s\n", len(docs), loader.Dir())
	summary, err := assistant.Reindex(ctx, docs)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d documents into %s\n",
		summary.ChunksIndexed, summary.DocumentsIndexed, assistant.TablePath())
	return nil
}

func printSkipped(cmd *cobra.Command, skipped []filesystem.Skipped) {
	for _, s := range skipped {
		cmd.Printf("Skipped %s: %s\n", s.Path, s.Reason)
	}
}
