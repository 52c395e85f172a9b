package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding table statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	assistant, err := requireAssistant()
	if err != nil {
		return err
	}

	stats, err := assistant.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("read table %s: %w", assistant.TablePath(), err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	cmd.Printf("Table:      %s\n", stats.TablePath)
	cmd.Printf("Documents:  %d\n", stats.DocumentCount)
	cmd.Printf("Chunks:     %d\n", stats.ChunkCount)
	cmd.Printf("Dimensions: %d\n", stats.Dimensions)
	if len(stats.Documents) > 0 {
		cmd.Println()
		for _, doc := range stats.Documents {
			cmd.Printf("  %s: %d chunks, %d chars\n", doc.Source, doc.Chunks, doc.TotalChars)
		}
	}
	return nil
}
