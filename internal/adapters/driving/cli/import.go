package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

var (
	importPolicy  string
	importReindex bool
)

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Copy files into the documents directory",
	Long: `Copies files into the documents directory.

When a file with the same name already exists with different content, the
conflict policy decides what survives:
  keep-local   keep the existing copy, back up the incoming one
  keep-remote  replace the existing copy, back up the old one
  keep-both    keep the existing copy and add the incoming one under a
               timestamped name

Backups are named <name>.<timestamp>.bak and are not indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importPolicy, "policy", "p", string(domain.KeepBoth),
		"conflict policy: keep-local, keep-remote or keep-both")
	importCmd.Flags().BoolVar(&importReindex, "reindex", false, "rebuild the embedding table after importing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importer == nil {
		return errors.New("documents directory not configured")
	}

	policy := domain.ConflictPolicy(importPolicy)
	if !policy.IsValid() {
		return fmt.Errorf("invalid policy %q: use keep-local, keep-remote or keep-both", importPolicy)
	}

	ctx := commandContext(cmd)
	for _, src := range args {
		result, err := importer.Import(ctx, src, policy)
		if err != nil {
			return fmt.Errorf("import %s: %w", src, err)
		}
		for _, name := range result.Written {
			cmd.Printf("Imported %s\n", name)
		}
		for _, name := range result.BackedUp {
			cmd.Printf("Backed up %s\n", name)
		}
		if result.Unchanged {
			cmd.Printf("Unchanged %s\n", src)
		}
	}

	if importReindex {
		return runIndex(cmd, nil)
	}
	return nil
}
