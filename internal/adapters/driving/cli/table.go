package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show or change the embedding table location",
	Long: `Shows or changes the embedding table the assistant reads.

Paths ending in .db, .sqlite or .sqlite3 use the SQLite format; anything
else is read and written as JSON.`,
	Args: cobra.NoArgs,
	RunE: runTableGet,
}

var tableGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the embedding table path",
	Args:  cobra.NoArgs,
	RunE:  runTableGet,
}

var tableSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Switch to another embedding table",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableSet,
}

func init() {
	tableCmd.AddCommand(tableGetCmd)
	tableCmd.AddCommand(tableSetCmd)
	rootCmd.AddCommand(tableCmd)
}

func runTableGet(cmd *cobra.Command, _ []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}
	current, err := settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Println(current.TablePath)
	return nil
}

func runTableSet(cmd *cobra.Command, args []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}
	if err := settings.SetTablePath(args[0]); err != nil {
		return fmt.Errorf("failed to set table path: %w", err)
	}

	current, err := settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if assistantService != nil {
		if err := assistantService.SetTablePath(current.TablePath); err != nil {
			return err
		}
	}
	cmd.Printf("Embedding table: %s\n", current.TablePath)
	return nil
}
