package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

var getOriginal bool

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Fetch one document from the index",
	Long: `Fetches the full stored record for a safe index key and prints it as JSON.
With --original the argument is an original identifier (blob path or
drive item id) and its safe key is derived first.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getOriginal, "original", false, "treat the argument as an original identifier")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	id := args[0]
	if getOriginal {
		id, err = domain.MakeSafeKey(id)
		if err != nil {
			return err
		}
	}

	record, found, err := s.Query.GetDocumentByID(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	if !found {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return printJSON(cmd, record)
}
