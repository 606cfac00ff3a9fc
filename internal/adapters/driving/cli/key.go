package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

var keyLookupOriginal bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Derive and trace index keys",
}

var keySafeCmd = &cobra.Command{
	Use:   "safe [id]",
	Short: "Print the index key for an original identifier",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeySafe,
}

var keyLookupCmd = &cobra.Command{
	Use:   "lookup [key]",
	Short: "Show what was recorded for a key at index time",
	Long: `Looks up the local key ledger, which records the original identifier,
content fingerprint and write time of every document indexed from this
machine. Keys are never decoded.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyLookup,
}

func init() {
	keyLookupCmd.Flags().BoolVar(&keyLookupOriginal, "original", false, "treat the argument as an original identifier")
	keyCmd.AddCommand(keySafeCmd)
	keyCmd.AddCommand(keyLookupCmd)
	rootCmd.AddCommand(keyCmd)
}

func runKeySafe(cmd *cobra.Command, args []string) error {
	key, err := domain.MakeSafeKey(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runKeyLookup(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Keys == nil {
		return domain.ErrLedgerUnavailable
	}

	ctx := commandContext(cmd)
	var entry *domain.LedgerEntry
	if keyLookupOriginal {
		entry, err = s.Keys.LookupOriginal(ctx, args[0])
	} else {
		entry, err = s.Keys.Lookup(ctx, args[0])
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s has not been indexed from this machine", args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key:         %s\n", entry.SafeID)
	fmt.Fprintf(out, "Original ID: %s\n", entry.OriginalID)
	fmt.Fprintf(out, "Name:        %s\n", orNone(entry.Name))
	fmt.Fprintf(out, "Source:      %s\n", orNone(entry.Source.String()))
	fmt.Fprintf(out, "Path:        %s\n", orNone(entry.Path))
	fmt.Fprintf(out, "Vectorised:  %t\n", entry.Vectorised)
	fmt.Fprintf(out, "Indexed at:  %s\n", entry.IndexedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Fingerprint: %s\n", entry.Fingerprint)
	return nil
}
