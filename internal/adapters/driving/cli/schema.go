package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaNoCreate bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect or create the index schema",
}

var schemaEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Resolve the API version and create the index if missing",
	Long: `Asks the service for a supported API version and addressing style,
then creates the index with the document fields (and the vector field when
search.vector is set) if it does not exist yet.`,
	Args: cobra.NoArgs,
	RunE: runSchemaEnsure,
}

var schemaFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the fields the live index declares",
	Args:  cobra.NoArgs,
	RunE:  runSchemaFields,
}

func init() {
	schemaEnsureCmd.Flags().BoolVar(&schemaNoCreate, "no-create", false, "fail instead of creating a missing index")
	schemaCmd.AddCommand(schemaEnsureCmd)
	schemaCmd.AddCommand(schemaFieldsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaEnsure(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	state, err := s.Schema.EnsureReady(ctx, !schemaNoCreate)
	if err != nil {
		return fmt.Errorf("schema negotiation failed: %w", err)
	}
	desc, err := s.Schema.Descriptor(ctx)
	if err != nil {
		return fmt.Errorf("schema negotiation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index:       %s (%s)\n", desc.IndexName, state)
	fmt.Fprintf(out, "API version: %s\n", desc.APIVersion)
	fmt.Fprintf(out, "Addressing:  %s\n", desc.Style)
	return nil
}

func runSchemaFields(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	fields, err := s.Schema.SchemaFields(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("reading schema failed: %w", err)
	}

	for _, name := range fields.Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
