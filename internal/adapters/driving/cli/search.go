package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

var (
	searchLimit    int
	searchTextOnly bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Find documents similar to a piece of text",
	Long: `Finds indexed documents similar to the given text.

Vector similarity is used when an embedding provider is configured. If the
vector query fails or finds nothing, a free-text relevance query is run
instead. The mode that produced the results is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var contextLimit int

var contextCmd = &cobra.Command{
	Use:   "context [text]",
	Short: "Retrieve grounding documents with their full text",
	Long: `Retrieves the documents most similar to the given text, in rank order,
with their full extracted text. Candidates that vanished from the index
between the query and the fetch are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchTextOnly, "text", false, "use text relevance only")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)

	contextCmd.Flags().IntVarP(&contextLimit, "limit", "n", 5, "maximum number of documents")
	contextCmd.Flags().BoolVar(&searchTextOnly, "text", false, "use text relevance only")
	contextCmd.Flags().BoolVar(&searchJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	hits, mode, err := s.Similarity.Search(commandContext(cmd), args[0], searchLimit, !searchTextOnly)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, map[string]any{"mode": mode, "results": hits})
	}
	return outputSearchTable(cmd, hits, mode)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.QueryHit, mode domain.SearchMode) error {
	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "Results (%s):\n\n", mode)
	for i, h := range hits {
		// Format: [N] Name (Score)
		name := h.Name
		if name == "" {
			name = h.ID
		}
		fmt.Fprintf(out, "  [%d] %s (%.4f)\n", i+1, name, h.Score)
		fmt.Fprintf(out, "      Key: %s\n", h.ID)
		if h.LastModified != "" {
			fmt.Fprintf(out, "      Modified: %s\n", h.LastModified)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	docs, mode, err := s.Similarity.Contexts(commandContext(cmd), args[0], contextLimit, !searchTextOnly)
	if err != nil {
		return fmt.Errorf("context retrieval failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, map[string]any{"mode": mode, "documents": docs})
	}

	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}
	fmt.Fprintf(out, "Context (%s):\n", mode)
	for i, d := range docs {
		fmt.Fprintf(out, "\n--- [%d] %s (%s) ---\n", i+1, orNone(d.Name), d.ID)
		fmt.Fprintln(out, d.Content)
	}
	return nil
}
