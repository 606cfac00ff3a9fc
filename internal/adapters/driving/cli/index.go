package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
)

var (
	indexEmbed           bool
	indexBatchSize       int
	indexAttempts        int
	indexSkipUnchanged   bool
	indexContinueOnError bool
	indexJSON            bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Write documents to the search index",
	Long: `Reads documents as JSON objects, one per line, from a file or stdin
("-" or no argument) and writes them to the index in batches.

Each object takes the fields id, originalId, name, source, path, content,
lastModified, views and extra. Documents are merged by key, so re-running
the same input is safe.

Examples:
  docspace index docs.jsonl --embed
  extract-text ./reports | docspace index --batch-size 20 --skip-unchanged`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexEmbed, "embed", false, "compute an embedding for every document with content")
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 10, "documents per write")
	indexCmd.Flags().IntVar(&indexAttempts, "attempts", 1, "submissions per batch before giving up")
	indexCmd.Flags().BoolVar(&indexSkipUnchanged, "skip-unchanged", false, "skip documents unchanged since the last recorded write")
	indexCmd.Flags().BoolVar(&indexContinueOnError, "continue-on-error", false, "keep going after a batch fails")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	docs, err := readDocuments(in)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents to index.")
		return nil
	}

	report, err := s.Ingest.Ingest(commandContext(cmd), docs, driving.IngestOptions{
		BatchSize:       indexBatchSize,
		Attempts:        indexAttempts,
		WithEmbeddings:  indexEmbed,
		SkipUnchanged:   indexSkipUnchanged,
		ContinueOnError: indexContinueOnError,
	})
	if report != nil {
		if indexJSON {
			if perr := printJSON(cmd, reportJSON(report)); perr != nil {
				return perr
			}
		} else {
			printReport(cmd, report)
		}
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("%d batch(es) failed", len(report.Errors))
	}
	return nil
}

// readDocuments decodes a stream of JSON objects.
func readDocuments(r io.Reader) ([]domain.RawDocument, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []domain.RawDocument
	for {
		var doc domain.RawDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}

func printReport(cmd *cobra.Command, r *driving.IngestReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Submitted: %d\n", r.Submitted)
	fmt.Fprintf(out, "Written:   %d\n", r.Written)
	fmt.Fprintf(out, "Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(out, "Failed:    %d\n", r.Failed)
	fmt.Fprintf(out, "Batches:   %d\n", r.Batches)
	for _, err := range r.Errors {
		fmt.Fprintf(out, "  error: %v\n", err)
	}
}

func reportJSON(r *driving.IngestReport) map[string]any {
	errs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		errs[i] = err.Error()
	}
	return map[string]any{
		"submitted": r.Submitted,
		"written":   r.Written,
		"skipped":   r.Skipped,
		"failed":    r.Failed,
		"batches":   r.Batches,
		"errors":    errs,
	}
}
