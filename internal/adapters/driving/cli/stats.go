package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsRecentLimit int
	statsStaleLimit  int
	statsDays        int
	statsJSON        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report on the index population",
	RunE:  runStatsCount,
}

var statsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runStatsCount,
}

var statsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently modified documents",
	Args:  cobra.NoArgs,
	RunE:  runStatsRecent,
}

var statsStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List the least recently modified documents",
	Args:  cobra.NoArgs,
	RunE:  runStatsStale,
}

var statsTimeSeriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Print approximate documents per day",
	Long: `Prints per-day document counts for the trailing window, oldest day first.
Counts come from a sample of the most recent documents, so older days may be
under-reported on large indexes.`,
	Args: cobra.NoArgs,
	RunE: runStatsTimeSeries,
}

func init() {
	statsRecentCmd.Flags().IntVarP(&statsRecentLimit, "limit", "n", 20, "number of documents")
	statsStaleCmd.Flags().IntVarP(&statsStaleLimit, "limit", "n", 50, "number of documents")
	statsTimeSeriesCmd.Flags().IntVar(&statsDays, "days", 30, "window length in days")
	statsCmd.PersistentFlags().BoolVar(&statsJSON, "json", false, "output as JSON")

	statsCmd.AddCommand(statsCountCmd)
	statsCmd.AddCommand(statsRecentCmd)
	statsCmd.AddCommand(statsStaleCmd)
	statsCmd.AddCommand(statsTimeSeriesCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStatsCount(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}
	n, err := s.Query.DocumentCount(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, map[string]int64{"count": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d documents\n", n)
	return nil
}

func runStatsRecent(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}
	docs, err := s.Query.RecentDocuments(commandContext(cmd), statsRecentLimit)
	if err != nil {
		return fmt.Errorf("recent failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, docs)
	}
	out := cmd.OutOrStdout()
	for _, d := range docs {
		fmt.Fprintf(out, "%-25s %6d  %s\n", orNone(d.LastModified), d.Views, orNone(d.Name))
	}
	return nil
}

func runStatsStale(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}
	docs, err := s.Query.StaleDocuments(commandContext(cmd), statsStaleLimit)
	if err != nil {
		return fmt.Errorf("stale failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, docs)
	}
	out := cmd.OutOrStdout()
	for _, d := range docs {
		fmt.Fprintf(out, "%-25s %-9s %s\n", orNone(d.LastModified), orNone(d.Source.String()), orNone(d.Path))
	}
	return nil
}

func runStatsTimeSeries(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}
	days, err := s.Query.TimeSeriesCounts(commandContext(cmd), statsDays)
	if err != nil {
		return fmt.Errorf("timeseries failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, days)
	}

	peak := 0
	for _, d := range days {
		peak = max(peak, d.Count)
	}
	out := cmd.OutOrStdout()
	for _, d := range days {
		bar := 0
		if peak > 0 {
			bar = d.Count * 40 / peak
		}
		fmt.Fprintf(out, "%s %5d %s\n", d.Date, d.Count, strings.Repeat("#", bar))
	}
	return nil
}
