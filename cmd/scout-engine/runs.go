package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scout-engine/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded ingestion runs",
}

var runsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent run summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		latest, err := st.LatestRun(context.Background())
		if err != nil {
			return err
		}
		if latest == nil {
			fmt.Println("No runs recorded.")
			return nil
		}

		switch format(cmd) {
		case "json":
			return encodeJSON(latest)
		case "yaml":
			return encodeYAML(latest)
		default:
			printRunTable([]types.RunSummary{*latest})
			return nil
		}
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		switch format(cmd) {
		case "json":
			return encodeJSON(runs)
		case "yaml":
			return encodeYAML(runs)
		default:
			printRunTable(runs)
			return nil
		}
	},
}

func printRunTable(runs []types.RunSummary) {
	fmt.Fprintf(os.Stdout, "%-20s  %-10s  %5s  %5s  %5s  %5s  %8s  %s\n",
		"Run", "Date", "Found", "T1", "T2", "T3", "Seconds", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 84))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-20s  %-10s  %5d  %5d  %5d  %5d  %8.1f  %s\n",
			r.RunID, r.RunDate.Format("2006-01-02"), r.TotalFound,
			r.Tier1Count, r.Tier2Count, r.Tier3Count, r.ProcessingTime, r.Status)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
}

func init() {
	runsCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	runsCmd.PersistentFlags().String("format", "table", "output format: table, json, or yaml")
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list")

	runsCmd.AddCommand(runsLatestCmd)
	runsCmd.AddCommand(runsListCmd)

	rootCmd.AddCommand(runsCmd)
}
