// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the persisted record set",
	Long: `Query inspects the entity record set built up by ingestion runs.
Use subcommands to list everything, filter by tier, rank by fit score,
or summarize.`,
}

// --- list subcommand ---

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all records, most recently created first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		entities, err := st.ListAll(context.Background())
		if err != nil {
			return err
		}
		return outputEntities(cmd, entities)
	},
}

// --- tier subcommand ---

var queryTierCmd = &cobra.Command{
	Use:   "tier <tier>",
	Short: "List records in one tier, best fit first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		entities, err := st.ListByTier(context.Background(), normalizeTier(args[0]))
		if err != nil {
			return err
		}
		return outputEntities(cmd, entities)
	},
}

// --- top subcommand ---

var queryTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank records by fit score with optional filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetInt("min-score")
		category, _ := cmd.Flags().GetString("category")
		tier, _ := cmd.Flags().GetString("tier")
		if minScore == 0 {
			minScore = loadConfig().Ingest.MinFitScore
		}
		if tier != "" {
			tier = normalizeTier(tier)
		}

		entities, err := st.TopEntities(context.Background(), store.TopOptions{
			Limit:    limit,
			MinScore: minScore,
			Category: category,
			Tier:     tier,
		})
		if err != nil {
			return err
		}
		return outputEntities(cmd, entities)
	},
}

// --- stats subcommand ---

var queryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats(context.Background())
		if err != nil {
			return err
		}

		switch format(cmd) {
		case "json":
			return encodeJSON(stats)
		case "yaml":
			return encodeYAML(stats)
		default:
			fmt.Print(stats.String())
			return nil
		}
	},
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := loadConfig()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.Path = db
	}
	return store.NewStore(cfg.Storage)
}

func format(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("format")
	return strings.ToLower(f)
}

// normalizeTier accepts "1", "tier 1", or "Tier 1" spellings.
func normalizeTier(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "1", "tier 1", "tier1":
		return types.TierOne
	case "2", "tier 2", "tier2":
		return types.TierTwo
	case "3", "tier 3", "tier3":
		return types.TierThree
	}
	return s
}

func outputEntities(cmd *cobra.Command, entities []types.Entity) error {
	switch format(cmd) {
	case "json":
		return encodeJSON(entities)
	case "yaml":
		return encodeYAML(entities)
	}

	if len(entities) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-28s  %-8s  %5s  %-18s  %s\n",
		"Name", "Tier", "Score", "Category", "Website")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))

	for _, e := range entities {
		name := e.Name
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		category := e.Category
		if len(category) > 18 {
			category = category[:15] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-28s  %-8s  %5s  %-18s  %s\n",
			name, tierLabel(e.PrimaryTier), scoreLabel(e.FitScore), category, e.Website)
	}

	fmt.Fprintf(os.Stdout, "\n%d records\n", len(entities))
	return nil
}

func tierLabel(tier string) string {
	switch tier {
	case types.TierOne:
		return color.New(color.FgGreen).Sprintf("%-8s", tier)
	case types.TierTwo:
		return color.New(color.FgYellow).Sprintf("%-8s", tier)
	case types.TierThree:
		return color.New(color.FgCyan).Sprintf("%-8s", tier)
	case "":
		return color.New(color.FgHiBlack).Sprintf("%-8s", "-")
	}
	return fmt.Sprintf("%-8s", tier)
}

func scoreLabel(score int) string {
	c := color.New(color.FgRed)
	switch {
	case score >= 70:
		c = color.New(color.FgGreen)
	case score >= 40:
		c = color.New(color.FgYellow)
	}
	return c.Sprintf("%5d", score)
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	queryCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	queryCmd.PersistentFlags().String("format", "table", "output format: table, json, or yaml")

	// Top flags.
	queryTopCmd.Flags().Int("limit", 10, "maximum records to return")
	queryTopCmd.Flags().Int("min-score", 0, "minimum fit score (0 = config value)")
	queryTopCmd.Flags().String("category", "", "filter by category substring")
	queryTopCmd.Flags().String("tier", "", "filter by primary tier")

	// Wire subcommands.
	queryCmd.AddCommand(queryListCmd)
	queryCmd.AddCommand(queryTierCmd)
	queryCmd.AddCommand(queryTopCmd)
	queryCmd.AddCommand(queryStatsCmd)

	rootCmd.AddCommand(queryCmd)
}
