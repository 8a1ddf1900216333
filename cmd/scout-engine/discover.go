package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scout-engine/internal/discovery"
	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/httputil"
	"github.com/pdiddy/scout-engine/internal/logging"
	"github.com/pdiddy/scout-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Search public sources for candidate entities",
	Long: `Discover fans a query out to the configured search sources (Google custom
search, the product directory, and a keyless HTML fallback), deduplicates
the merged results, and emits a discovery-stage JSON blob that ingest
accepts directly.

Credentials come from .secrets/ (google-api-key, google-search-cx,
producthunt-token) or config; with no credentials the HTML fallback alone
is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Int("max-results", 0, "per-source result cap (0 = config value)")
	discoverCmd.Flags().String("out", "", "write the stage blob to this file instead of stdout")
	discoverCmd.Flags().Bool("table", false, "print a result table instead of the stage blob")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Discovery.MaxResults = n
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	client := httputil.NewClient(cfg.Discovery.HTTPConfig)
	limiter := discovery.NewLimiter(cfg.Discovery.RequestsPerSecond)
	sources := discovery.Sources(cfg.Discovery, client, limiter)
	if len(sources) == 0 {
		return fmt.Errorf("no discovery sources configured: add credentials or enable the HTML fallback")
	}

	query := strings.Join(args, " ")
	results := discovery.SearchAll(cmd.Context(), "", query, sources, cfg.Discovery, events.NewZapSink(log))
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No results.")
		return nil
	}

	if table, _ := cmd.Flags().GetBool("table"); table {
		printDiscoveryTable(results)
		return nil
	}

	text, err := discovery.StageText(results)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d candidates to %s\n", len(results), out)
		return nil
	}
	fmt.Println(text)
	return nil
}

func printDiscoveryTable(results []types.DiscoveryResult) {
	fmt.Fprintf(os.Stdout, "%-30s  %-40s  %s\n", "Name", "URL", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range results {
		name := discovery.CleanTitle(r.Title)
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		url := r.URL
		if len(url) > 40 {
			url = url[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-40s  %s\n", name, url, r.Source)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
}
